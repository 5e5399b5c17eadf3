package host

import (
	"context"
	"strings"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/plugin"
	"go.uber.org/zap"
)

const DefaultCheckInterval = 24 * time.Hour

// UpdatePreference is what the background checks read and edit.
type UpdatePreference interface {
	plugin.Enabler
	AutoUpdatePlugin() bool
}

// Background runs the extension version check and the plugin update check,
// each at most once per interval. Failures are logged and retried on the
// next due check.
type Background struct {
	Versions  *plugin.VersionChecker
	Updates   *plugin.UpdateChecker
	Manager   *plugin.Manager
	Pref      UpdatePreference
	Notifier  Notifier
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
	Interval  time.Duration
	Extension time.Duration

	now func() time.Time
}

func (b *Background) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

func (b *Background) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}

func (b *Background) notify(ctx context.Context, n Notification) {
	if b.Notifier != nil {
		b.Notifier.Notify(ctx, n)
	}
}

func interval(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultCheckInterval
	}
	return d
}

// RunOnce performs whichever checks are due.
func (b *Background) RunOnce(ctx context.Context) {
	if b.Versions != nil {
		b.checkExtension(ctx)
	}
	if b.Updates != nil {
		b.checkPlugins(ctx)
	}
}

// Run calls RunOnce immediately and then every tick until ctx is done.
func (b *Background) Run(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Hour
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	b.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			b.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Background) checkExtension(ctx context.Context) {
	last, err := b.Versions.LastCheckTime(ctx)
	if err != nil {
		b.logger().Warn("Failed to read extension check time", zap.Error(err))
		return
	}
	if !plugin.Due(last, interval(b.Extension), b.clock()) {
		b.logger().Debug("Ignore check extension version", zap.Time("last_check", last))
		return
	}

	status, err := b.Versions.Check(ctx)
	if b.Metrics != nil {
		b.Metrics.RecordUpdateCheck("extension", err)
	}
	if err != nil {
		b.logger().Warn("Failed to check extension version", zap.Error(err))
		return
	}
	b.logger().Info("Extension versions",
		zap.String("published", status.Published),
		zap.String("current", status.Current))
	if status.HasNew {
		b.notify(ctx, Notification{
			Title:   "DictHub " + status.Published + " available",
			Message: "A new version of DictHub has been published.",
			URL:     status.ExtensionURL,
		})
	}
}

func (b *Background) checkPlugins(ctx context.Context) {
	last, err := b.Updates.LastCheckTime(ctx)
	if err != nil {
		b.logger().Warn("Failed to read plugin check time", zap.Error(err))
		return
	}
	if !plugin.Due(last, interval(b.Interval), b.clock()) {
		b.logger().Debug("Ignore check plugin version", zap.Time("last_check", last))
		return
	}

	result, err := b.Updates.Check(ctx)
	if b.Metrics != nil {
		b.Metrics.RecordUpdateCheck("plugins", err)
	}
	if err != nil {
		b.logger().Warn("Failed to check plugin updates", zap.Error(err))
		return
	}

	if len(result.UpgradablePlugins) > 0 {
		b.handleUpgradable(ctx, result.UpgradablePlugins)
	}
	if len(result.NewPlugins) > 0 {
		b.notify(ctx, Notification{Title: "New plugins available", Message: names(result.NewPlugins)})
	}
}

func (b *Background) handleUpgradable(ctx context.Context, infos []model.PluginInfo) {
	if b.Manager == nil || b.Pref == nil || !b.Pref.AutoUpdatePlugin() {
		b.notify(ctx, Notification{Title: "Plugin updates available", Message: names(infos)})
		return
	}

	upgraded, err := b.Manager.Upgrade(ctx, b.Pref, infos)
	if err != nil {
		b.logger().Warn("Some plugins failed to update", zap.Strings("upgraded", upgraded), zap.Error(err))
		b.notify(ctx, Notification{Title: "Plugin updates available", Message: names(infos)})
		return
	}
	b.notify(ctx, Notification{Title: "Plugins updated", Message: names(infos)})
}

func names(infos []model.PluginInfo) string {
	out := make([]string, len(infos))
	for n, info := range infos {
		out[n] = info.Name
		if out[n] == "" {
			out[n] = info.ID
		}
	}
	return strings.Join(out, "\n")
}
