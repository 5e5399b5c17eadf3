package app

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/host"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/config"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/plugin"
	"github.com/GriffinCanCode/dicthub/internal/sandbox"
	"github.com/GriffinCanCode/dicthub/internal/shared/id"
	"go.uber.org/zap"
)

// App holds the long-lived components shared by every session.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Metrics    *monitoring.Metrics
	Store      storage.Store
	HTTP       *httpclient.Client
	Preference *preference.Preference
	Index      *plugin.Index
	Contents   *plugin.ContentStore
	Options    *plugin.OptionsStore
	Manager    *plugin.Manager
	Updates    *plugin.UpdateChecker
	Versions   *plugin.VersionChecker
	Detector   lang.Detector
	Background *host.Background
}

// New opens the store and builds every component from cfg.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	metrics := monitoring.NewMetrics()

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	client := httpclient.FromConfig(cfg.HTTP, metrics, logger.Component("http"))

	pref, err := preference.Load(ctx, store, logger.Component("preference"))
	if err != nil {
		store.Close()
		return nil, err
	}

	detector := newDetector(client, store, logger, metrics)

	pluginLog := logger.Component("plugin")
	index := plugin.NewIndex(client, pluginLog)
	contents := plugin.NewContentStore(store, client, pluginLog)
	options := plugin.NewOptionsStore(store, pluginLog)
	manager := plugin.NewManager(index, contents, options, pluginLog)
	updates := plugin.NewUpdateChecker(index, store, pref, pluginLog)
	versions := plugin.NewVersionChecker(client, store, pluginLog, cfg.Host.Channel, cfg.Host.Version)

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Store:      store,
		HTTP:       client,
		Preference: pref,
		Index:      index,
		Contents:   contents,
		Options:    options,
		Manager:    manager,
		Updates:    updates,
		Versions:   versions,
		Detector:   detector,
	}
	a.Background = &host.Background{
		Versions:  versions,
		Updates:   updates,
		Manager:   manager,
		Pref:      pref,
		Notifier:  host.LogNotifier{Logger: logger.Component("notify")},
		Logger:    logger.Component("background"),
		Metrics:   metrics,
		Interval:  cfg.Host.PluginCheckInterval.Duration,
		Extension: cfg.Host.ExtensionCheckInterval.Duration,
	}

	logger.Info("DictHub initialized",
		zap.String("storage", cfg.Storage.Driver),
		zap.Int("enabled_plugins", pref.EnabledPlugins().Len()),
		zap.String("version", cfg.Host.Version))
	return a, nil
}

// newDetector races Bing against Google. A Google setup failure leaves Bing
// on its own.
func newDetector(client *httpclient.Client, store storage.Store, logger *logging.Logger, metrics *monitoring.Metrics) lang.Detector {
	detectLog := logger.Component("lang")
	detectors := []lang.Detector{lang.NewBing(client, store, detectLog, "")}

	google, err := lang.NewGoogle(client, store, detectLog, "")
	if err != nil {
		detectLog.Warn("Google detector unavailable", zap.Error(err))
	} else {
		detectors = append(detectors, google)
	}

	return lang.NewComposite(detectors, lang.WithLogger(detectLog), lang.WithMetrics(metrics))
}

// NewSession builds a host and sandbox pair sharing the app's stores.
func (a *App) NewSession() *host.Session {
	sessionID := id.NewSessionID()
	log := a.Logger.With(zap.String("session_id", sessionID.String()))

	return host.NewSession(host.Options{
		Preference:   a.Preference,
		Contents:     a.Contents,
		Options:      a.Options,
		Detector:     a.Detector,
		Reporter:     host.LogReporter{Logger: log.Named("report")},
		Logger:       log.Named("host"),
		Metrics:      a.Metrics,
		DiscardStale: a.Config.Host.DiscardStaleResults,
	},
		sandbox.WithConfig(sandbox.ConfigFrom(a.Config.Sandbox)),
		sandbox.WithLogger(log.Named("sandbox")),
		sandbox.WithMetrics(a.Metrics),
		sandbox.WithHTTP(a.HTTP),
	)
}

// Close releases the store and flushes the logger.
func (a *App) Close() error {
	err := a.Store.Close()
	_ = a.Logger.Sync()
	return err
}
