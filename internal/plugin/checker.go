package plugin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// Catalog loads the current plugin catalog.
type Catalog interface {
	Load(ctx context.Context, repositories []string) ([]model.PluginInfo, error)
}

// PreferenceSource exposes the preference fields the checker reads.
type PreferenceSource interface {
	EnabledPlugins() model.PluginSet
	PluginRepository() []string
}

// UpdateResult lists catalog entries worth telling the user about.
type UpdateResult struct {
	NewPlugins        []model.PluginInfo `json:"newPlugins"`
	UpgradablePlugins []model.PluginInfo `json:"upgradablePlugins"`
}

// UpdateChecker compares the catalog against the ids seen last time and the
// versions currently enabled. The check cadence is the caller's business.
type UpdateChecker struct {
	catalog Catalog
	store   storage.Store
	pref    PreferenceSource
	logger  *zap.Logger
	now     func() time.Time
}

func NewUpdateChecker(catalog Catalog, store storage.Store, pref PreferenceSource, logger *zap.Logger) *UpdateChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UpdateChecker{
		catalog: catalog,
		store:   store,
		pref:    pref,
		logger:  logger,
		now:     time.Now,
	}
}

// Check loads the catalog and reports new and upgradable plugins. Without a
// previously stored id list every catalog entry counts as new. The current id
// list and check time are stored on every successful catalog load.
func (u *UpdateChecker) Check(ctx context.Context) (UpdateResult, error) {
	latest, err := u.catalog.Load(ctx, u.pref.PluginRepository())
	if err != nil {
		return UpdateResult{}, fmt.Errorf("check plugin updates: %w", err)
	}

	known, hasKnown, err := u.lastAvailable(ctx)
	if err != nil {
		return UpdateResult{}, err
	}

	enabled := u.pref.EnabledPlugins()
	result := UpdateResult{
		NewPlugins:        []model.PluginInfo{},
		UpgradablePlugins: []model.PluginInfo{},
	}
	ids := make([]string, 0, len(latest))
	for _, info := range latest {
		ids = append(ids, info.ID)
		if !hasKnown || !known[info.ID] {
			result.NewPlugins = append(result.NewPlugins, info)
		}
		if current, ok := enabled.Get(info.ID); ok && current.Version != info.Version {
			result.UpgradablePlugins = append(result.UpgradablePlugins, info)
		}
	}

	if err := u.store.Set(ctx, storage.KeyLastAvailablePlugins, strings.Join(ids, ",")); err != nil {
		u.logger.Warn("Failed to store available plugins", zap.Error(err))
	}
	if err := writeMillis(ctx, u.store, storage.KeyLastCheckTime, u.now()); err != nil {
		u.logger.Warn("Failed to store plugin check time", zap.Error(err))
	}

	u.logger.Info("Checked plugin updates",
		zap.Int("catalog", len(latest)),
		zap.Int("new", len(result.NewPlugins)),
		zap.Int("upgradable", len(result.UpgradablePlugins)))
	return result, nil
}

// LastCheckTime returns when Check last ran, or the zero time.
func (u *UpdateChecker) LastCheckTime(ctx context.Context) (time.Time, error) {
	return readMillis(ctx, u.store, storage.KeyLastCheckTime)
}

func (u *UpdateChecker) lastAvailable(ctx context.Context) (map[string]bool, bool, error) {
	raw, err := u.store.Get(ctx, storage.KeyLastAvailablePlugins)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read available plugins: %w", err)
	}

	known := make(map[string]bool)
	for _, id := range strings.Split(raw, ",") {
		known[id] = true
	}
	return known, true, nil
}

func readMillis(ctx context.Context, store storage.Store, key string) (time.Time, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms), nil
}

func writeMillis(ctx context.Context, store storage.Store, key string, t time.Time) error {
	return store.Set(ctx, key, strconv.FormatInt(t.UnixMilli(), 10))
}

// Due reports whether a periodic check last run at last should run again.
func Due(last time.Time, interval time.Duration, now time.Time) bool {
	return last.IsZero() || now.Sub(last) >= interval
}
