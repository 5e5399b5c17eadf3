package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"go.uber.org/zap"
)

// ErrNotInCatalog is returned when an id is missing from every repository.
var ErrNotInCatalog = errors.New("plugin not found in any repository")

// Enabler is the preference surface the manager edits.
type Enabler interface {
	PreferenceSource
	EnablePlugin(ctx context.Context, info model.PluginInfo) error
	DisablePlugin(ctx context.Context, id string) error
}

// Manager ties the catalog, the content cache and option storage together
// for enable, disable and upgrade flows.
type Manager struct {
	catalog Catalog
	content *ContentStore
	options *OptionsStore
	logger  *zap.Logger
}

func NewManager(catalog Catalog, content *ContentStore, options *OptionsStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{catalog: catalog, content: content, options: options, logger: logger}
}

// Catalog returns the merged catalog of the preference's repositories.
func (m *Manager) Catalog(ctx context.Context, pref PreferenceSource) ([]model.PluginInfo, error) {
	return m.catalog.Load(ctx, pref.PluginRepository())
}

// Enable downloads the plugin's content, seeds its default options when
// none are stored and adds it to the enabled set.
func (m *Manager) Enable(ctx context.Context, pref Enabler, id string) (model.PluginInfo, error) {
	infos, err := m.Catalog(ctx, pref)
	if err != nil {
		return model.PluginInfo{}, err
	}

	var info model.PluginInfo
	found := false
	for _, candidate := range infos {
		if candidate.ID == id {
			info, found = candidate, true
			break
		}
	}
	if !found {
		return model.PluginInfo{}, fmt.Errorf("%w: %s", ErrNotInCatalog, id)
	}

	if err := m.Install(ctx, info); err != nil {
		return model.PluginInfo{}, err
	}
	if err := pref.EnablePlugin(ctx, info); err != nil {
		return model.PluginInfo{}, fmt.Errorf("enable %s: %w", id, err)
	}
	m.logger.Info("Enabled plugin", zap.String("plugin_id", id), zap.String("version", info.Version))
	return info, nil
}

// Install caches info's content and seeds default options.
func (m *Manager) Install(ctx context.Context, info model.PluginInfo) error {
	if _, err := m.content.Update(ctx, info); err != nil {
		return fmt.Errorf("install %s: %w", info.ID, err)
	}

	stored, err := m.options.Load(ctx, []string{info.ID})
	if err != nil {
		return err
	}
	if _, ok := stored[info.ID]; !ok {
		if err := m.options.Save(ctx, info.ID, info.DefaultOptions()); err != nil {
			return fmt.Errorf("seed options of %s: %w", info.ID, err)
		}
	}
	return nil
}

// Disable removes id from the enabled set. Cached content stays.
func (m *Manager) Disable(ctx context.Context, pref Enabler, id string) error {
	if err := pref.DisablePlugin(ctx, id); err != nil {
		return fmt.Errorf("disable %s: %w", id, err)
	}
	m.logger.Info("Disabled plugin", zap.String("plugin_id", id))
	return nil
}

// Upgrade installs each plugin and records the new manifest in the enabled
// set. It continues past failures and returns the ids that were upgraded
// together with the joined errors.
func (m *Manager) Upgrade(ctx context.Context, pref Enabler, infos []model.PluginInfo) ([]string, error) {
	var (
		upgraded []string
		errs     []error
	)
	for _, info := range infos {
		if err := m.Install(ctx, info); err != nil {
			m.logger.Warn("Failed to upgrade plugin", zap.String("plugin_id", info.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if err := pref.EnablePlugin(ctx, info); err != nil {
			errs = append(errs, fmt.Errorf("record upgrade of %s: %w", info.ID, err))
			continue
		}
		upgraded = append(upgraded, info.ID)
	}
	return upgraded, errors.Join(errs...)
}

// Options exposes the option store.
func (m *Manager) Options() *OptionsStore { return m.options }

// Contents exposes the content store.
func (m *Manager) Contents() *ContentStore { return m.content }
