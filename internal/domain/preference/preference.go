package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const (
	CurrentVersion              = "1.0"
	DefaultMaxTranslationResult = 3
	DefaultPluginRepository     = "https://raw.githubusercontent.com/dicthub/DictHubPluginRepository/prod/index.json"
)

// UserPreference is the persisted preference aggregate.
type UserPreference struct {
	Version              string          `json:"version"`
	PrimaryLang          lang.Lang       `json:"primaryLang"`
	MaxTranslationResult int             `json:"maxTranslationResult"`
	EnabledPlugins       model.PluginSet `json:"enabledPlugins"`
	PluginRepository     []string        `json:"pluginRepository"`
	PluginPriority       []string        `json:"pluginPriority"`
	SendAnalysisInfo     bool            `json:"sendAnalysisInfo"`
	AutoDetectLang       bool            `json:"autoDetectLang"`
	AutoUpdatePlugin     bool            `json:"autoUpdatePlugin"`
}

// Default returns the preference used before anything was saved.
func Default() UserPreference {
	return UserPreference{
		Version:              CurrentVersion,
		PrimaryLang:          lang.EN,
		MaxTranslationResult: DefaultMaxTranslationResult,
		PluginRepository:     []string{DefaultPluginRepository},
		PluginPriority:       []string{},
		AutoDetectLang:       true,
	}
}

// Clone returns a deep copy.
func (p UserPreference) Clone() UserPreference {
	p.EnabledPlugins = p.EnabledPlugins.Clone()
	p.PluginRepository = append([]string(nil), p.PluginRepository...)
	p.PluginPriority = append([]string(nil), p.PluginPriority...)
	return p
}

// OrderedPlugins returns the enabled plugins with prioritised ids first, in
// priority order, followed by the rest in insertion order.
func (p UserPreference) OrderedPlugins() []model.PluginInfo {
	out := make([]model.PluginInfo, 0, p.EnabledPlugins.Len())
	seen := make(map[string]bool, p.EnabledPlugins.Len())
	for _, id := range p.PluginPriority {
		if info, ok := p.EnabledPlugins.Get(id); ok && !seen[id] {
			out = append(out, info)
			seen[id] = true
		}
	}
	for _, info := range p.EnabledPlugins.List() {
		if !seen[info.ID] {
			out = append(out, info)
		}
	}
	return out
}

// wire is the stored shape. Fields are pointers so absent values fall back
// to defaults instead of zero values.
type wire struct {
	Version              string          `json:"version"`
	PrimaryLang          string          `json:"primaryLang"`
	MaxTranslationResult *int            `json:"maxTranslationResult"`
	EnabledPlugins       model.PluginSet `json:"enabledPlugins"`
	PluginRepository     []string        `json:"pluginRepository"`
	PluginPriority       []string        `json:"pluginPriority"`
	SendAnalysisInfo     bool            `json:"sendAnalysisInfo"`
	AutoDetectLang       *bool           `json:"autoDetectLang"`
	AutoUpdatePlugin     bool            `json:"autoUpdatePlugin"`
}

// Decode parses a stored preference, defaulting missing or unusable fields.
func Decode(data []byte) (UserPreference, error) {
	var w wire
	if err := sonic.Unmarshal(data, &w); err != nil {
		return UserPreference{}, fmt.Errorf("decode preference: %w", err)
	}

	p := Default()
	if w.Version != "" {
		p.Version = w.Version
	}
	if l, err := lang.FromCode(w.PrimaryLang); err == nil {
		p.PrimaryLang = l
	}
	if w.MaxTranslationResult != nil {
		p.MaxTranslationResult = *w.MaxTranslationResult
	}
	p.EnabledPlugins = w.EnabledPlugins
	if len(w.PluginRepository) > 0 {
		p.PluginRepository = w.PluginRepository
	}
	if w.PluginPriority != nil {
		p.PluginPriority = w.PluginPriority
	}
	p.SendAnalysisInfo = w.SendAnalysisInfo
	if w.AutoDetectLang != nil {
		p.AutoDetectLang = *w.AutoDetectLang
	}
	p.AutoUpdatePlugin = w.AutoUpdatePlugin
	return p, nil
}

// Preference owns the user's preference and writes the whole aggregate back
// to the store on every mutation.
type Preference struct {
	store  storage.Store
	logger *zap.Logger

	mu   sync.RWMutex
	data UserPreference
}

// Load reads the preference from store, falling back to Default when absent.
// A corrupt record is logged and replaced by defaults in memory.
func Load(ctx context.Context, store storage.Store, logger *zap.Logger) (*Preference, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Preference{store: store, logger: logger, data: Default()}

	raw, err := store.Get(ctx, storage.KeyUserPreference)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("No user preference found")
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("load preference: %w", err)
	}

	data, err := Decode([]byte(raw))
	if err != nil {
		logger.Warn("Stored user preference is unreadable, using defaults", zap.Error(err))
		return p, nil
	}
	p.data = data
	return p, nil
}

// Snapshot returns a deep copy of the current preference.
func (p *Preference) Snapshot() UserPreference {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.Clone()
}

// Update applies fn and persists the result while holding the lock, so stored
// writes happen in mutation order. The in-memory value changes even if the
// write fails.
func (p *Preference) Update(ctx context.Context, fn func(*UserPreference)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn(&p.data)
	raw, err := sonic.Marshal(p.data)
	if err != nil {
		return fmt.Errorf("encode preference: %w", err)
	}

	p.logger.Debug("Storing user preference", zap.Int("bytes", len(raw)))
	if err := p.store.Set(ctx, storage.KeyUserPreference, string(raw)); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

func (p *Preference) PrimaryLang() lang.Lang {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.PrimaryLang
}

func (p *Preference) SetPrimaryLang(ctx context.Context, l lang.Lang) error {
	if !l.Valid() {
		return fmt.Errorf("primary language %q is not supported", l)
	}
	return p.Update(ctx, func(u *UserPreference) { u.PrimaryLang = l })
}

func (p *Preference) MaxTranslationResult() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.MaxTranslationResult
}

func (p *Preference) SetMaxTranslationResult(ctx context.Context, n int) error {
	if n < 1 {
		return fmt.Errorf("max translation result must be positive, got %d", n)
	}
	return p.Update(ctx, func(u *UserPreference) { u.MaxTranslationResult = n })
}

func (p *Preference) EnabledPlugins() model.PluginSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.EnabledPlugins.Clone()
}

func (p *Preference) SetEnabledPlugins(ctx context.Context, set model.PluginSet) error {
	set = set.Clone()
	return p.Update(ctx, func(u *UserPreference) { u.EnabledPlugins = set })
}

// EnablePlugin adds info, replacing an enabled plugin with the same id.
func (p *Preference) EnablePlugin(ctx context.Context, info model.PluginInfo) error {
	if err := utils.ValidatePluginID(info.ID); err != nil {
		return err
	}
	return p.Update(ctx, func(u *UserPreference) {
		set := u.EnabledPlugins.Clone()
		set.Put(info)
		u.EnabledPlugins = set
	})
}

// DisablePlugin removes the plugin with id; it is a no-op write when absent.
func (p *Preference) DisablePlugin(ctx context.Context, id string) error {
	return p.Update(ctx, func(u *UserPreference) {
		set := u.EnabledPlugins.Clone()
		set.Remove(id)
		u.EnabledPlugins = set
	})
}

func (p *Preference) PluginRepository() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.data.PluginRepository...)
}

// SetPluginRepository replaces the repository list; an empty list restores the default.
func (p *Preference) SetPluginRepository(ctx context.Context, urls []string) error {
	for _, u := range urls {
		if err := utils.ValidateRepositoryURL(u); err != nil {
			return err
		}
	}
	if len(urls) == 0 {
		urls = []string{DefaultPluginRepository}
	}
	urls = append([]string(nil), urls...)
	return p.Update(ctx, func(u *UserPreference) { u.PluginRepository = urls })
}

func (p *Preference) PluginPriority() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.data.PluginPriority...)
}

func (p *Preference) SetPluginPriority(ctx context.Context, ids []string) error {
	ids = append([]string{}, ids...)
	return p.Update(ctx, func(u *UserPreference) { u.PluginPriority = ids })
}

func (p *Preference) SendAnalysisInfo() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.SendAnalysisInfo
}

func (p *Preference) SetSendAnalysisInfo(ctx context.Context, v bool) error {
	return p.Update(ctx, func(u *UserPreference) { u.SendAnalysisInfo = v })
}

func (p *Preference) AutoDetectLang() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.AutoDetectLang
}

func (p *Preference) SetAutoDetectLang(ctx context.Context, v bool) error {
	return p.Update(ctx, func(u *UserPreference) { u.AutoDetectLang = v })
}

func (p *Preference) AutoUpdatePlugin() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data.AutoUpdatePlugin
}

func (p *Preference) SetAutoUpdatePlugin(ctx context.Context, v bool) error {
	return p.Update(ctx, func(u *UserPreference) { u.AutoUpdatePlugin = v })
}
