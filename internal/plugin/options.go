package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/bytedance/sonic"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// OptionsStore persists user option values per plugin.
type OptionsStore struct {
	store  storage.Store
	logger *zap.Logger
}

func NewOptionsStore(store storage.Store, logger *zap.Logger) *OptionsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptionsStore{store: store, logger: logger}
}

// Load returns stored options keyed by plugin id. Ids without stored options
// are omitted.
func (o *OptionsStore) Load(ctx context.Context, ids []string) (map[string]model.PluginOptions, error) {
	keys := make([]string, len(ids))
	for n, id := range ids {
		keys[n] = storage.PluginOptionsKey(id)
	}

	raw, err := o.store.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load plugin options: %w", err)
	}

	out := make(map[string]model.PluginOptions, len(raw))
	for n, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var opts model.PluginOptions
		if err := sonic.UnmarshalString(v, &opts); err != nil {
			o.logger.Warn("Stored plugin options are unreadable", zap.String("plugin_id", ids[n]), zap.Error(err))
			continue
		}
		out[ids[n]] = opts
	}
	return out, nil
}

// SaveValue sets one option value, keeping the others.
func (o *OptionsStore) SaveValue(ctx context.Context, id, name, value string) error {
	if err := utils.ValidatePluginID(id); err != nil {
		return err
	}
	if err := utils.ValidateOptionName(name); err != nil {
		return err
	}

	key := storage.PluginOptionsKey(id)
	current, err := o.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || current == "" {
		current = "{}"
	} else if err != nil {
		return fmt.Errorf("read options of %s: %w", id, err)
	}

	patched, err := sjson.Set(current, name, value)
	if err != nil {
		return fmt.Errorf("patch options of %s: %w", id, err)
	}
	if err := o.store.Set(ctx, key, patched); err != nil {
		return fmt.Errorf("save options of %s: %w", id, err)
	}

	o.logger.Info("Stored option value", zap.String("plugin_id", id), zap.String("option", name))
	return nil
}

// Save replaces all option values of a plugin.
func (o *OptionsStore) Save(ctx context.Context, id string, opts model.PluginOptions) error {
	if opts == nil {
		opts = model.PluginOptions{}
	}
	data, err := sonic.MarshalString(opts)
	if err != nil {
		return fmt.Errorf("encode options of %s: %w", id, err)
	}
	return o.store.Set(ctx, storage.PluginOptionsKey(id), data)
}
