package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/bytedance/sonic"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// ContentStore caches plugin sources by id.
type ContentStore struct {
	store  storage.Store
	client Fetcher
	logger *zap.Logger
}

// NewContentStore creates a content store.
func NewContentStore(store storage.Store, client Fetcher, logger *zap.Logger) *ContentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContentStore{store: store, client: client, logger: logger}
}

// Load returns the cached content for ids in the given order. Ids without a
// cached entry, or with an unreadable one, are left out.
func (c *ContentStore) Load(ctx context.Context, ids []string) ([]model.PluginContent, error) {
	keys := make([]string, len(ids))
	for n, id := range ids {
		keys[n] = storage.PluginContentKey(id)
	}

	raw, err := c.store.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load plugin contents: %w", err)
	}

	out := make([]model.PluginContent, 0, len(raw))
	for n, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var pc model.PluginContent
		if err := sonic.UnmarshalString(v, &pc); err != nil {
			c.logger.Warn("Cached plugin content is unreadable", zap.String("plugin_id", ids[n]), zap.Error(err))
			continue
		}
		out = append(out, pc)
	}
	return out, nil
}

// Version returns the cached version for id, or "" when nothing is cached.
func (c *ContentStore) Version(ctx context.Context, id string) (string, error) {
	v, err := c.store.Get(ctx, storage.PluginContentKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var pc model.PluginContent
	if err := sonic.UnmarshalString(v, &pc); err != nil {
		return "", nil
	}
	return pc.Version, nil
}

// Update downloads info.ContentURL unless the cached version already equals
// info.Version. It returns nil when there was nothing to do and a pointer to
// true after a fresh download was persisted. Concurrent updates of the same
// id race on the store; the last write wins.
func (c *ContentStore) Update(ctx context.Context, info model.PluginInfo) (*bool, error) {
	cached, err := c.Version(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("read cached version of %s: %w", info.ID, err)
	}
	if cached != "" && cached == info.Version {
		return nil, nil
	}

	resp, err := c.client.Get(ctx, info.ContentURL)
	if err != nil {
		return nil, err
	}
	if !isText(resp.Body) {
		return nil, fmt.Errorf("%w: plugin %s content is %s, not text", failure.ErrParse, info.ID, mimetype.Detect(resp.Body))
	}

	data, err := sonic.MarshalString(model.PluginContent{
		ID:      info.ID,
		Version: info.Version,
		Content: resp.Text(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode plugin content: %w", err)
	}
	if err := c.store.Set(ctx, storage.PluginContentKey(info.ID), data); err != nil {
		return nil, fmt.Errorf("save plugin %s: %w", info.ID, err)
	}

	c.logger.Info("Saved plugin", zap.String("plugin_id", info.ID), zap.String("version", info.Version))
	updated := true
	return &updated, nil
}

// isText reports whether the sniffed type descends from text/plain.
func isText(body []byte) bool {
	for m := mimetype.Detect(body); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
