package plugin

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the subset of httpclient.Client the plugin components use.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*httpclient.Response, error)
}

// Index loads and merges plugin manifests from repositories.
type Index struct {
	client Fetcher
	logger *zap.Logger
}

// NewIndex creates an index reading repositories through client.
func NewIndex(client Fetcher, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{client: client, logger: logger}
}

// Load fetches every repository in parallel. All fetches must succeed.
// The lists are concatenated, reversed and de-duplicated by id keeping the
// first occurrence, so a later repository overrides an earlier one.
func (i *Index) Load(ctx context.Context, repositories []string) ([]model.PluginInfo, error) {
	lists := make([][]model.PluginInfo, len(repositories))

	g, ctx := errgroup.WithContext(ctx)
	for n, repo := range repositories {
		g.Go(func() error {
			list, err := i.fetch(ctx, repo)
			if err != nil {
				return fmt.Errorf("load repository %s: %w", repo, err)
			}
			lists[n] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return merge(lists), nil
}

func (i *Index) fetch(ctx context.Context, repo string) ([]model.PluginInfo, error) {
	resp, err := i.client.Get(ctx, repo)
	if err != nil {
		return nil, err
	}

	var entries []model.PluginInfo
	if err := sonic.Unmarshal(resp.Body, &entries); err != nil {
		return nil, fmt.Errorf("%w: repository index: %v", failure.ErrParse, err)
	}

	valid := entries[:0]
	for _, e := range entries {
		if err := utils.ValidatePluginID(e.ID); err != nil {
			i.logger.Warn("Skipping manifest entry", zap.String("repository", repo), zap.Error(err))
			continue
		}
		valid = append(valid, e)
	}
	i.logger.Debug("Loaded plugin repository", zap.String("repository", repo), zap.Int("plugins", len(valid)))
	return valid, nil
}

func merge(lists [][]model.PluginInfo) []model.PluginInfo {
	var all []model.PluginInfo
	for _, l := range lists {
		all = append(all, l...)
	}

	out := make([]model.PluginInfo, 0, len(all))
	seen := make(map[string]bool, len(all))
	for n := len(all) - 1; n >= 0; n-- {
		if seen[all[n].ID] {
			continue
		}
		seen[all[n].ID] = true
		out = append(out, all[n])
	}
	return out
}
