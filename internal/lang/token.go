package lang

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"go.uber.org/zap"
)

// HTTPClient is the subset of httpclient.Client the detectors use.
type HTTPClient interface {
	Get(ctx context.Context, rawURL string) (*httpclient.Response, error)
	PostForm(ctx context.Context, rawURL, body string) (*httpclient.Response, error)
}

// tokenFlow implements the cached-token-then-fresh-token strategy shared by
// the scraping detectors: one attempt with the stored token, and on any
// failure exactly one retry with a freshly scraped token.
type tokenFlow struct {
	name   string
	key    string
	store  storage.Store
	logger *zap.Logger
	scrape func(ctx context.Context) (string, error)
	detect func(ctx context.Context, token, text string) (Lang, error)
}

func (f *tokenFlow) run(ctx context.Context, text string) (Lang, error) {
	if text == "" {
		return "", fmt.Errorf("%w: empty text", failure.ErrDetection)
	}

	token, err := f.store.Get(ctx, f.key)
	if err == nil && token != "" {
		f.logger.Debug("Detect language using cached token", zap.String("detector", f.name))
		l, err := f.detect(ctx, token, text)
		if err == nil {
			return l, nil
		}
		f.logger.Debug("Cached token rejected", zap.String("detector", f.name), zap.Error(err))
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		f.logger.Warn("Failed to read cached token", zap.String("detector", f.name), zap.Error(err))
	}
	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %s: %w", failure.ErrDetection, f.name, ctx.Err())
	}

	token, err = f.scrape(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", failure.ErrDetection, f.name, err)
	}
	if err := f.store.Set(ctx, f.key, token); err != nil {
		f.logger.Warn("Failed to cache token", zap.String("detector", f.name), zap.Error(err))
	}
	f.logger.Debug("Detect language using new token", zap.String("detector", f.name))

	l, err := f.detect(ctx, token, text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", failure.ErrDetection, f.name, err)
	}
	return l, nil
}
