package lang

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"go.uber.org/zap"
)

// Detector classifies the language of a piece of text.
type Detector interface {
	Name() string
	// DetectLanguage returns the language of text or an error wrapping failure.ErrDetection.
	DetectLanguage(ctx context.Context, text string) (Lang, error)
}

// Null is used when automatic detection is switched off; it always fails.
type Null struct{}

func (Null) Name() string { return "null" }

func (Null) DetectLanguage(context.Context, string) (Lang, error) {
	return "", fmt.Errorf("%w: auto detection disabled", failure.ErrDetection)
}

// Composite races its detectors and returns the first success.
type Composite struct {
	detectors []Detector
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// CompositeOption configures a Composite.
type CompositeOption func(*Composite)

// WithLogger sets the logger used for per-detector failures.
func WithLogger(logger *zap.Logger) CompositeOption {
	return func(c *Composite) {
		c.logger = logger
	}
}

// WithMetrics records every detector attempt.
func WithMetrics(metrics *monitoring.Metrics) CompositeOption {
	return func(c *Composite) {
		c.metrics = metrics
	}
}

// NewComposite creates a detector racing detectors.
func NewComposite(detectors []Detector, opts ...CompositeOption) *Composite {
	c := &Composite{
		detectors: detectors,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Composite) Name() string { return "composite" }

type outcome struct {
	lang Lang
	err  error
}

// DetectLanguage starts every detector at once. The first success wins and
// stragglers are left to finish on their own; they see a cancelled context.
// It fails only when all detectors fail, returning the first failure.
func (c *Composite) DetectLanguage(ctx context.Context, text string) (Lang, error) {
	if len(c.detectors) == 0 {
		return "", fmt.Errorf("%w: no detectors configured", failure.ErrDetection)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so losers never block after we return.
	results := make(chan outcome, len(c.detectors))
	for _, d := range c.detectors {
		go func(d Detector) {
			l, err := d.DetectLanguage(ctx, text)
			if c.metrics != nil {
				c.metrics.RecordDetection(d.Name(), err)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Warn("Failure in lang detection",
					zap.String("detector", d.Name()),
					zap.Error(err))
			}
			results <- outcome{lang: l, err: err}
		}(d)
	}

	var first error
	for range c.detectors {
		select {
		case r := <-results:
			if r.err == nil {
				return r.lang, nil
			}
			if first == nil {
				first = r.err
			}
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", failure.ErrDetection, ctx.Err())
		}
	}

	if errors.Is(first, failure.ErrDetection) {
		return "", first
	}
	return "", fmt.Errorf("%w: %w", failure.ErrDetection, first)
}
