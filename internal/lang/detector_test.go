package lang

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDetector struct {
	name  string
	lang  Lang
	err   error
	delay time.Duration
}

func (s stubDetector) Name() string { return s.name }

func (s stubDetector) DetectLanguage(ctx context.Context, _ string) (Lang, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.lang, s.err
}

func TestCompositeFirstSuccessWins(t *testing.T) {
	errA := errors.New("a failed")
	errC := errors.New("c failed")

	tests := []struct {
		name      string
		detectors []Detector
		want      Lang
	}{
		{
			name: "only middle succeeds",
			detectors: []Detector{
				stubDetector{name: "a", err: errA},
				stubDetector{name: "b", lang: ES, delay: 20 * time.Millisecond},
				stubDetector{name: "c", err: errC, delay: 5 * time.Millisecond},
			},
			want: ES,
		},
		{
			name: "success before slow failures",
			detectors: []Detector{
				stubDetector{name: "a", err: errA, delay: 50 * time.Millisecond},
				stubDetector{name: "b", lang: DE},
			},
			want: DE,
		},
		{
			name: "faster success wins",
			detectors: []Detector{
				stubDetector{name: "slow", lang: FR, delay: time.Second},
				stubDetector{name: "fast", lang: IT},
			},
			want: IT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			got, err := NewComposite(tt.detectors).DetectLanguage(context.Background(), "text")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}

func TestCompositeAllFail(t *testing.T) {
	first := errors.New("first")
	composite := NewComposite([]Detector{
		stubDetector{name: "a", err: first},
		stubDetector{name: "b", err: errors.New("second"), delay: 10 * time.Millisecond},
	})

	_, err := composite.DetectLanguage(context.Background(), "text")
	assert.ErrorIs(t, err, failure.ErrDetection)
	assert.ErrorIs(t, err, first)
}

func TestCompositeEmpty(t *testing.T) {
	_, err := NewComposite(nil).DetectLanguage(context.Background(), "text")
	assert.ErrorIs(t, err, failure.ErrDetection)
}

func TestCompositeContextCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewComposite([]Detector{stubDetector{name: "slow", lang: EN, delay: time.Second}}).DetectLanguage(ctx, "x")
	assert.ErrorIs(t, err, failure.ErrDetection)
}

func TestCompositeRecordsMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	composite := NewComposite([]Detector{
		stubDetector{name: "a", err: errors.New("x")},
		stubDetector{name: "b", err: errors.New("y")},
	}, WithMetrics(metrics))

	_, _ = composite.DetectLanguage(context.Background(), "text")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Detections.WithLabelValues("a", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Detections.WithLabelValues("b", "error")))
}

func TestNull(t *testing.T) {
	_, err := Null{}.DetectLanguage(context.Background(), "hola")
	assert.ErrorIs(t, err, failure.ErrDetection)
	assert.Equal(t, "null", Null{}.Name())
}
