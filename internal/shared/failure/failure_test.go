package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrDetection, ErrFetch, ErrToken, ErrParse,
		ErrPluginInstantiation, ErrSecurityViolation, ErrUnknownLang,
	}

	for _, sentinel := range sentinels {
		t.Run(sentinel.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("bing: %w", fmt.Errorf("outer: %w", sentinel))
			assert.True(t, errors.Is(wrapped, sentinel))
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrFetch, ErrParse))
	assert.False(t, errors.Is(ErrToken, ErrDetection))
}
