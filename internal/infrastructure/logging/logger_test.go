package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "development", cfg: DevelopmentConfig()},
		{name: "empty outputs", cfg: Config{Level: "warn"}},
		{name: "bad level", cfg: Config{Level: "loud"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger.Logger)
		})
	}
}

func TestComponent(t *testing.T) {
	logger := NewNop()
	child := logger.Component("sandbox")
	assert.NotNil(t, child)
	child.Info("discarded")
}

func TestIsProduction(t *testing.T) {
	t.Setenv("DICTHUB_ENV", "production")
	assert.True(t, IsProduction())

	t.Setenv("DICTHUB_ENV", "dev")
	assert.False(t, IsProduction())
}
