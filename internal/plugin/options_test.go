package plugin

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsSaveValueKeepsOthers(t *testing.T) {
	ctx := context.Background()
	opts := NewOptionsStore(storage.NewMemory(), nil)

	require.NoError(t, opts.Save(ctx, "p1", model.PluginOptions{"apiKey": "k1", "region": "eu"}))
	require.NoError(t, opts.SaveValue(ctx, "p1", "apiKey", "k2"))
	require.NoError(t, opts.SaveValue(ctx, "p2", "mode", "fast"))

	got, err := opts.Load(ctx, []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Equal(t, model.PluginOptions{"apiKey": "k2", "region": "eu"}, got["p1"])
	assert.Equal(t, model.PluginOptions{"mode": "fast"}, got["p2"])
	assert.NotContains(t, got, "p3")
}

func TestOptionsSaveValueValidation(t *testing.T) {
	opts := NewOptionsStore(storage.NewMemory(), nil)

	tests := []struct {
		name   string
		id     string
		option string
	}{
		{name: "bad id", id: "p 1", option: "key"},
		{name: "path option", id: "p1", option: "a.b"},
		{name: "empty option", id: "p1", option: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, opts.SaveValue(context.Background(), tt.id, tt.option, "v"))
		})
	}
}
