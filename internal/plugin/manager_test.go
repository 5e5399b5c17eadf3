package plugin

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManagerForTest(f *fakeFetcher) *Manager {
	store := storage.NewMemory()
	return NewManager(NewIndex(f, nil), NewContentStore(store, f, nil), NewOptionsStore(store, nil), nil)
}

func TestManagerEnable(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.serve(repoA, `[{"id":"p1","version":"1","contentUrl":"https://a.test/p1.js",
		"options":{"apiKey":{"type":"string","default":"demo"}}}]`)
	f.serve("https://a.test/p1.js", p1Source)
	m := newManagerForTest(f)
	pref := &fakePreference{repos: []string{repoA}}

	info, err := m.Enable(ctx, pref, "p1")
	require.NoError(t, err)
	assert.Equal(t, "1", info.Version)
	assert.True(t, pref.enabled.Contains("p1"))

	opts, err := m.Options().Load(ctx, []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, model.PluginOptions{"apiKey": "demo"}, opts["p1"])

	contents, err := m.Contents().Load(ctx, []string{"p1"})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, p1Source, contents[0].Content)

	require.NoError(t, m.Disable(ctx, pref, "p1"))
	assert.False(t, pref.enabled.Contains("p1"))
}

func TestManagerEnableUnknown(t *testing.T) {
	f := newFakeFetcher()
	f.serve(repoA, `[]`)
	m := newManagerForTest(f)

	_, err := m.Enable(context.Background(), &fakePreference{repos: []string{repoA}}, "p9")
	assert.ErrorIs(t, err, ErrNotInCatalog)
}

func TestManagerUpgradeContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	f := newFakeFetcher()
	f.serve("https://a.test/p2.js", p1Source)
	m := newManagerForTest(f)
	pref := &fakePreference{enabled: model.NewPluginSet(model.PluginInfo{ID: "p2", Version: "1"})}

	upgraded, err := m.Upgrade(ctx, pref, []model.PluginInfo{
		{ID: "p1", Version: "2", ContentURL: "https://a.test/missing.js"},
		{ID: "p2", Version: "2", ContentURL: "https://a.test/p2.js"},
	})
	assert.Error(t, err)
	assert.Equal(t, []string{"p2"}, upgraded)

	p2, ok := pref.enabled.Get("p2")
	require.True(t, ok)
	assert.Equal(t, "2", p2.Version)
}
