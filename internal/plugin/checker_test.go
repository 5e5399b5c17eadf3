package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckerForTest(t *testing.T, manifest string, enabled ...model.PluginInfo) (*UpdateChecker, *storage.Memory) {
	t.Helper()
	f := newFakeFetcher()
	f.serve(repoA, manifest)
	store := storage.NewMemory()
	pref := &fakePreference{enabled: model.NewPluginSet(enabled...), repos: []string{repoA}}
	checker := NewUpdateChecker(NewIndex(f, nil), store, pref, nil)
	checker.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return checker, store
}

func TestUpdateCheckerFirstRunReportsAllNew(t *testing.T) {
	ctx := context.Background()
	checker, store := newCheckerForTest(t, `[{"id":"p1","version":"1"},{"id":"p2","version":"1"}]`)

	result, err := checker.Check(ctx)
	require.NoError(t, err)
	assert.Len(t, result.NewPlugins, 2)
	assert.Empty(t, result.UpgradablePlugins)

	result, err = checker.Check(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.NewPlugins)

	ids, err := store.Get(ctx, storage.KeyLastAvailablePlugins)
	require.NoError(t, err)
	assert.Equal(t, "p2,p1", ids)

	last, err := checker.LastCheckTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), last.UnixMilli())
}

func TestUpdateCheckerUpgradable(t *testing.T) {
	ctx := context.Background()
	checker, store := newCheckerForTest(t,
		`[{"id":"p1","version":"2"},{"id":"p2","version":"1"},{"id":"p3","version":"1"}]`,
		model.PluginInfo{ID: "p1", Version: "1"},
		model.PluginInfo{ID: "p2", Version: "1"},
	)
	require.NoError(t, store.Set(ctx, storage.KeyLastAvailablePlugins, "p1,p2"))

	result, err := checker.Check(ctx)
	require.NoError(t, err)
	require.Len(t, result.NewPlugins, 1)
	assert.Equal(t, "p3", result.NewPlugins[0].ID)
	require.Len(t, result.UpgradablePlugins, 1)
	assert.Equal(t, "p1", result.UpgradablePlugins[0].ID)
}

func TestUpdateCheckerCatalogFailure(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	pref := &fakePreference{repos: []string{"https://nowhere.test/index.json"}}
	checker := NewUpdateChecker(NewIndex(newFakeFetcher(), nil), store, pref, nil)

	_, err := checker.Check(ctx)
	assert.Error(t, err)

	last, err := checker.LastCheckTime(ctx)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestDue(t *testing.T) {
	now := time.Now()
	assert.True(t, Due(time.Time{}, time.Hour, now))
	assert.True(t, Due(now.Add(-2*time.Hour), time.Hour, now))
	assert.False(t, Due(now.Add(-time.Minute), time.Hour, now))
}
