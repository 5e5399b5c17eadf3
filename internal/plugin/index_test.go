package plugin

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	repoA = "https://repo-a.test/index.json"
	repoB = "https://repo-b.test/index.json"
)

func TestIndexLaterRepositoryWins(t *testing.T) {
	f := newFakeFetcher()
	f.serve(repoA, `[{"id":"p1","name":"One","version":"1.0.0","contentUrl":"https://a.test/p1.js"},
		{"id":"p2","name":"Two","version":"1.0.0","contentUrl":"https://a.test/p2.js"}]`)
	f.serve(repoB, `[{"id":"p1","name":"One","version":"2.0.0","contentUrl":"https://b.test/p1.js"}]`)

	infos, err := NewIndex(f, nil).Load(context.Background(), []string{repoA, repoB})
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byID := map[string]string{}
	for _, info := range infos {
		byID[info.ID] = info.Version
	}
	assert.Equal(t, "2.0.0", byID["p1"])
	assert.Equal(t, "1.0.0", byID["p2"])
}

func TestIndexFailures(t *testing.T) {
	tests := []struct {
		name    string
		serveB  string
		wantErr error
	}{
		{name: "missing repository", wantErr: failure.ErrFetch},
		{name: "malformed repository", serveB: `{"not":"a list"}`, wantErr: failure.ErrParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFetcher()
			f.serve(repoA, `[{"id":"p1","version":"1.0.0"}]`)
			if tt.serveB != "" {
				f.serve(repoB, tt.serveB)
			}

			infos, err := NewIndex(f, nil).Load(context.Background(), []string{repoA, repoB})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, infos)
		})
	}
}

func TestIndexSkipsInvalidIDs(t *testing.T) {
	f := newFakeFetcher()
	f.serve(repoA, `[{"id":"bad id!","version":"1"},{"id":"ok","version":"1"}]`)

	infos, err := NewIndex(f, nil).Load(context.Background(), []string{repoA})
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "ok", infos[0].ID)
}

func TestIndexEmptyRepositories(t *testing.T) {
	infos, err := NewIndex(newFakeFetcher(), nil).Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, infos)
}
