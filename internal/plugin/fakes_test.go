package plugin

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/storage"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	calls  map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{bodies: map[string]string{}, calls: map[string]int{}}
}

func (f *fakeFetcher) serve(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[url] = body
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) Get(ctx context.Context, url string) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", failure.ErrFetch, err)
	}
	body, ok := f.bodies[url]
	if !ok {
		return nil, fmt.Errorf("%w: %s returned 404", failure.ErrFetch, url)
	}
	return &httpclient.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte(body)}, nil
}

// countingStore counts writes on top of the in-memory store.
type countingStore struct {
	*storage.Memory
	mu   sync.Mutex
	sets map[string]int
}

func newCountingStore() *countingStore {
	return &countingStore{Memory: storage.NewMemory(), sets: map[string]int{}}
}

func (c *countingStore) Set(ctx context.Context, key, value string) error {
	c.mu.Lock()
	c.sets[key]++
	c.mu.Unlock()
	return c.Memory.Set(ctx, key, value)
}

func (c *countingStore) writes(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets[key]
}

type fakePreference struct {
	enabled model.PluginSet
	repos   []string
}

func (p *fakePreference) EnabledPlugins() model.PluginSet { return p.enabled.Clone() }
func (p *fakePreference) PluginRepository() []string     { return p.repos }

func (p *fakePreference) EnablePlugin(_ context.Context, info model.PluginInfo) error {
	p.enabled.Put(info)
	return nil
}

func (p *fakePreference) DisablePlugin(_ context.Context, id string) error {
	p.enabled.Remove(id)
	return nil
}
