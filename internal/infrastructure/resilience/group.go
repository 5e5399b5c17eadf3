package resilience

import (
	"net/url"
	"sync"
)

// Group hands out one breaker per key, typically the host of an outbound URL,
// so a dead dictionary site does not trip calls to healthy ones.
type Group struct {
	settings Settings

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewGroup creates an empty group sharing settings across its breakers.
func NewGroup(settings Settings) *Group {
	return &Group{
		settings: settings,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[key]; ok {
		return b
	}
	b := New(key, g.settings)
	g.breakers[key] = b
	return b
}

// ForURL returns the breaker for the host of rawURL. Unparseable URLs share
// a single breaker keyed by the raw string.
func (g *Group) ForURL(rawURL string) *Breaker {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return g.Get(rawURL)
	}
	return g.Get(u.Host)
}

// Snapshot returns the state of every breaker the group created.
func (g *Group) Snapshot() map[string]State {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.breakers))
	for _, b := range g.breakers {
		breakers = append(breakers, b)
	}
	g.mu.Unlock()

	out := make(map[string]State, len(breakers))
	for _, b := range breakers {
		out[b.Name()] = b.State()
	}
	return out
}
