package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen is returned while a host is being shed after repeated failures.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrProbeInFlight is returned in half-open state once the probe quota is used.
	ErrProbeInFlight = errors.New("circuit breaker probe already in flight")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a breaker.
type Settings struct {
	// Probes is the number of calls let through in half-open state; that many
	// consecutive successes close the breaker again.
	Probes uint32
	// Window clears the failure counters periodically while closed.
	Window time.Duration
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold uint32
	// OnStateChange is called whenever the state changes, under the breaker lock.
	OnStateChange func(name string, from, to State)
}

// DefaultSettings suit outbound calls to dictionary sites and plugin repositories.
func DefaultSettings() Settings {
	return Settings{
		Probes:    1,
		Window:    time.Minute,
		Cooldown:  30 * time.Second,
		Threshold: 5,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Probes == 0 {
		s.Probes = d.Probes
	}
	if s.Window <= 0 {
		s.Window = d.Window
	}
	if s.Cooldown <= 0 {
		s.Cooldown = d.Cooldown
	}
	if s.Threshold == 0 {
		s.Threshold = d.Threshold
	}
	return s
}

// Counts holds the statistics for the current generation.
type Counts struct {
	Requests             uint32
	Successes            uint32
	Failures             uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State
	counts     Counts
	generation uint64
	deadline   time.Time
	now        func() time.Time
}

// New creates a breaker. Zero settings fall back to DefaultSettings.
func New(name string, settings Settings) *Breaker {
	b := &Breaker{
		name:     name,
		settings: settings.withDefaults(),
		now:      time.Now,
	}
	b.deadline = b.now().Add(b.settings.Window)
	return b
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, advancing open → half-open when the cooldown elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refresh(b.now())
}

// Counts returns a copy of the current counters.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Do runs fn when the breaker admits it and records the outcome.
func (b *Breaker) Do(fn func() error) error {
	gen, err := b.admit()
	if err != nil {
		return err
	}

	ok := false
	defer func() {
		if !ok {
			b.record(gen, false)
		}
	}()

	err = fn()
	ok = true
	b.record(gen, err == nil)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.refresh(b.now()) {
	case StateOpen:
		return b.generation, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.settings.Probes {
			return b.generation, ErrProbeInFlight
		}
	}
	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) record(gen uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	state := b.refresh(now)
	if gen != b.generation {
		return
	}

	if success {
		b.counts.Successes++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.Probes {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.Failures++
	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0
	switch state {
	case StateClosed:
		if b.counts.ConsecutiveFailures >= b.settings.Threshold {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// refresh must be called with mu held.
func (b *Breaker) refresh(now time.Time) State {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.counts = Counts{}
			b.generation++
			b.deadline = now.Add(b.settings.Window)
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
	return b.state
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.counts = Counts{}
	b.generation++

	switch to {
	case StateClosed:
		b.deadline = now.Add(b.settings.Window)
	case StateOpen:
		b.deadline = now.Add(b.settings.Cooldown)
	case StateHalfOpen:
		b.deadline = time.Time{}
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
