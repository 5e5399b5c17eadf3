package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/dop251/goja"
	"go.uber.org/zap"
)

const jobBuffer = 64

// Option configures a Sandbox.
type Option func(*Sandbox)

func WithConfig(cfg Config) Option {
	return func(s *Sandbox) { s.config = cfg }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Sandbox) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Sandbox) { s.metrics = metrics }
}

// WithHTTP backs the plugins' http object.
func WithHTTP(client HTTPClient) Option {
	return func(s *Sandbox) { s.http = client }
}

// Sandbox hosts plugin providers and answers queries arriving on its port.
// The VM and the provider set are confined to the goroutine running Run.
type Sandbox struct {
	port    messaging.Port
	config  Config
	logger  *zap.Logger
	metrics *monitoring.Metrics
	http    HTTPClient

	state atomic.Int32
	jobs  chan func()
	done  chan struct{}

	// loop goroutine only
	rt         *runtime
	providers  []*provider
	preference preference.UserPreference
}

// New creates a sandbox speaking over port. Nothing runs until Run.
func New(port messaging.Port, opts ...Option) *Sandbox {
	s := &Sandbox{
		port:       port,
		config:     DefaultConfig(),
		logger:     zap.NewNop(),
		jobs:       make(chan func(), jobBuffer),
		done:       make(chan struct{}),
		preference: preference.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle stage.
func (s *Sandbox) State() State {
	return State(s.state.Load())
}

// Run starts the sandbox, announces it with SANDBOX_START and serves packets
// until ctx is cancelled or the port closes.
func (s *Sandbox) Run(ctx context.Context) error {
	defer close(s.done)

	rt, err := newRuntime(ctx, s.config, s.logger, s.http, s.post)
	if err != nil {
		return fmt.Errorf("create sandbox runtime: %w", err)
	}
	s.rt = rt
	defer rt.stopTimers()

	if err := s.port.Send(ctx, messaging.SandboxStart{}); err != nil {
		return fmt.Errorf("announce sandbox: %w", err)
	}
	s.setState(Started)

	for {
		select {
		case msg := <-s.port.Receive():
			s.handle(ctx, msg)
		case job := <-s.jobs:
			job()
		case <-s.port.Done():
			s.logger.Info("Sandbox port closed")
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// post schedules fn on the loop. It reports false once Run has returned.
func (s *Sandbox) post(fn func()) bool {
	select {
	case s.jobs <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Sandbox) setState(st State) {
	old := State(s.state.Swap(int32(st)))
	if old != st {
		s.logger.Debug("Sandbox state changed", zap.Stringer("from", old), zap.Stringer("to", st))
	}
}

func (s *Sandbox) handle(ctx context.Context, msg messaging.Message) {
	switch m := msg.(type) {
	case messaging.UserPreference:
		s.preference = m.UserPreference
		s.logger.Debug("Received user preference", zap.Int("enabled_plugins", m.EnabledPlugins.Len()))
	case messaging.Plugins:
		s.loadPlugins(ctx, m.Plugins)
	case messaging.Query:
		s.serve(ctx, m.Query)
	default:
		s.logger.Warn("Unexpected packet", zap.String("cmd", string(msg.Command())))
	}
}

// loadPlugins replaces the provider set. Each plugin is instantiated on its
// own; failures are logged and the plugin is left out. SANDBOX_READY is sent
// once every attempt has settled.
func (s *Sandbox) loadPlugins(ctx context.Context, entries []messaging.PluginEntry) {
	s.setState(LoadingPlugins)

	loaded := make([]*provider, 0, len(entries))
	for _, entry := range entries {
		s.logger.Info("Executing plugin factory",
			zap.String("plugin_id", entry.Content.ID),
			zap.String("factory", FactoryName(entry.Content.ID)))

		p, err := s.rt.instantiate(entry)
		if err != nil {
			s.logger.Warn("Failed to create plugin", zap.String("plugin_id", entry.Content.ID), zap.Error(err))
			if s.metrics != nil {
				s.metrics.RecordPluginFailure(entry.Content.ID, "instantiate")
			}
			continue
		}
		loaded = append(loaded, p)
		s.logger.Info("Created plugin", zap.String("plugin_id", p.id), zap.String("version", entry.Content.Version))
	}
	s.providers = loaded
	if s.metrics != nil {
		s.metrics.SetPluginsLoaded(len(loaded))
	}

	s.setState(Ready)
	if err := s.port.Send(ctx, messaging.SandboxReady{}); err != nil {
		s.logger.Warn("Failed to send ready signal", zap.Error(err))
	}
}

// serve dispatches q to every provider that accepts it. Results are sent as
// each provider settles; rejections are logged and produce no packet.
func (s *Sandbox) serve(ctx context.Context, q model.Query) {
	s.setState(QueryServing)
	arg := s.rt.queryValue(q)

	for _, p := range s.providers {
		ok, err := s.rt.call(p.canTranslate, p.obj, arg)
		if err != nil {
			s.logger.Warn("canTranslate failed", zap.String("plugin_id", p.id), zap.Error(err))
			continue
		}
		if !ok.ToBoolean() {
			continue
		}
		s.dispatch(ctx, p, q, arg)
	}
}

func (s *Sandbox) dispatch(ctx context.Context, p *provider, q model.Query, arg goja.Value) {
	timer := monitoring.NewTimer(s.metrics, p.id)

	fail := func(err error) {
		timer.Stop()
		s.logger.Error("Translation failed", zap.String("plugin_id", p.id), zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordPluginFailure(p.id, "translate")
		}
	}

	v, err := s.rt.call(p.translate, p.obj, arg)
	if err != nil {
		fail(err)
		return
	}

	err = s.rt.whenSettled(v,
		func(html goja.Value) {
			if html == nil || goja.IsUndefined(html) || goja.IsNull(html) {
				fail(errors.New("translate resolved without content"))
				return
			}
			timer.Stop()
			if err := s.port.Send(ctx, resultFor(p.id, q, html.String())); err != nil {
				s.logger.Warn("Failed to send result", zap.String("plugin_id", p.id), zap.Error(err))
			}
		},
		func(reason goja.Value) {
			fail(rejection(reason))
		})
	if err != nil {
		fail(err)
	}
}

// Providers returns the ids and self descriptions of the loaded providers.
// It runs on the loop and fails once Run has returned.
func (s *Sandbox) Providers(ctx context.Context) (map[string]model.ProviderMeta, error) {
	out := make(chan map[string]model.ProviderMeta, 1)
	if !s.post(func() {
		metas := make(map[string]model.ProviderMeta, len(s.providers))
		for _, p := range s.providers {
			metas[p.id] = s.rt.meta(p)
		}
		out <- metas
	}) {
		return nil, errors.New("sandbox is not running")
	}
	select {
	case m := <-out:
		return m, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func rejection(reason goja.Value) error {
	if reason == nil || goja.IsUndefined(reason) {
		return errors.New("promise rejected")
	}
	if obj, ok := reason.Export().(error); ok {
		return obj
	}
	return fmt.Errorf("promise rejected: %s", reason.String())
}
