package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/GriffinCanCode/dicthub/internal/domain/preference"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/lang"
	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/GriffinCanCode/dicthub/internal/shared/failure"
	"github.com/GriffinCanCode/dicthub/internal/shared/id"
	"go.uber.org/zap"
)

const resultBuffer = 64

// PreferenceSource supplies the preference snapshot pushed to the sandbox.
type PreferenceSource interface {
	Snapshot() preference.UserPreference
}

// ContentLoader reads cached plugin sources.
type ContentLoader interface {
	Load(ctx context.Context, ids []string) ([]model.PluginContent, error)
}

// OptionsLoader reads stored plugin options.
type OptionsLoader interface {
	Load(ctx context.Context, ids []string) (map[string]model.PluginOptions, error)
}

// Options wires a Host.
type Options struct {
	Preference PreferenceSource
	Contents   ContentLoader
	Options    OptionsLoader
	Detector   lang.Detector
	Reporter   Reporter
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics

	// DiscardStale drops results whose query is no longer the latest one.
	DiscardStale bool
}

// Host drives the sandbox over a port: it answers the handshake, forwards
// queries and filters incoming results.
type Host struct {
	port         messaging.Port
	pref         PreferenceSource
	contents     ContentLoader
	options      OptionsLoader
	detector     lang.Detector
	reporter     Reporter
	logger       *zap.Logger
	metrics      *monitoring.Metrics
	discardStale bool

	results chan model.TranslationResult

	mu        sync.Mutex
	ready     bool
	readyCh   chan struct{}
	readyOnce sync.Once
	pending   *model.Query
	current   string
}

// New creates a host on port.
func New(port messaging.Port, opts Options) *Host {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Detector == nil {
		opts.Detector = lang.Null{}
	}
	return &Host{
		port:         port,
		pref:         opts.Preference,
		contents:     opts.Contents,
		options:      opts.Options,
		detector:     opts.Detector,
		reporter:     opts.Reporter,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		discardStale: opts.DiscardStale,
		results:      make(chan model.TranslationResult, resultBuffer),
		readyCh:      make(chan struct{}),
	}
}

// Results streams filtered translation results in arrival order. Callers
// must keep draining it: once its buffer fills, the host stops reading from
// the port and the sandbox blocks on its next send.
func (h *Host) Results() <-chan model.TranslationResult { return h.results }

// Ready is closed once the sandbox first reports SANDBOX_READY.
func (h *Host) Ready() <-chan struct{} { return h.readyCh }

// Run handles sandbox packets until ctx is cancelled or the port closes.
func (h *Host) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-h.port.Receive():
			if err := h.handle(ctx, msg); err != nil {
				return err
			}
		case <-h.port.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Host) handle(ctx context.Context, msg messaging.Message) error {
	switch m := msg.(type) {
	case messaging.SandboxStart:
		h.mu.Lock()
		h.ready = false
		h.mu.Unlock()
		return h.push(ctx)
	case messaging.SandboxReady:
		h.markReady(ctx)
	case messaging.TranslationResult:
		return h.accept(ctx, m.TranslationResult)
	default:
		h.logger.Warn("Unknown message", zap.String("cmd", string(msg.Command())))
	}
	return nil
}

// push sends USER_PREFERENCE followed by PLUGINS. Missing contents shrink the
// plugin list; unreadable options fall back to empty ones.
func (h *Host) push(ctx context.Context) error {
	pref := h.preference()
	if err := h.port.Send(ctx, messaging.UserPreference{UserPreference: pref}); err != nil {
		return fmt.Errorf("push preference: %w", err)
	}

	ordered := pref.OrderedPlugins()
	ids := make([]string, len(ordered))
	for n, info := range ordered {
		ids[n] = info.ID
	}

	var contents []model.PluginContent
	if h.contents != nil && len(ids) > 0 {
		var err error
		if contents, err = h.contents.Load(ctx, ids); err != nil {
			h.logger.Warn("Failed to load plugin contents", zap.Error(err))
			contents = nil
		}
	}

	options := map[string]model.PluginOptions{}
	if h.options != nil && len(ids) > 0 {
		loaded, err := h.options.Load(ctx, ids)
		if err != nil {
			h.logger.Warn("No plugin options found", zap.Error(err))
		} else {
			options = loaded
		}
	}

	entries := make([]messaging.PluginEntry, 0, len(contents))
	for _, c := range contents {
		opts := options[c.ID]
		if opts == nil {
			opts = model.PluginOptions{}
		}
		entries = append(entries, messaging.PluginEntry{Content: c, Options: opts})
	}

	h.logger.Info("Pushing plugins to sandbox", zap.Int("enabled", len(ids)), zap.Int("cached", len(entries)))
	if err := h.port.Send(ctx, messaging.Plugins{Plugins: entries}); err != nil {
		return fmt.Errorf("push plugins: %w", err)
	}
	return nil
}

func (h *Host) markReady(ctx context.Context) {
	h.mu.Lock()
	h.ready = true
	pending := h.pending
	h.pending = nil
	h.mu.Unlock()

	h.readyOnce.Do(func() { close(h.readyCh) })
	h.logger.Debug("Sandbox ready", zap.Bool("replaying", pending != nil))

	if pending != nil {
		if err := h.send(ctx, *pending); err != nil {
			h.logger.Warn("Failed to replay pending query", zap.String("query_id", pending.ID), zap.Error(err))
		}
	}
}

func (h *Host) accept(ctx context.Context, res model.TranslationResult) error {
	if h.discardStale {
		h.mu.Lock()
		current := h.current
		h.mu.Unlock()
		if res.Query.ID != current {
			h.logger.Debug("Discarding stale result",
				zap.String("plugin_id", res.PluginID),
				zap.String("query_id", res.Query.ID))
			return nil
		}
	}

	res, blocked := Filter(res)
	if blocked {
		h.logger.Warn("Blocked translation result",
			zap.String("plugin_id", res.PluginID),
			zap.Error(failure.ErrSecurityViolation))
		if h.metrics != nil {
			h.metrics.RecordBlocked(res.PluginID)
		}
	}
	if h.metrics != nil {
		h.metrics.RecordResult(res.PluginID, res.Success)
	}
	if pref := h.preference(); h.reporter != nil && pref.SendAnalysisInfo {
		version := ""
		if info, ok := pref.EnabledPlugins.Get(res.PluginID); ok {
			version = info.Version
		}
		h.reporter.ReportResult(ctx, res, version)
	}

	select {
	case h.results <- res:
	case <-ctx.Done():
	}
	return nil
}

// Submit sends q to the sandbox, tagging it with a fresh id when it has
// none. Before the sandbox is ready only the latest query is kept and it is
// sent once SANDBOX_READY arrives.
func (h *Host) Submit(ctx context.Context, q model.Query) (model.Query, error) {
	if err := q.Validate(); err != nil {
		return q, err
	}
	if q.ID == "" {
		q = q.WithID(id.NewQueryID().String())
	}

	h.mu.Lock()
	h.current = q.ID
	if !h.ready {
		h.pending = &q
		h.mu.Unlock()
		h.logger.Debug("Buffered query until sandbox is ready", zap.String("query_id", q.ID))
		return q, nil
	}
	h.mu.Unlock()

	return q, h.send(ctx, q)
}

func (h *Host) send(ctx context.Context, q model.Query) error {
	if err := h.port.Send(ctx, messaging.Query{Query: q}); err != nil {
		return fmt.Errorf("send query: %w", err)
	}
	if h.metrics != nil {
		h.metrics.RecordQuery()
	}
	if h.reporter != nil && h.preference().SendAnalysisInfo {
		h.reporter.ReportQuery(ctx, q)
	}
	return nil
}

// BuildQuery makes a query from user input. An empty from is detected when
// the preference allows it; an empty to falls back to the primary language.
func (h *Host) BuildQuery(ctx context.Context, text, from, to string) (model.Query, error) {
	pref := h.preference()
	if to == "" {
		to = pref.PrimaryLang.Code()
	}
	if from == "" {
		if !pref.AutoDetectLang {
			return model.Query{}, errors.New("source language is required when detection is off")
		}
		detected, err := h.detector.DetectLanguage(ctx, text)
		if err != nil {
			return model.Query{}, err
		}
		from = detected.Code()
		h.logger.Debug("Detected source language", zap.String("lang", from), zap.String("detector", h.detector.Name()))
	}
	return model.NewQuery(text, from, to)
}

func (h *Host) preference() preference.UserPreference {
	if h.pref == nil {
		return preference.Default()
	}
	return h.pref.Snapshot()
}
