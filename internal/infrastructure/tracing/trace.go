package tracing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Header names used for trace propagation.
const (
	TraceHeader = "X-Trace-ID"
	SpanHeader  = "X-Span-ID"
)

const spanBuffer = 1000

// TraceID represents a unique trace identifier
type TraceID string

// SpanID represents a unique span identifier
type SpanID string

// Span represents a single operation in a trace
type Span struct {
	TraceID   TraceID
	SpanID    SpanID
	ParentID  SpanID
	Name      string
	Service   string
	StartTime time.Time
	Duration  time.Duration
	Status    int
	Error     error

	mu   sync.Mutex
	tags map[string]string
}

// Tracer hands out spans and logs finished ones from a background collector.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
	done    chan struct{}
	once    sync.Once
}

// New creates a tracer and starts its collector. Close stops it.
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// StartSpan creates a span, continuing the trace found in ctx if any.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = TraceID(uuid.NewString())
	}

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(uuid.NewString()),
		ParentID:  GetSpanID(ctx),
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		tags:      make(map[string]string),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Finish records the duration.
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.mu.Lock()
	s.tags[key] = value
	s.mu.Unlock()
}

// Tags returns a copy of the span's tags.
func (s *Span) Tags() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// SetError records an error in the span
func (s *Span) SetError(err error) {
	s.Error = err
}

// SetStatus sets the HTTP status code
func (s *Span) SetStatus(code int) {
	s.Status = code
}

// Submit finishes span and queues it for logging. Spans are dropped when
// the buffer is full or the tracer is closed.
func (t *Tracer) Submit(span *Span) {
	if span.Duration == 0 {
		span.Finish()
	}
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

// Close stops the collector. Queued spans are discarded.
func (t *Tracer) Close() {
	t.once.Do(func() { close(t.done) })
}

func (t *Tracer) collect() {
	for {
		select {
		case span := <-t.spans:
			t.process(span)
		case <-t.done:
			return
		}
	}
}

func (t *Tracer) process(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
		zap.String("service", span.Service),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	if span.Status != 0 {
		fields = append(fields, zap.Int("status", span.Status))
	}
	for k, v := range span.Tags() {
		fields = append(fields, zap.String(k, v))
	}

	if span.Error != nil {
		fields = append(fields, zap.Error(span.Error))
		t.logger.Warn("span completed with error", fields...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// WithTrace returns ctx carrying an existing trace and parent span.
func WithTrace(ctx context.Context, traceID TraceID, parent SpanID) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if parent != "" {
		ctx = context.WithValue(ctx, spanIDKey, parent)
	}
	return ctx
}

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) TraceID {
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	return traceID
}

// GetSpanID retrieves the span ID from context
func GetSpanID(ctx context.Context) SpanID {
	spanID, _ := ctx.Value(spanIDKey).(SpanID)
	return spanID
}
