package ws

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/GriffinCanCode/dicthub/internal/api/middleware"
	"github.com/GriffinCanCode/dicthub/internal/host"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/dicthub/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/GriffinCanCode/dicthub/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SessionFactory returns a fresh host and sandbox pair for one connection.
type SessionFactory func() *host.Session

// Handler bridges a WebSocket client to its own translation session. The
// client sends QUERY packets and receives SANDBOX_READY once, then
// TRANSLATION_RESULT packets as plugins settle.
type Handler struct {
	upgrader   websocket.Upgrader
	newSession SessionFactory
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// NewHandler creates a handler accepting upgrades from allowedOrigins.
func NewHandler(allowedOrigins []string, newSession SessionFactory, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := append([]string(nil), allowedOrigins...)
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(origins, r.Header.Get("Origin"))
			},
		},
		newSession: newSession,
		logger:     logger,
		metrics:    metrics,
	}
}

// WithTracer records one span per connection.
func (h *Handler) WithTracer(tracer *tracing.Tracer) *Handler {
	h.tracer = tracer
	return h
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := messaging.NewWebSocketPort(conn, h.logger, h.metrics)
	defer client.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var queries, results atomic.Int64
	if h.tracer != nil {
		var span *tracing.Span
		span, ctx = h.tracer.StartSpan(ctx, "stream")
		span.SetTag("remote", c.ClientIP())
		defer func() {
			span.SetTag("queries", strconv.FormatInt(queries.Load(), 10))
			span.SetTag("results", strconv.FormatInt(results.Load(), 10))
			h.tracer.Submit(span)
		}()
	}

	sess := h.newSession()
	h.logger.Info("Stream connected", zap.String("remote", c.ClientIP()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return sess.Run(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return h.forward(ctx, client, sess, &results)
	})
	g.Go(func() error {
		defer cancel()
		return h.read(ctx, client, sess, &queries)
	})

	if err := g.Wait(); err != nil {
		h.logger.Warn("Stream closed with error", zap.Error(err))
		return
	}
	h.logger.Info("Stream disconnected", zap.String("remote", c.ClientIP()))
}

// read submits client queries until the client goes away.
func (h *Handler) read(ctx context.Context, client messaging.Port, sess *host.Session, count *atomic.Int64) error {
	for {
		select {
		case msg := <-client.Receive():
			q, ok := msg.(messaging.Query)
			if !ok {
				h.logger.Debug("Ignoring client packet", zap.String("cmd", string(msg.Command())))
				continue
			}
			if err := utils.ValidateQueryText(q.Text); err != nil {
				h.logger.Debug("Rejected client query", zap.Error(err))
				continue
			}
			if _, err := sess.Submit(ctx, q.Query); err != nil {
				h.logger.Warn("Failed to submit query", zap.Error(err))
				continue
			}
			count.Add(1)
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// forward relays readiness and results to the client.
func (h *Handler) forward(ctx context.Context, client messaging.Port, sess *host.Session, count *atomic.Int64) error {
	ready := sess.Ready()
	for {
		select {
		case <-ready:
			ready = nil
			if err := client.Send(ctx, messaging.SandboxReady{}); err != nil {
				return nil
			}
		case res := <-sess.Results():
			// Results only follow readiness; announce it first.
			select {
			case <-ready:
				ready = nil
				if err := client.Send(ctx, messaging.SandboxReady{}); err != nil {
					return nil
				}
			default:
			}
			if err := client.Send(ctx, messaging.TranslationResult{TranslationResult: res}); err != nil {
				h.logger.Debug("Client went away while sending result", zap.Error(err))
				return nil
			}
			count.Add(1)
		case <-client.Done():
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
