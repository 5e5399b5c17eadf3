package messaging

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/dicthub/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

const pipeBuffer = 64

// PipeOptions configures NewPipe.
type PipeOptions struct {
	HostOrigin    string
	SandboxOrigin string
	Logger        *zap.Logger
	Metrics       *monitoring.Metrics
}

// PipeEnd is one side of an in-process pipe. Every message is serialized on
// send and decoded on delivery, so the two sides never share memory.
type PipeEnd struct {
	name     string
	origin   string
	expected string
	peer     *PipeEnd
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	inbox chan Message
	done  chan struct{}
	once  sync.Once
}

// NewPipe returns connected host and sandbox ends.
func NewPipe(opts PipeOptions) (host, sandbox *PipeEnd) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HostOrigin == "" {
		opts.HostOrigin = "dicthub://host"
	}
	if opts.SandboxOrigin == "" {
		opts.SandboxOrigin = opts.HostOrigin
	}

	host = newPipeEnd("host", opts.HostOrigin, opts.SandboxOrigin, opts)
	sandbox = newPipeEnd("sandbox", opts.SandboxOrigin, opts.HostOrigin, opts)
	host.peer, sandbox.peer = sandbox, host
	return host, sandbox
}

func newPipeEnd(name, origin, expected string, opts PipeOptions) *PipeEnd {
	return &PipeEnd{
		name:     name,
		origin:   origin,
		expected: expected,
		logger:   opts.Logger.With(zap.String("port", name)),
		metrics:  opts.Metrics,
		inbox:    make(chan Message, pipeBuffer),
		done:     make(chan struct{}),
	}
}

// Origin is the origin stamped on messages sent from this end.
func (p *PipeEnd) Origin() string { return p.origin }

// Send serializes msg and posts it to the peer.
func (p *PipeEnd) Send(ctx context.Context, msg Message) error {
	select {
	case <-p.done:
		return ErrPortClosed
	default:
	}
	data, err := Encode(msg)
	if err != nil {
		return err
	}
	if p.metrics != nil {
		p.metrics.RecordPacket(DirectionOut, string(msg.Command()))
	}
	return p.peer.Post(ctx, p.origin, data)
}

// Post delivers raw packet bytes as if they came from origin. Messages from
// an unexpected origin, or that do not decode, are dropped with a debug log.
func (p *PipeEnd) Post(ctx context.Context, origin string, data []byte) error {
	if origin != p.expected {
		p.logger.Debug("Dropping message from foreign origin", zap.String("origin", origin))
		return nil
	}
	msg, err := Decode(data)
	if err != nil {
		p.logger.Debug("Dropping malformed message", zap.Error(err))
		return nil
	}
	if p.metrics != nil {
		p.metrics.RecordPacket(DirectionIn, string(msg.Command()))
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-p.done:
		return ErrPortClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PipeEnd) Receive() <-chan Message { return p.inbox }

func (p *PipeEnd) Done() <-chan struct{} { return p.done }

// Close stops both directions for this end. Pending inbox messages stay
// readable.
func (p *PipeEnd) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
