package host

import (
	"context"

	"github.com/GriffinCanCode/dicthub/internal/messaging"
	"github.com/GriffinCanCode/dicthub/internal/sandbox"
	"golang.org/x/sync/errgroup"
)

// Session is a host and a sandbox joined by an in-process pipe.
type Session struct {
	*Host
	Sandbox *sandbox.Sandbox

	hostEnd    *messaging.PipeEnd
	sandboxEnd *messaging.PipeEnd
}

// NewSession builds a host from opts and a sandbox from sbOpts on a fresh
// pipe.
func NewSession(opts Options, sbOpts ...sandbox.Option) *Session {
	hostEnd, sandboxEnd := messaging.NewPipe(messaging.PipeOptions{
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	return &Session{
		Host:       New(hostEnd, opts),
		Sandbox:    sandbox.New(sandboxEnd, sbOpts...),
		hostEnd:    hostEnd,
		sandboxEnd: sandboxEnd,
	}
}

// Run runs both sides until ctx is cancelled or either side stops.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer s.hostEnd.Close()
		return s.Sandbox.Run(ctx)
	})
	g.Go(func() error {
		defer s.sandboxEnd.Close()
		return s.Host.Run(ctx)
	})
	return g.Wait()
}
