package state

import (
	"context"
	"sync"
)

// Generation is a monotonically increasing request counter. Each call to Next
// supersedes every earlier ticket and cancels its context.
type Generation struct {
	mu      sync.Mutex
	current uint64
	cancel  context.CancelFunc
}

// Next allocates a new ticket and derives a request context from parent.
// The previous in-flight request, if any, is cancelled.
func (g *Generation) Next(parent context.Context) (uint64, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.current++
	g.cancel = cancel
	return g.current, ctx
}

// IsCurrent reports whether ticket is still the latest one issued.
func (g *Generation) IsCurrent(ticket uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ticket == g.current
}

// Current returns the latest ticket, or 0 before the first request.
func (g *Generation) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Done releases the context of ticket when it is still current. Superseded
// tickets were already cancelled by Next.
func (g *Generation) Done(ticket uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if ticket == g.current && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Guard returns a predicate bound to ticket for use with Store's conditional writes.
func (g *Generation) Guard(ticket uint64) Guard {
	return func() bool { return g.IsCurrent(ticket) }
}
