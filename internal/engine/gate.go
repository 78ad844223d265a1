package engine

import (
	"context"
	"sync"
)

// InitFunc performs one-time engine initialization.
type InitFunc func(ctx context.Context) error

// gateAttempt is one initialization attempt. Waiters block on done and read
// err afterwards.
type gateAttempt struct {
	done chan struct{}
	err  error
}

// Gate runs an InitFunc at most once. Every caller of Ensure awaits the
// in-flight attempt; a failed attempt leaves the gate open so a later call
// retries, a successful one is permanent. The gate is an explicit service
// object so callers decide its scope instead of relying on hidden package
// state.
type Gate struct {
	init InitFunc

	mu      sync.Mutex
	done    bool
	attempt *gateAttempt
}

// NewGate returns a gate around init.
func NewGate(init InitFunc) *Gate {
	return &Gate{init: init}
}

// Ensure runs the initialization if it has neither completed nor failed
// permanently. Overlapping callers never issue a second attempt while one is
// in flight.
func (g *Gate) Ensure(ctx context.Context) error {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		return nil
	}
	if g.attempt != nil {
		attempt := g.attempt
		g.mu.Unlock()
		select {
		case <-attempt.done:
			return attempt.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	attempt := &gateAttempt{done: make(chan struct{})}
	g.attempt = attempt
	g.mu.Unlock()

	err := g.init(ctx)

	g.mu.Lock()
	g.attempt = nil
	if err == nil {
		g.done = true
	}
	g.mu.Unlock()

	attempt.err = err
	close(attempt.done)
	return err
}

// Done reports whether initialization has completed successfully.
func (g *Gate) Done() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done
}
