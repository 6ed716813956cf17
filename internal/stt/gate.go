package stt

import "context"

// Gate bounds the number of concurrently open decode sessions. Native
// decode calls block an OS thread each, so the bound keeps a burst of
// requests from pinning the process; waiting requests queue here instead
// of inside the engine.
type Gate struct {
	slots chan struct{}
}

// NewGate returns a gate admitting up to n concurrent sessions.
func NewGate(n int) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{slots: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (g *Gate) Release() { <-g.slots }

// InUse returns the number of currently held slots.
func (g *Gate) InUse() int { return len(g.slots) }

// Capacity returns the gate's slot count.
func (g *Gate) Capacity() int { return cap(g.slots) }
