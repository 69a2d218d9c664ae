package estimate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStale is returned for results superseded by a newer request.
var ErrStale = errors.New("estimate superseded")

// Tracker hands out increasing generation tokens so results of superseded
// requests can be dropped. Starting a generation cancels the previous one.
type Tracker struct {
	gen atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Begin starts a new generation derived from ctx. Callers that do not go
// through Run release the generation with Finish once they are done.
func (t *Tracker) Begin(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	gen := t.gen.Add(1)
	if t.cancel != nil {
		t.cancel()
	}
	t.cancel = cancel
	t.mu.Unlock()

	return ctx, gen
}

// Current reports whether gen is still the latest generation.
func (t *Tracker) Current(gen uint64) bool {
	return t.gen.Load() == gen
}

// Finish cancels gen's context if gen is still the latest generation.
// Superseded generations were already cancelled by Begin.
func (t *Tracker) Finish(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen.Load() == gen && t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

// Run starts a generation, runs fn and discards its result if another
// generation started meanwhile.
func (t *Tracker) Run(ctx context.Context, fn func(context.Context) (float64, error)) (float64, error) {
	ctx, gen := t.Begin(ctx)
	defer t.Finish(gen)
	v, err := fn(ctx)
	if !t.Current(gen) {
		return 0, ErrStale
	}
	return v, err
}
