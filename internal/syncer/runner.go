package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	vererrors "github.com/mkviewer/mkviewer/internal/errors"
)

// Runner executes sync passes in a background goroutine on a fixed
// interval. The first pass starts immediately.
type Runner struct {
	sync     *Synchronizer
	interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}

	mu      sync.Mutex
	running bool
}

// NewRunner creates a runner; it does nothing until Start.
func NewRunner(s *Synchronizer, interval time.Duration) *Runner {
	return &Runner{
		sync:     s,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the periodic loop in a background goroutine. This is
// non-blocking; use Stop to shut the loop down.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	go r.run(ctx)
}

func (r *Runner) run(ctx context.Context) {
	defer close(r.doneCh)
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Runner) pass(ctx context.Context) {
	_, err := r.sync.Sync(ctx, false)
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
	case vererrors.CodeOf(err) == vererrors.ErrCodeSyncInProgress:
		// A manual sync is running; the next tick reconciles.
	default:
		slog.Warn("periodic_sync_failed", slog.String("error", err.Error()))
	}
}

// IsRunning returns true while the loop is active.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Stop signals the loop to stop and waits for it to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}
