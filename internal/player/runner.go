package player

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// ErrAlreadyRunning is returned when a run is requested while one is in
// progress. The contract allows one game per identity; overlapping runs
// would race each other's transactions.
var ErrAlreadyRunning = errors.New("a run is already in progress")

// Runner serialises cycles of one orchestrator: at most one run at a
// time, with a cooperative cancel flag the orchestrator consults at its
// suspension points.
type Runner struct {
	orch   *Orchestrator
	logger *log.Logger

	running   atomic.Bool
	cancelled atomic.Bool

	mu   sync.Mutex
	done chan struct{}
}

// NewRunner creates a runner for the orchestrator.
func NewRunner(orch *Orchestrator, logger *log.Logger) *Runner {
	return &Runner{
		orch:   orch,
		logger: logger.WithPrefix("runner"),
	}
}

// Start launches cycles in the background and returns immediately.
// Cycles repeat until one fails, cancellation is requested, or cycles
// runs out; cycles <= 0 means run until stopped. Returns
// ErrAlreadyRunning if a run is in progress.
func (r *Runner) Start(ctx context.Context, cycles int) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	r.cancelled.Store(false)

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer r.running.Store(false)
		r.run(ctx, cycles)
	}()
	return nil
}

// RunOnce plays a single cycle synchronously. Returns ErrAlreadyRunning
// if a background run is in progress.
func (r *Runner) RunOnce(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)
	r.cancelled.Store(false)

	_, err := r.orch.RunOneCycle(ctx, r.cancelled.Load)
	return err
}

func (r *Runner) run(ctx context.Context, cycles int) {
	played := 0
	for {
		if r.cancelled.Load() || ctx.Err() != nil {
			return
		}

		outcome, err := r.orch.RunOneCycle(ctx, r.cancelled.Load)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				r.logger.Info("run cancelled", "cyclesPlayed", played)
			} else {
				r.logger.Error("run stopped on error", "cyclesPlayed", played, "error", err)
			}
			return
		}

		played++
		r.logger.Info("cycle finished", "cycle", played, "outcome", outcome.String())
		if cycles > 0 && played >= cycles {
			return
		}
	}
}

// RequestCancel sets the cooperative stop flag. Idempotent; a no-op when
// nothing is running. The current suspension point notices the flag, so
// in-flight transactions still confirm before the run winds down.
func (r *Runner) RequestCancel() {
	r.cancelled.Store(true)
}

// Wait blocks until the current background run finishes. Returns
// immediately if none is running.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status reports the run flag combined with the orchestrator's state.
func (r *Runner) Status() Status {
	status := r.orch.Status()
	status.IsRunning = r.running.Load()
	return status
}
