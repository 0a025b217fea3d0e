// Package poller implements the bounded-retry snapshot poll that detects
// VRF callbacks landing on-chain. The contract has no push channel; the
// only signal that a pending phase resolved is a re-read showing a new
// state, so everything here is fetch-classify-sleep under a hard ceiling.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chainjack/chainjack/internal/chain"
)

// ErrCancelled is returned when the cooperative cancel flag is observed
// at a suspension point. It is a normal stop, not a fault.
var ErrCancelled = errors.New("poll cancelled")

// TimeoutError is returned when the randomness callback did not land
// within the poll ceiling.
type TimeoutError struct {
	Elapsed time.Duration
	Last    *chain.Snapshot
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("vrf callback did not land within %s", e.Elapsed)
}

// MismatchError is returned when a read shows a state the submitted
// action could not legally have produced: the expected pending phase
// never appeared, which strongly suggests the transaction silently
// no-op'd inside the contract.
type MismatchError struct {
	Snapshot *chain.Snapshot
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("unexpected on-chain state: phase=%s gameId=%d canStartNew=%v",
		e.Snapshot.Phase, e.Snapshot.GameID, e.Snapshot.CanStartNew)
}

// Verdict is a predicate's classification of one snapshot.
type Verdict int

const (
	// Pending means the expected pending phase is still in flight.
	Pending Verdict = iota
	// Resolved means the awaited transition has happened.
	Resolved
	// Mismatch means the snapshot is neither pending nor resolved; the
	// poll fails immediately rather than burning the full timeout.
	Mismatch
)

// Predicate classifies a snapshot into exactly one of the three verdicts.
type Predicate func(*chain.Snapshot) Verdict

// Fetcher reads fresh snapshots. chain.Gateway satisfies it.
type Fetcher interface {
	FetchSnapshot(ctx context.Context) (*chain.Snapshot, error)
}

// CancelFunc reports whether a cooperative stop has been requested. It is
// consulted immediately before and after every fetch and every sleep.
type CancelFunc func() bool

// Poller repeatedly fetches snapshots until a predicate resolves, a
// timeout elapses, or cancellation is observed.
type Poller struct {
	fetcher  Fetcher
	clock    quartz.Clock
	interval time.Duration
	timeout  time.Duration
	logger   *log.Logger
}

// Option customises a Poller.
type Option func(*Poller)

// WithClock injects the clock used for sleeps and the timeout ceiling.
func WithClock(clock quartz.Clock) Option {
	return func(p *Poller) { p.clock = clock }
}

// WithInterval sets the delay between snapshot reads.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) { p.interval = d }
}

// WithTimeout sets the hard poll ceiling.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) { p.timeout = d }
}

// New creates a Poller with the design defaults: 3s between reads, 5m
// ceiling.
func New(fetcher Fetcher, logger *log.Logger, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  fetcher,
		clock:    quartz.NewReal(),
		interval: 3 * time.Second,
		timeout:  5 * time.Minute,
		logger:   logger.WithPrefix("poller"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await polls until classify reports Resolved and returns the satisfying
// snapshot. It fails fast with a MismatchError if any read (the first in
// particular) classifies as Mismatch, with ErrCancelled when cancel
// reports true, and with a TimeoutError once the ceiling elapses.
func (p *Poller) Await(ctx context.Context, classify Predicate, cancel CancelFunc) (*chain.Snapshot, error) {
	start := p.clock.Now("poll")
	reads := 0

	for {
		if cancel() {
			return nil, ErrCancelled
		}

		snap, err := p.fetcher.FetchSnapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch snapshot: %w", err)
		}
		reads++

		if cancel() {
			return nil, ErrCancelled
		}

		switch classify(snap) {
		case Resolved:
			p.logger.Debug("poll resolved", "phase", snap.Phase.String(), "reads", reads)
			return snap, nil
		case Mismatch:
			return nil, &MismatchError{Snapshot: snap}
		}

		elapsed := p.clock.Since(start, "poll")
		if elapsed >= p.timeout {
			return nil, &TimeoutError{Elapsed: elapsed, Last: snap}
		}

		timer := p.clock.NewTimer(p.interval, "poll")
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}
