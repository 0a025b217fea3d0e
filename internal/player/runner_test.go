package player

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainjack/chainjack/internal/deck"
	"github.com/chainjack/chainjack/internal/simchain"
)

// instant contract: no vrf latency, no trading period, scripted losses so
// cycles need no claims.
func newLossContract(hands int) *simchain.Contract {
	shoes := make([]*deck.Shoe, 0, hands)
	for i := 0; i < hands; i++ {
		shoes = append(shoes, deck.NewStackedShoe(
			deck.NewCard(deck.Spades, deck.Ten), deck.NewCard(deck.Hearts, deck.Seven),
			deck.NewCard(deck.Clubs, deck.Ten), deck.NewCard(deck.Diamonds, deck.Nine),
		))
	}
	return simchain.New(testLogger(), simchain.WithStackedShoes(shoes...))
}

func TestRunnerPlaysRequestedCycles(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(newLossContract(3))
	r := NewRunner(o, testLogger())

	require.NoError(t, r.Start(context.Background(), 3))
	r.Wait()

	status := r.Status()
	assert.False(t, status.IsRunning)
	assert.Equal(t, 3, status.Stats.GamesPlayed)
	assert.Empty(t, status.LastError)
}

func TestRunnerRejectsOverlappingRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := quartz.NewMock(t)
	trap := mock.Trap().NewTimer("poll")
	defer trap.Close()

	c := simchain.New(testLogger(),
		simchain.WithClock(mock),
		simchain.WithVRFLatency(time.Minute),
		simchain.WithStackedShoes(deck.NewStackedShoe(
			deck.NewCard(deck.Spades, deck.Ace), deck.NewCard(deck.Hearts, deck.King),
			deck.NewCard(deck.Clubs, deck.Ten), deck.NewCard(deck.Diamonds, deck.Seven),
		)),
	)
	o, _ := newTestOrchestrator(c, WithClock(mock))
	r := NewRunner(o, testLogger())

	require.NoError(t, r.Start(ctx, 0))

	// the run is parked in its first poll sleep; a second start must bounce
	call := trap.MustWait(ctx)
	assert.ErrorIs(t, r.Start(ctx, 1), ErrAlreadyRunning)
	assert.True(t, r.Status().IsRunning)

	r.RequestCancel()
	call.Release(ctx)
	mock.Advance(3 * time.Second).MustWait(ctx)
	r.Wait()

	status := r.Status()
	assert.False(t, status.IsRunning)
	assert.Empty(t, status.LastError, "cancellation leaves no fault behind")

	// cancelled mid-deal: the game is still pending on chain and a fresh
	// run resumes it rather than starting over
	require.NoError(t, r.Start(ctx, 1))
	call = trap.MustWait(ctx)
	call.Release(ctx)
	mock.Advance(time.Minute).MustWait(ctx)
	r.Wait()
	assert.Equal(t, 1, r.Status().Stats.GamesPlayed)
}

func TestRunOnce(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(newLossContract(1))
	r := NewRunner(o, testLogger())

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Equal(t, 1, r.Status().Stats.GamesPlayed)
	assert.False(t, r.Status().IsRunning)
}

func TestRequestCancelBeforeStartIsHarmless(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(newLossContract(1))
	r := NewRunner(o, testLogger())

	r.RequestCancel()
	r.Wait()

	// the flag is reset on start, so a prior cancel does not poison a run
	require.NoError(t, r.RunOnce(context.Background()))
	assert.Equal(t, 1, r.Status().Stats.GamesPlayed)
}
