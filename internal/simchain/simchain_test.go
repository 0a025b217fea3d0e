package simchain

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/deck"
)

func card(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.NewCard(suit, rank)
}

// shoe dealing order: two player cards, then two dealer cards, then
// draws as needed.
func stacked(cards ...deck.Card) *deck.Shoe {
	return deck.NewStackedShoe(cards...)
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func startGame(t *testing.T, c *Contract, wager int64) {
	t.Helper()
	ref, err := c.Submit(context.Background(), chain.StartAction(big.NewInt(wager)))
	require.NoError(t, err)
	receipt, err := c.AwaitConfirmation(context.Background(), ref)
	require.NoError(t, err)
	require.True(t, receipt.Succeeded)
}

func TestStartDealResolvesAfterLatency(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := quartz.NewMock(t)
	c := New(testLogger(),
		WithClock(mock),
		WithVRFLatency(10*time.Second),
		WithStackedShoes(stacked(
			card(deck.Spades, deck.Ten), card(deck.Hearts, deck.Nine),
			card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
		)),
	)

	startGame(t, c, 100)

	snap, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhasePendingInitialDeal, snap.Phase)
	assert.Equal(t, uint64(1), snap.GameID)
	assert.Empty(t, snap.PlayerCards)

	mock.Advance(10 * time.Second)

	snap, err = c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseActive, snap.Phase)
	assert.Equal(t, 19, snap.PlayerTotal)
	assert.Len(t, snap.DealerCards, 2)
	assert.True(t, snap.CanHit)
	assert.True(t, snap.CanStand)
}

func TestFetchSnapshotIsReadOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := quartz.NewMock(t)
	c := New(testLogger(), WithClock(mock), WithVRFLatency(time.Minute))
	startGame(t, c, 100)

	// no submission and no clock advance between reads: identical data
	first, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	second, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNaturalTwentyOneSkipsActive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(testLogger(), WithStackedShoes(stacked(
		card(deck.Spades, deck.Ace), card(deck.Hearts, deck.King),
		card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
	)))

	startGame(t, c, 100)

	snap, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseFinished, snap.Phase, "natural resolves without an Active phase")
	assert.Equal(t, chain.ResolutionPlayerWin, snap.Resolution)
	assert.True(t, snap.CanStartNew)

	amount, err := c.ClaimableAmount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(big.NewInt(200)))
}

func TestHitToBust(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(testLogger(), WithStackedShoes(stacked(
		card(deck.Spades, deck.Ten), card(deck.Hearts, deck.Nine),
		card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
		card(deck.Spades, deck.Five), // hit card: 19 + 5 = 24
	)))

	startGame(t, c, 100)
	_, err := c.FetchSnapshot(ctx) // deal lands

	require.NoError(t, err)
	_, err = c.Submit(ctx, chain.HitAction())
	require.NoError(t, err)

	snap, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseBusted, snap.Phase)
	assert.Equal(t, 24, snap.PlayerTotal)
	assert.Equal(t, chain.ResolutionDealerWin, snap.Resolution)

	amount, err := c.ClaimableAmount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())
}

func TestStandDealerPlaysToSeventeen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(testLogger(), WithStackedShoes(stacked(
		card(deck.Spades, deck.Ten), card(deck.Hearts, deck.Nine),
		card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Five),
		card(deck.Spades, deck.Six), // dealer draws to 18
	)))

	startGame(t, c, 100)
	_, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)

	_, err = c.Submit(ctx, chain.StandAction())
	require.NoError(t, err)

	snap, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseFinished, snap.Phase)
	assert.Equal(t, 18, snap.DealerTotal)
	assert.Equal(t, chain.ResolutionPlayerWin, snap.Resolution, "19 beats 18")

	amount, err := c.ClaimableAmount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, amount.Cmp(big.NewInt(200)))
}

func TestTradingPeriodGatesActions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := quartz.NewMock(t)
	c := New(testLogger(),
		WithClock(mock),
		WithTradingPeriod(30*time.Second),
		WithStackedShoes(stacked(
			card(deck.Spades, deck.Ten), card(deck.Hearts, deck.Nine),
			card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
		)),
	)

	startGame(t, c, 100)

	snap, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseActive, snap.Phase)
	assert.False(t, snap.CanHit)
	assert.False(t, snap.CanStand)
	assert.Equal(t, int64(30), snap.SecondsUntilCanAct)

	_, err = c.Submit(ctx, chain.HitAction())
	require.Error(t, err, "hit during trading period must revert")

	mock.Advance(30 * time.Second)

	snap, err = c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.CanHit)
	assert.Zero(t, snap.SecondsUntilCanAct)

	_, err = c.Submit(ctx, chain.HitAction())
	require.NoError(t, err)
}

func TestSilentNoopLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(testLogger(), WithStackedShoes(stacked(
		card(deck.Spades, deck.Ten), card(deck.Hearts, deck.Nine),
		card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
	)))

	startGame(t, c, 100)
	before, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, chain.PhaseActive, before.Phase)

	c.SilentNoopNextSubmit(1)
	ref, err := c.Submit(ctx, chain.HitAction())
	require.NoError(t, err, "the outer transaction succeeds")
	receipt, err := c.AwaitConfirmation(ctx, ref)
	require.NoError(t, err)
	assert.True(t, receipt.Succeeded, "receipt success does not prove effect")

	after, err := c.FetchSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, chain.PhaseActive, after.Phase, "the hit never took effect")
	assert.Len(t, after.PlayerCards, 2)
}

func TestStartBlockedByUnclaimedWinnings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(testLogger(), WithStackedShoes(stacked(
		card(deck.Spades, deck.Ace), card(deck.Hearts, deck.King),
		card(deck.Clubs, deck.Seven), card(deck.Diamonds, deck.Ten),
	)))

	startGame(t, c, 100)
	_, err := c.FetchSnapshot(ctx) // natural, winnings now claimable
	require.NoError(t, err)

	_, err = c.Submit(ctx, chain.StartAction(big.NewInt(100)))
	require.Error(t, err, "unclaimed winnings block a new game")

	_, err = c.Submit(ctx, chain.ClaimAction(1))
	require.NoError(t, err)

	amount, err := c.ClaimableAmount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, amount.Sign())

	_, err = c.Submit(ctx, chain.StartAction(big.NewInt(100)))
	require.NoError(t, err)
}

func TestWagerBelowMinimumRejected(t *testing.T) {
	t.Parallel()

	c := New(testLogger(), WithMinWager(big.NewInt(50)))
	_, err := c.Submit(context.Background(), chain.StartAction(big.NewInt(10)))
	require.Error(t, err)
}
