package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainjack/chainjack/internal/deck"
)

func TestSnapshotDerive(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	snap := &Snapshot{
		Phase: PhaseActive,
		PlayerCards: []deck.Card{
			deck.NewCard(deck.Spades, deck.Ace),
			deck.NewCard(deck.Hearts, deck.King),
		},
		DealerCards: []deck.Card{
			deck.NewCard(deck.Clubs, deck.Six),
			deck.NewCard(deck.Diamonds, deck.Six),
		},
		TradingPeriodEndsAt: now.Add(30 * time.Second),
	}
	snap.Derive(now)

	assert.Equal(t, 21, snap.PlayerTotal)
	assert.Equal(t, 12, snap.DealerTotal)
	assert.Equal(t, int64(30), snap.SecondsUntilCanAct)
}

func TestSnapshotDeriveCountdownFloorsAtZero(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	snap := &Snapshot{TradingPeriodEndsAt: now.Add(-time.Minute)}
	snap.Derive(now)
	assert.Zero(t, snap.SecondsUntilCanAct)

	// partial seconds round up so callers never act a beat early
	snap = &Snapshot{TradingPeriodEndsAt: now.Add(1500 * time.Millisecond)}
	snap.Derive(now)
	assert.Equal(t, int64(2), snap.SecondsUntilCanAct)
}

func TestPhasePredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, PhaseBusted.Terminal())
	assert.True(t, PhaseFinished.Terminal())
	assert.False(t, PhaseActive.Terminal())
	assert.False(t, PhasePendingStand.Terminal())

	assert.True(t, PhasePendingInitialDeal.PendingVRF())
	assert.True(t, PhasePendingHit.PendingVRF())
	assert.True(t, PhasePendingStand.PendingVRF())
	assert.False(t, PhaseActive.PendingVRF())
	assert.False(t, PhaseNone.PendingVRF())
}

func TestCardCodecRoundTrip(t *testing.T) {
	t.Parallel()

	cards := []deck.Card{
		deck.NewCard(deck.Spades, deck.Two),
		deck.NewCard(deck.Clubs, deck.Ace),
		deck.NewCard(deck.Hearts, deck.Ten),
	}
	decoded, err := decodeCards(EncodeCards(cards))
	require.NoError(t, err)
	assert.Equal(t, cards, decoded)

	_, err = decodeCards([]uint8{200})
	require.Error(t, err)

	decoded, err = decodeCards(nil)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
