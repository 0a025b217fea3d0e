// Package chain defines the boundary to the blackjack contract: the
// normalized snapshot of on-chain game state and the gateway used to read
// it and submit transactions. The contract itself is an external
// collaborator; nothing in this package interprets game rules beyond
// decoding what the contract reports.
package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chainjack/chainjack/internal/deck"
)

// Phase is the contract's authoritative hand state.
type Phase uint8

const (
	PhaseNone Phase = iota
	PhasePendingInitialDeal
	PhaseActive
	PhasePendingHit
	PhasePendingStand
	PhaseBusted
	PhaseFinished
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhasePendingInitialDeal:
		return "pending_initial_deal"
	case PhaseActive:
		return "active"
	case PhasePendingHit:
		return "pending_hit"
	case PhasePendingStand:
		return "pending_stand"
	case PhaseBusted:
		return "busted"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Terminal reports whether the hand has concluded. A natural 21 on the
// initial deal resolves straight to PhaseFinished without ever passing
// through PhaseActive, so terminal detection must not assume Active was
// observed first.
func (p Phase) Terminal() bool {
	return p == PhaseBusted || p == PhaseFinished
}

// PendingVRF reports whether the phase is waiting on a randomness callback.
func (p Phase) PendingVRF() bool {
	return p == PhasePendingInitialDeal || p == PhasePendingHit || p == PhasePendingStand
}

// Resolution is the contract's own classification of a concluded hand,
// when it reports one. ResolutionUnknown means the snapshot carried no
// resolution and the outcome must be derived from totals.
type Resolution uint8

const (
	ResolutionUnknown Resolution = iota
	ResolutionPlayerWin
	ResolutionDealerWin
	ResolutionPush
)

// String returns the string representation of a resolution
func (r Resolution) String() string {
	switch r {
	case ResolutionPlayerWin:
		return "player_win"
	case ResolutionDealerWin:
		return "dealer_win"
	case ResolutionPush:
		return "push"
	default:
		return "unknown"
	}
}

// Snapshot is a point-in-time read of on-chain game state for one
// identity. It is reconstructed fresh on every poll and never mutated;
// the core only compares successive snapshots to detect transitions.
type Snapshot struct {
	GameID      uint64
	Phase       Phase
	PlayerCards []deck.Card
	DealerCards []deck.Card

	// Derived hand values using standard soft/hard ace adjustment,
	// computed at decode time from the card arrays.
	PlayerTotal int
	DealerTotal int

	// Action gates computed by the contract from phase + timing. These
	// are authoritative; the core never re-derives them.
	CanHit      bool
	CanStand    bool
	CanStartNew bool

	TradingPeriodEndsAt time.Time
	LastActionAt        time.Time
	StartedAt           time.Time

	// SecondsUntilCanAct is max(0, TradingPeriodEndsAt - now) at read time.
	SecondsUntilCanAct int64

	// Resolution is the contract-reported outcome for terminal phases,
	// ResolutionUnknown when the contract does not expose one.
	Resolution Resolution
}

// Derive fills the computed totals and countdown from the raw fields.
// Gateways call this once after decoding.
func (s *Snapshot) Derive(now time.Time) {
	s.PlayerTotal = deck.Total(s.PlayerCards)
	s.DealerTotal = deck.Total(s.DealerCards)
	s.SecondsUntilCanAct = 0
	if remain := s.TradingPeriodEndsAt.Sub(now); remain > 0 {
		s.SecondsUntilCanAct = int64(remain / time.Second)
		if remain%time.Second != 0 {
			s.SecondsUntilCanAct++
		}
	}
}

// ActionKind identifies a contract write method.
type ActionKind uint8

const (
	ActionStart ActionKind = iota
	ActionHit
	ActionStand
	ActionClaim
)

// String returns the string representation of an action kind
func (k ActionKind) String() string {
	switch k {
	case ActionStart:
		return "start"
	case ActionHit:
		return "hit"
	case ActionStand:
		return "stand"
	case ActionClaim:
		return "claim"
	default:
		return fmt.Sprintf("action(%d)", uint8(k))
	}
}

// Action is a single contract write. Wager is set for ActionStart, in
// wei as arbitrary precision, and GameID for ActionClaim.
type Action struct {
	Kind   ActionKind
	Wager  *big.Int
	GameID uint64
}

// StartAction builds a new-game action with the given wager in wei.
func StartAction(wager *big.Int) Action {
	return Action{Kind: ActionStart, Wager: wager}
}

// HitAction builds a hit action.
func HitAction() Action { return Action{Kind: ActionHit} }

// StandAction builds a stand action.
func StandAction() Action { return Action{Kind: ActionStand} }

// ClaimAction builds a claim action for a concluded game.
func ClaimAction(gameID uint64) Action {
	return Action{Kind: ActionClaim, GameID: gameID}
}

// TxRef identifies a submitted transaction (the transaction hash on a
// real chain).
type TxRef string

// Receipt reports the outer result of a confirmed transaction. Succeeded
// only certifies that the transaction executed without reverting; the
// intended game action may still have silently no-op'd, so a successful
// receipt is license to begin polling, never proof of effect.
type Receipt struct {
	TxRef       TxRef
	Succeeded   bool
	BlockNumber uint64
}

// Gateway wraps read and write access to the blackjack contract for a
// single identity. Implementations are safe for use by one orchestrator
// at a time; the contract's one-game-per-identity rule is the real
// mutual-exclusion mechanism.
type Gateway interface {
	// Identity returns the address this gateway acts for.
	Identity() common.Address

	// FetchSnapshot reads the current game state. Reads have no side
	// effects: two fetches with no intervening submission return
	// identical data.
	FetchSnapshot(ctx context.Context) (*Snapshot, error)

	// Submit sends a contract write and returns its transaction ref.
	Submit(ctx context.Context, action Action) (TxRef, error)

	// AwaitConfirmation blocks until the transaction is mined.
	AwaitConfirmation(ctx context.Context, ref TxRef) (*Receipt, error)

	// ClaimableAmount returns the unclaimed winnings for a game, in wei.
	ClaimableAmount(ctx context.Context, gameID uint64) (*big.Int, error)
}
