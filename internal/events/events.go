// Package events carries the ordered lifecycle event stream of a game
// cycle. The orchestrator appends; any number of observers subscribe and
// replay without affecting orchestration.
package events

import (
	"math/big"
	"time"

	"github.com/chainjack/chainjack/internal/deck"
)

// Kind represents an event kind with type safety
type Kind string

const (
	KindStateChange     Kind = "state_change"
	KindInitialDeal     Kind = "initial_deal"
	KindDecision        Kind = "decision"
	KindGameComplete    Kind = "game_complete"
	KindWinningsClaimed Kind = "winnings_claimed"
	KindError           Kind = "error"
)

// String returns the string representation of the event kind
func (k Kind) String() string {
	return string(k)
}

// Event is any lifecycle event emitted during a game cycle.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// StateChangeEvent is published on every local control-flow transition.
type StateChangeEvent struct {
	From      string `json:"from"`
	To        string `json:"to"`
	GameID    uint64 `json:"gameId,omitempty"`
	timestamp time.Time
}

func (e StateChangeEvent) Kind() Kind           { return KindStateChange }
func (e StateChangeEvent) Timestamp() time.Time { return e.timestamp }

// NewStateChangeEvent creates a new state change event
func NewStateChangeEvent(from, to string, gameID uint64, at time.Time) StateChangeEvent {
	return StateChangeEvent{From: from, To: to, GameID: gameID, timestamp: at}
}

// InitialDealEvent is published when the opening deal resolves.
type InitialDealEvent struct {
	GameID       uint64      `json:"gameId"`
	PlayerCards  []deck.Card `json:"playerCards"`
	DealerCards  []deck.Card `json:"dealerCards"`
	PlayerTotal  int         `json:"playerTotal"`
	DealerUpCard int         `json:"dealerUpCard"`
	timestamp    time.Time
}

func (e InitialDealEvent) Kind() Kind           { return KindInitialDeal }
func (e InitialDealEvent) Timestamp() time.Time { return e.timestamp }

// NewInitialDealEvent creates a new initial deal event
func NewInitialDealEvent(gameID uint64, playerCards, dealerCards []deck.Card, at time.Time) InitialDealEvent {
	pc := make([]deck.Card, len(playerCards))
	copy(pc, playerCards)
	dc := make([]deck.Card, len(dealerCards))
	copy(dc, dealerCards)
	return InitialDealEvent{
		GameID:       gameID,
		PlayerCards:  pc,
		DealerCards:  dc,
		PlayerTotal:  deck.Total(pc),
		DealerUpCard: deck.UpCardValue(dc),
		timestamp:    at,
	}
}

// DecisionEvent is published when the strategy chooses an action.
type DecisionEvent struct {
	GameID       uint64 `json:"gameId"`
	Action       string `json:"action"`
	Strategy     string `json:"strategy"`
	PlayerTotal  int    `json:"playerTotal"`
	DealerUpCard int    `json:"dealerUpCard"`
	timestamp    time.Time
}

func (e DecisionEvent) Kind() Kind           { return KindDecision }
func (e DecisionEvent) Timestamp() time.Time { return e.timestamp }

// NewDecisionEvent creates a new decision event
func NewDecisionEvent(gameID uint64, action, strategy string, playerTotal, dealerUp int, at time.Time) DecisionEvent {
	return DecisionEvent{
		GameID:       gameID,
		Action:       action,
		Strategy:     strategy,
		PlayerTotal:  playerTotal,
		DealerUpCard: dealerUp,
		timestamp:    at,
	}
}

// GameCompleteEvent is published when a hand reaches a terminal phase.
type GameCompleteEvent struct {
	GameID      uint64      `json:"gameId"`
	Outcome     string      `json:"outcome"`
	PlayerTotal int         `json:"playerTotal"`
	DealerTotal int         `json:"dealerTotal"`
	PlayerCards []deck.Card `json:"playerCards"`
	DealerCards []deck.Card `json:"dealerCards"`
	timestamp   time.Time
}

func (e GameCompleteEvent) Kind() Kind           { return KindGameComplete }
func (e GameCompleteEvent) Timestamp() time.Time { return e.timestamp }

// NewGameCompleteEvent creates a new game complete event
func NewGameCompleteEvent(gameID uint64, outcome string, playerCards, dealerCards []deck.Card, at time.Time) GameCompleteEvent {
	pc := make([]deck.Card, len(playerCards))
	copy(pc, playerCards)
	dc := make([]deck.Card, len(dealerCards))
	copy(dc, dealerCards)
	return GameCompleteEvent{
		GameID:      gameID,
		Outcome:     outcome,
		PlayerTotal: deck.Total(pc),
		DealerTotal: deck.Total(dc),
		PlayerCards: pc,
		DealerCards: dc,
		timestamp:   at,
	}
}

// WinningsClaimedEvent is published after a successful claim.
type WinningsClaimedEvent struct {
	GameID    uint64   `json:"gameId"`
	Amount    *big.Int `json:"amount"`
	timestamp time.Time
}

func (e WinningsClaimedEvent) Kind() Kind           { return KindWinningsClaimed }
func (e WinningsClaimedEvent) Timestamp() time.Time { return e.timestamp }

// NewWinningsClaimedEvent creates a new winnings claimed event
func NewWinningsClaimedEvent(gameID uint64, amount *big.Int, at time.Time) WinningsClaimedEvent {
	return WinningsClaimedEvent{GameID: gameID, Amount: new(big.Int).Set(amount), timestamp: at}
}

// ErrorEvent is published for every fault, fatal or not. Warning marks
// the recoverable category (claim failures).
type ErrorEvent struct {
	State     string `json:"state"`
	Message   string `json:"message"`
	Warning   bool   `json:"warning,omitempty"`
	timestamp time.Time
}

func (e ErrorEvent) Kind() Kind           { return KindError }
func (e ErrorEvent) Timestamp() time.Time { return e.timestamp }

// NewErrorEvent creates a new error event
func NewErrorEvent(state, message string, warning bool, at time.Time) ErrorEvent {
	return ErrorEvent{State: state, Message: message, Warning: warning, timestamp: at}
}
