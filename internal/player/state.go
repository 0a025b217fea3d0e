// Package player contains the game cycle core: the resumption planner
// that disambiguates whatever on-chain state a cycle wakes up to, the
// hand loop that drives hit/stand submissions and VRF polling, and the
// orchestrator that composes them into exactly one full game cycle.
package player

import (
	"github.com/chainjack/chainjack/internal/statistics"
)

// GameLoopState is the local control-flow phase of a cycle, distinct
// from the on-chain Snapshot phase.
type GameLoopState int

const (
	StateIdle GameLoopState = iota
	StateCheckingClaimable
	StateClaimingWinnings
	StateStartingGame
	StateWaitingInitialDeal
	StateWaitingTradingPeriod
	StatePlaying
	StateWaitingHitVRF
	StateWaitingStandVRF
	StateGameComplete
	StateError
)

// String returns the string representation of a game loop state
func (s GameLoopState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCheckingClaimable:
		return "checking_claimable"
	case StateClaimingWinnings:
		return "claiming_winnings"
	case StateStartingGame:
		return "starting_game"
	case StateWaitingInitialDeal:
		return "waiting_initial_deal"
	case StateWaitingTradingPeriod:
		return "waiting_trading_period"
	case StatePlaying:
		return "playing"
	case StateWaitingHitVRF:
		return "waiting_hit_vrf"
	case StateWaitingStandVRF:
		return "waiting_stand_vrf"
	case StateGameComplete:
		return "game_complete"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Status is the externally pollable view of a run. Reading it has no
// side effects.
type Status struct {
	IsRunning     bool                  `json:"isRunning"`
	CurrentPhase  string                `json:"currentPhase"`
	Stats         statistics.Statistics `json:"stats"`
	CurrentGameID uint64                `json:"currentGameId,omitempty"`
	LastError     string                `json:"lastError,omitempty"`
	Strategy      string                `json:"strategy"`
}
