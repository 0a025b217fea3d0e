package poller

import "github.com/chainjack/chainjack/internal/chain"

// Transition predicates for each submitted action. Each one partitions
// snapshots into exactly three verdicts: the expected pending phase is
// still in flight, the callback has resolved it, or the state is one the
// action could never have produced.

// AfterStart awaits the deal following a new-game submission.
// prevGameID is the game id observed before submitting; the contract
// assigns a strictly larger id to the new game. A natural 21 resolves
// straight to a terminal phase without passing through Active.
func AfterStart(prevGameID uint64) Predicate {
	return func(s *chain.Snapshot) Verdict {
		if s.GameID <= prevGameID {
			return Mismatch
		}
		switch {
		case s.Phase == chain.PhasePendingInitialDeal:
			return Pending
		case s.Phase == chain.PhaseActive || s.Phase.Terminal():
			return Resolved
		default:
			return Mismatch
		}
	}
}

// AfterHit awaits the card dealt by a hit. prevCardCount is the player
// card count before submitting; a resolved hit must have appended at
// least one card unless the hand went terminal.
func AfterHit(prevCardCount int) Predicate {
	return func(s *chain.Snapshot) Verdict {
		switch {
		case s.Phase == chain.PhasePendingHit:
			return Pending
		case s.Phase.Terminal():
			return Resolved
		case s.Phase == chain.PhaseActive && len(s.PlayerCards) > prevCardCount:
			return Resolved
		default:
			return Mismatch
		}
	}
}

// AfterStand awaits the dealer's full play, which one callback resolves.
// Standing always ends the hand, so only terminal phases count as
// resolved.
func AfterStand() Predicate {
	return func(s *chain.Snapshot) Verdict {
		switch {
		case s.Phase == chain.PhasePendingStand:
			return Pending
		case s.Phase.Terminal():
			return Resolved
		default:
			return Mismatch
		}
	}
}

// ResumeFrom awaits resolution of a pending phase found already in
// flight when a cycle resumed an interrupted game. No transaction was
// submitted by this process, so any actionable or terminal phase counts
// as resolved.
func ResumeFrom(pending chain.Phase) Predicate {
	return func(s *chain.Snapshot) Verdict {
		switch {
		case s.Phase == pending:
			return Pending
		case s.Phase == chain.PhaseActive || s.Phase.Terminal():
			return Resolved
		default:
			return Mismatch
		}
	}
}

// TradingOver awaits the end of a trading-period gate. There is no
// mismatch arm: the countdown can only run out, and a hand that resolves
// terminally while waiting also ends the wait.
func TradingOver() Predicate {
	return func(s *chain.Snapshot) Verdict {
		if s.Phase.Terminal() || s.SecondsUntilCanAct == 0 {
			return Resolved
		}
		return Pending
	}
}
