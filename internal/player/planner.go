package player

import "github.com/chainjack/chainjack/internal/chain"

// Branch is the resumption planner's verdict on an initial snapshot.
type Branch int

const (
	// BranchStartFresh means no game is in flight and a new one can begin.
	BranchStartFresh Branch = iota
	// BranchClaimThenRestart means the previous game concluded; any owed
	// winnings must be claimed before starting the next hand.
	BranchClaimThenRestart
	// BranchResumeActive means a game is mid-flight (actionable or pending
	// a randomness callback) and must be picked up where it stands.
	BranchResumeActive
	// BranchUnknown means the snapshot fits no recognised shape. The cycle
	// fails rather than submitting into a state it cannot reason about.
	BranchUnknown
)

// String returns the string representation of a branch
func (b Branch) String() string {
	switch b {
	case BranchStartFresh:
		return "start_fresh"
	case BranchClaimThenRestart:
		return "claim_then_restart"
	case BranchResumeActive:
		return "resume_active"
	default:
		return "unknown"
	}
}

// Plan classifies the snapshot a cycle wakes up to. The process may have
// crashed or been stopped at any point, so every reachable shape of
// on-chain state must map to exactly one branch. Classification leans on
// the contract's own action gates rather than re-deriving legality; the
// terminal check also covers a natural 21 that concluded without the
// hand ever being actionable.
func Plan(s *chain.Snapshot) Branch {
	switch {
	case s.GameID != 0 && (s.Phase.Terminal() || s.CanStartNew):
		return BranchClaimThenRestart
	case s.GameID != 0:
		return BranchResumeActive
	case s.CanStartNew:
		return BranchStartFresh
	default:
		return BranchUnknown
	}
}
