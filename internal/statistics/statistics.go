package statistics

import "fmt"

// Outcome classifies one concluded hand.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeLoss
	OutcomePush
	OutcomeBust
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomePush:
		return "push"
	case OutcomeBust:
		return "bust"
	default:
		return "unknown"
	}
}

// Statistics tracks cumulative blackjack results. Counters are monotonic
// and updated exactly once per concluded hand; a bust counts as a loss in
// the aggregate but is also tracked separately.
type Statistics struct {
	GamesPlayed int `json:"gamesPlayed"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Pushes      int `json:"pushes"`
	Busts       int `json:"busts"`

	// CurrentStreak is positive for a run of wins, negative for a run of
	// losses. Pushes leave it untouched.
	CurrentStreak     int `json:"currentStreak"`
	LongestWinStreak  int `json:"longestWinStreak"`
	LongestLossStreak int `json:"longestLossStreak"`
}

// Add incorporates one concluded hand into the statistics.
func (s *Statistics) Add(outcome Outcome) {
	s.GamesPlayed++

	switch outcome {
	case OutcomeWin:
		s.Wins++
		if s.CurrentStreak < 0 {
			s.CurrentStreak = 0
		}
		s.CurrentStreak++
		if s.CurrentStreak > s.LongestWinStreak {
			s.LongestWinStreak = s.CurrentStreak
		}
	case OutcomeLoss, OutcomeBust:
		s.Losses++
		if outcome == OutcomeBust {
			s.Busts++
		}
		if s.CurrentStreak > 0 {
			s.CurrentStreak = 0
		}
		s.CurrentStreak--
		if -s.CurrentStreak > s.LongestLossStreak {
			s.LongestLossStreak = -s.CurrentStreak
		}
	case OutcomePush:
		s.Pushes++
	}
}

// WinRate returns wins over games played, 0 when nothing has been played.
func (s *Statistics) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.GamesPlayed)
}

// Merge folds another statistics block into this one. Streak fields take
// the other block's values since it is the more recent run.
func (s *Statistics) Merge(other Statistics) {
	s.GamesPlayed += other.GamesPlayed
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Pushes += other.Pushes
	s.Busts += other.Busts
	s.CurrentStreak = other.CurrentStreak
	if other.LongestWinStreak > s.LongestWinStreak {
		s.LongestWinStreak = other.LongestWinStreak
	}
	if other.LongestLossStreak > s.LongestLossStreak {
		s.LongestLossStreak = other.LongestLossStreak
	}
}

// Validate performs sanity checks on the counters.
func (s *Statistics) Validate() error {
	if s.Wins+s.Losses+s.Pushes != s.GamesPlayed {
		return fmt.Errorf("outcome counts (%d+%d+%d) do not sum to games played (%d)",
			s.Wins, s.Losses, s.Pushes, s.GamesPlayed)
	}
	if s.Busts > s.Losses {
		return fmt.Errorf("busts (%d) exceed losses (%d)", s.Busts, s.Losses)
	}
	if s.LongestWinStreak > s.Wins {
		return fmt.Errorf("longest win streak (%d) exceeds wins (%d)", s.LongestWinStreak, s.Wins)
	}
	if s.LongestLossStreak > s.Losses {
		return fmt.Errorf("longest loss streak (%d) exceeds losses (%d)", s.LongestLossStreak, s.Losses)
	}
	return nil
}

// Summary returns a one-line human-readable summary.
func (s *Statistics) Summary() string {
	return fmt.Sprintf("played=%d wins=%d losses=%d pushes=%d busts=%d winRate=%.1f%% streak=%d",
		s.GamesPlayed, s.Wins, s.Losses, s.Pushes, s.Busts, s.WinRate()*100, s.CurrentStreak)
}
