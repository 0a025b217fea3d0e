package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddOutcomes(t *testing.T) {
	t.Parallel()

	var s Statistics
	for _, o := range []Outcome{OutcomeWin, OutcomeWin, OutcomeLoss, OutcomeBust, OutcomePush, OutcomeWin} {
		s.Add(o)
	}

	assert.Equal(t, 6, s.GamesPlayed)
	assert.Equal(t, 3, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 1, s.Pushes)
	assert.Equal(t, 1, s.Busts)
	assert.InDelta(t, 0.5, s.WinRate(), 1e-9)
	require.NoError(t, s.Validate())
}

func TestStreaks(t *testing.T) {
	t.Parallel()

	var s Statistics
	s.Add(OutcomeWin)
	s.Add(OutcomeWin)
	s.Add(OutcomeWin)
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestWinStreak)

	s.Add(OutcomePush)
	assert.Equal(t, 3, s.CurrentStreak, "push leaves streak untouched")

	s.Add(OutcomeLoss)
	s.Add(OutcomeBust)
	assert.Equal(t, -2, s.CurrentStreak)
	assert.Equal(t, 2, s.LongestLossStreak)

	s.Add(OutcomeWin)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.LongestWinStreak)
	require.NoError(t, s.Validate())
}

func TestWinRateEmpty(t *testing.T) {
	t.Parallel()

	var s Statistics
	assert.Zero(t, s.WinRate())
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := Statistics{GamesPlayed: 3, Wins: 2, Losses: 1, LongestWinStreak: 2, LongestLossStreak: 1, CurrentStreak: -1}
	run := Statistics{GamesPlayed: 2, Wins: 0, Losses: 1, Pushes: 1, Busts: 1, LongestLossStreak: 3, CurrentStreak: -3}

	base.Merge(run)
	assert.Equal(t, 5, base.GamesPlayed)
	assert.Equal(t, 2, base.Wins)
	assert.Equal(t, 2, base.Losses)
	assert.Equal(t, 1, base.Pushes)
	assert.Equal(t, 1, base.Busts)
	assert.Equal(t, -3, base.CurrentStreak)
	assert.Equal(t, 2, base.LongestWinStreak)
	assert.Equal(t, 3, base.LongestLossStreak)
}

func TestValidateCatchesDrift(t *testing.T) {
	t.Parallel()

	s := Statistics{GamesPlayed: 2, Wins: 2, Losses: 1}
	require.Error(t, s.Validate())

	s = Statistics{GamesPlayed: 1, Losses: 0, Busts: 1}
	require.Error(t, s.Validate())
}
