package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainjack/chainjack/internal/chain"
)

func TestPlan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap chain.Snapshot
		want Branch
	}{
		{
			name: "no game ever played",
			snap: chain.Snapshot{Phase: chain.PhaseNone, CanStartNew: true},
			want: BranchStartFresh,
		},
		{
			name: "previous game finished",
			snap: chain.Snapshot{GameID: 3, Phase: chain.PhaseFinished, CanStartNew: true},
			want: BranchClaimThenRestart,
		},
		{
			name: "previous game busted",
			snap: chain.Snapshot{GameID: 3, Phase: chain.PhaseBusted, CanStartNew: true},
			want: BranchClaimThenRestart,
		},
		{
			// a natural resolves terminally without the hand ever having
			// been actionable; still just a concluded game
			name: "terminal without gates",
			snap: chain.Snapshot{GameID: 7, Phase: chain.PhaseFinished},
			want: BranchClaimThenRestart,
		},
		{
			name: "actionable hand in flight",
			snap: chain.Snapshot{GameID: 4, Phase: chain.PhaseActive, CanHit: true, CanStand: true},
			want: BranchResumeActive,
		},
		{
			name: "deal pending from a previous life",
			snap: chain.Snapshot{GameID: 4, Phase: chain.PhasePendingInitialDeal},
			want: BranchResumeActive,
		},
		{
			name: "hit pending from a previous life",
			snap: chain.Snapshot{GameID: 4, Phase: chain.PhasePendingHit},
			want: BranchResumeActive,
		},
		{
			name: "stand pending from a previous life",
			snap: chain.Snapshot{GameID: 4, Phase: chain.PhasePendingStand},
			want: BranchResumeActive,
		},
		{
			name: "no game but starting disallowed",
			snap: chain.Snapshot{Phase: chain.PhaseNone},
			want: BranchUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Plan(&tt.snap))
		})
	}
}
