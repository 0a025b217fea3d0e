package strategy

import "fmt"

// DefaultThreshold is the stand threshold used when none is configured.
// 17 mirrors the dealer's own fixed rule.
const DefaultThreshold = 17

// Threshold hits below a fixed total and stands at or above it,
// regardless of the dealer's up card.
type Threshold struct {
	limit int
}

// NewThreshold creates a threshold strategy standing at limit.
func NewThreshold(limit int) Threshold {
	return Threshold{limit: limit}
}

// Name returns the strategy name
func (t Threshold) Name() string {
	return fmt.Sprintf("threshold-%d", t.limit)
}

// Decide hits while the total is below the limit.
func (t Threshold) Decide(in Input) Action {
	if in.PlayerTotal < t.limit {
		return Hit
	}
	return Stand
}

// Mimic plays the dealer's own fixed rule from the player's seat.
type Mimic struct {
	Threshold
}

// NewMimic creates a dealer-mimic strategy.
func NewMimic() Mimic {
	return Mimic{NewThreshold(17)}
}

// Name returns the strategy name
func (Mimic) Name() string { return "mimic" }
