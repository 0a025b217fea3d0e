// Package strategy holds the pluggable hit/stand decision functions.
// Strategies are pure: hand state in, action out, no chain interaction,
// so they can be swapped or tested in isolation.
package strategy

import (
	"fmt"
	"sort"

	"github.com/chainjack/chainjack/internal/deck"
)

// Action is a strategy's decision for the current hand.
type Action int

const (
	Hit Action = iota
	Stand
)

// String returns the string representation of an action
func (a Action) String() string {
	if a == Hit {
		return "hit"
	}
	return "stand"
}

// Input is everything a strategy may consider. DealerUpCard is the value
// of the dealer's visible card only; the hole card is unknown until the
// dealer plays.
type Input struct {
	PlayerTotal  int
	Soft         bool
	DealerUpCard int
	PlayerCards  []deck.Card
	DealerCards  []deck.Card
}

// InputFromHands builds an Input from the two card sequences.
func InputFromHands(playerCards, dealerCards []deck.Card) Input {
	total, soft := deck.TotalSoft(playerCards)
	return Input{
		PlayerTotal:  total,
		Soft:         soft,
		DealerUpCard: deck.UpCardValue(dealerCards),
		PlayerCards:  playerCards,
		DealerCards:  dealerCards,
	}
}

// Strategy decides whether to hit or stand.
type Strategy interface {
	Name() string
	Decide(in Input) Action
}

// constructors maps strategy names to their constructors.
var constructors = map[string]func() Strategy{
	"threshold": func() Strategy { return NewThreshold(DefaultThreshold) },
	"mimic":     func() Strategy { return NewMimic() },
	"basic":     func() Strategy { return Basic{} },
}

// ForName returns the named strategy, erroring with the valid choices.
func ForName(name string) (Strategy, error) {
	ctor, ok := constructors[name]
	if !ok {
		names := make([]string, 0, len(constructors))
		for n := range constructors {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, names)
	}
	return ctor(), nil
}
