package deck

import "math/rand/v2"

// Shoe is a shuffled set of cards dealt from the top. The contract deals
// from VRF output; the simulator deals from one of these.
type Shoe struct {
	cards []Card
	next  int
}

// NewShoe creates a single-deck shoe shuffled with the given RNG.
func NewShoe(rng *rand.Rand) *Shoe {
	cards := make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return &Shoe{cards: cards}
}

// NewStackedShoe creates a shoe that deals the given cards in order,
// for scripted games in tests.
func NewStackedShoe(cards ...Card) *Shoe {
	return &Shoe{cards: cards}
}

// Draw deals the next card. It panics if the shoe is exhausted, which
// cannot happen in a single blackjack hand from a full deck.
func (s *Shoe) Draw() Card {
	if s.next >= len(s.cards) {
		panic("shoe exhausted")
	}
	c := s.cards[s.next]
	s.next++
	return c
}

// Remaining returns the number of undealt cards.
func (s *Shoe) Remaining() int {
	return len(s.cards) - s.next
}
