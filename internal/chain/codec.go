package chain

import "github.com/chainjack/chainjack/internal/deck"

// decodeCards converts a wire card-index array into cards, preserving
// deal order.
func decodeCards(indexes []uint8) ([]deck.Card, error) {
	if len(indexes) == 0 {
		return nil, nil
	}
	cards := make([]deck.Card, len(indexes))
	for i, idx := range indexes {
		card, err := deck.FromIndex(idx)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return cards, nil
}

// EncodeCards converts cards to the wire card-index encoding. The
// simulator uses this to mirror what the real contract returns.
func EncodeCards(cards []deck.Card) []uint8 {
	if len(cards) == 0 {
		return nil
	}
	out := make([]uint8, len(cards))
	for i, c := range cards {
		out[i] = c.Index()
	}
	return out
}
