package deck

// Total returns the blackjack value of a hand using standard soft/hard
// ace adjustment: aces are summed at 11, then demoted to 1 one at a time
// while the total exceeds 21.
func Total(cards []Card) int {
	total, _ := TotalSoft(cards)
	return total
}

// TotalSoft returns the hand value along with whether the hand is soft,
// i.e. at least one ace is still counted as 11.
func TotalSoft(cards []Card) (int, bool) {
	total := 0
	aces := 0
	for _, c := range cards {
		total += c.Value()
		if c.IsAce() {
			aces++
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// IsBlackjack reports whether the hand is a natural: exactly two cards
// totalling 21.
func IsBlackjack(cards []Card) bool {
	return len(cards) == 2 && Total(cards) == 21
}

// UpCardValue returns the blackjack value of the dealer's visible card,
// or 0 if no card has been dealt yet. By convention the first dealer card
// is the up card.
func UpCardValue(dealerCards []Card) int {
	if len(dealerCards) == 0 {
		return 0
	}
	return dealerCards[0].Value()
}
