package strategy

// Basic plays the hit/stand slice of the standard basic-strategy table
// (doubles and splits are not available actions in this game, so those
// columns collapse into their hit/stand fallbacks).
type Basic struct{}

// Name returns the strategy name
func (Basic) Name() string { return "basic" }

// Decide follows the basic-strategy table for the dealer's up card.
func (Basic) Decide(in Input) Action {
	if in.Soft {
		return decideSoft(in.PlayerTotal, in.DealerUpCard)
	}
	return decideHard(in.PlayerTotal, in.DealerUpCard)
}

func decideHard(total, dealerUp int) Action {
	switch {
	case total <= 11:
		return Hit
	case total == 12:
		// stand only against a weak dealer 4-6
		if dealerUp >= 4 && dealerUp <= 6 {
			return Stand
		}
		return Hit
	case total <= 16:
		// stand against dealer bust cards 2-6
		if dealerUp >= 2 && dealerUp <= 6 {
			return Stand
		}
		return Hit
	default:
		return Stand
	}
}

func decideSoft(total, dealerUp int) Action {
	switch {
	case total <= 17:
		return Hit
	case total == 18:
		// soft 18 hits against 9, 10 and ace
		if dealerUp >= 9 {
			return Hit
		}
		return Stand
	default:
		return Stand
	}
}
