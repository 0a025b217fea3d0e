package display

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind string
		data string
		want string
	}{
		{
			name: "initial deal",
			kind: "initial_deal",
			data: `{"gameId":7,"playerCards":[{"Suit":0,"Rank":14},{"Suit":1,"Rank":13}],
			        "dealerCards":[{"Suit":3,"Rank":9},{"Suit":2,"Rank":2}],"playerTotal":21,"dealerUpCard":9}`,
			want: "game #7 dealt A♠ K♥ (21) vs dealer 9♣",
		},
		{
			name: "decision",
			kind: "decision",
			data: `{"gameId":7,"action":"hit","strategy":"basic","playerTotal":14}`,
			want: "  hit on 14 (basic)",
		},
		{
			name: "game complete",
			kind: "game_complete",
			data: `{"gameId":7,"outcome":"win","playerTotal":20,"dealerTotal":19}`,
			want: "game #7 WIN  player 20, dealer 19",
		},
		{
			name: "claim",
			kind: "winnings_claimed",
			data: `{"gameId":7,"amount":2000000000000000000}`,
			want: "game #7 claimed 2 ETH",
		},
		{
			name: "warning",
			kind: "error",
			data: `{"message":"nonce too low","warning":true}`,
			want: "warning: nonce too low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			line, ok := formatEnvelope(wireEnvelope{Kind: tt.kind, Data: json.RawMessage(tt.data)})
			require.True(t, ok)
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestFormatEnvelopeSkipsStateChanges(t *testing.T) {
	t.Parallel()

	_, ok := formatEnvelope(wireEnvelope{Kind: "state_change", Data: json.RawMessage(`{}`)})
	assert.False(t, ok)
}

func TestFormatWei(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1 ETH", formatWei(big.NewInt(1e18)))
	assert.Equal(t, "1000000000000000 wei", formatWei(big.NewInt(1e15)))
}
