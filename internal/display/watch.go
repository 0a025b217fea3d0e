package display

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/muesli/termenv"

	"github.com/chainjack/chainjack/internal/deck"
	"github.com/chainjack/chainjack/internal/statistics"
)

const (
	reconnectDelay = 2 * time.Second
	statusInterval = 2 * time.Second
)

// wireEnvelope mirrors the server's event envelope with the payload left
// raw for kind-specific decoding.
type wireEnvelope struct {
	Seq  uint64          `json:"seq"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type wireCard struct {
	Suit deck.Suit `json:"Suit"`
	Rank deck.Rank `json:"Rank"`
}

type wireStatus struct {
	IsRunning     bool                  `json:"isRunning"`
	CurrentPhase  string                `json:"currentPhase"`
	Stats         statistics.Statistics `json:"stats"`
	CurrentGameID uint64                `json:"currentGameId"`
	LastError     string                `json:"lastError"`
}

// Watch connects to a control server and renders its event stream until
// the user quits or the context is cancelled.
func Watch(ctx context.Context, baseURL string, logger *log.Logger) error {
	logger = logger.WithPrefix("watch")
	model := NewModel()

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if termenv.ColorProfile() != termenv.Ascii {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, opts...)

	streamCtx, stopStream := context.WithCancel(ctx)
	defer stopStream()
	go streamEvents(streamCtx, program, baseURL, logger)
	go pollStatus(streamCtx, program, baseURL)

	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		// cancelled from outside; not a display fault
		return nil
	}
	return err
}

// streamEvents maintains the websocket, resuming from the last seen seq
// across reconnects so no event is skipped.
func streamEvents(ctx context.Context, program *tea.Program, baseURL string, logger *log.Logger) {
	wsURL := strings.Replace(baseURL, "http", "ws", 1) + "/ws"
	lastSeq := uint64(0)

	for ctx.Err() == nil {
		url := fmt.Sprintf("%s?since=%d", wsURL, lastSeq)
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			program.Send(ConnStateMsg{Connected: false})
			logger.Debug("dial failed, retrying", "url", url, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}
		resp.Body.Close()
		program.Send(ConnStateMsg{Connected: true})

		for {
			var env wireEnvelope
			if err := conn.ReadJSON(&env); err != nil {
				break
			}
			lastSeq = env.Seq
			if line, ok := formatEnvelope(env); ok {
				program.Send(EventLineMsg{Line: line})
			}
		}
		conn.Close()
		program.Send(ConnStateMsg{Connected: false})
	}
}

func pollStatus(ctx context.Context, program *tea.Program, baseURL string) {
	client := &http.Client{Timeout: statusInterval}
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/status", nil)
		if err != nil {
			return
		}
		if resp, err := client.Do(req); err == nil {
			var status wireStatus
			if json.NewDecoder(resp.Body).Decode(&status) == nil {
				program.Send(StatusMsg{
					Running:   status.IsRunning,
					Phase:     status.CurrentPhase,
					GameID:    status.CurrentGameID,
					LastError: status.LastError,
					Stats:     status.Stats,
				})
			}
			resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// formatEnvelope renders one envelope as a log line. State changes are
// dropped: the header already shows the live phase.
func formatEnvelope(env wireEnvelope) (string, bool) {
	switch env.Kind {
	case "initial_deal":
		var data struct {
			GameID       uint64     `json:"gameId"`
			PlayerCards  []wireCard `json:"playerCards"`
			DealerCards  []wireCard `json:"dealerCards"`
			PlayerTotal  int        `json:"playerTotal"`
			DealerUpCard int        `json:"dealerUpCard"`
		}
		if json.Unmarshal(env.Data, &data) != nil {
			return "", false
		}
		return fmt.Sprintf("game #%d dealt %s (%d) vs dealer %s",
			data.GameID, formatCards(data.PlayerCards), data.PlayerTotal, upCardString(data.DealerCards)), true

	case "decision":
		var data struct {
			GameID      uint64 `json:"gameId"`
			Action      string `json:"action"`
			Strategy    string `json:"strategy"`
			PlayerTotal int    `json:"playerTotal"`
		}
		if json.Unmarshal(env.Data, &data) != nil {
			return "", false
		}
		return fmt.Sprintf("  %s on %d (%s)", data.Action, data.PlayerTotal, data.Strategy), true

	case "game_complete":
		var data struct {
			GameID      uint64 `json:"gameId"`
			Outcome     string `json:"outcome"`
			PlayerTotal int    `json:"playerTotal"`
			DealerTotal int    `json:"dealerTotal"`
		}
		if json.Unmarshal(env.Data, &data) != nil {
			return "", false
		}
		return fmt.Sprintf("game #%d %s  player %d, dealer %d",
			data.GameID, strings.ToUpper(data.Outcome), data.PlayerTotal, data.DealerTotal), true

	case "winnings_claimed":
		var data struct {
			GameID uint64   `json:"gameId"`
			Amount *big.Int `json:"amount"`
		}
		if json.Unmarshal(env.Data, &data) != nil || data.Amount == nil {
			return "", false
		}
		return fmt.Sprintf("game #%d claimed %s", data.GameID, formatWei(data.Amount)), true

	case "error":
		var data struct {
			Message string `json:"message"`
			Warning bool   `json:"warning"`
		}
		if json.Unmarshal(env.Data, &data) != nil {
			return "", false
		}
		level := "error"
		if data.Warning {
			level = "warning"
		}
		return fmt.Sprintf("%s: %s", level, data.Message), true

	default:
		return "", false
	}
}

func formatCards(cards []wireCard) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = deck.NewCard(c.Suit, c.Rank).String()
	}
	return strings.Join(parts, " ")
}

func upCardString(dealer []wireCard) string {
	if len(dealer) == 0 {
		return "?"
	}
	return deck.NewCard(dealer[0].Suit, dealer[0].Rank).String()
}

// formatWei renders a wei amount in ether when it divides cleanly.
func formatWei(amount *big.Int) string {
	ether := new(big.Int)
	remainder := new(big.Int)
	ether.QuoRem(amount, big.NewInt(1e18), remainder)
	if remainder.Sign() == 0 {
		return ether.String() + " ETH"
	}
	return amount.String() + " wei"
}
