package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"
)

// subjectPrefix is the root of the NATS subject tree events publish to;
// the event kind is appended (e.g. chainjack.events.game_complete).
const subjectPrefix = "chainjack.events"

// Bridge republishes every log envelope to a NATS subject so external
// consumers can follow the stream without holding an HTTP connection to
// the runner.
type Bridge struct {
	nc     *nats.Conn
	log    *Log
	logger *log.Logger
	cancel func()
	done   chan struct{}
}

// NewBridge connects to the NATS server and starts forwarding from the
// beginning of the log.
func NewBridge(url string, eventLog *Log, logger *log.Logger) (*Bridge, error) {
	nc, err := nats.Connect(url,
		nats.Name("chainjack"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	b := &Bridge{
		nc:     nc,
		log:    eventLog,
		logger: logger.WithPrefix("nats"),
		done:   make(chan struct{}),
	}

	replay, live, cancel := eventLog.Subscribe(0)
	b.cancel = cancel

	go func() {
		defer close(b.done)
		for _, env := range replay {
			b.publish(env)
		}
		for env := range live {
			b.publish(env)
		}
	}()

	b.logger.Info("event bridge connected", "url", url)
	return b, nil
}

func (b *Bridge) publish(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("marshal envelope", "seq", env.Seq, "error", err)
		return
	}
	subject := fmt.Sprintf("%s.%s", subjectPrefix, env.Kind)
	if err := b.nc.Publish(subject, payload); err != nil {
		b.logger.Warn("publish failed", "subject", subject, "seq", env.Seq, "error", err)
	}
}

// Close stops forwarding and drains the connection.
func (b *Bridge) Close() {
	b.cancel()
	<-b.done
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn("drain failed", "error", err)
	}
}
