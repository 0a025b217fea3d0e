package events

import (
	"sync"

	"github.com/google/uuid"
)

// Envelope wraps an event with its position in the stream. Seq is
// strictly monotonic within the log; consumers use it to detect and
// deduplicate at-least-once delivery.
type Envelope struct {
	ID   string `json:"id"`
	Seq  uint64 `json:"seq"`
	Kind Kind   `json:"kind"`
	Time int64  `json:"time"` // unix seconds
	Data Event  `json:"data"`
}

const subscriberBuffer = 256

// Log is an append-only, strictly ordered event log with fan-out
// subscriptions and replay. Append never blocks on consumers: a
// subscriber that falls more than a full buffer behind is dropped and
// must re-subscribe from its last seen seq.
type Log struct {
	mu      sync.Mutex
	entries []Envelope
	nextSeq uint64
	subs    map[int]chan Envelope
	nextSub int
}

// NewLog creates an empty event log.
func NewLog() *Log {
	return &Log{
		nextSeq: 1,
		subs:    make(map[int]chan Envelope),
	}
}

// Append assigns the next sequence number to the event, stores it, and
// fans it out to subscribers in order.
func (l *Log) Append(e Event) Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()

	env := Envelope{
		ID:   uuid.NewString(),
		Seq:  l.nextSeq,
		Kind: e.Kind(),
		Time: e.Timestamp().Unix(),
		Data: e,
	}
	l.nextSeq++
	l.entries = append(l.entries, env)

	for id, ch := range l.subs {
		select {
		case ch <- env:
		default:
			// consumer stalled a full buffer behind; cut it loose
			delete(l.subs, id)
			close(ch)
		}
	}
	return env
}

// Since returns a copy of all envelopes with Seq > seq, in order.
func (l *Log) Since(seq uint64) []Envelope {
	l.mu.Lock()
	defer l.mu.Unlock()

	// seq numbers are dense and 1-based, so the slice offset is direct
	if seq >= uint64(len(l.entries)) {
		return nil
	}
	out := make([]Envelope, len(l.entries)-int(seq))
	copy(out, l.entries[seq:])
	return out
}

// LastSeq returns the sequence number of the most recent envelope, 0
// when the log is empty.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq - 1
}

// Subscribe returns the replay of everything after fromSeq together with
// a live channel for subsequent envelopes, and a cancel func. The replay
// and the channel never overlap or reorder: the channel only carries
// envelopes appended after the replay was cut.
func (l *Log) Subscribe(fromSeq uint64) (replay []Envelope, live <-chan Envelope, cancel func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if fromSeq < uint64(len(l.entries)) {
		replay = make([]Envelope, len(l.entries)-int(fromSeq))
		copy(replay, l.entries[fromSeq:])
	}

	ch := make(chan Envelope, subscriberBuffer)
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	cancel = func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if existing, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(existing)
		}
	}
	return replay, ch, cancel
}
