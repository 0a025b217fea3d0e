package player

import (
	"errors"
	"fmt"

	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/poller"
)

// ErrCancelled is the cooperative-stop result. It is a normal halt, not
// a fault: it is never recorded as the run's last error. The poller's
// sentinel is reused so cancellation observed at any suspension point
// matches the same errors.Is check.
var ErrCancelled = poller.ErrCancelled

// ErrUnknownState means the resumption planner's decision table found
// no match for the observed snapshot. The cycle fails rather than
// guessing.
var ErrUnknownState = errors.New("on-chain state matches no known branch")

// TxFailedError reports an explicitly failed/reverted receipt.
type TxFailedError struct {
	Action chain.ActionKind
	Ref    chain.TxRef
}

func (e *TxFailedError) Error() string {
	return fmt.Sprintf("%s transaction %s reverted", e.Action, e.Ref)
}

// UnknownStateError wraps ErrUnknownState with the snapshot that failed
// to classify, for diagnosis.
type UnknownStateError struct {
	Snapshot *chain.Snapshot
}

func (e *UnknownStateError) Error() string {
	return fmt.Sprintf("%s: phase=%s gameId=%d canStartNew=%v",
		ErrUnknownState, e.Snapshot.Phase, e.Snapshot.GameID, e.Snapshot.CanStartNew)
}

func (e *UnknownStateError) Unwrap() error { return ErrUnknownState }
