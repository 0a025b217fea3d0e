package player

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/events"
	"github.com/chainjack/chainjack/internal/poller"
	"github.com/chainjack/chainjack/internal/statistics"
	"github.com/chainjack/chainjack/internal/strategy"
)

// Orchestrator drives exactly one full game cycle at a time: resume or
// start, play the hand to a terminal phase, classify the outcome, claim
// winnings. It owns the statistics block and the local state machine and
// publishes every transition to the event log.
type Orchestrator struct {
	gateway chain.Gateway
	strat   strategy.Strategy
	events  *events.Log
	poller  *poller.Poller
	clock   quartz.Clock
	logger  *log.Logger

	wager         *big.Int
	actionRecheck time.Duration

	mu         sync.Mutex
	state      GameLoopState
	gameID     uint64
	lastError  string
	statistics statistics.Statistics
}

// OrchestratorOption customises an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithClock injects the clock used for event timestamps and the
// actionability re-check sleep.
func WithClock(clock quartz.Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithPoller replaces the default snapshot poller.
func WithPoller(p *poller.Poller) OrchestratorOption {
	return func(o *Orchestrator) { o.poller = p }
}

// WithActionRecheck sets the sleep before re-reading a hand that is
// active but not yet actionable and reports no countdown.
func WithActionRecheck(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.actionRecheck = d }
}

// WithStatistics seeds the cumulative statistics, typically loaded from
// a previous run's persisted history.
func WithStatistics(stats statistics.Statistics) OrchestratorOption {
	return func(o *Orchestrator) { o.statistics = stats }
}

// New creates an orchestrator playing with the given wager in wei.
func New(gateway chain.Gateway, strat strategy.Strategy, wager *big.Int, eventLog *events.Log, logger *log.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		gateway:       gateway,
		strat:         strat,
		events:        eventLog,
		clock:         quartz.NewReal(),
		logger:        logger.WithPrefix("orchestrator"),
		wager:         new(big.Int).Set(wager),
		actionRecheck: 2 * time.Second,
		state:         StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.poller == nil {
		o.poller = poller.New(gateway, logger, poller.WithClock(o.clock))
	}
	return o
}

// Status returns a point-in-time copy of the orchestrator's state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		CurrentPhase:  o.state.String(),
		Stats:         o.statistics,
		CurrentGameID: o.gameID,
		LastError:     o.lastError,
		Strategy:      o.strat.Name(),
	}
}

// Stats returns a copy of the cumulative statistics.
func (o *Orchestrator) Stats() statistics.Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.statistics
}

// RunOneCycle plays one complete hand from whatever state the chain is
// in and returns its outcome. Cancellation via cancel is cooperative: it
// is honoured at poll boundaries, never mid-transaction, and surfaces as
// ErrCancelled without being recorded as a fault.
func (o *Orchestrator) RunOneCycle(ctx context.Context, cancel poller.CancelFunc) (statistics.Outcome, error) {
	outcome, err := o.runCycle(ctx, cancel)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			o.setState(StateIdle)
			return statistics.OutcomeUnknown, err
		}
		o.recordError(err)
		return statistics.OutcomeUnknown, err
	}
	return outcome, nil
}

func (o *Orchestrator) runCycle(ctx context.Context, cancel poller.CancelFunc) (statistics.Outcome, error) {
	o.setState(StateIdle)

	if cancel() {
		return statistics.OutcomeUnknown, ErrCancelled
	}

	snap, err := o.gateway.FetchSnapshot(ctx)
	if err != nil {
		return statistics.OutcomeUnknown, fmt.Errorf("initial snapshot: %w", err)
	}
	o.setGameID(snap.GameID)

	branch := Plan(snap)
	o.logger.Info("cycle planned", "branch", branch.String(), "phase", snap.Phase.String(), "gameId", snap.GameID)

	switch branch {
	case BranchClaimThenRestart:
		if err := o.claimIfOwed(ctx, snap.GameID); err != nil {
			return statistics.OutcomeUnknown, err
		}
		snap, err = o.startGame(ctx, cancel, snap.GameID)
	case BranchStartFresh:
		snap, err = o.startGame(ctx, cancel, snap.GameID)
	case BranchResumeActive:
		snap, err = o.resume(ctx, cancel, snap)
	default:
		return statistics.OutcomeUnknown, &UnknownStateError{Snapshot: snap}
	}
	if err != nil {
		return statistics.OutcomeUnknown, err
	}

	final, err := o.playHand(ctx, cancel, snap)
	if err != nil {
		return statistics.OutcomeUnknown, err
	}

	outcome := o.classifyOutcome(final)
	o.recordOutcome(final, outcome)
	o.setState(StateGameComplete)

	if outcome == statistics.OutcomeWin || outcome == statistics.OutcomePush {
		if err := o.claimIfOwed(ctx, final.GameID); err != nil {
			return statistics.OutcomeUnknown, err
		}
	}
	return outcome, nil
}

// startGame submits a new-game transaction and waits for the opening
// deal to land. prevGameID anchors the poll predicate so a stale read of
// the previous game is flagged instead of mistaken for progress.
func (o *Orchestrator) startGame(ctx context.Context, cancel poller.CancelFunc, prevGameID uint64) (*chain.Snapshot, error) {
	o.setState(StateStartingGame)

	if err := o.submitAndConfirm(ctx, cancel, chain.StartAction(o.wager)); err != nil {
		return nil, err
	}

	o.setState(StateWaitingInitialDeal)
	snap, err := o.poller.Await(ctx, poller.AfterStart(prevGameID), cancel)
	if err != nil {
		return nil, err
	}
	o.setGameID(snap.GameID)
	o.events.Append(events.NewInitialDealEvent(snap.GameID, snap.PlayerCards, snap.DealerCards, o.clock.Now()))
	o.logger.Info("deal landed",
		"gameId", snap.GameID,
		"playerTotal", snap.PlayerTotal,
		"dealerUpCard", upCard(snap))

	return o.awaitActionable(ctx, cancel, snap)
}

// resume picks up a game found mid-flight. Any pending phase is somebody
// else's transaction from this identity's past life, so resolution is
// awaited without a prior submission.
func (o *Orchestrator) resume(ctx context.Context, cancel poller.CancelFunc, snap *chain.Snapshot) (*chain.Snapshot, error) {
	o.logger.Info("resuming game", "gameId", snap.GameID, "phase", snap.Phase.String())

	switch snap.Phase {
	case chain.PhasePendingInitialDeal:
		o.setState(StateWaitingInitialDeal)
	case chain.PhasePendingHit:
		o.setState(StateWaitingHitVRF)
	case chain.PhasePendingStand:
		o.setState(StateWaitingStandVRF)
	case chain.PhaseActive:
		return o.awaitActionable(ctx, cancel, snap)
	default:
		return nil, &UnknownStateError{Snapshot: snap}
	}

	resolved, err := o.poller.Await(ctx, poller.ResumeFrom(snap.Phase), cancel)
	if err != nil {
		return nil, err
	}
	return o.awaitActionable(ctx, cancel, resolved)
}

// awaitActionable waits out the trading-period gate on an active hand.
// Terminal snapshots pass straight through.
func (o *Orchestrator) awaitActionable(ctx context.Context, cancel poller.CancelFunc, snap *chain.Snapshot) (*chain.Snapshot, error) {
	if snap.Phase.Terminal() || snap.CanHit || snap.CanStand {
		return snap, nil
	}
	if snap.SecondsUntilCanAct > 0 {
		o.setState(StateWaitingTradingPeriod)
		o.logger.Info("trading period open", "gameId", snap.GameID, "secondsLeft", snap.SecondsUntilCanAct)
		return o.poller.Await(ctx, poller.TradingOver(), cancel)
	}

	// Active, no countdown, yet not actionable. The gate computation on
	// chain may simply lag the clock; re-read after a short sleep.
	if cancel() {
		return nil, ErrCancelled
	}
	timer := o.clock.NewTimer(o.actionRecheck, "recheck")
	select {
	case <-ctx.Done():
		timer.Stop()
		return nil, ctx.Err()
	case <-timer.C:
	}
	if cancel() {
		return nil, ErrCancelled
	}
	fresh, err := o.gateway.FetchSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("actionability re-read: %w", err)
	}
	return o.awaitActionable(ctx, cancel, fresh)
}

// playHand runs the decide-submit-poll loop until the hand is terminal.
func (o *Orchestrator) playHand(ctx context.Context, cancel poller.CancelFunc, snap *chain.Snapshot) (*chain.Snapshot, error) {
	for {
		if snap.Phase.Terminal() {
			return snap, nil
		}
		if cancel() {
			return nil, ErrCancelled
		}
		if !snap.CanHit && !snap.CanStand {
			fresh, err := o.awaitActionable(ctx, cancel, snap)
			if err != nil {
				return nil, err
			}
			snap = fresh
			continue
		}

		o.setState(StatePlaying)
		input := strategy.InputFromHands(snap.PlayerCards, snap.DealerCards)
		decision := o.strat.Decide(input)
		o.events.Append(events.NewDecisionEvent(
			snap.GameID, decision.String(), o.strat.Name(),
			input.PlayerTotal, input.DealerUpCard, o.clock.Now()))
		o.logger.Info("decision",
			"gameId", snap.GameID,
			"action", decision.String(),
			"playerTotal", input.PlayerTotal,
			"dealerUpCard", input.DealerUpCard)

		var (
			action    chain.Action
			waitState GameLoopState
			classify  poller.Predicate
		)
		if decision == strategy.Hit {
			action = chain.HitAction()
			waitState = StateWaitingHitVRF
			classify = poller.AfterHit(len(snap.PlayerCards))
		} else {
			action = chain.StandAction()
			waitState = StateWaitingStandVRF
			classify = poller.AfterStand()
		}

		if err := o.submitAndConfirm(ctx, cancel, action); err != nil {
			return nil, err
		}

		o.setState(waitState)
		resolved, err := o.poller.Await(ctx, classify, cancel)
		if err != nil {
			return nil, err
		}
		snap = resolved
	}
}

// submitAndConfirm sends one contract write and waits for its receipt.
// The cancel flag is checked before submitting; once the transaction is
// in flight it is never abandoned, so confirmation is awaited even when
// a stop has been requested in the meantime.
func (o *Orchestrator) submitAndConfirm(ctx context.Context, cancel poller.CancelFunc, action chain.Action) error {
	if cancel() {
		return ErrCancelled
	}

	ref, err := o.gateway.Submit(ctx, action)
	if err != nil {
		return fmt.Errorf("submit %s: %w", action.Kind, err)
	}
	o.logger.Debug("transaction submitted", "action", action.Kind.String(), "ref", string(ref))

	receipt, err := o.gateway.AwaitConfirmation(ctx, ref)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", action.Kind, err)
	}
	if !receipt.Succeeded {
		return &TxFailedError{Action: action.Kind, Ref: ref}
	}
	return nil
}

// claimIfOwed checks for unclaimed winnings and claims them. A claim
// failure is retried once; a second failure is logged and published as a
// warning but does not fail the cycle, since the winnings stay claimable
// on chain and the next cycle will try again.
func (o *Orchestrator) claimIfOwed(ctx context.Context, gameID uint64) error {
	if gameID == 0 {
		return nil
	}
	o.setState(StateCheckingClaimable)

	amount, err := o.gateway.ClaimableAmount(ctx, gameID)
	if err != nil {
		return fmt.Errorf("claimable amount: %w", err)
	}
	if amount.Sign() == 0 {
		return nil
	}

	o.setState(StateClaimingWinnings)
	o.logger.Info("claiming winnings", "gameId", gameID, "amountWei", amount.String())

	claim := func() error {
		return o.submitAndConfirm(ctx, neverCancel, chain.ClaimAction(gameID))
	}
	err = claim()
	if err != nil {
		o.logger.Warn("claim failed, retrying once", "gameId", gameID, "error", err)
		err = claim()
	}
	if err != nil {
		o.logger.Warn("claim failed twice, leaving winnings for the next cycle", "gameId", gameID, "error", err)
		o.events.Append(events.NewErrorEvent(StateClaimingWinnings.String(), err.Error(), true, o.clock.Now()))
		return nil
	}

	o.events.Append(events.NewWinningsClaimedEvent(gameID, amount, o.clock.Now()))
	return nil
}

// classifyOutcome maps a terminal snapshot to an outcome. The contract's
// reported resolution is authoritative when present; totals only break
// the tie when it is absent, and a disagreement between the two is
// logged for diagnosis.
func (o *Orchestrator) classifyOutcome(snap *chain.Snapshot) statistics.Outcome {
	derived := outcomeFromTotals(snap)

	if snap.Resolution == chain.ResolutionUnknown {
		return derived
	}

	var reported statistics.Outcome
	switch snap.Resolution {
	case chain.ResolutionPlayerWin:
		reported = statistics.OutcomeWin
	case chain.ResolutionPush:
		reported = statistics.OutcomePush
	default:
		reported = statistics.OutcomeLoss
		if snap.PlayerTotal > 21 {
			reported = statistics.OutcomeBust
		}
	}

	if reported != derived {
		o.logger.Warn("contract resolution disagrees with local totals",
			"gameId", snap.GameID,
			"reported", reported.String(),
			"derived", derived.String(),
			"playerTotal", snap.PlayerTotal,
			"dealerTotal", snap.DealerTotal)
	}
	return reported
}

func outcomeFromTotals(snap *chain.Snapshot) statistics.Outcome {
	switch {
	case snap.PlayerTotal > 21:
		return statistics.OutcomeBust
	case snap.DealerTotal > 21:
		return statistics.OutcomeWin
	case snap.PlayerTotal > snap.DealerTotal:
		return statistics.OutcomeWin
	case snap.PlayerTotal < snap.DealerTotal:
		return statistics.OutcomeLoss
	default:
		return statistics.OutcomePush
	}
}

func (o *Orchestrator) recordOutcome(snap *chain.Snapshot, outcome statistics.Outcome) {
	o.mu.Lock()
	o.statistics.Add(outcome)
	o.mu.Unlock()

	o.events.Append(events.NewGameCompleteEvent(
		snap.GameID, outcome.String(), snap.PlayerCards, snap.DealerCards, o.clock.Now()))
	o.logger.Info("game complete",
		"gameId", snap.GameID,
		"outcome", outcome.String(),
		"playerTotal", snap.PlayerTotal,
		"dealerTotal", snap.DealerTotal)
}

func (o *Orchestrator) recordError(err error) {
	o.mu.Lock()
	o.lastError = err.Error()
	o.mu.Unlock()

	o.setState(StateError)
	o.events.Append(events.NewErrorEvent(StateError.String(), err.Error(), false, o.clock.Now()))
	o.logger.Error("cycle failed", "error", err)
}

// setState transitions the local state machine and publishes the change.
func (o *Orchestrator) setState(next GameLoopState) {
	o.mu.Lock()
	prev := o.state
	if prev == next {
		o.mu.Unlock()
		return
	}
	o.state = next
	gameID := o.gameID
	o.mu.Unlock()

	o.events.Append(events.NewStateChangeEvent(prev.String(), next.String(), gameID, o.clock.Now()))
	o.logger.Debug("state change", "from", prev.String(), "to", next.String())
}

func (o *Orchestrator) setGameID(id uint64) {
	o.mu.Lock()
	o.gameID = id
	o.mu.Unlock()
}

func upCard(snap *chain.Snapshot) int {
	if len(snap.DealerCards) == 0 {
		return 0
	}
	return snap.DealerCards[0].Value()
}

func neverCancel() bool { return false }
