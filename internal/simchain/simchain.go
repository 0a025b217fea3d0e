// Package simchain is an in-memory stand-in for the blackjack contract.
// It implements the same observable semantics the chain gateway exposes:
// VRF callbacks land after a configurable latency, hit/stand are gated by
// a trading period, a natural 21 resolves straight to finished, and
// submissions can be made to silently no-op or revert to exercise the
// failure paths. Reads are a pure function of state and clock time.
package simchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/ethereum/go-ethereum/common"

	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/deck"
	"github.com/chainjack/chainjack/internal/randutil"
)

// dealerStandsAt is the dealer's fixed drawing rule.
const dealerStandsAt = 17

// SubmitRecord captures one accepted submission, for assertions on
// ordering and timing.
type SubmitRecord struct {
	Action chain.Action
	At     time.Time
}

// Contract simulates the on-chain game for a single identity.
type Contract struct {
	mu     sync.Mutex
	clock  quartz.Clock
	rng    *rand.Rand
	logger *log.Logger

	identity      common.Address
	minWager      *big.Int
	vrfLatency    time.Duration
	tradingPeriod time.Duration

	gameID      uint64
	phase       chain.Phase
	resolution  chain.Resolution
	playerCards []deck.Card
	dealerCards []deck.Card
	wager       *big.Int
	claimable   map[uint64]*big.Int

	startedAt     time.Time
	lastActionAt  time.Time
	tradingEndsAt time.Time
	vrfReadyAt    time.Time

	shoe         *deck.Shoe
	stackedShoes []*deck.Shoe

	silentNoops int
	reverts     map[chain.TxRef]bool
	nextNonce   uint64
	submitLog   []SubmitRecord
}

var _ chain.Gateway = (*Contract)(nil)

// Option customises the simulated contract.
type Option func(*Contract)

// WithClock injects the clock used for timestamps and gating.
func WithClock(clock quartz.Clock) Option {
	return func(c *Contract) { c.clock = clock }
}

// WithSeed makes card dealing deterministic.
func WithSeed(seed int64) Option {
	return func(c *Contract) { c.rng = randutil.New(seed) }
}

// WithVRFLatency sets how long a randomness callback takes to land.
func WithVRFLatency(d time.Duration) Option {
	return func(c *Contract) { c.vrfLatency = d }
}

// WithTradingPeriod sets the window after each resolution during which
// hit/stand are disallowed.
func WithTradingPeriod(d time.Duration) Option {
	return func(c *Contract) { c.tradingPeriod = d }
}

// WithMinWager sets the protocol minimum wager.
func WithMinWager(w *big.Int) Option {
	return func(c *Contract) { c.minWager = new(big.Int).Set(w) }
}

// WithStackedShoes queues scripted decks; each new game consumes one
// before falling back to shuffled shoes.
func WithStackedShoes(shoes ...*deck.Shoe) Option {
	return func(c *Contract) { c.stackedShoes = append(c.stackedShoes, shoes...) }
}

// WithIdentity sets the simulated player address.
func WithIdentity(addr common.Address) Option {
	return func(c *Contract) { c.identity = addr }
}

// New creates a simulated contract with no game started.
func New(logger *log.Logger, opts ...Option) *Contract {
	c := &Contract{
		clock:     quartz.NewReal(),
		rng:       randutil.New(1),
		logger:    logger.WithPrefix("simchain"),
		identity:  common.HexToAddress("0x00000000000000000000000000000000000C0FFE"),
		minWager:  big.NewInt(1),
		claimable: make(map[uint64]*big.Int),
		reverts:   make(map[chain.TxRef]bool),
		phase:     chain.PhaseNone,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SilentNoopNextSubmit arms the next n submissions to be accepted and
// confirmed but have no effect, mimicking a transaction whose intended
// action silently reverted inside the contract.
func (c *Contract) SilentNoopNextSubmit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.silentNoops = n
}

// SubmitLog returns a copy of all accepted submissions.
func (c *Contract) SubmitLog() []SubmitRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SubmitRecord, len(c.submitLog))
	copy(out, c.submitLog)
	return out
}

// TradingEndsAt returns the current trading-period deadline.
func (c *Contract) TradingEndsAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tradingEndsAt
}

// Identity returns the simulated player address.
func (c *Contract) Identity() common.Address {
	return c.identity
}

// FetchSnapshot returns the current game state. The returned snapshot is
// a pure function of contract state and clock time: reads with no
// intervening submission and no clock advance are identical.
func (c *Contract) FetchSnapshot(ctx context.Context) (*chain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now("simchain")
	c.resolvePendingLocked(now)

	snap := &chain.Snapshot{
		GameID:              c.gameID,
		Phase:               c.phase,
		Resolution:          c.resolution,
		PlayerCards:         append([]deck.Card(nil), c.playerCards...),
		DealerCards:         append([]deck.Card(nil), c.dealerCards...),
		CanStartNew:         c.phase == chain.PhaseNone || c.phase.Terminal(),
		TradingPeriodEndsAt: c.tradingEndsAt,
		LastActionAt:        c.lastActionAt,
		StartedAt:           c.startedAt,
	}
	if c.phase == chain.PhaseActive && !now.Before(c.tradingEndsAt) {
		snap.CanHit = true
		snap.CanStand = true
	}
	snap.Derive(now)
	return snap, nil
}

// Submit validates and applies a contract write. Illegal submissions
// error the way a reverting gas estimate would on a real chain.
func (c *Contract) Submit(ctx context.Context, action chain.Action) (chain.TxRef, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now("simchain")
	c.resolvePendingLocked(now)

	c.nextNonce++
	ref := chain.TxRef(fmt.Sprintf("sim-%06d", c.nextNonce))

	if c.silentNoops > 0 {
		c.silentNoops--
		c.logger.Debug("swallowing submission", "action", action.Kind.String(), "tx", string(ref))
		return ref, nil
	}

	if err := c.applyLocked(action, now); err != nil {
		return "", err
	}
	c.submitLog = append(c.submitLog, SubmitRecord{Action: action, At: now})
	return ref, nil
}

// AwaitConfirmation reports the receipt for a submitted transaction.
// Simulated transactions mine instantly.
func (c *Contract) AwaitConfirmation(ctx context.Context, ref chain.TxRef) (*chain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return &chain.Receipt{
		TxRef:       ref,
		Succeeded:   !c.reverts[ref],
		BlockNumber: c.nextNonce,
	}, nil
}

// ClaimableAmount returns unclaimed winnings for a game.
func (c *Contract) ClaimableAmount(ctx context.Context, gameID uint64) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if amount, ok := c.claimable[gameID]; ok {
		return new(big.Int).Set(amount), nil
	}
	return new(big.Int), nil
}

func (c *Contract) applyLocked(action chain.Action, now time.Time) error {
	switch action.Kind {
	case chain.ActionStart:
		if c.phase != chain.PhaseNone && !c.phase.Terminal() {
			return fmt.Errorf("game %d still in progress", c.gameID)
		}
		if action.Wager == nil || action.Wager.Cmp(c.minWager) < 0 {
			return fmt.Errorf("wager below protocol minimum %s", c.minWager)
		}
		for id, amount := range c.claimable {
			if amount.Sign() > 0 {
				return fmt.Errorf("unclaimed winnings on game %d", id)
			}
		}
		c.gameID++
		c.phase = chain.PhasePendingInitialDeal
		c.resolution = chain.ResolutionUnknown
		c.playerCards = nil
		c.dealerCards = nil
		c.wager = new(big.Int).Set(action.Wager)
		c.startedAt = now
		c.lastActionAt = now
		c.vrfReadyAt = now.Add(c.vrfLatency)
		c.shoe = c.nextShoe()

	case chain.ActionHit, chain.ActionStand:
		if c.phase != chain.PhaseActive {
			return fmt.Errorf("no active hand (phase %s)", c.phase)
		}
		if now.Before(c.tradingEndsAt) {
			return fmt.Errorf("trading period open for another %s", c.tradingEndsAt.Sub(now))
		}
		if action.Kind == chain.ActionHit {
			c.phase = chain.PhasePendingHit
		} else {
			c.phase = chain.PhasePendingStand
		}
		c.lastActionAt = now
		c.vrfReadyAt = now.Add(c.vrfLatency)

	case chain.ActionClaim:
		amount, ok := c.claimable[action.GameID]
		if !ok || amount.Sign() == 0 {
			return fmt.Errorf("nothing claimable for game %d", action.GameID)
		}
		c.claimable[action.GameID] = new(big.Int)

	default:
		return fmt.Errorf("unknown action kind %d", action.Kind)
	}
	return nil
}

// resolvePendingLocked lands the VRF callback once its latency has
// elapsed.
func (c *Contract) resolvePendingLocked(now time.Time) {
	if !c.phase.PendingVRF() || now.Before(c.vrfReadyAt) {
		return
	}

	switch c.phase {
	case chain.PhasePendingInitialDeal:
		c.playerCards = []deck.Card{c.shoe.Draw(), c.shoe.Draw()}
		c.dealerCards = []deck.Card{c.shoe.Draw(), c.shoe.Draw()}
		if deck.IsBlackjack(c.playerCards) {
			// natural resolves instantly, skipping Active and the market
			c.phase = chain.PhaseFinished
			c.resolution = chain.ResolutionPlayerWin
			c.payoutLocked()
		} else {
			c.phase = chain.PhaseActive
			c.tradingEndsAt = now.Add(c.tradingPeriod)
		}

	case chain.PhasePendingHit:
		c.playerCards = append(c.playerCards, c.shoe.Draw())
		if deck.Total(c.playerCards) > 21 {
			c.phase = chain.PhaseBusted
			c.resolution = chain.ResolutionDealerWin
			c.payoutLocked()
		} else {
			c.phase = chain.PhaseActive
			c.tradingEndsAt = now.Add(c.tradingPeriod)
		}

	case chain.PhasePendingStand:
		for deck.Total(c.dealerCards) < dealerStandsAt {
			c.dealerCards = append(c.dealerCards, c.shoe.Draw())
		}
		playerTotal := deck.Total(c.playerCards)
		dealerTotal := deck.Total(c.dealerCards)
		switch {
		case dealerTotal > 21 || playerTotal > dealerTotal:
			c.resolution = chain.ResolutionPlayerWin
		case dealerTotal > playerTotal:
			c.resolution = chain.ResolutionDealerWin
		default:
			c.resolution = chain.ResolutionPush
		}
		c.phase = chain.PhaseFinished
		c.payoutLocked()
	}

	c.logger.Debug("vrf callback landed",
		"game", c.gameID,
		"phase", c.phase.String(),
		"playerTotal", deck.Total(c.playerCards),
		"dealerTotal", deck.Total(c.dealerCards))
}

func (c *Contract) payoutLocked() {
	amount := new(big.Int)
	switch c.resolution {
	case chain.ResolutionPlayerWin:
		amount.Mul(c.wager, big.NewInt(2))
	case chain.ResolutionPush:
		amount.Set(c.wager)
	}
	if amount.Sign() > 0 {
		c.claimable[c.gameID] = amount
	}
}

func (c *Contract) nextShoe() *deck.Shoe {
	if len(c.stackedShoes) > 0 {
		shoe := c.stackedShoes[0]
		c.stackedShoes = c.stackedShoes[1:]
		return shoe
	}
	return deck.NewShoe(c.rng)
}
