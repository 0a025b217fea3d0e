package main

import (
	"fmt"
	"math/big"
	"time"

	"github.com/chainjack/chainjack/cmd/chainjack/shared"
	"github.com/chainjack/chainjack/internal/events"
	"github.com/chainjack/chainjack/internal/player"
	"github.com/chainjack/chainjack/internal/poller"
	"github.com/chainjack/chainjack/internal/simchain"
	"github.com/chainjack/chainjack/internal/statistics"
	"github.com/chainjack/chainjack/internal/strategy"
)

// SimulateCmd plays against the in-memory contract, for strategy
// evaluation without spending gas.
type SimulateCmd struct {
	Cycles        int    `kong:"default='100',help='Hands to play'"`
	Strategy      string `kong:"default='basic',help='Decision strategy'"`
	Seed          *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	VRFLatencyMs  int    `kong:"name='vrf-latency-ms',default='0',help='Simulated randomness callback latency'"`
	TradingPeriod int    `kong:"name='trading-period',default='0',help='Simulated trading period in seconds'"`
	StatsFile     string `kong:"name='stats-file',help='Persist cumulative statistics to this JSON file'"`
	Debug         bool   `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandler(logger)

	strat, err := strategy.ForName(c.Strategy)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	logger.Info("simulating", "strategy", strat.Name(), "cycles", c.Cycles, "seed", seed)

	contract := simchain.New(logger,
		simchain.WithSeed(seed),
		simchain.WithVRFLatency(time.Duration(c.VRFLatencyMs)*time.Millisecond),
		simchain.WithTradingPeriod(time.Duration(c.TradingPeriod)*time.Second),
	)

	orchOpts := []player.OrchestratorOption{
		player.WithPoller(poller.New(contract, logger,
			poller.WithInterval(50*time.Millisecond))),
	}

	var store *statistics.Store
	if c.StatsFile != "" {
		store = statistics.NewStore(c.StatsFile)
		prior, err := store.Load()
		if err != nil {
			return err
		}
		orchOpts = append(orchOpts, player.WithStatistics(prior))
	}

	eventLog := events.NewLog()
	orch := player.New(contract, strat, big.NewInt(100), eventLog, logger, orchOpts...)
	runner := player.NewRunner(orch, logger)

	if err := runner.Start(ctx, c.Cycles); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		runner.RequestCancel()
	}()
	runner.Wait()

	status := runner.Status()
	fmt.Println(status.Stats.Summary())

	if store != nil {
		if err := store.Save(status.Stats); err != nil {
			logger.Warn("could not persist statistics", "error", err)
		}
	}
	if status.LastError != "" {
		return fmt.Errorf("simulation stopped: %s", status.LastError)
	}
	return nil
}
