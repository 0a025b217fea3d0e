package main

import (
	"errors"
	"fmt"

	"github.com/chainjack/chainjack/cmd/chainjack/shared"
	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/config"
	"github.com/chainjack/chainjack/internal/events"
	"github.com/chainjack/chainjack/internal/player"
	"github.com/chainjack/chainjack/internal/poller"
	"github.com/chainjack/chainjack/internal/statistics"
	"github.com/chainjack/chainjack/internal/strategy"
)

// PlayCmd plays hands against the real contract
type PlayCmd struct {
	Config    string `kong:"default='chainjack.hcl',help='Path to HCL config file'"`
	Cycles    int    `kong:"default='1',help='Hands to play; 0 runs until interrupted'"`
	Contract  string `kong:"help='Contract address (overrides config)'"`
	RPCURL    string `kong:"name='rpc-url',help='Ethereum RPC endpoint (overrides config)'"`
	Wager     string `kong:"help='Wager in wei (overrides config)'"`
	Strategy  string `kong:"help='Decision strategy (overrides config)'"`
	StatsFile string `kong:"name='stats-file',help='Persist cumulative statistics to this JSON file'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandler(logger)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Contract != "" {
		cfg.Chain.ContractAddress = c.Contract
	}
	if c.RPCURL != "" {
		cfg.Chain.RPCURL = c.RPCURL
	}
	if c.Wager != "" {
		cfg.Game.WagerWei = c.Wager
	}
	if c.Strategy != "" {
		cfg.Game.Strategy = c.Strategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Chain.ContractAddress == "" {
		return errors.New("no contract address configured")
	}

	strat, err := strategy.ForName(cfg.Game.Strategy)
	if err != nil {
		return err
	}
	key, err := cfg.PrivateKey()
	if err != nil {
		return err
	}

	gateway, err := chain.NewEthGateway(ctx, cfg.Chain.RPCURL, cfg.Chain.ContractAddress, key, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	logger.Info("playing on chain",
		"contract", cfg.Chain.ContractAddress,
		"identity", gateway.Identity().Hex(),
		"strategy", strat.Name(),
		"wagerWei", cfg.Game.WagerWei,
		"cycles", c.Cycles)

	orchOpts := []player.OrchestratorOption{
		player.WithPoller(poller.New(gateway, logger,
			poller.WithInterval(cfg.PollInterval()),
			poller.WithTimeout(cfg.PollTimeout()))),
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
	orch := player.New(gateway, strat, cfg.Wager(), eventLog, logger, orchOpts...)
	runner := player.NewRunner(orch, logger)

	if err := runner.Start(ctx, c.Cycles); err != nil {
		return err
	}

	// a signal requests a cooperative stop; the current transaction still
	// confirms before the run winds down
	go func() {
		<-ctx.Done()
		runner.RequestCancel()
	}()
	runner.Wait()

	status := runner.Status()
	stats := status.Stats
	fmt.Println(stats.Summary())

	if store != nil {
		if err := store.Save(stats); err != nil {
			logger.Warn("could not persist statistics", "error", err)
		}
	}
	if status.LastError != "" {
		return fmt.Errorf("run stopped: %s", status.LastError)
	}
	return nil
}
