package main

import (
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/chainjack/chainjack/cmd/chainjack/shared"
	"github.com/chainjack/chainjack/internal/chain"
	"github.com/chainjack/chainjack/internal/config"
	"github.com/chainjack/chainjack/internal/events"
	"github.com/chainjack/chainjack/internal/player"
	"github.com/chainjack/chainjack/internal/poller"
	"github.com/chainjack/chainjack/internal/server"
	"github.com/chainjack/chainjack/internal/strategy"
)

// ServeCmd runs the control API around an idle runner. Runs are then
// started and cancelled over HTTP.
type ServeCmd struct {
	Config  string `kong:"default='chainjack.hcl',help='Path to HCL config file'"`
	Addr    string `kong:"help='Listen address (overrides config)'"`
	NATSURL string `kong:"name='nats-url',help='NATS server to publish events to (overrides config)'"`
	Debug   bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandler(logger)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.NATSURL != "" {
		cfg.Server.NATSURL = c.NATSURL
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

	eventLog := events.NewLog()
	orch := player.New(gateway, strat, cfg.Wager(), eventLog, logger,
		player.WithPoller(poller.New(gateway, logger,
			poller.WithInterval(cfg.PollInterval()),
			poller.WithTimeout(cfg.PollTimeout()))))
	runner := player.NewRunner(orch, logger)

	if cfg.Server.NATSURL != "" {
		bridge, err := events.NewBridge(cfg.Server.NATSURL, eventLog, logger)
		if err != nil {
			return err
		}
		defer bridge.Close()
	}

	srv := server.New(runner, eventLog, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return srv.Run(groupCtx, cfg.Server.Address)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		runner.RequestCancel()
		runner.Wait()
		return nil
	})
	return group.Wait()
}
