package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" help:"Play blackjack hands against the on-chain contract"`
	Serve    ServeCmd         `cmd:"" help:"Run the control API server"`
	Simulate SimulateCmd      `cmd:"" help:"Play against an in-memory simulated contract"`
	Watch    WatchCmd         `cmd:"" help:"Watch a running autoplayer's event stream"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("chainjack"),
		kong.Description("Autonomous blackjack player for VRF-randomized on-chain games"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
