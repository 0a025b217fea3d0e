package main

import (
	"strings"

	"github.com/chainjack/chainjack/cmd/chainjack/shared"
	"github.com/chainjack/chainjack/internal/display"
)

// WatchCmd renders a running autoplayer's event stream in the terminal
type WatchCmd struct {
	URL   string `kong:"default='http://localhost:8080',help='Control server base URL'"`
	Debug bool   `kong:"help='Enable debug logging'"`
}

func (c *WatchCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandler(logger)

	return display.Watch(ctx, strings.TrimRight(c.URL, "/"), logger)
}
