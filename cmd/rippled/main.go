package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mvasques/ripple/internal/daemon"
	"github.com/mvasques/ripple/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	feedFlag := flag.String("feed-url", "", "feed websocket URL (overrides config)")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Profile: name, FeedURL: *feedFlag}),
	)

	app.Run()
}
