package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/bobmcallan/navsync/internal/app"
	"github.com/bobmcallan/navsync/internal/common"
)

var configPath = flag.String("config", "", "Path to the navsync TOML config (defaults to NAVSYNC_CONFIG, then navsync.toml next to the binary)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&runCmd{}, "pipeline")
	commander.Register(&watchCmd{}, "pipeline")
	commander.Register(&runsCmd{}, "pipeline")
	commander.Register(&reportCmd{}, "reporting")
	commander.Register(&schemesCmd{}, "reporting")
	commander.Register(&versionCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// openApp initializes the app for a command and prints the startup banner.
func openApp(command string) (*app.App, subcommands.ExitStatus) {
	common.LoadVersionFromFile()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	logger := common.NewLoggerFromConfig(config.Logging)

	a, err := app.NewAppWithConfig(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	common.PrintBanner(os.Stderr, config, command, logger)
	return a, subcommands.ExitSuccess
}
