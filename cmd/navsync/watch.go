package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
)

// watchCmd keeps the store current by filling the gap on an interval.
type watchCmd struct {
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "fill the coverage gap now and then periodically" }
func (*watchCmd) Usage() string {
	return `navsync watch [-interval 6h]

  Runs the gap fill immediately and again every interval until interrupted.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.interval, "interval", 0, "Time between runs (defaults to schedule.interval)")
}

func (c *watchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.interval < 0 {
		fmt.Fprintln(os.Stderr, "Error: -interval must be positive")
		return subcommands.ExitUsageError
	}

	a, status := openApp(c.Name())
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	interval := c.interval
	if interval == 0 {
		interval = a.Config.Schedule.GetInterval()
	}
	a.Watch(ctx, interval)
	return subcommands.ExitSuccess
}
