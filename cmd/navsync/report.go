package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/navsync/internal/services/report"
)

// reportCmd prints the holding value per category for the latest dates.
type reportCmd struct {
	dates int
	chart string
	plain bool
	style string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "show holding value by category for recent dates" }
func (*reportCmd) Usage() string {
	return `navsync report [-dates 7] [-chart out.png] [-plain]

  Pivots the stored movements of the most recent dates by category, with the
  change between the last two dates.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.dates, "dates", 0, "Number of recent dates (defaults to report.dates)")
	f.StringVar(&c.chart, "chart", "", "Also write a PNG chart to this path")
	f.BoolVar(&c.plain, "plain", false, "Print raw Markdown instead of styled output")
	f.StringVar(&c.style, "style", "dark", "Terminal style (dark, light, notty)")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.dates < 0 {
		fmt.Fprintln(os.Stderr, "Error: -dates must be positive")
		return subcommands.ExitUsageError
	}

	a, status := openApp(c.Name())
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	n := c.dates
	if n == 0 {
		n = a.Config.Report.Dates
	}

	table, err := a.ReportService.Build(ctx, n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	md, err := table.Markdown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.plain {
		fmt.Print(md)
	} else {
		out, err := report.RenderTerminal(md, c.style)
		if err != nil {
			a.Logger.Warn().Err(err).Msg("Falling back to plain output")
			out = md
		}
		fmt.Print(out)
	}

	if c.chart != "" {
		png, err := report.RenderChart(table)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		if err := os.WriteFile(c.chart, png, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write chart: %v\n", err)
			return subcommands.ExitFailure
		}
		a.Logger.Info().Str("path", c.chart).Msg("Chart written")
	}
	return subcommands.ExitSuccess
}
