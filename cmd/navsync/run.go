package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/bobmcallan/navsync/internal/date"
	"github.com/bobmcallan/navsync/internal/models"
)

// runCmd fills the coverage gap once, or processes one explicit date.
type runCmd struct {
	day string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "ingest every NAV report missing from the store" }
func (*runCmd) Usage() string {
	return `navsync run [-date YYYY-MM-DD]

  Fetches, reconciles and stores each day from the one after the latest
  stored date through yesterday. With -date, processes that single day.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.day, "date", "", "Process a single date (YYYY-MM-DD) instead of the coverage gap")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var day date.Date
	if c.day != "" {
		d, err := date.Parse(c.day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		day = d
	}

	a, status := openApp(c.Name())
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	var (
		report *models.RunReport
		err    error
	)
	if day.IsZero() {
		report, err = a.Scheduler.RunGap(ctx)
	} else {
		report, err = a.Scheduler.RunDate(ctx, day)
	}
	if report != nil {
		printRunSummary(os.Stdout, report)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printRunSummary writes one line per attempted date and the run totals.
func printRunSummary(w io.Writer, r *models.RunReport) {
	if r.UpToDate {
		fmt.Fprintf(w, "Up to date (latest stored date %s)\n", r.From.Add(-1))
		return
	}
	for _, o := range r.Outcomes {
		line := fmt.Sprintf("%s  %-9s", o.Date, o.Status)
		switch o.Status {
		case models.DateProcessed:
			line += fmt.Sprintf("  rows=%d matched=%d inserted=%d updated=%d", o.Rows, o.Matched, o.Upsert.Inserted, o.Upsert.Updated)
		case models.DateFailed:
			line += "  " + o.Error
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	t := r.Totals()
	fmt.Fprintf(w, "processed=%d skipped=%d failed=%d inserted=%d updated=%d\n",
		len(r.Processed()), len(r.Skipped()), len(r.Failed()), t.Inserted, t.Updated)
}
