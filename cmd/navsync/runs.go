package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/bobmcallan/navsync/internal/models"
)

// runsCmd prints the run journal.
type runsCmd struct {
	limit int
}

func (*runsCmd) Name() string     { return "runs" }
func (*runsCmd) Synopsis() string { return "list recent pipeline runs" }
func (*runsCmd) Usage() string {
	return `navsync runs [-limit 20]

  Prints the most recent runs with the number of processed, skipped and
  failed dates, newest first.
`
}

func (c *runsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 20, "Number of runs to show")
}

func (c *runsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.limit <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -limit must be positive")
		return subcommands.ExitUsageError
	}

	a, status := openApp(c.Name())
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	runs, err := a.Storage.RunStore().ListRuns(ctx, c.limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	printRuns(os.Stdout, runs)
	return subcommands.ExitSuccess
}

func printRuns(out io.Writer, runs []*models.RunReport) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tDATES\tPROCESSED\tSKIPPED\tFAILED\tRUN")
	for _, r := range runs {
		dates := fmt.Sprintf("%s..%s", r.From, r.To)
		if r.UpToDate {
			dates = "up to date"
		} else if r.From == r.To {
			dates = r.From.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Mode, dates,
			len(r.Processed()), len(r.Skipped()), len(r.Failed()), r.RunID)
	}
	w.Flush()
}
