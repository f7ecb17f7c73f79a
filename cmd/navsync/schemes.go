package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/bobmcallan/navsync/internal/app"
)

// schemesCmd groups the active scheme table commands.
type schemesCmd struct{}

func (*schemesCmd) Name() string     { return "schemes" }
func (*schemesCmd) Synopsis() string { return "manage the tracked (active) schemes" }
func (*schemesCmd) Usage() string {
	return `navsync schemes <import|list> [flags]

  import -file active.csv   load schemes from a CSV or XLSX file
  list                      print the tracked schemes
`
}

func (*schemesCmd) SetFlags(*flag.FlagSet) {}

func (c *schemesCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cmdr := subcommands.NewCommander(f, "navsync schemes")
	cmdr.Register(&schemesImportCmd{}, "")
	cmdr.Register(&schemesListCmd{}, "")
	return cmdr.Execute(ctx, args...)
}

type schemesImportCmd struct {
	file string
}

func (*schemesImportCmd) Name() string     { return "import" }
func (*schemesImportCmd) Synopsis() string { return "load active schemes from a file" }
func (*schemesImportCmd) Usage() string {
	return `navsync schemes import -file active.csv

  Columns: scheme code (or categoryCode), scheme name, active units, category.
`
}

func (c *schemesImportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "CSV or XLSX file with the active schemes")
}

func (c *schemesImportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		return subcommands.ExitUsageError
	}

	a, status := openApp("schemes import")
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	res, err := app.ImportActiveSchemes(ctx, a.Storage.SchemeStore(), a.Logger, c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("inserted=%d updated=%d failed=%d\n", res.Inserted, res.Updated, res.Failed)
	return subcommands.ExitSuccess
}

type schemesListCmd struct{}

func (*schemesListCmd) Name() string     { return "list" }
func (*schemesListCmd) Synopsis() string { return "print the tracked schemes" }
func (*schemesListCmd) Usage() string    { return "navsync schemes list\n" }
func (*schemesListCmd) SetFlags(*flag.FlagSet) {}

func (c *schemesListCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, status := openApp("schemes list")
	if status != subcommands.ExitSuccess {
		return status
	}
	defer a.Close()

	schemes, err := a.Storage.SchemeStore().ListActiveSchemes(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tUNITS\tCATEGORY")
	for _, s := range schemes {
		units := ""
		if s.ActiveUnits.Valid {
			units = s.ActiveUnits.Decimal.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.SchemeCode, s.SchemeName, units, s.Category)
	}
	w.Flush()
	return subcommands.ExitSuccess
}
