package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/modcache/pkg/refindex"
	"github.com/Sumatoshi-tech/modcache/pkg/safeconv"
)

// ErrNoReferences is returned when a command needs a reference set and none was given.
var ErrNoReferences = errors.New("--refs is required")

// NewIndexCommand creates the index command.
func NewIndexCommand(opts *GlobalOptions) *cobra.Command {
	var refsPath string

	cmd := &cobra.Command{
		Use:   "index [identity]...",
		Short: "Build the reference index from a reference set and print it",
		Long: `Build the reference index from a reference set and print one row per
distinct identity with its location, size on disk, and whether the location
is a reference-only artifact that is never loaded.

With identities as arguments only those are printed, in argument order;
identities the reference set does not declare are reported as undeclared.

Examples:
  modcache index --refs refs.yaml
  modcache index --refs refs.yaml "Foo, Version=1.0.0"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(opts, refsPath, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&refsPath, "refs", "", "reference set file (YAML or JSON)")

	return cmd
}

func runIndex(opts *GlobalOptions, refsPath string, idents []string, out, logOut io.Writer) error {
	if refsPath == "" {
		return ErrNoReferences
	}

	env, err := setup(opts, false, logOut)
	if err != nil {
		return err
	}
	defer env.close() //nolint:errcheck // best-effort telemetry flush on exit.

	entries, err := refindex.LoadReferenceSet(refsPath)
	if err != nil {
		return err
	}

	idx := refindex.Build(entries)

	tbl := newTable(out)
	tbl.AppendHeader(table.Row{"Identity", "Location", "Size", "Kind"})

	segments := env.cfg.Resolver.ReferenceOnlySegments

	if len(idents) == 0 {
		for _, entry := range idx.Entries() {
			tbl.AppendRow(entryRow(entry.Identity, entry.Location, segments))
		}
	}

	for _, ident := range idents {
		loc, declared := idx.Lookup(ident)
		if !declared {
			tbl.AppendRow(table.Row{ident, "", "", color.New(color.FgRed).Sprint("undeclared")})

			continue
		}

		tbl.AppendRow(entryRow(ident, loc, segments))
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d of %d references", idx.Len(), len(entries))})
	tbl.Render()

	return nil
}

func entryRow(ident, location string, segments []string) table.Row {
	return table.Row{ident, location, sizeOf(location), kindOf(location, segments)}
}

func sizeOf(location string) string {
	if location == "" {
		return "-"
	}

	info, err := os.Stat(location)
	if err != nil {
		return "missing"
	}

	return humanize.IBytes(safeconv.Int64ToUint64(info.Size()))
}

func kindOf(location string, segments []string) string {
	switch {
	case location == "":
		return color.New(color.FgYellow).Sprint("unresolved")
	case refindex.IsReferenceOnly(location, segments):
		return color.New(color.FgCyan).Sprint("reference-only")
	default:
		return "loadable"
	}
}

func newTable(out io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}
