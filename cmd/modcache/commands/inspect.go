package commands

import (
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Print the identity header of module files",
		Long: `Read the identity header of each file with the configured identity source
and print name, version, locale and key token. Unreadable files are reported
per row and do not stop the command.

Examples:
  modcache inspect ./plugins/Foo.so
  MODCACHE_RESOLVER_IDENTITY_SOURCE=manifest modcache inspect lib/*.so`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

func runInspect(opts *GlobalOptions, files []string, out, logOut io.Writer) error {
	env, err := setup(opts, false, logOut)
	if err != nil {
		return err
	}
	defer env.close() //nolint:errcheck // best-effort telemetry flush on exit.

	reader := env.reader()

	tbl := newTable(out)
	tbl.AppendHeader(table.Row{"File", "Size", "Name", "Version", "Locale", "Key token"})

	for _, file := range files {
		id, readErr := reader.ReadIdentity(file)
		if readErr != nil {
			tbl.AppendRow(table.Row{file, sizeOf(file), color.New(color.FgRed).Sprint(readErr.Error()), "", "", ""})

			continue
		}

		tbl.AppendRow(table.Row{file, sizeOf(file), id.Name, id.Version, id.Locale, id.KeyToken})
	}

	tbl.AppendFooter(table.Row{humanize.Comma(int64(len(files))) + " files"})
	tbl.Render()

	return nil
}
