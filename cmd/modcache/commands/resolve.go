package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/modcache/pkg/observability"
	"github.com/Sumatoshi-tech/modcache/pkg/refindex"
	"github.com/Sumatoshi-tech/modcache/pkg/resolver"
)

// ErrUnresolved is returned when at least one requested name was not resolved.
var ErrUnresolved = errors.New("unresolved modules")

// ResolveOptions holds the resolve command's flags.
type ResolveOptions struct {
	RefsPath    string
	Requester   string
	MetricsAddr string
	NoLoad      bool
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(opts *GlobalOptions) *cobra.Command {
	var ropts ResolveOptions

	cmd := &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve module names against a reference set",
		Long: `Build a resolution cache from a reference set and resolve each name
concurrently, the way a host resolves a dependency its own lookup missed.
Names are display names such as "Foo, Version=1.0.0, Culture=neutral" or
bare simple names.

With --metrics-addr the command keeps serving Prometheus metrics on /metrics
after printing results, until interrupted.

Examples:
  modcache resolve --refs refs.yaml Foo "Bar, Version=2.1.0"
  modcache resolve --refs refs.yaml --no-load Foo`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), opts, &ropts, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&ropts.RefsPath, "refs", "", "reference set file (YAML or JSON)")
	cmd.Flags().StringVar(&ropts.Requester, "requester", "", "name of the requesting module, for logs")
	cmd.Flags().StringVar(&ropts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides telemetry.metrics_addr)")
	cmd.Flags().BoolVar(&ropts.NoLoad, "no-load", false, "match identities without opening modules")

	return cmd
}

func runResolve(
	ctx context.Context, opts *GlobalOptions, ropts *ResolveOptions, names []string, out, logOut io.Writer,
) error {
	if ropts.RefsPath == "" {
		return ErrNoReferences
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := refindex.LoadReferenceSet(ropts.RefsPath)
	if err != nil {
		return err
	}

	metricsAddr := ropts.MetricsAddr

	env, err := setup(opts, true, logOut)
	if err != nil {
		return err
	}
	defer env.close() //nolint:errcheck // best-effort telemetry flush on exit.

	if metricsAddr == "" {
		metricsAddr = env.cfg.Telemetry.MetricsAddr
	}

	cache, err := env.newCache(ropts.NoLoad)
	if err != nil {
		return err
	}

	err = cache.Build(ctx, entries)
	if err != nil {
		return fmt.Errorf("build resolution cache: %w", err)
	}

	var requester any
	if ropts.Requester != "" {
		requester = ropts.Requester
	}

	results := iter.Map(names, func(name *string) resolver.Result {
		return cache.ResolveContext(ctx, *name, requester)
	})

	misses := renderResults(out, names, results)

	if metricsAddr != "" {
		serveErr := observability.ServeMetrics(ctx, metricsAddr, env.providers.Tracer, env.providers.MetricsHandler,
			func(addr net.Addr) { fmt.Fprintf(out, "serving metrics on http://%s%s\n", addr, observability.MetricsPath) })
		if serveErr != nil {
			return serveErr
		}
	}

	if misses > 0 {
		return fmt.Errorf("%w: %d of %d", ErrUnresolved, misses, len(names))
	}

	return nil
}

func renderResults(out io.Writer, names []string, results []resolver.Result) int {
	hit := color.New(color.FgGreen).SprintFunc()
	miss := color.New(color.FgRed).SprintFunc()

	tbl := newTable(out)
	tbl.AppendHeader(table.Row{"Name", "Result", "Tier", "Identity", "Location", "Candidates"})

	misses := 0

	for i, res := range results {
		if !res.Found() {
			misses++

			tbl.AppendRow(table.Row{names[i], miss(res.Reason.String()), "", "", "", res.Candidates})

			continue
		}

		location := res.Module.Location
		if location == "" {
			location = "-"
		}

		tbl.AppendRow(table.Row{
			names[i], hit(res.Reason.String()), res.Tier.String(),
			res.Module.Identity.String(), location, res.Candidates,
		})
	}

	tbl.AppendFooter(table.Row{strconv.Itoa(len(results)-misses) + " resolved, " + strconv.Itoa(misses) + " missed"})
	tbl.Render()

	return misses
}
