package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/internal/log"
	"github.com/l3aro/go-jsflow/internal/runner"
	"github.com/l3aro/go-jsflow/internal/scanner"
	"github.com/l3aro/go-jsflow/pkg/cache"
	"github.com/l3aro/go-jsflow/pkg/dce"
)

// DCEOutput is the JSON document printed by dce --json.
type DCEOutput struct {
	Root    string          `json:"root"`
	Files   []runner.Result `json:"files"`
	Summary runner.Summary  `json:"summary"`
}

var dceCmd = &cobra.Command{
	Use:   "dce [path]",
	Short: "Remove unreachable code and unused bindings",
	Long: `Runs dead code elimination over a file or every JavaScript file below a
directory and reports what was removed. Sources are not modified.

Examples:
  jsflow dce src/
  jsflow dce app.js --tree
  jsflow dce . --remove-globals --json`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		removeGlobals := settings.RemoveGlobals
		if cmd.Flags().Changed("remove-globals") {
			removeGlobals, _ = cmd.Flags().GetBool("remove-globals")
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		tree, _ := cmd.Flags().GetBool("tree")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat path: %w", err)
		}
		files, err := scanner.ScanWithOptions(path, scanOptions())
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no JavaScript files found in %s", path)
		}

		var store *cache.ReportStore
		if !noCache && settings.CacheSize > 0 {
			store, err = cache.OpenReportStore(settings.CacheDir, settings.CacheSize)
			if err != nil {
				logger.Warn("ignoring report cache", "error", err)
				store = nil
			}
		}

		r := newRunner(runner.Options{
			RemoveGlobals: removeGlobals,
			KeepTree:      tree,
			Cache:         store,
		})

		var spinner *log.ProgressSpinner
		if info.IsDir() && !jsonOutput {
			spinner = log.NewProgressSpinner("Eliminating")
			spinner.Start()
		}
		results, err := r.Run(cmd.Context(), files, func(done, total int) {
			if spinner != nil {
				spinner.Progress("Eliminating", done, total)
			}
		})
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			return err
		}

		if store != nil {
			stats := store.Stats()
			logger.Debug("report cache", "entries", stats.Length, "hit_rate", stats.HitRate())
			if err := store.Flush(); err != nil {
				logger.Warn("saving report cache", "error", err)
			}
		}

		summary := runner.Summarize(results)
		out := cmd.OutOrStdout()
		if jsonOutput {
			data, err := json.MarshalIndent(DCEOutput{Root: path, Files: results, Summary: summary}, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
		} else {
			printResults(out, results, summary)
		}

		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
		}
		return nil
	},
}

// scanOptions derives scanner options from the loaded settings.
func scanOptions() scanner.Options {
	opts := scanner.DefaultOptions()
	opts.Extensions = settings.Extensions
	opts.Exclude = settings.Exclude
	return opts
}

func printResults(w io.Writer, results []runner.Result, summary runner.Summary) {
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "%s: error: %v\n", res.Path, res.Err)
			continue
		}
		if res.Report.Changed() {
			suffix := ""
			if res.Cached {
				suffix = " (cached)"
			}
			fmt.Fprintf(w, "%s: %d removed in %d iterations%s\n",
				res.Path, len(res.Report.Removals), res.Report.Iterations, suffix)
			for _, rm := range res.Report.Removals {
				fmt.Fprintf(w, "  %s\n", rm)
			}
		}
		if res.Tree != "" {
			fmt.Fprint(w, res.Tree)
		}
	}

	fmt.Fprintf(w, "\n%d files, %d changed, %d removals", summary.Files, summary.Changed, summary.Removals)
	if summary.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", summary.Failed)
	}
	fmt.Fprintln(w)

	reasons := make([]string, 0, len(summary.ByReason))
	for reason := range summary.ByReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "  %-16s %d\n", reason, summary.ByReason[dce.Reason(reason)])
	}
}

func init() {
	dceCmd.Flags().Bool("remove-globals", false, "Also remove unused top-level bindings")
	dceCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	dceCmd.Flags().Bool("tree", false, "Print the transformed syntax tree")
	dceCmd.Flags().Bool("no-cache", false, "Do not read or write the report cache")
}
