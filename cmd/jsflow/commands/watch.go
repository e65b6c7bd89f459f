package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/internal/runner"
	"github.com/l3aro/go-jsflow/internal/scanner"
	"github.com/l3aro/go-jsflow/internal/watch"
	"github.com/l3aro/go-jsflow/pkg/dirty"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-run elimination reports when files change",
	Long: `Watches a directory and prints a dead code elimination report for every
JavaScript file that is created or modified. Stop with Ctrl-C.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) > 0 {
			dir = args[0]
		}
		if info, err := os.Stat(dir); err != nil {
			return fmt.Errorf("stat path: %w", err)
		} else if !info.IsDir() {
			return fmt.Errorf("path must be a directory: %s", dir)
		}
		removeGlobals := settings.RemoveGlobals
		if cmd.Flags().Changed("remove-globals") {
			removeGlobals, _ = cmd.Flags().GetBool("remove-globals")
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")

		w, err := watch.New(dir, watch.Options{
			Debounce: debounce,
			Scan:     scanOptions(),
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		defer w.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("getting absolute path: %w", err)
		}
		files, err := scanner.ScanWithOptions(dir, scanOptions())
		if err != nil {
			return err
		}
		tracker := dirty.New()
		seed := make([]string, 0, len(files))
		for _, f := range files {
			seed = append(seed, f.FullPath)
		}
		if err := tracker.Seed(seed); err != nil {
			logger.Warn("hashing existing files", "error", err)
		}

		r := newRunner(runner.Options{RemoveGlobals: removeGlobals})
		out := cmd.OutOrStdout()
		logger.Info("watching", "dir", dir, "directories", len(w.WatchList()), "files", tracker.TotalCount())

		return w.Run(ctx, func(paths []string) {
			var changed []string
			for _, p := range paths {
				isDirty, err := tracker.CheckAndMark(p)
				if err != nil {
					logger.Debug("skipping unreadable file", "path", p, "error", err)
					continue
				}
				if isDirty {
					changed = append(changed, p)
				}
			}
			if len(changed) == 0 {
				logger.Debug("no content changes", "events", len(paths))
				return
			}
			defer tracker.ClearDirty(changed)

			results := make([]runner.Result, 0, len(changed))
			for _, p := range changed {
				res := r.File(ctx, p)
				if rel, err := filepath.Rel(abs, p); err == nil {
					res.Path = rel
				}
				results = append(results, res)
			}
			printResults(out, results, runner.Summarize(results))
		})
	},
}

func init() {
	watchCmd.Flags().Bool("remove-globals", false, "Also remove unused top-level bindings")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Wait this long after the last change before reporting")
}
