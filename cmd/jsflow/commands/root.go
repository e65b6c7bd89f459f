// Package commands provides the CLI commands for jsflow.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/internal/config"
	"github.com/l3aro/go-jsflow/internal/log"
)

var (
	// settings is the configuration loaded before every command runs.
	settings = config.DefaultConfig()
	logger   log.Logger = log.Default()
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "jsflow",
	Short: "jsflow - JavaScript control flow analysis and dead code elimination",
	Long: `jsflow builds control flow graphs for JavaScript and removes code that can
never run or whose results are never read.

Commands:
  cfg        Print the control flow graph of a file
  order      List CFG nodes in priority order
  dce        Remove unreachable code and unused bindings
  dataflow   Show def-use chains or liveness
  watch      Re-run elimination reports when files change
  init       Create a configuration file interactively
  doctor     Check the configuration and the analysis pipeline

Use "jsflow [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	settings = cfg

	level := settings.Level()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = log.DebugLevel
	}
	logger = log.New(log.Config{Level: level, JSONOutput: settings.JSONLog})
	logger.Debug("configuration loaded", "config", path, "workers", settings.Workers)
	return nil
}

func init() {
	RootCmd.PersistentFlags().String("config", "", "Config file path (default: global then project config)")
	RootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	RootCmd.AddCommand(cfgCmd)
	RootCmd.AddCommand(orderCmd)
	RootCmd.AddCommand(dceCmd)
	RootCmd.AddCommand(dataflowCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(initCmd)
	RootCmd.AddCommand(doctorCmd)
}
