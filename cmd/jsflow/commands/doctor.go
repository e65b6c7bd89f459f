package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/internal/config"
	"github.com/l3aro/go-jsflow/internal/healthcheck"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on configuration and the analysis pipeline",
	Long: `Checks the configuration and verifies that the parser, the eliminator and
the report cache work with it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := effectiveConfigPath(cmd)

		result, err := healthcheck.Check(settings, configPath, configPath)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		displayDoctorResult(cmd.OutOrStdout(), result)

		if !result.OK() {
			return fmt.Errorf("health check failed: one or more components are not working")
		}
		return nil
	},
}

// effectiveConfigPath returns the config file that settings came from: the
// --config flag, else the project file, else the global file. Empty means
// defaults only.
func effectiveConfigPath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	if fileExists(config.ProjectConfigFilePath()) {
		return config.ProjectConfigFilePath()
	}
	if fileExists(config.GlobalConfigFilePath()) {
		return config.GlobalConfigFilePath()
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func displayDoctorResult(w io.Writer, result *healthcheck.HealthCheckResult) {
	if result.EffectivePath == "" {
		fmt.Fprintf(w, "Using config: defaults (run 'jsflow init' to create a config file)\n\n")
	} else {
		fmt.Fprintf(w, "Using config: %s (%s)\n\n", result.EffectivePath, result.EffectiveScope)
	}

	for _, c := range []healthcheck.ComponentStatus{result.Parser, result.Eliminator, result.Cache} {
		fmt.Fprintf(w, "%s:\n", c.Name)
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s\n", c.Detail)
		}
		fmt.Fprintf(w, "  Status: %s %s\n", formatStatusIcon(c.Status), c.Status)
		if c.Error != "" && c.Status == healthcheck.StatusError {
			fmt.Fprintf(w, "  Error: %s\n", c.Error)
		}
	}
}

func formatStatusIcon(status string) string {
	switch status {
	case healthcheck.StatusReady:
		return "✓"
	case healthcheck.StatusDisabled:
		return "-"
	case healthcheck.StatusError:
		return "✗"
	default:
		return "?"
	}
}
