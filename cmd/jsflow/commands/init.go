package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-jsflow/internal/config"
	"github.com/l3aro/go-jsflow/internal/healthcheck"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize jsflow configuration interactively",
	Long: `Guides you through setting up jsflow configuration step by step.
Creates a config file with analysis, elimination and directory run settings.`,
	Args: cobra.NoArgs,
	// A broken existing config must not block writing a new one.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Analysis ===
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Analyze function bodies?").
				Description("Include nested function bodies in control flow graphs").
				Value(&cfg.TraverseFunctions),
			huh.NewConfirm().
				Title("IDE mode?").
				Description("Tolerate break/continue without a target in partially written code").
				Value(&cfg.IDEMode),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Elimination ===
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Remove unused top-level bindings?").
				Description("Only safe when the file is not a library or a script sharing globals").
				Value(&cfg.RemoveGlobals),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 3: Directory runs ===
	workers := strconv.Itoa(cfg.Workers)
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Parallel workers for directory runs").
				Placeholder(workers).
				Value(&workers).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&cfg.LogLevel),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	cfg.Workers, _ = strconv.Atoi(workers)

	// === SECTION 4: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.jsflow/config.yaml)", "global"),
					huh.NewOption("Project (./.jsflow/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	configPath := config.ProjectConfigFilePath()
	if saveLocationChoice == "global" {
		configPath = config.GlobalConfigFilePath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Traverse functions: %t\n", cfg.TraverseFunctions)
	fmt.Printf("IDE mode: %t\n", cfg.IDEMode)
	fmt.Printf("Remove globals: %t\n", cfg.RemoveGlobals)
	fmt.Printf("Workers: %d\n", cfg.Workers)
	fmt.Printf("Log level: %s\n", cfg.LogLevel)
	fmt.Printf("Cache: %s (%d entries)\n", cfg.CacheDir, cfg.CacheSize)
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)

	// === SECTION 5: Health Check ===
	fmt.Println("\n=== Running Health Check ===")

	loadedCfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return fmt.Errorf("loading saved config: %w", err)
	}

	result, err := healthcheck.Check(loadedCfg, configPath, configPath)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	fmt.Printf("\nConfig Scope: %s\n", result.SavedScope)
	if result.SavedScope == "global" {
		fmt.Printf("Config Path: %s\n\n", configPath)
	} else {
		absPath, _ := filepath.Abs(configPath)
		fmt.Printf("Config Path: %s\n\n", absPath)
	}
	displayDoctorResult(os.Stdout, result)

	fmt.Println("\n=== Initialization Complete ===")
	return nil
}
