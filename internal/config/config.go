package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-jsflow/internal/log"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for jsflow
type Config struct {
	// Control flow analysis
	TraverseFunctions bool `yaml:"traverse_functions" env:"JSFLOW_TRAVERSE_FUNCTIONS"`
	EdgeAnnotations   bool `yaml:"edge_annotations" env:"JSFLOW_EDGE_ANNOTATIONS"`
	// IDEMode leaves unresolvable break/continue targets unconnected
	// instead of failing, for partially written code.
	IDEMode bool `yaml:"ide_mode" env:"JSFLOW_IDE_MODE"`

	// Elimination
	RemoveGlobals bool `yaml:"remove_globals" env:"JSFLOW_REMOVE_GLOBALS"`
	MaxIterations int  `yaml:"max_iterations" env:"JSFLOW_MAX_ITERATIONS"`

	// Parsing
	MaxDepth            int    `yaml:"max_depth" env:"JSFLOW_MAX_DEPTH"`
	SyntheticBlockStart string `yaml:"synthetic_block_start" env:"JSFLOW_SYNTHETIC_BLOCK_START"`
	SyntheticBlockEnd   string `yaml:"synthetic_block_end" env:"JSFLOW_SYNTHETIC_BLOCK_END"`

	// Directory runs
	Workers    int      `yaml:"workers" env:"JSFLOW_WORKERS"`
	Extensions []string `yaml:"extensions" env:"JSFLOW_EXTENSIONS"`
	Exclude    []string `yaml:"exclude" env:"JSFLOW_EXCLUDE"`

	// Report cache
	CacheDir  string `yaml:"cache_dir" env:"JSFLOW_CACHE_DIR"`
	CacheSize int    `yaml:"cache_size" env:"JSFLOW_CACHE_SIZE"`

	// Logging
	LogLevel string `yaml:"log_level" env:"JSFLOW_LOG_LEVEL"`
	JSONLog  bool   `yaml:"json_log" env:"JSFLOW_JSON_LOG"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TraverseFunctions:   true,
		EdgeAnnotations:     false,
		IDEMode:             false,
		RemoveGlobals:       false,
		MaxIterations:       100,
		MaxDepth:            2000,
		SyntheticBlockStart: "",
		SyntheticBlockEnd:   "",
		Workers:             4,
		Extensions:          []string{".js", ".mjs", ".cjs", ".jsx"},
		Exclude:             []string{"node_modules", "dist", "build", "vendor", ".git"},
		CacheDir:            defaultCacheDir(),
		CacheSize:           1000,
		LogLevel:            "info",
		JSONLog:             false,
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jsflow", "cache")
	}
	return filepath.Join(home, ".jsflow", "cache")
}

// GlobalConfigFilePath returns the global config file path (~/.jsflow/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".jsflow", "config.yaml")
	}
	return filepath.Join(home, ".jsflow", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.jsflow/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".jsflow", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.jsflow/config.yaml)
// 3. Global config (~/.jsflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigFilePath(), ProjectConfigFilePath())
}

func load(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(path)
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JSFLOW_TRAVERSE_FUNCTIONS"); v != "" {
		cfg.TraverseFunctions = parseBool(v)
	}
	if v := os.Getenv("JSFLOW_EDGE_ANNOTATIONS"); v != "" {
		cfg.EdgeAnnotations = parseBool(v)
	}
	if v := os.Getenv("JSFLOW_IDE_MODE"); v != "" {
		cfg.IDEMode = parseBool(v)
	}
	if v := os.Getenv("JSFLOW_REMOVE_GLOBALS"); v != "" {
		cfg.RemoveGlobals = parseBool(v)
	}
	if v := os.Getenv("JSFLOW_MAX_ITERATIONS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxIterations = i
		}
	}
	if v := os.Getenv("JSFLOW_MAX_DEPTH"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.MaxDepth = i
		}
	}
	if v := os.Getenv("JSFLOW_SYNTHETIC_BLOCK_START"); v != "" {
		cfg.SyntheticBlockStart = v
	}
	if v := os.Getenv("JSFLOW_SYNTHETIC_BLOCK_END"); v != "" {
		cfg.SyntheticBlockEnd = v
	}
	if v := os.Getenv("JSFLOW_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("JSFLOW_EXTENSIONS"); v != "" {
		cfg.Extensions = parseList(v)
	}
	if v := os.Getenv("JSFLOW_EXCLUDE"); v != "" {
		cfg.Exclude = parseList(v)
	}
	if v := os.Getenv("JSFLOW_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("JSFLOW_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("JSFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("JSFLOW_JSON_LOG"); v != "" {
		cfg.JSONLog = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max_iterations must be positive", ErrInvalid)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("%w: max_depth must be positive", ErrInvalid)
	}
	if (c.SyntheticBlockStart == "") != (c.SyntheticBlockEnd == "") {
		return fmt.Errorf("%w: synthetic_block_start and synthetic_block_end must be set together", ErrInvalid)
	}
	if c.SyntheticBlockStart != "" && c.SyntheticBlockStart == c.SyntheticBlockEnd {
		return fmt.Errorf("%w: synthetic block markers must differ", ErrInvalid)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalid)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%w: extensions must not be empty", ErrInvalid)
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalid, ext)
		}
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("%w: cache_size must be non-negative", ErrInvalid)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Level returns the configured log level. Validate guarantees it parses.
func (c *Config) Level() log.Level {
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// parseBool accepts the usual truthy spellings
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}

// parseList splits a comma-separated value, dropping empty items
func parseList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
