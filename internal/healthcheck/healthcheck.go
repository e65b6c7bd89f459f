package healthcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l3aro/go-jsflow/internal/config"
	"github.com/l3aro/go-jsflow/pkg/cache"
	"github.com/l3aro/go-jsflow/pkg/dce"
	"github.com/l3aro/go-jsflow/pkg/parser"
	"github.com/l3aro/go-jsflow/pkg/scope"
)

// Status values reported for a component.
const (
	StatusReady    = "ready"
	StatusDisabled = "disabled"
	StatusError    = "error"
)

// probe is parsed and eliminated to exercise the pipeline. The call after
// the return is unreachable.
const probe = "function probe() { return 1; unreachable(); } probe();"

// ComponentStatus represents the health of one part of the pipeline.
type ComponentStatus struct {
	Name   string
	Detail string
	Status string // "ready", "disabled", "error"
	Error  string
}

// HealthCheckResult contains the full health check output for display.
type HealthCheckResult struct {
	SavedPath      string
	SavedScope     string // "global" or "project"
	EffectivePath  string
	EffectiveScope string // "global" or "project"
	Parser         ComponentStatus
	Eliminator     ComponentStatus
	Cache          ComponentStatus
}

// OK reports whether no component is in error.
func (r *HealthCheckResult) OK() bool {
	for _, c := range []ComponentStatus{r.Parser, r.Eliminator, r.Cache} {
		if c.Status == StatusError {
			return false
		}
	}
	return true
}

// Check performs a health check against the given config.
// savedPath is where the user saved config (may be empty outside init).
// effectivePath is the config file actually in use (considering priority).
func Check(cfg *config.Config, savedPath string, effectivePath string) (*HealthCheckResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	result := &HealthCheckResult{
		SavedPath:      savedPath,
		SavedScope:     scopeFromPath(savedPath),
		EffectivePath:  effectivePath,
		EffectiveScope: scopeFromPath(effectivePath),
	}

	result.Parser, result.Eliminator = checkPipeline(cfg)
	result.Cache = checkCache(cfg)

	return result, nil
}

// scopeFromPath determines "global" or "project" scope from a config file path.
// Returns empty string if path is empty.
func scopeFromPath(path string) string {
	if path == "" {
		return ""
	}
	if path == config.GlobalConfigFilePath() {
		return "global"
	}
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(path, filepath.Join(home, ".jsflow")+string(filepath.Separator)) {
		return "global"
	}
	return "project"
}

// checkPipeline parses and eliminates the probe with the configured options.
func checkPipeline(cfg *config.Config) (parse, eliminate ComponentStatus) {
	parse = ComponentStatus{Name: "parser", Detail: fmt.Sprintf("tree-sitter javascript, max depth %d", cfg.MaxDepth)}
	eliminate = ComponentStatus{Name: "eliminator", Detail: fmt.Sprintf("max %d iterations", cfg.MaxIterations)}

	p := parser.New(parser.Options{
		MaxDepth:       cfg.MaxDepth,
		SyntheticStart: cfg.SyntheticBlockStart,
		SyntheticEnd:   cfg.SyntheticBlockEnd,
	})
	defer p.Close()

	root, err := p.Parse(context.Background(), []byte(probe))
	if err != nil {
		parse.Status, parse.Error = StatusError, err.Error()
		eliminate.Status, eliminate.Error = StatusError, "parser unavailable"
		return parse, eliminate
	}
	parse.Status = StatusReady

	report, err := dce.Eliminate(root, &scope.Resolver{RemoveGlobals: cfg.RemoveGlobals}, dce.Options{
		MaxIterations: cfg.MaxIterations,
		Tolerant:      cfg.IDEMode,
	})
	switch {
	case err != nil:
		eliminate.Status, eliminate.Error = StatusError, err.Error()
	case report.Count(dce.ReasonUnreachable) != 1:
		eliminate.Status = StatusError
		eliminate.Error = fmt.Sprintf("expected 1 unreachable removal, got %d", report.Count(dce.ReasonUnreachable))
	default:
		eliminate.Status = StatusReady
	}
	return parse, eliminate
}

// checkCache opens the report cache and verifies the directory is writable.
func checkCache(cfg *config.Config) ComponentStatus {
	status := ComponentStatus{Name: "cache", Detail: cfg.CacheDir}
	if cfg.CacheSize == 0 {
		status.Status = StatusDisabled
		return status
	}

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		status.Status, status.Error = StatusError, err.Error()
		return status
	}
	store, err := cache.OpenReportStore(cfg.CacheDir, cfg.CacheSize)
	if err != nil {
		status.Status, status.Error = StatusError, err.Error()
		return status
	}
	f, err := os.CreateTemp(cfg.CacheDir, ".healthcheck-*")
	if err != nil {
		status.Status, status.Error = StatusError, fmt.Sprintf("cache directory not writable: %v", err)
		return status
	}
	f.Close()
	os.Remove(f.Name())

	status.Detail = fmt.Sprintf("%s (%d/%d entries)", cfg.CacheDir, store.Len(), cfg.CacheSize)
	status.Status = StatusReady
	return status
}
