package healthcheck

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l3aro/go-jsflow/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestCheckWithNilConfig(t *testing.T) {
	_, err := Check(nil, "", "")
	if err == nil {
		t.Error("Expected error for nil config, got nil")
	}
}

func TestCheckDefaults(t *testing.T) {
	result, err := Check(testConfig(t), "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}

	for _, c := range []ComponentStatus{result.Parser, result.Eliminator, result.Cache} {
		if c.Status != StatusReady {
			t.Errorf("%s status = %q (%s), want %q", c.Name, c.Status, c.Error, StatusReady)
		}
	}
	if !result.OK() {
		t.Error("OK() = false, want true")
	}
}

func TestCheckCacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheSize = 0

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != StatusDisabled {
		t.Errorf("Cache.Status = %q, want %q", result.Cache.Status, StatusDisabled)
	}
	if _, err := os.Stat(cfg.CacheDir); !os.IsNotExist(err) {
		t.Errorf("disabled cache created %s", cfg.CacheDir)
	}
	if !result.OK() {
		t.Error("OK() = false, want true")
	}
}

func TestCheckCacheUnusable(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the directory should be.
	if err := os.WriteFile(cfg.CacheDir, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Cache.Status != StatusError || result.Cache.Error == "" {
		t.Errorf("Cache = %+v, want error status", result.Cache)
	}
	if result.OK() {
		t.Error("OK() = true, want false")
	}
}

func TestCheckParserLimits(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxDepth = 2

	result, err := Check(cfg, "", "")
	if err != nil {
		t.Fatalf("Check() failed: %v", err)
	}
	if result.Parser.Status != StatusError {
		t.Errorf("Parser.Status = %q, want %q", result.Parser.Status, StatusError)
	}
	if result.Eliminator.Status != StatusError {
		t.Errorf("Eliminator.Status = %q, want %q", result.Eliminator.Status, StatusError)
	}
	if !strings.Contains(result.Parser.Error, "depth") {
		t.Errorf("Parser.Error = %q, want a depth error", result.Parser.Error)
	}
}

func TestScopeFromPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"empty", "", ""},
		{"global", config.GlobalConfigFilePath(), "global"},
		{"project", config.ProjectConfigFilePath(), "project"},
		{"elsewhere", filepath.Join(t.TempDir(), "config.yaml"), "project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := scopeFromPath(tt.path); got != tt.want {
				t.Errorf("scopeFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
