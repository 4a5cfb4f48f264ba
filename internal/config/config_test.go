package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKuzuConfig_Parsing(t *testing.T) {
	// Test KuzuConfig struct
	kuzu := KuzuConfig{
		Path: "/path/to/kuzu.db",
	}

	if kuzu.Path != "/path/to/kuzu.db" {
		t.Fatalf("Expected path '/path/to/kuzu.db', got '%s'", kuzu.Path)
	}
}

func TestConfig_KuzuField(t *testing.T) {
	// Test that Config struct has Kuzu field
	config := Config{
		Kuzu: KuzuConfig{
			Path: ":memory:",
		},
	}

	if config.Kuzu.Path != ":memory:" {
		t.Fatalf("Expected Kuzu path ':memory:', got '%s'", config.Kuzu.Path)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	app := writeFile(t, dir, "app.yaml", `
app:
  port: 9090
  codegraph: true
kuzu:
  path: /tmp/graph.db
recommend:
  algorithms: [ARI, CCDA]
  threads: 3
  mode: intersect
  min_accuracy: 0.2
  metrics: [NOM, TCC]
`)
	source := writeFile(t, dir, "source.yaml", `
repositories:
  - name: shop
    path: /src/shop
    language: java
`)

	cfg, err := LoadConfig(app, source)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.App.Port != 9090 || !cfg.App.CodeGraph {
		t.Fatalf("Unexpected app config: %+v", cfg.App)
	}
	if cfg.App.GraphBackend != GraphBackendKuzu {
		t.Fatalf("Expected default graph backend kuzu, got %s", cfg.App.GraphBackend)
	}
	if cfg.Kuzu.Path != "/tmp/graph.db" {
		t.Fatalf("Expected kuzu path /tmp/graph.db, got %s", cfg.Kuzu.Path)
	}

	r := cfg.Recommend
	if len(r.Algorithms) != 2 || r.Threads != 3 || r.Mode != "intersect" || r.MinAccuracy != 0.2 {
		t.Fatalf("Unexpected recommend config: %+v", r)
	}
	if len(r.Metrics) != 2 || r.Metrics[0] != "NOM" || r.Metrics[1] != "TCC" {
		t.Fatalf("Expected metrics [NOM TCC], got %v", r.Metrics)
	}
	if r.AKMeansSteps != 50 || r.HACSampleSize != 5 || r.CCDAEpsilon != 5e-4 || r.Distance != "relevance" {
		t.Fatalf("Expected defaults to be applied, got %+v", r)
	}

	repo, err := cfg.GetRepository("shop")
	if err != nil {
		t.Fatalf("GetRepository failed: %v", err)
	}
	if repo.Path != "/src/shop" || repo.Language != "java" {
		t.Fatalf("Unexpected repository: %+v", repo)
	}
	if _, err := cfg.GetRepository("missing"); err == nil {
		t.Fatalf("Expected error for unknown repository")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("", "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if len(cfg.Recommend.Algorithms) != len(DefaultAlgorithms) {
		t.Fatalf("Expected all algorithms by default, got %v", cfg.Recommend.Algorithms)
	}
	if cfg.Kuzu.Path != ":memory:" || cfg.App.Port != 8080 {
		t.Fatalf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatalf("Expected error for missing app config")
	}
}

func TestMcpConfig_GetAddress(t *testing.T) {
	if got := (McpConfig{Port: 8081}).GetAddress(); got != "localhost:8081" {
		t.Fatalf("Expected localhost:8081, got %s", got)
	}
}
