package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"
)

// Config is the full application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Source    SourceConfig    `yaml:"source"`
	Recommend RecommendConfig `yaml:"recommend"`
	Kuzu      KuzuConfig      `yaml:"kuzu"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	Mcp       McpConfig       `yaml:"mcp"`
}

type AppConfig struct {
	Port    int    `yaml:"port"`
	WorkDir string `yaml:"workdir"`
	// CodeGraph enables persisting extracted repositories in the graph store
	CodeGraph bool `yaml:"codegraph"`
	// GraphBackend selects the graph store: "kuzu" (default) or "neo4j"
	GraphBackend   string `yaml:"graph_backend"`
	NumFileThreads int    `yaml:"num_file_threads"`
}

type SourceConfig struct {
	Repositories []Repository `yaml:"repositories"`
}

// Repository is a source tree the bot can analyze
type Repository struct {
	Name      string   `yaml:"name" json:"name"`
	Path      string   `yaml:"path" json:"path"`
	Language  string   `yaml:"language" json:"language"`
	SkipPaths []string `yaml:"skip_paths,omitempty" json:"skip_paths,omitempty"`
}

// RecommendConfig tunes the move recommendation run
type RecommendConfig struct {
	Algorithms []string `yaml:"algorithms"`
	Threads    int      `yaml:"threads"`
	Distance   string   `yaml:"distance"`
	// Metrics is the feature vector of the metrics distance
	Metrics       []string `yaml:"metrics"`
	AKMeansSteps  int      `yaml:"akmeans_steps"`
	HACSampleSize int      `yaml:"hac_sample_size"`
	CCDAEpsilon   float64  `yaml:"ccda_epsilon"`
	Seed          uint64   `yaml:"seed"`
	// Mode is "combine" (root-mean-square union) or "intersect"
	Mode        string  `yaml:"mode"`
	MinAccuracy float64 `yaml:"min_accuracy"`
}

type KuzuConfig struct {
	Path string `yaml:"path"`
}

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type McpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// GetAddress returns host:port for the MCP listener
func (m McpConfig) GetAddress() string {
	host := m.Host
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s:%d", host, m.Port)
}

const (
	GraphBackendKuzu  = "kuzu"
	GraphBackendNeo4j = "neo4j"
)

// DefaultAlgorithms is the algorithm set run when none is configured
var DefaultAlgorithms = []string{"ARI", "AKMeans", "CCDA", "HAC"}

// ApplyDefaults fills unset values
func (c *Config) ApplyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.GraphBackend == "" {
		c.App.GraphBackend = GraphBackendKuzu
	}
	if c.App.NumFileThreads <= 0 {
		c.App.NumFileThreads = 2
	}
	if c.Kuzu.Path == "" {
		c.Kuzu.Path = ":memory:"
	}

	r := &c.Recommend
	if len(r.Algorithms) == 0 {
		r.Algorithms = append([]string(nil), DefaultAlgorithms...)
	}
	if r.Threads <= 0 {
		r.Threads = runtime.NumCPU()
	}
	if r.Distance == "" {
		r.Distance = "relevance"
	}
	if r.AKMeansSteps <= 0 {
		r.AKMeansSteps = 50
	}
	if r.HACSampleSize <= 0 {
		r.HACSampleSize = 5
	}
	if r.CCDAEpsilon <= 0 {
		r.CCDAEpsilon = 5e-4
	}
	if r.Mode == "" {
		r.Mode = "combine"
	}
}

// LoadConfig reads the app configuration and the source (repositories) configuration
func LoadConfig(appPath, sourcePath string) (*Config, error) {
	cfg := &Config{}

	if appPath != "" {
		data, err := os.ReadFile(appPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read app config %s: %w", appPath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse app config %s: %w", appPath, err)
		}
	}

	if sourcePath != "" {
		data, err := os.ReadFile(sourcePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read source config %s: %w", sourcePath, err)
		}
		source := SourceConfig{}
		if err := yaml.Unmarshal(data, &source); err != nil {
			return nil, fmt.Errorf("failed to parse source config %s: %w", sourcePath, err)
		}
		cfg.Source.Repositories = append(cfg.Source.Repositories, source.Repositories...)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// GetRepository looks up a configured repository by name
func (c *Config) GetRepository(name string) (*Repository, error) {
	for i := range c.Source.Repositories {
		if c.Source.Repositories[i].Name == name {
			return &c.Source.Repositories[i], nil
		}
	}
	return nil, fmt.Errorf("repository not found: %s", name)
}
