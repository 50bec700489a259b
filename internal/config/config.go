package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default config file looked up in the working directory
const FileName = ".apiusage.config"

// Environment variables that override the config file
const (
	EnvExtensions = "APIUSAGE_EXTENSIONS"
	EnvWorkers    = "APIUSAGE_WORKERS"
)

// Config represents the apiusage configuration file
type Config struct {
	Extensions []string      `yaml:"extensions"` // Extra file extensions to scan, added to the defaults
	Ignores    IgnoresConfig `yaml:"ignores"`
	Workers    int           `yaml:"workers"` // Files scanned in parallel per project (0 = one per CPU)
}

// IgnoresConfig contains ignore rules for the scan and the report
type IgnoresConfig struct {
	Folders   []string `yaml:"folders"`   // Directory names or root-relative paths not descended into
	Endpoints []string `yaml:"endpoints"` // Endpoints expected to be unused (e.g. called by other services)
}

// LoadConfig loads the config file at path. A missing file yields the
// default (empty) config.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{
			Ignores: IgnoresConfig{
				Folders:   []string{},
				Endpoints: []string{},
			},
		}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("invalid workers value %d in config file", config.Workers)
	}

	return &config, nil
}

// ApplyEnv loads an optional .env file from the working directory and
// merges APIUSAGE_* variables into the config
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if raw := strings.TrimSpace(os.Getenv(EnvExtensions)); raw != "" {
		for _, ext := range strings.Split(raw, ",") {
			if ext = strings.TrimSpace(ext); ext != "" {
				c.Extensions = append(c.Extensions, ext)
			}
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvWorkers)); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers < 0 {
			return fmt.Errorf("invalid %s value %q", EnvWorkers, raw)
		}
		c.Workers = workers
	}
	return nil
}

// ShouldIgnoreEndpoint checks if an endpoint path is expected to be unused
func (c *Config) ShouldIgnoreEndpoint(path string) bool {
	for _, ignored := range c.Ignores.Endpoints {
		if ignored == path {
			return true
		}
	}
	return false
}

// DefaultContent is written by "apiusage init-config"
const DefaultContent = `# .apiusage.config
# Configuration file for apiusage

# Extra file extensions to scan, on top of .js .jsx .ts .tsx .vue .dart
extensions:
  # - .svelte
  # - .kt

ignores:
  # Folders not descended into while scanning, either directory names
  # (node_modules) or paths relative to a project root (src/generated)
  folders:
    # - node_modules
    # - build

  # Endpoints expected to be unused by these projects (webhooks, server-to-server calls).
  # They are still reported but never fail the run.
  endpoints:
    # - /health
    # - /webhooks/stripe

# Files scanned in parallel per project (0 = one per CPU)
workers: 0
`
