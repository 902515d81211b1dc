// Package config handles configuration for screen-expect.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/screen-expect/pkg/backend"
	"github.com/devicelab-dev/screen-expect/pkg/executor"
	"github.com/devicelab-dev/screen-expect/pkg/vars"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Interpreter settings
	Backend       string `yaml:"backend"`       // auto, chained or eager
	TimeoutMs     int    `yaml:"timeoutMs"`     // Visibility wait passed to the driver
	FallbackCount int    `yaml:"fallbackCount"` // Assumed count for parameterized locators (0 = off)
	Scripting     bool   `yaml:"scripting"`     // Allow script bodies in custom-code blocks

	Persistence Persistence `yaml:"persistence"`

	LogFile string `yaml:"logFile"`

	// Env seeds the variable store
	Env map[string]interface{} `yaml:"env"`
}

// Persistence configures the bbolt store behind persistStoreAs.
type Persistence struct {
	Path   string `yaml:"path"`   // Relative paths live under the data dir; empty disables
	Bucket string `yaml:"bucket"` // Defaults to vars.DefaultBucket
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}

// Validate rejects values the interpreter cannot use.
func (c *Config) Validate() error {
	if _, err := backend.ParseKind(c.Backend); err != nil {
		return err
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("timeoutMs must not be negative, got %d", c.TimeoutMs)
	}
	if c.FallbackCount < 0 {
		return fmt.Errorf("fallbackCount must not be negative, got %d", c.FallbackCount)
	}
	return nil
}

// ToOptions converts the configuration into interpreter options. The
// persister is not opened here; see OpenPersister.
func (c *Config) ToOptions() (executor.Options, error) {
	kind, err := backend.ParseKind(c.Backend)
	if err != nil {
		return executor.Options{}, err
	}
	return executor.Options{
		Backend:       kind,
		Timeout:       time.Duration(c.TimeoutMs) * time.Millisecond,
		FallbackCount: c.FallbackCount,
		Scripting:     c.Scripting,
		Env:           c.Env,
	}, nil
}

// PersistencePath returns the bbolt file path, or "" when persistence is off.
func (c *Config) PersistencePath() string {
	p := c.Persistence.Path
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(GetDataDir(), p)
}

// OpenPersister opens the configured bbolt store. It returns nil when
// persistence is off. The caller closes it.
func (c *Config) OpenPersister() (*vars.BoltPersister, error) {
	path := c.PersistencePath()
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create persistence dir: %w", err)
	}
	return vars.OpenBolt(path, c.Persistence.Bucket)
}
