package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the tool configuration file looked up at the workspace root.
const DefaultFileName = "libbuilder.yaml"

// Config represents the tool configuration. Executor options live in each
// project's project.json; this file only covers how the external tools are run.
type Config struct {
	Bundler        BundlerConfig        `yaml:"bundler"`
	PackageManager PackageManagerConfig `yaml:"package_manager"`
	Log            LogConfig            `yaml:"log"`
	Metrics        MetricsConfig        `yaml:"metrics"`
}

// BundlerConfig selects the bundler binary and extra arguments.
type BundlerConfig struct {
	Binary string   `yaml:"binary,omitempty"`
	Args   []string `yaml:"args,omitempty"`
}

// PackageManagerConfig selects the package manager used by publish and lockfile generation.
type PackageManagerConfig struct {
	Name    string      `yaml:"name,omitempty"`    // npm|yarn|pnpm|bun, detected when empty
	Command string      `yaml:"command,omitempty"` // e.g. "corepack yarn"
	Retry   RetryConfig `yaml:"retry"`
}

// RetryConfig configures retries of the install step.
type RetryConfig struct {
	Mode       RetryBackoffMode `yaml:"mode,omitempty"`
	Initial    time.Duration    `yaml:"initial,omitempty"`
	Max        time.Duration    `yaml:"max,omitempty"`
	MaxRetries int              `yaml:"max_retries"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file. A missing file yields the
// defaults; environment overrides apply in both cases.
func Load(configPath string) (*Config, error) {
	loadEnvFiles(filepath.Dir(configPath))

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Debug("No configuration file, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env and .env.local from dir. Existing process
// environment variables are not overwritten.
func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", "path", path, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", path)
	}
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.PackageManager.Name != "" {
		if _, err := PackageManagerNames.NormalizeWithError(c.PackageManager.Name); err != nil {
			return fmt.Errorf("package_manager.name: %w", err)
		}
	}
	if c.PackageManager.Retry.MaxRetries < 0 {
		return fmt.Errorf("package_manager.retry.max_retries cannot be negative")
	}
	return nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	example := Default()
	example.Bundler.Args = []string{}
	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	header := "# libbuilder tool configuration. Executor options live in project.json.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
