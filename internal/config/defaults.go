package config

import (
	"os"
	"time"
)

const (
	defaultBundlerBinary = "tsup"
	defaultRetryInitial  = time.Second
	defaultRetryMax      = 10 * time.Second
)

func applyDefaults(cfg *Config) {
	if cfg.Bundler.Binary == "" {
		cfg.Bundler.Binary = defaultBundlerBinary
	}

	retry := &cfg.PackageManager.Retry
	if m := NormalizeRetryBackoff(string(retry.Mode)); m != "" {
		retry.Mode = m
	} else {
		retry.Mode = RetryBackoffLinear
	}
	if retry.Initial <= 0 {
		retry.Initial = defaultRetryInitial
	}
	if retry.Max <= 0 {
		retry.Max = defaultRetryMax
	}

	cfg.Log.Level = NormalizeLogLevel(string(cfg.Log.Level))
	cfg.Log.Format = NormalizeLogFormat(string(cfg.Log.Format))
}

// applyEnvOverrides applies LIBBUILDER_* environment variables on top of the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIBBUILDER_BUNDLER"); v != "" {
		cfg.Bundler.Binary = v
	}
	if v := os.Getenv("LIBBUILDER_PACKAGE_MANAGER"); v != "" {
		cfg.PackageManager.Name = v
	}
	if v := os.Getenv("LIBBUILDER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = LogLevel(v)
	}
	if v := os.Getenv("LIBBUILDER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = LogFormat(v)
	}
	if v := os.Getenv("LIBBUILDER_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}
