// Package config provides configuration types and defaults for laminar.
package config

import (
	"fmt"
	"time"

	"github.com/zjrosen/laminar/internal/tracing"
)

// WatchConfig holds continuous-mode options.
type WatchConfig struct {
	// Debounce is how long to wait after a file change before
	// re-resolving, coalescing editor save bursts.
	Debounce time.Duration `mapstructure:"debounce"`

	// CacheTTL bounds how long parsed extends files stay cached between
	// change events.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Config holds all configuration options for laminar.
type Config struct {
	// BaseDir resolves relative file references in extends fields.
	// Empty means the input file's directory, falling back to the
	// working directory for stdin.
	BaseDir string `mapstructure:"base_dir"`

	// Output writes the resolved document to a file instead of stdout.
	Output string `mapstructure:"output"`

	// TrimChars is the character set trimmed from both ends of the
	// serialized output. Empty means the built-in default.
	TrimChars string `mapstructure:"trim_chars"`

	// Debug enables the structured log file.
	Debug bool `mapstructure:"debug"`

	// LogFile is where debug logs go. Default: .laminar/debug.log
	LogFile string `mapstructure:"log_file"`

	Watch   WatchConfig    `mapstructure:"watch"`
	Tracing tracing.Config `mapstructure:"tracing"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		LogFile: ".laminar/debug.log",
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			CacheTTL: 10 * time.Minute,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate rejects configurations the runtime cannot honor.
func Validate(cfg Config) error {
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", cfg.Watch.Debounce)
	}
	if cfg.Watch.CacheTTL < 0 {
		return fmt.Errorf("watch.cache_ttl must not be negative, got %s", cfg.Watch.CacheTTL)
	}
	switch cfg.Tracing.Exporter {
	case "", "none", "file", "stdout", "otlp":
	default:
		return fmt.Errorf("tracing.exporter must be one of none, file, stdout, otlp; got %q", cfg.Tracing.Exporter)
	}
	return nil
}
