package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// defaultConfigTemplate is written verbatim so the generated file keeps
// its comments; marshaling the Config struct would lose them.
const defaultConfigTemplate = `# laminar configuration

# Base directory for relative file references in extends fields.
# Empty means the input file's directory.
# base_dir: ""

# Characters trimmed from the boundaries of the resolved output.
# Empty means the built-in default: "- \f\v\r\t\n"
# trim_chars: ""

# Write structured debug logs to log_file.
debug: false
log_file: .laminar/debug.log

watch:
  # Wait this long after a change before re-resolving.
  debounce: 500ms
  # How long parsed extends files stay cached between change events.
  cache_ttl: 10m

tracing:
  enabled: false
  # Options: none, file, stdout, otlp
  exporter: stdout
  # file_path: .laminar/traces.jsonl
  # otlp_endpoint: localhost:4317
  sample_rate: 1.0
  service_name: laminar
`

// WriteDefaultConfig creates a commented default config file at path,
// creating parent directories as needed. Refuses to overwrite.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
