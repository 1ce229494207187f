package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestWriteDefaultConfig_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".laminar", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "watch:")
	require.Contains(t, string(data), "tracing:")
}

func TestWriteDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0600))

	err := WriteDefaultConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already exists")
}

// The generated file must round-trip through viper into a valid Config.
func TestWriteDefaultConfig_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.NoError(t, Validate(cfg))
	require.Equal(t, Defaults().Watch.Debounce, cfg.Watch.Debounce)
	require.Equal(t, "stdout", cfg.Tracing.Exporter)
}
