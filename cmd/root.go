// Package cmd wires the CLI: flag parsing, config loading, and the
// one-shot and watch entry points around the linearise engine.
package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/laminar/internal/config"
	"github.com/zjrosen/laminar/internal/diffview"
	"github.com/zjrosen/laminar/internal/linearise"
	"github.com/zjrosen/laminar/internal/log"
	"github.com/zjrosen/laminar/internal/resolve"
	"github.com/zjrosen/laminar/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

var rootCmd = &cobra.Command{
	Use:   "laminar [file]",
	Short: "Resolve extends inheritance in service definition documents",
	Long: `Laminar reads a compose-style service definition document, resolves
every extends relationship (local and cross-file), merges parent and
child fields, and prints the flattened document.

Reads from stdin when no file is given or when the file is "-".`,
	Version: version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runOnce,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .laminar/config.yaml, then ~/.config/laminar/config.yaml)")
	rootCmd.PersistentFlags().StringP("base-dir", "b", "",
		"base directory for relative extends file references (default: input file's directory)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write structured logs to the debug log file")
	rootCmd.PersistentFlags().Bool("trace", false,
		"emit OpenTelemetry spans for the resolution pipeline")
	rootCmd.Flags().StringP("output", "o", "",
		"write resolved document to file instead of stdout")
	rootCmd.Flags().String("trim-chars", "",
		"characters trimmed from the boundaries of the output")
	rootCmd.Flags().Bool("diff", false,
		"show a line diff from input to resolved output instead of the output itself")

	_ = viper.BindPFlag("base_dir", rootCmd.PersistentFlags().Lookup("base-dir"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("trim_chars", rootCmd.Flags().Lookup("trim-chars"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("tracing.enabled", rootCmd.PersistentFlags().Lookup("trace"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("log_file", defaults.LogFile)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("watch.cache_ttl", defaults.Watch.CacheTTL)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .laminar/config.yaml (current directory)
		// 2. ~/.config/laminar/config.yaml (user config)
		if _, err := os.Stat(".laminar/config.yaml"); err == nil {
			viper.SetConfigFile(".laminar/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "laminar"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			defaultPath := ".laminar/config.yaml"
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)

	if os.Getenv("LAMINAR_DEBUG") != "" {
		cfg.Debug = true
	}
}

// setupLogging initializes the debug log when requested. Returns a
// cleanup function, never nil.
func setupLogging() func() {
	if !cfg.Debug {
		return func() {}
	}
	if dir := filepath.Dir(cfg.LogFile); dir != "." {
		_ = os.MkdirAll(dir, 0750)
	}
	cleanup, err := log.Init(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
		return func() {}
	}
	return cleanup
}

// readInput returns the document text and the directory used for
// relative extends references. Stdin has no directory, so the working
// directory applies (the engine falls back to it on empty baseDir).
func readInput(args []string) (text, baseDir string, err error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	path := args[0]
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's input document
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return string(data), filepath.Dir(abs), nil
}

// printWarnings writes dangling-reference diagnostics to stderr so they
// never mix into the resolved document on stdout.
func printWarnings(diags []resolve.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, warnStyle.Render("warning: "+d.String()))
	}
}

// writeOutput sends the resolved text to the configured destination.
func writeOutput(text string) error {
	if cfg.Output == "" {
		fmt.Println(text)
		return nil
	}
	if err := os.WriteFile(cfg.Output, []byte(text+"\n"), 0600); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func runOnce(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup := setupLogging()
	defer cleanup()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(cmd.Context()) }()

	text, inputDir, err := readInput(args)
	if err != nil {
		return err
	}
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = inputDir
	}

	reporter := resolve.NewReporter()
	defer reporter.Close()

	opts := []linearise.Option{
		linearise.WithReporter(reporter),
		linearise.WithTracer(provider.Tracer()),
	}
	if cfg.TrimChars != "" {
		opts = append(opts, linearise.WithTrimCutset(cfg.TrimChars))
	}

	result, err := linearise.New(opts...).Linearise(cmd.Context(), text, baseDir)
	if err != nil {
		return err
	}

	printWarnings(result.Diagnostics)

	if showDiff, _ := cmd.Flags().GetBool("diff"); showDiff {
		fmt.Print(diffview.Render(text, result.Output+"\n"))
		return nil
	}
	return writeOutput(result.Output)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
