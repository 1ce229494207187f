package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/laminar/internal/config"
	"github.com/zjrosen/laminar/internal/linearise"
	"github.com/zjrosen/laminar/internal/log"
	"github.com/zjrosen/laminar/internal/resolve"
	"github.com/zjrosen/laminar/internal/tracing"
	"github.com/zjrosen/laminar/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Re-resolve the document whenever it or a referenced file changes",
	Long: `Watch resolves the document, then monitors the input file and every
file loaded through extends references. When any of them changes the
document is resolved again. Resolution errors are reported without
exiting, so a half-saved file does not kill the session.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup := setupLogging()
	defer cleanup()

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolving %s: %w", args[0], err)
	}
	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir = filepath.Dir(inputPath)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := resolve.NewCachedLoader(resolve.FileLoader{}, cfg.Watch.CacheTTL)

	// resolvePass runs one full resolution and returns the files the
	// watcher should track for the next round.
	resolvePass := func() []string {
		data, err := os.ReadFile(inputPath) //nolint:gosec // G304: path is the user's input document
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: reading %s: %v\n", inputPath, err)
			return []string{inputPath}
		}

		reporter := resolve.NewReporter()
		defer reporter.Close()

		opts := []linearise.Option{
			linearise.WithLoader(loader),
			linearise.WithReporter(reporter),
			linearise.WithTracer(provider.Tracer()),
		}
		if cfg.TrimChars != "" {
			opts = append(opts, linearise.WithTrimCutset(cfg.TrimChars))
		}

		result, err := linearise.New(opts...).Linearise(ctx, string(data), baseDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return []string{inputPath}
		}

		printWarnings(result.Diagnostics)
		if writeErr := writeOutput(result.Output); writeErr != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", writeErr)
		}
		return append([]string{inputPath}, result.Files...)
	}

	files := resolvePass()

	for {
		w, err := watcher.New(watcher.Config{Paths: files, DebounceDur: cfg.Watch.Debounce})
		if err != nil {
			return fmt.Errorf("creating watcher: %w", err)
		}
		changes, err := w.Start()
		if err != nil {
			_ = w.Stop()
			return fmt.Errorf("starting watcher: %w", err)
		}

		select {
		case <-ctx.Done():
			_ = w.Stop()
			log.Info(log.CatWatch, "watch mode stopped")
			return nil
		case <-changes:
			_ = w.Stop()
			if err := loader.Invalidate(ctx); err != nil {
				log.ErrorErr(log.CatCache, "cache flush failed", err)
			}
			log.Info(log.CatWatch, "change detected, re-resolving", "input", inputPath)
			// Re-arm with the file set of the fresh pass; a changed
			// extends chain can add or drop referenced files.
			files = resolvePass()
		}
	}
}
