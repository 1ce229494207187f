// Package linearise is the top-level entry point of the resolution
// pipeline. It detects the document shape (services nested under a
// services key, or a flat legacy map of services), resolves every
// extends relationship through the registry, reassembles the output
// document around untouched sibling keys, and trims the serialized
// result.
package linearise

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/laminar/internal/codec"
	"github.com/zjrosen/laminar/internal/log"
	"github.com/zjrosen/laminar/internal/resolve"
	"github.com/zjrosen/laminar/internal/tracing"
	"github.com/zjrosen/laminar/internal/tree"
)

const servicesKey = "services"

// DefaultTrimCutset is the character set stripped from both ends of
// the serialized output: dash, space, form-feed, vertical-tab,
// carriage-return, tab, newline. Purely cosmetic; it never touches
// semantic content.
const DefaultTrimCutset = "- \f\v\r\t\n"

// Linearizer resolves documents. The zero-option form reads referenced
// files from disk, discards diagnostics, and trims with the default
// cutset.
type Linearizer struct {
	trimCutset string
	loader     resolve.Loader
	reporter   *resolve.Reporter
	tracer     trace.Tracer
}

// Option configures a Linearizer.
type Option func(*Linearizer)

// WithTrimCutset overrides the cosmetic-trim character set.
func WithTrimCutset(cutset string) Option {
	return func(l *Linearizer) { l.trimCutset = cutset }
}

// WithLoader overrides how extends-referenced files are loaded.
func WithLoader(loader resolve.Loader) Option {
	return func(l *Linearizer) { l.loader = loader }
}

// WithReporter collects dangling-reference diagnostics.
func WithReporter(reporter *resolve.Reporter) Option {
	return func(l *Linearizer) { l.reporter = reporter }
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Linearizer) { l.tracer = tracer }
}

// New creates a Linearizer.
func New(opts ...Option) *Linearizer {
	l := &Linearizer{
		trimCutset: DefaultTrimCutset,
		loader:     resolve.FileLoader{},
		tracer:     otel.Tracer("github.com/zjrosen/laminar/internal/linearise"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is one resolution pass.
type Result struct {
	// Output is the resolved, trimmed document text.
	Output string

	// Files lists every file read while following extends references,
	// in load order. Watch mode re-arms its watcher from this.
	Files []string

	// Diagnostics holds the non-fatal warnings recorded during the
	// pass. Empty unless the Linearizer carries a reporter.
	Diagnostics []resolve.Diagnostic
}

// Linearise resolves the document text against baseDir. An empty
// baseDir means the current working directory. Parse failures and
// unreadable extends files abort with an error; dangling local
// references degrade to empty parents and surface in
// Result.Diagnostics.
func (l *Linearizer) Linearise(ctx context.Context, text, baseDir string) (Result, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Result{}, fmt.Errorf("determining working directory: %w", err)
		}
		baseDir = wd
	}

	ctx, span := l.tracer.Start(ctx, tracing.SpanLinearise, trace.WithAttributes(
		attribute.String(tracing.AttrBaseDir, baseDir),
		attribute.Int(tracing.AttrDocumentSize, len(text)),
	))
	defer span.End()
	if l.reporter != nil {
		span.SetAttributes(attribute.String(tracing.AttrRunID, l.reporter.RunID().String()))
	}

	root, err := codec.Parse("<input>", text)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	if root.Kind != tree.KindMapping {
		err := fmt.Errorf("document root must be a mapping, got %s", root.Kind)
		span.RecordError(err)
		return Result{}, err
	}

	resolver := resolve.New(
		resolve.WithLoader(l.loader),
		resolve.WithReporter(l.reporter),
		resolve.WithTracer(l.tracer),
	)

	output, err := l.resolveDocument(ctx, span, resolver, baseDir, root)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	serialized, err := codec.Serialize(output)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	result := Result{
		Output: strings.Trim(serialized, l.trimCutset),
		Files:  resolver.LoadedFiles(),
	}
	if l.reporter != nil {
		result.Diagnostics = l.reporter.Diagnostics()
	}
	log.Info(log.CatResolve, "linearised document",
		"bytes_in", len(text), "bytes_out", len(result.Output),
		"files_loaded", len(result.Files), "warnings", len(result.Diagnostics))
	return result, nil
}

// resolveDocument applies shape detection and reassembles the output.
// Wrapped form: sibling keys pass through verbatim, in place; only the
// services value is replaced. Flat form: the whole root is the
// registry input.
func (l *Linearizer) resolveDocument(ctx context.Context, span trace.Span, resolver *resolve.Resolver, baseDir string, root *tree.Node) (*tree.Node, error) {
	if !root.Has(servicesKey) {
		span.SetAttributes(attribute.String(tracing.AttrShape, tracing.ShapeFlat))
		return resolver.ResolveRegistry(ctx, baseDir, root)
	}

	span.SetAttributes(attribute.String(tracing.AttrShape, tracing.ShapeWrapped))
	output := tree.NewMapping()
	for _, e := range root.Map {
		if e.Key != servicesKey {
			output.Set(e.Key, e.Value.Clone())
			continue
		}
		resolved, err := resolver.ResolveRegistry(ctx, baseDir, e.Value)
		if err != nil {
			return nil, err
		}
		output.Set(e.Key, resolved)
	}
	return output, nil
}

// Linearise is the package-level convenience form with default options:
// resolve text against baseDir and return the trimmed output.
func Linearise(ctx context.Context, text, baseDir string) (string, error) {
	result, err := New().Linearise(ctx, text, baseDir)
	if err != nil {
		return "", err
	}
	return result.Output, nil
}
