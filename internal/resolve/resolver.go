// Package resolve implements the inheritance-resolution engine: it
// walks a mapping of service descriptions, resolves each extends
// reference (local name or {service, file} pair) to a fully-resolved
// parent description, and merges child fields onto it.
package resolve

import (
	"context"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/laminar/internal/log"
	"github.com/zjrosen/laminar/internal/tracing"
	"github.com/zjrosen/laminar/internal/tree"
)

// Field names recognized on service descriptions.
const (
	// ExtendsKey marks a service description as inheriting from a parent.
	ExtendsKey = "extends"

	serviceKey  = "service"
	fileKey     = "file"
	servicesKey = "services"
)

// Resolver builds a resolved registry from a raw services mapping. It
// accumulates the list of files loaded through extends references, so
// create one Resolver per resolution pass; independent passes with
// independent resolvers are safe to run concurrently.
type Resolver struct {
	loader   Loader
	reporter *Reporter
	tracer   trace.Tracer
	loaded   []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLoader overrides the default disk loader for cross-file
// references.
func WithLoader(l Loader) Option {
	return func(r *Resolver) { r.loader = l }
}

// WithReporter routes dangling-reference diagnostics to rep.
func WithReporter(rep *Reporter) Option {
	return func(r *Resolver) { r.reporter = rep }
}

// WithTracer overrides the global tracer.
func WithTracer(tr trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = tr }
}

// New creates a resolver. Without options it loads files from disk,
// discards diagnostics, and uses the globally registered tracer (a
// no-op unless tracing was enabled).
func New(opts ...Option) *Resolver {
	r := &Resolver{
		loader: FileLoader{},
		tracer: otel.Tracer("github.com/zjrosen/laminar/internal/resolve"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveRegistry resolves every service in the given mapping, in the
// mapping's own iteration order, and returns the resolved registry.
//
// Local extends targets are looked up in the registry as populated so
// far, not in the raw input. A service extending a sibling that appears
// later in the mapping therefore resolves against an empty parent and
// records a dangling-reference diagnostic. This matches the engine's
// long-standing behavior and is covered by tests; do not reorder.
//
// Relative file references resolve against baseDir. A non-mapping
// services node is returned unchanged.
func (r *Resolver) ResolveRegistry(ctx context.Context, baseDir string, services *tree.Node) (*tree.Node, error) {
	if services == nil || services.Kind != tree.KindMapping {
		log.Warn(log.CatResolve, "services node is not a mapping, passing through")
		return services, nil
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanResolveRegistry, trace.WithAttributes(
		attribute.String(tracing.AttrBaseDir, baseDir),
		attribute.Int(tracing.AttrServiceCount, services.Len()),
	))
	defer span.End()

	registry := tree.NewMapping()
	registry.Map = make([]tree.Entry, 0, services.Len())

	for _, e := range services.Map {
		resolved, err := r.resolveService(ctx, baseDir, registry, e.Key, e.Value)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		registry.Set(e.Key, resolved)
	}
	return registry, nil
}

// LoadedFiles returns the paths of every file loaded while following
// extends references, in load order. Watch mode re-arms its watcher
// from this list.
func (r *Resolver) LoadedFiles() []string {
	out := make([]string, len(r.loaded))
	copy(out, r.loaded)
	return out
}

func (r *Resolver) resolveService(ctx context.Context, baseDir string, registry *tree.Node, name string, desc *tree.Node) (*tree.Node, error) {
	// Only mapping descriptions can carry an extends field.
	if desc == nil || desc.Kind != tree.KindMapping {
		return desc, nil
	}
	extends, ok := desc.Get(ExtendsKey)
	if !ok {
		return desc, nil
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanResolveService, trace.WithAttributes(
		attribute.String(tracing.AttrServiceName, name),
		attribute.String(tracing.AttrExtendsKind, extends.Kind.String()),
	))
	defer span.End()

	parent, err := r.resolveParent(ctx, baseDir, registry, name, extends)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	merged := Apply(parent, desc)
	log.Debug(log.CatResolve, "resolved service", "service", name)
	return merged, nil
}

// resolveParent turns the extends value into a fully-resolved parent
// description. The parent is always a resolved node: local lookups hit
// the registry (already extends-free), file lookups recurse through
// ResolveRegistry on the referenced document.
func (r *Resolver) resolveParent(ctx context.Context, baseDir string, registry *tree.Node, name string, extends *tree.Node) (*tree.Node, error) {
	switch extends.Kind {
	case tree.KindScalar:
		return r.lookupLocal(registry, name, extends.Value), nil

	case tree.KindMapping:
		fileNode, hasFile := extends.Get(fileKey)
		serviceNode, hasService := extends.Get(serviceKey)

		if hasFile {
			target := ""
			if hasService {
				target = serviceNode.Value
			}
			return r.resolveFromFile(ctx, baseDir, name, target, fileNode.Value)
		}
		if hasService {
			return r.lookupLocal(registry, name, serviceNode.Value), nil
		}
		// Neither service nor file named: nothing to inherit.
		return tree.NewMapping(), nil

	default:
		log.Warn(log.CatResolve, "extends value is a sequence, ignoring", "service", name)
		return tree.NewMapping(), nil
	}
}

// lookupLocal finds target in the registry as populated so far. A miss
// is not an error: the child resolves against an empty parent and the
// condition surfaces as a diagnostic.
func (r *Resolver) lookupLocal(registry *tree.Node, service, target string) *tree.Node {
	parent, ok := registry.Get(target)
	if !ok {
		if r.reporter != nil {
			r.reporter.DanglingReference(service, target, "")
		}
		log.Warn(log.CatResolve, "extends target not found in registry", "service", service, "target", target)
		return tree.NewMapping()
	}
	return parent
}

// resolveFromFile loads the referenced document, resolves its full
// registry, and looks the target service up there. Read and parse
// failures are fatal. Nested relative file references inside the
// referenced document resolve against that document's own directory.
func (r *Resolver) resolveFromFile(ctx context.Context, baseDir, service, target, ref string) (*tree.Node, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, ref)
	}

	ctx, span := r.tracer.Start(ctx, tracing.SpanLoadFile, trace.WithAttributes(
		attribute.String(tracing.AttrFilePath, path),
		attribute.String(tracing.AttrExtendsTarget, target),
	))
	defer span.End()

	doc, err := r.loader.Load(ctx, path)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	r.loaded = append(r.loaded, path)

	registry, err := r.ResolveRegistry(ctx, filepath.Dir(path), ServiceSection(doc))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	parent, ok := registry.Get(target)
	if !ok {
		if r.reporter != nil {
			r.reporter.DanglingReference(service, target, path)
		}
		log.Warn(log.CatResolve, "extends target not found in file", "service", service, "target", target, "file", path)
		return tree.NewMapping(), nil
	}
	return parent, nil
}

// ServiceSection applies document shape detection: a wrapped document
// contributes the mapping under its services key, a flat legacy
// document contributes its root mapping directly.
func ServiceSection(doc *tree.Node) *tree.Node {
	if services, ok := doc.Get(servicesKey); ok {
		return services
	}
	return doc
}
