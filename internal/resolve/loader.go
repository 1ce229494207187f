package resolve

import (
	"context"
	"os"
	"time"

	"github.com/zjrosen/laminar/internal/cachemanager"
	"github.com/zjrosen/laminar/internal/codec"
	"github.com/zjrosen/laminar/internal/log"
	"github.com/zjrosen/laminar/internal/tree"
)

// Loader loads and parses a document referenced from an extends field.
// Returned trees are treated as immutable by the resolver, so a Loader
// may hand out shared nodes.
type Loader interface {
	Load(ctx context.Context, path string) (*tree.Node, error)
}

// FileLoader reads documents straight from disk on every call. This is
// the one-shot default: resolution is a side-effect-free transform, so
// re-reading a file referenced by two services is acceptable.
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, path string) (*tree.Node, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the document's own extends reference
	if err != nil {
		return nil, &FileAccessError{Path: path, Err: err}
	}
	log.Debug(log.CatLoader, "loaded extends file", "path", path, "bytes", len(data))
	return codec.Parse(path, string(data))
}

// CachedLoader wraps a Loader with a read-through cache of parsed
// documents. Watch mode uses it so that a burst of change events does
// not re-parse every referenced file; Invalidate is called whenever the
// watcher fires.
type CachedLoader struct {
	manager *cachemanager.InMemoryCacheManager[string, *tree.Node]
	cache   *cachemanager.ReadThroughCache[string, *tree.Node, string]
	ttl     time.Duration
}

// NewCachedLoader builds a caching layer over inner with the given TTL.
func NewCachedLoader(inner Loader, ttl time.Duration) *CachedLoader {
	if ttl <= 0 {
		ttl = cachemanager.DefaultExpiration
	}
	manager := cachemanager.NewInMemoryCacheManager[string, *tree.Node]("extends-files", ttl, 2*ttl)
	cache := cachemanager.NewReadThroughCache(manager, func(ctx context.Context, path string) (*tree.Node, error) {
		return inner.Load(ctx, path)
	}, false)
	return &CachedLoader{manager: manager, cache: cache, ttl: ttl}
}

func (l *CachedLoader) Load(ctx context.Context, path string) (*tree.Node, error) {
	return l.cache.Get(ctx, path, path, l.ttl)
}

// Invalidate drops every cached document.
func (l *CachedLoader) Invalidate(ctx context.Context) error {
	return l.manager.Flush(ctx)
}
