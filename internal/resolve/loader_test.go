package resolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/laminar/internal/codec"
	"github.com/zjrosen/laminar/internal/tree"
)

func TestFileLoader_LoadParsesDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "web:\n  image: nginx\n")

	doc, err := FileLoader{}.Load(context.Background(), path)
	require.NoError(t, err)
	require.True(t, doc.Has("web"))
}

func TestFileLoader_MissingFile(t *testing.T) {
	_, err := FileLoader{}.Load(context.Background(), "/does/not/exist.yaml")
	require.Error(t, err)

	var accessErr *FileAccessError
	require.True(t, errors.As(err, &accessErr))
}

func TestFileLoader_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "a:\n\tb: {")

	_, err := FileLoader{}.Load(context.Background(), path)
	require.Error(t, err)

	var parseErr *codec.ParseError
	require.True(t, errors.As(err, &parseErr))
}

// countingLoader records how many times each path was loaded.
type countingLoader struct {
	inner Loader
	calls map[string]int
}

func (c *countingLoader) Load(ctx context.Context, path string) (*tree.Node, error) {
	c.calls[path]++
	return c.inner.Load(ctx, path)
}

func TestCachedLoader_SecondLoadHitsCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "web:\n  image: nginx\n")

	counting := &countingLoader{inner: FileLoader{}, calls: map[string]int{}}
	cached := NewCachedLoader(counting, time.Minute)

	ctx := context.Background()
	first, err := cached.Load(ctx, path)
	require.NoError(t, err)
	second, err := cached.Load(ctx, path)
	require.NoError(t, err)

	require.Equal(t, 1, counting.calls[path])
	require.True(t, first.Equal(second))
}

func TestCachedLoader_InvalidateForcesReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "web:\n  image: nginx\n")

	counting := &countingLoader{inner: FileLoader{}, calls: map[string]int{}}
	cached := NewCachedLoader(counting, time.Minute)

	ctx := context.Background()
	_, err := cached.Load(ctx, path)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx))

	_, err = cached.Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, counting.calls[path])
}

func TestCachedLoader_ErrorsAreNotCached(t *testing.T) {
	dir := t.TempDir()

	counting := &countingLoader{inner: FileLoader{}, calls: map[string]int{}}
	cached := NewCachedLoader(counting, time.Minute)

	ctx := context.Background()
	missing := dir + "/missing.yaml"
	_, err := cached.Load(ctx, missing)
	require.Error(t, err)

	// The file appears; the next load must reach the inner loader.
	writeFile(t, dir, "missing.yaml", "web:\n  image: nginx\n")
	doc, err := cached.Load(ctx, missing)
	require.NoError(t, err)
	require.True(t, doc.Has("web"))
	require.Equal(t, 2, counting.calls[missing])
}
