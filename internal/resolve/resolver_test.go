package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/laminar/internal/codec"
	"github.com/zjrosen/laminar/internal/tree"
)

// mustParse turns a YAML literal into a tree for fixtures.
func mustParse(t *testing.T, text string) *tree.Node {
	t.Helper()
	node, err := codec.Parse("<test>", text)
	require.NoError(t, err)
	return node
}

// writeFile drops a fixture file into dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestResolveRegistry_NoExtendsPassthrough(t *testing.T) {
	services := mustParse(t, `
web:
  image: nginx
db:
  image: postgres
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)
	require.True(t, services.Equal(got))
}

func TestResolveRegistry_LocalScalarExtends(t *testing.T) {
	services := mustParse(t, `
base:
  image: redis
  ports:
    - 6379
cache:
  extends: base
  ports:
    - 6380
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	cache, ok := got.Get("cache")
	require.True(t, ok)
	require.False(t, cache.Has("extends"))

	image, _ := cache.Get("image")
	require.Equal(t, "redis", image.Value)

	ports, _ := cache.Get("ports")
	require.Equal(t, 2, ports.Len())
	require.Equal(t, "6379", ports.Seq[0].Value)
	require.Equal(t, "6380", ports.Seq[1].Value)
}

func TestResolveRegistry_MappingFormServiceOnly(t *testing.T) {
	services := mustParse(t, `
base:
  image: redis
cache:
  extends:
    service: base
  command: redis-server
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	cache, _ := got.Get("cache")
	image, ok := cache.Get("image")
	require.True(t, ok)
	require.Equal(t, "redis", image.Value)
}

func TestResolveRegistry_ExtendsWithNeitherKey(t *testing.T) {
	services := mustParse(t, `
odd:
  extends:
    comment: nothing useful
  image: busybox
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	odd, _ := got.Get("odd")
	require.Equal(t, []string{"image"}, odd.Keys())
}

func TestResolveRegistry_ChainedExtends(t *testing.T) {
	services := mustParse(t, `
base:
  image: app
  environment:
    LOG_LEVEL: info
mid:
  extends: base
  environment:
    REGION: eu
leaf:
  extends: mid
  environment:
    LOG_LEVEL: debug
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	leaf, _ := got.Get("leaf")
	env, _ := leaf.Get("environment")
	require.Equal(t, []string{"LOG_LEVEL", "REGION"}, env.Keys())

	level, _ := env.Get("LOG_LEVEL")
	require.Equal(t, "debug", level.Value)
	region, _ := env.Get("REGION")
	require.Equal(t, "eu", region.Value)
}

func TestResolveRegistry_DanglingReferenceResolvesEmpty(t *testing.T) {
	reporter := NewReporter()
	defer reporter.Close()

	services := mustParse(t, `
web:
  extends: missing
  image: nginx
`)

	got, err := New(WithReporter(reporter)).ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	web, _ := got.Get("web")
	require.Equal(t, []string{"image"}, web.Keys())

	diags := reporter.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, "web", diags[0].Service)
	require.Equal(t, "missing", diags[0].Target)
	require.Empty(t, diags[0].File)
	require.Equal(t, reporter.RunID(), diags[0].RunID)
}

// A service extending a sibling that appears later in the mapping
// resolves against the registry as populated so far, which does not
// contain the sibling yet. The forward reference degrades to an empty
// parent instead of picking up the sibling's fields.
func TestResolveRegistry_ForwardReferenceSeesEmptyParent(t *testing.T) {
	reporter := NewReporter()
	defer reporter.Close()

	services := mustParse(t, `
early:
  extends: late
  command: run
late:
  image: busybox
`)

	got, err := New(WithReporter(reporter)).ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	early, _ := got.Get("early")
	require.Equal(t, []string{"command"}, early.Keys(), "forward reference must not inherit fields")
	require.Len(t, reporter.Diagnostics(), 1)

	// The sibling itself still resolves normally.
	late, _ := got.Get("late")
	require.True(t, late.Has("image"))
}

func TestResolveRegistry_CrossFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.yaml", `
base:
  image: redis
  ports:
    - 6379
`)

	services := mustParse(t, `
cache:
  extends:
    service: base
    file: common.yaml
  ports:
    - 6380
`)

	resolver := New()
	got, err := resolver.ResolveRegistry(context.Background(), dir, services)
	require.NoError(t, err)

	cache, _ := got.Get("cache")
	image, _ := cache.Get("image")
	require.Equal(t, "redis", image.Value)
	ports, _ := cache.Get("ports")
	require.Equal(t, 2, ports.Len())

	require.Equal(t, []string{filepath.Join(dir, "common.yaml")}, resolver.LoadedFiles())
}

func TestResolveRegistry_CrossFileWrappedForm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.yaml", `
version: "3"
services:
  base:
    image: redis
`)

	services := mustParse(t, `
cache:
  extends:
    service: base
    file: common.yaml
`)

	got, err := New().ResolveRegistry(context.Background(), dir, services)
	require.NoError(t, err)

	cache, _ := got.Get("cache")
	image, ok := cache.Get("image")
	require.True(t, ok)
	require.Equal(t, "redis", image.Value)
}

// Nested relative file references resolve against the directory of the
// document that declares them, not the original base directory.
func TestResolveRegistry_NestedFileUsesOwnDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared/lowest.yaml", `
root:
  image: alpine
`)
	writeFile(t, dir, "shared/middle.yaml", `
base:
  extends:
    service: root
    file: lowest.yaml
  command: serve
`)

	services := mustParse(t, `
app:
  extends:
    service: base
    file: shared/middle.yaml
`)

	resolver := New()
	got, err := resolver.ResolveRegistry(context.Background(), dir, services)
	require.NoError(t, err)

	app, _ := got.Get("app")
	image, ok := app.Get("image")
	require.True(t, ok, "fields from lowest.yaml should flow through middle.yaml")
	require.Equal(t, "alpine", image.Value)
	command, _ := app.Get("command")
	require.Equal(t, "serve", command.Value)

	require.Equal(t, []string{
		filepath.Join(dir, "shared/middle.yaml"),
		filepath.Join(dir, "shared/lowest.yaml"),
	}, resolver.LoadedFiles())
}

func TestResolveRegistry_MissingFileIsFatal(t *testing.T) {
	services := mustParse(t, `
web:
  extends:
    service: base
    file: nope.yaml
`)

	_, err := New().ResolveRegistry(context.Background(), t.TempDir(), services)
	require.Error(t, err)

	var accessErr *FileAccessError
	require.True(t, errors.As(err, &accessErr))
	require.Contains(t, accessErr.Path, "nope.yaml")
}

func TestResolveRegistry_MalformedFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "base:\n\timage: {")

	services := mustParse(t, `
web:
  extends:
    service: base
    file: broken.yaml
`)

	_, err := New().ResolveRegistry(context.Background(), dir, services)
	require.Error(t, err)

	var parseErr *codec.ParseError
	require.True(t, errors.As(err, &parseErr))
	require.Contains(t, parseErr.Source, "broken.yaml")
}

func TestResolveRegistry_DanglingCrossFileTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "common.yaml", `
other:
  image: redis
`)

	reporter := NewReporter()
	defer reporter.Close()

	services := mustParse(t, `
web:
  extends:
    service: base
    file: common.yaml
  image: nginx
`)

	got, err := New(WithReporter(reporter)).ResolveRegistry(context.Background(), dir, services)
	require.NoError(t, err)

	web, _ := got.Get("web")
	require.Equal(t, []string{"image"}, web.Keys())

	diags := reporter.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, filepath.Join(dir, "common.yaml"), diags[0].File)
}

func TestResolveRegistry_AbsoluteFileReferenceIgnoresBaseDir(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "common.yaml", `
base:
  image: redis
`)

	services := tree.NewMapping(tree.Entry{
		Key: "cache",
		Value: tree.NewMapping(tree.Entry{
			Key: ExtendsKey,
			Value: tree.NewMapping(
				tree.Entry{Key: "service", Value: tree.NewScalar("base")},
				tree.Entry{Key: "file", Value: tree.NewScalar(path)},
			),
		}),
	})

	got, err := New().ResolveRegistry(context.Background(), "/somewhere/else", services)
	require.NoError(t, err)

	cache, _ := got.Get("cache")
	require.True(t, cache.Has("image"))
}

func TestResolveRegistry_NonMappingServicesPassthrough(t *testing.T) {
	node := tree.NewScalar("not services")
	got, err := New().ResolveRegistry(context.Background(), "", node)
	require.NoError(t, err)
	require.Equal(t, node, got)
}

func TestResolveRegistry_NonMappingServiceBodyKept(t *testing.T) {
	services := mustParse(t, `
odd: just a string
web:
  image: nginx
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)

	odd, ok := got.Get("odd")
	require.True(t, ok)
	require.Equal(t, tree.KindScalar, odd.Kind)
}

func TestResolveRegistry_InputOrderPreserved(t *testing.T) {
	services := mustParse(t, `
zeta:
  image: a
alpha:
  extends: zeta
mike:
  image: c
`)

	got, err := New().ResolveRegistry(context.Background(), "", services)
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha", "mike"}, got.Keys())
}

func TestServiceSection(t *testing.T) {
	wrapped := mustParse(t, "version: \"3\"\nservices:\n  web:\n    image: nginx\n")
	section := ServiceSection(wrapped)
	require.True(t, section.Has("web"))

	flat := mustParse(t, "web:\n  image: nginx\n")
	require.Equal(t, flat, ServiceSection(flat))
}
