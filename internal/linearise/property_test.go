package linearise

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/laminar/internal/codec"
	"github.com/zjrosen/laminar/internal/tree"
)

var serviceNames = []string{"web", "db", "cache", "worker"}

// genDocument draws a flat-form document. withExtends also sprinkles
// extends references, some of them dangling on purpose.
func genDocument(t *rapid.T, withExtends bool) *tree.Node {
	doc := tree.NewMapping()
	count := rapid.IntRange(1, 4).Draw(t, "serviceCount")
	for i := 0; i < count; i++ {
		name := serviceNames[i]
		doc.Set(name, genService(t, name, withExtends))
	}
	return doc
}

func genService(t *rapid.T, name string, withExtends bool) *tree.Node {
	svc := tree.NewMapping()

	if withExtends && rapid.Bool().Draw(t, name+"-hasExtends") {
		// Target may or may not exist; dangling is legal by design.
		target := rapid.SampledFrom(append([]string{"ghost"}, serviceNames...)).Draw(t, name+"-target")
		svc.Set("extends", tree.NewScalar(target))
	}
	if rapid.Bool().Draw(t, name+"-hasImage") {
		svc.Set("image", tree.NewScalar(rapid.StringMatching(`[a-z]{2,8}`).Draw(t, name+"-image")))
	}
	if rapid.Bool().Draw(t, name+"-hasPorts") {
		ports := tree.NewSequence()
		n := rapid.IntRange(1, 3).Draw(t, name+"-portCount")
		for i := 0; i < n; i++ {
			ports.Seq = append(ports.Seq, tree.NewScalar(rapid.StringMatching(`[1-9][0-9]{1,3}`).Draw(t, name+"-port")))
		}
		svc.Set("ports", ports)
	}
	if rapid.Bool().Draw(t, name+"-hasEnv") {
		env := tree.NewMapping()
		for _, key := range []string{"LOG_LEVEL", "REGION"} {
			if rapid.Bool().Draw(t, name+"-env-"+key) {
				env.Set(key, tree.NewScalar(rapid.StringMatching(`[a-z]{2,6}`).Draw(t, name+"-envval")))
			}
		}
		svc.Set("environment", env)
	}
	return svc
}

// Running the linearizer on its own output changes nothing: the first
// pass removed every extends field, so the second pass is a pure
// parse/serialize round trip.
func TestProperty_Idempotence(tt *testing.T) {
	dir := tt.TempDir()
	rapid.Check(tt, func(t *rapid.T) {
		doc := genDocument(t, true)
		text, err := codec.Serialize(doc)
		require.NoError(t, err)

		once, err := Linearise(context.Background(), text, dir)
		require.NoError(t, err)

		twice, err := Linearise(context.Background(), once, dir)
		require.NoError(t, err)

		require.Equal(t, once, twice)
	})
}

// A document without extends fields resolves to the same service set
// and field content. The generated doc is parsed back once before
// comparing so both sides carry resolved scalar tags.
func TestProperty_NoExtendsPassthrough(tt *testing.T) {
	dir := tt.TempDir()
	rapid.Check(tt, func(t *rapid.T) {
		text, err := codec.Serialize(genDocument(t, false))
		require.NoError(t, err)
		doc, err := codec.Parse("<input>", text)
		require.NoError(t, err)

		out, err := Linearise(context.Background(), text, dir)
		require.NoError(t, err)

		reparsed, err := codec.Parse("<output>", out)
		require.NoError(t, err)
		require.True(t, doc.Equal(reparsed), "expected passthrough, got:\n%s", out)
	})
}

// The resolved output never contains an extends field, anywhere.
func TestProperty_OutputIsExtendsFree(tt *testing.T) {
	dir := tt.TempDir()
	rapid.Check(tt, func(t *rapid.T) {
		doc := genDocument(t, true)
		text, err := codec.Serialize(doc)
		require.NoError(t, err)

		out, err := Linearise(context.Background(), text, dir)
		require.NoError(t, err)

		reparsed, err := codec.Parse("<output>", out)
		require.NoError(t, err)
		for _, name := range reparsed.Keys() {
			svc, _ := reparsed.Get(name)
			require.False(t, svc.Has("extends"), "service %s still has extends", name)
		}
	})
}
