package resolve

import (
	"github.com/zjrosen/laminar/internal/tree"
)

// Apply lays a child's raw description over its resolved parent.
// Starting from a copy of the parent, every child field except extends
// is applied: fields absent from the parent are set directly, fields
// present on both sides are combined per Combine. The result is a new
// node; neither input is mutated.
func Apply(parent, child *tree.Node) *tree.Node {
	var out *tree.Node
	if parent != nil && parent.Kind == tree.KindMapping {
		out = parent.Clone()
	} else {
		// A non-mapping parent has nothing to merge onto.
		out = tree.NewMapping()
	}

	for _, e := range child.Map {
		if e.Key == ExtendsKey {
			continue
		}
		existing, ok := out.Get(e.Key)
		if !ok {
			out.Set(e.Key, e.Value.Clone())
			continue
		}
		out.Set(e.Key, Combine(existing, e.Value))
	}
	return out
}

// Combine merges two values held under the same field name:
//
//   - two mappings deep-merge: keys union, shared keys recurse
//   - two sequences concatenate, parent entries first, duplicates kept
//   - anything else, including a type mismatch between the two sides,
//     resolves to the child's value (scalar override, fail-soft)
//
// The returned node shares no structure with either input.
func Combine(parent, child *tree.Node) *tree.Node {
	switch {
	case parent == nil:
		return child.Clone()
	case child == nil:
		return parent.Clone()
	case parent.Kind == tree.KindMapping && child.Kind == tree.KindMapping:
		return combineMappings(parent, child)
	case parent.Kind == tree.KindSequence && child.Kind == tree.KindSequence:
		return combineSequences(parent, child)
	default:
		return child.Clone()
	}
}

func combineMappings(parent, child *tree.Node) *tree.Node {
	out := parent.Clone()
	for _, e := range child.Map {
		if existing, ok := out.Get(e.Key); ok {
			out.Set(e.Key, Combine(existing, e.Value))
		} else {
			out.Set(e.Key, e.Value.Clone())
		}
	}
	return out
}

func combineSequences(parent, child *tree.Node) *tree.Node {
	out := tree.NewSequence()
	out.Seq = make([]*tree.Node, 0, len(parent.Seq)+len(child.Seq))
	for _, item := range parent.Seq {
		out.Seq = append(out.Seq, item.Clone())
	}
	for _, item := range child.Seq {
		out.Seq = append(out.Seq, item.Clone())
	}
	return out
}
