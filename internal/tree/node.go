// Package tree defines the generic structured value that the resolution
// engine operates on: a closed tagged union of scalar, ordered sequence,
// and ordered mapping with unique keys. Key order within a mapping is
// preserved end-to-end so that resolved documents stay readable.
package tree

// Kind discriminates the three node shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Entry is a single key/value pair within a mapping node.
type Entry struct {
	Key   string
	Value *Node
}

// Node is one node of the generic document tree. Exactly one of the
// shape-specific fields is meaningful, selected by Kind:
// Value for scalars, Seq for sequences, Map for mappings.
//
// Tag carries the scalar's resolved YAML tag (e.g. "!!int", "!!str") so
// that serialization does not re-quote numbers or booleans. It is empty
// for sequences and mappings.
type Node struct {
	Kind  Kind
	Value string
	Tag   string
	Seq   []*Node
	Map   []Entry
}

// NewScalar returns a scalar node with an unresolved tag. The codec
// fills in Tag when a document is parsed; nodes built in code leave it
// empty and let the serializer infer one.
func NewScalar(value string) *Node {
	return &Node{Kind: KindScalar, Value: value}
}

// NewSequence returns a sequence node over the given items.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Seq: items}
}

// NewMapping returns a mapping node over the given entries.
func NewMapping(entries ...Entry) *Node {
	return &Node{Kind: KindMapping, Map: entries}
}

// Get returns the value for key within a mapping node. The second
// return is false when the node is not a mapping or the key is absent.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMapping {
		return nil, false
	}
	for _, e := range n.Map {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present within a mapping node.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set replaces the value for key in place, preserving the key's
// position, or appends a new entry when the key is absent.
func (n *Node) Set(key string, value *Node) {
	for i, e := range n.Map {
		if e.Key == key {
			n.Map[i].Value = value
			return
		}
	}
	n.Map = append(n.Map, Entry{Key: key, Value: value})
}

// Keys returns the mapping's keys in declaration order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != KindMapping {
		return nil
	}
	keys := make([]string, len(n.Map))
	for i, e := range n.Map {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of entries or items in the node. Scalars have
// length zero.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case KindSequence:
		return len(n.Seq)
	case KindMapping:
		return len(n.Map)
	default:
		return 0
	}
}

// Clone returns a deep copy of the node. The resolver clones parents
// before merging child fields onto them so that registry entries are
// never mutated through a later sibling's resolution.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value, Tag: n.Tag}
	if n.Seq != nil {
		out.Seq = make([]*Node, len(n.Seq))
		for i, item := range n.Seq {
			out.Seq[i] = item.Clone()
		}
	}
	if n.Map != nil {
		out.Map = make([]Entry, len(n.Map))
		for i, e := range n.Map {
			out.Map[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return out
}

// Equal reports deep equality of two nodes, including key order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind {
		return false
	}
	switch n.Kind {
	case KindScalar:
		return n.Value == other.Value && n.Tag == other.Tag
	case KindSequence:
		if len(n.Seq) != len(other.Seq) {
			return false
		}
		for i := range n.Seq {
			if !n.Seq[i].Equal(other.Seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(n.Map) != len(other.Map) {
			return false
		}
		for i := range n.Map {
			if n.Map[i].Key != other.Map[i].Key {
				return false
			}
			if !n.Map[i].Value.Equal(other.Map[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
