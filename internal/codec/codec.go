// Package codec converts between YAML text and the generic document
// tree. It is the only package that touches yaml.v3 node internals; the
// resolution engine sees tree.Node values exclusively.
package codec

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/laminar/internal/tree"
)

// ParseError reports a malformed document, identifying the source it
// came from (a file path, or "<input>" for the top-level document).
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse decodes YAML text into a document tree. An empty document
// parses to an empty mapping. Malformed input returns a *ParseError
// naming the given source.
func Parse(source, text string) (*tree.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	// A document with only comments or whitespace decodes to a zero node.
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return tree.NewMapping(), nil
	}

	node, err := fromYAML(doc.Content[0])
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return node, nil
}

// Serialize encodes a document tree back to YAML text with two-space
// indentation.
func Serialize(n *tree.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toYAML(n)); err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serializing document: %w", err)
	}
	return buf.String(), nil
}

func fromYAML(n *yaml.Node) (*tree.Node, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return &tree.Node{Kind: tree.KindScalar, Value: n.Value, Tag: n.ShortTag()}, nil

	case yaml.SequenceNode:
		out := tree.NewSequence()
		for _, item := range n.Content {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			out.Seq = append(out.Seq, child)
		}
		return out, nil

	case yaml.MappingNode:
		out := tree.NewMapping()
		// yaml.v3 stores mapping pairs as flat [key, value, key, value...].
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			value, err := fromYAML(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out.Map = append(out.Map, tree.Entry{Key: key.Value, Value: value})
		}
		return out, nil

	case yaml.AliasNode:
		// Anchors are expanded at parse time; the resolved output has no
		// aliases.
		return fromYAML(n.Alias)

	default:
		return nil, fmt.Errorf("unsupported node kind %d at line %d", n.Kind, n.Line)
	}
}

func toYAML(n *tree.Node) *yaml.Node {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	switch n.Kind {
	case tree.KindScalar:
		out := &yaml.Node{Kind: yaml.ScalarNode, Value: n.Value}
		// An empty tag lets the encoder infer one from the value, which
		// would turn the string "80" into an int. Nodes that came through
		// Parse carry their resolved tag and round-trip exactly.
		out.Tag = n.Tag
		return out

	case tree.KindSequence:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range n.Seq {
			out.Content = append(out.Content, toYAML(item))
		}
		return out

	case tree.KindMapping:
		out := &yaml.Node{Kind: yaml.MappingNode}
		for _, e := range n.Map {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: e.Key},
				toYAML(e.Value),
			)
		}
		return out

	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
