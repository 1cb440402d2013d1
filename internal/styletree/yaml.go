package styletree

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML style document. Key order is preserved.
func Parse(data []byte) (*Tree, error) {
	t := New()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile decodes the style document stored at path.
func ReadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: style tree must be a mapping, got %s", node.Line, kindName(node))
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: style keys must be scalars", keyNode.Line)
		}
		value, err := decodeValue(valueNode)
		if err != nil {
			return err
		}
		t.Set(keyNode.Value, value)
	}
	return nil
}

func decodeValue(node *yaml.Node) (Value, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		sub := New()
		if err := sub.UnmarshalYAML(node); err != nil {
			return Value{}, err
		}
		return Sub(sub), nil
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			return Absent(), nil
		case "!!int", "!!float":
			f, err := strconv.ParseFloat(node.Value, 64)
			if err != nil {
				// hex, octal and friends stay verbatim
				return String(node.Value), nil
			}
			return Number(f), nil
		default:
			return String(node.Value), nil
		}
	default:
		return Value{}, fmt.Errorf("line %d: unsupported style value %s", node.Line, kindName(node))
	}
}

// MarshalYAML implements yaml.Marshaler.
func (t *Tree) MarshalYAML() (interface{}, error) {
	return t.node(), nil
}

func (t *Tree) node() *yaml.Node {
	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range t.Entries() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
		var value *yaml.Node
		switch e.Value.Kind() {
		case KindTree:
			value = e.Value.tree.node()
		case KindNumber:
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: e.Value.Text()}
			if e.Value.num == float64(int64(e.Value.num)) {
				value.Tag = "!!int"
			}
		case KindString:
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Value.Text()}
		default:
			value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
		}
		out.Content = append(out.Content, key, value)
	}
	return out
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
