package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ExportYAML renders d as YAML for hand editing. Key order follows the JSON
// encoding, so skill categories keep their stored order.
func ExportYAML(d Data) ([]byte, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding profile: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return nil, fmt.Errorf("converting profile: %w", err)
	}
	blockStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ImportYAML parses a document produced by ExportYAML (or written by hand).
func ImportYAML(src []byte) (Data, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return Data{}, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return Data{}, fmt.Errorf("empty document")
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, node.Content[0]); err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(buf.Bytes(), &d); err != nil {
		return Data{}, fmt.Errorf("decoding profile: %w", err)
	}
	return d, nil
}

func blockStyle(n *yaml.Node) {
	n.Style &^= yaml.FlowStyle
	if n.Kind == yaml.ScalarNode && n.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 && n.Tag == "!!str" {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// writeJSON converts a YAML node to JSON while keeping mapping order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return writeScalar(buf, n)
	default:
		return fmt.Errorf("unsupported yaml node at line %d", n.Line)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Tag {
	case "!!null":
		buf.WriteString("null")
		return nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err == nil {
			buf.WriteString(strconv.FormatBool(b))
			return nil
		}
	}
	// Everything else, numbers included, becomes a string: profile fields
	// are all text.
	s, err := json.Marshal(n.Value)
	if err != nil {
		return err
	}
	buf.Write(s)
	return nil
}
