package types

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type SourceField struct {
	Key   string
	Value string
}

// SourceDescriptor is the ordered, serializable form of a source. The
// type key is always emitted first, followed by Fields in order.
type SourceDescriptor struct {
	Type   SourceKind
	Fields []SourceField
}

func (d SourceDescriptor) Get(key string) string {
	for _, field := range d.Fields {
		if field.Key == key {
			return field.Value
		}
	}
	return ""
}

// Details converts the descriptor back into dependency details.
func (d SourceDescriptor) Details() map[string]string {
	out := make(map[string]string, len(d.Fields))
	for _, field := range d.Fields {
		out[field.Key] = field.Value
	}
	return out
}

func (d SourceDescriptor) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair := func(key string, value string) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}
	appendPair("type", string(d.Type))
	for _, field := range d.Fields {
		appendPair(field.Key, field.Value)
	}
	return node, nil
}

func (d *SourceDescriptor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: source must be a mapping", value.Line)
	}
	out := SourceDescriptor{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i]
		val := value.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: source field %q must be a scalar", val.Line, key.Value)
		}
		if key.Value == "type" {
			out.Type = SourceKind(val.Value)
			continue
		}
		out.Fields = append(out.Fields, SourceField{Key: key.Value, Value: val.Value})
	}
	if out.Type == "" {
		return fmt.Errorf("line %d: source type is required", value.Line)
	}
	*d = out
	return nil
}
