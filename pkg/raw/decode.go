package raw

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MaxDepth bounds nesting while decoding so recursive aliases cannot blow
// the stack
const MaxDepth = 512

// Alias expansion budget: nodes produced through aliases may not exceed
// max(aliasFloor, aliasRatio * nodes written in the source)
const (
	aliasFloor = 10000
	aliasRatio = 10
)

var (
	// ErrTooDeep is returned when a document nests deeper than MaxDepth
	ErrTooDeep = errors.New("document nesting exceeds maximum depth")

	// ErrAliasExpansion is returned when aliases expand into too many nodes
	ErrAliasExpansion = errors.New("document has excessive aliasing")
)

// decoder counts the nodes it produces. Every alias is expanded into a
// fresh copy, so the counts bound the size of the result.
type decoder struct {
	inAlias  int
	source   int
	expanded int
}

func (d *decoder) count() error {
	if d.inAlias == 0 {
		d.source++
		return nil
	}
	d.expanded++
	if d.expanded > aliasFloor && d.expanded > aliasRatio*d.source {
		return ErrAliasExpansion
	}
	return nil
}

// Parse decodes a YAML or JSON document into a Value. An empty document
// decodes to null.
func Parse(data []byte) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, err
	}
	if doc.Kind == 0 {
		return Null(), nil
	}
	return FromNode(&doc)
}

// FromNode converts a decoded yaml node into a Value
func FromNode(node *yaml.Node) (Value, error) {
	var d decoder
	return d.fromNode(node, 0)
}

func (d *decoder) fromNode(node *yaml.Node, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, ErrTooDeep
	}
	if err := d.count(); err != nil {
		return Value{}, err
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Null(), nil
		}
		return d.fromNode(node.Content[0], depth+1)
	case yaml.AliasNode:
		if node.Alias == nil {
			return Null(), nil
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		return d.fromNode(node.Alias, depth+1)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := d.fromNode(child, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Seq(items...), nil
	case yaml.MappingNode:
		m := NewMap()
		if err := d.fillMap(m, node, depth); err != nil {
			return Value{}, err
		}
		return MapValue(m), nil
	case yaml.ScalarNode:
		return fromScalar(node)
	default:
		return Value{}, fmt.Errorf("line %d: unsupported yaml node kind %d", node.Line, node.Kind)
	}
}

func (d *decoder) fillMap(m *Map, node *yaml.Node, depth int) error {
	var merges []*yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.ShortTag() == "!!merge" {
			merges = append(merges, valNode)
			continue
		}
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: map keys must be scalars", keyNode.Line)
		}
		val, err := d.fromNode(valNode, depth+1)
		if err != nil {
			return err
		}
		m.Set(keyNode.Value, val)
	}

	// explicit keys win over merged ones
	for _, merge := range merges {
		if err := d.mergeInto(m, merge, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) mergeInto(m *Map, node *yaml.Node, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	if err := d.count(); err != nil {
		return err
	}
	switch node.Kind {
	case yaml.AliasNode:
		if node.Alias == nil {
			return nil
		}
		d.inAlias++
		defer func() { d.inAlias-- }()
		return d.mergeInto(m, node.Alias, depth+1)
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if err := d.mergeInto(m, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	case yaml.MappingNode:
		src := NewMap()
		if err := d.fillMap(src, node, depth); err != nil {
			return err
		}
		src.Range(func(key string, v Value) bool {
			if !m.Has(key) {
				m.Set(key, v)
			}
			return true
		})
		return nil
	default:
		return fmt.Errorf("line %d: merge value must be a map", node.Line)
	}
}

func fromScalar(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		v := Bool(b)
		v.text = node.Value
		return v, nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err == nil {
			v := Int(i)
			v.text = node.Value
			return v, nil
		}
		// out of int64 range
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		v := Float(f)
		v.text = node.Value
		return v, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		v := Float(f)
		v.text = node.Value
		return v, nil
	default:
		// !!str, !!timestamp, !!binary and custom tags keep their text
		return String(node.Value), nil
	}
}
