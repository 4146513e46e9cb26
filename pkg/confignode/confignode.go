// Package confignode defines the recursive, tagged configuration tree
// that the evaluator interprets, and the YAML reader that produces it.
//
// ConfigNode is a closed sum type: a Scalar (primitive leaf), a Sequence
// (ordered list) or a Mapping (keyed record). A Mapping with a "type"
// entry is a typed node; the evaluator dispatches on that tag. Plain
// mappings (no "type" entry) are returned as-is by the evaluator.
package confignode

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

// Node is implemented by ScalarNode, SequenceNode and MappingNode.
type Node interface {
	node()
}

// ScalarNode wraps a primitive leaf value: string, int, int64, uint64,
// float32, float64, bool, or nil.
type ScalarNode struct {
	Value any
}

func (ScalarNode) node() {}

// SequenceNode is an ordered list of nodes.
type SequenceNode struct {
	Items []Node
}

func (SequenceNode) node() {}

// MappingNode is a keyed record. Keys preserve YAML document order.
type MappingNode struct {
	Keys    []string
	Entries map[string]Node
}

func (MappingNode) node() {}

// Get returns the node bound to key and whether it was present.
func (m MappingNode) Get(key string) (Node, bool) {
	n, ok := m.Entries[key]
	return n, ok
}

// Tag returns the node's "type" entry as a string, if present. A Mapping
// with exactly one "type" entry is a typed node per the data model
// invariant; the remaining entries are that node's arguments.
func (m MappingNode) Tag() (string, bool) {
	n, ok := m.Entries["type"]
	if !ok {
		return "", false
	}
	s, ok := n.(ScalarNode)
	if !ok {
		return "", false
	}
	tag, ok := s.Value.(string)
	return tag, ok
}

// Args returns the mapping's entries excluding "type", in declared order —
// i.e. exactly the arguments a typed node's handler receives.
func (m MappingNode) Args() []KV {
	out := make([]KV, 0, len(m.Keys))
	for _, k := range m.Keys {
		if k == "type" {
			continue
		}
		out = append(out, KV{Key: k, Node: m.Entries[k]})
	}
	return out
}

// KV is one ordered mapping entry.
type KV struct {
	Key  string
	Node Node
}

// FromAny converts a generically-decoded YAML tree into a ConfigNode
// tree. Mappings are expected to arrive as yaml.MapSlice (ordered
// key/value pairs), which is what goccy/go-yaml produces for `interface{}`
// targets when decoded with yaml.UseOrderedMap — this preserves the
// document's declared key order, which the evaluator's "left-to-right,
// declared entry order" guarantee (spec §4.3) depends on. A plain
// map[string]any is also accepted as a fallback (sorted by key) for
// trees built programmatically rather than read from YAML.
func FromAny(v any) (Node, error) {
	switch val := v.(type) {
	case nil:
		return ScalarNode{Value: nil}, nil
	case string, bool, int, int64, float64, float32, uint64:
		return ScalarNode{Value: val}, nil
	case []any:
		items := make([]Node, 0, len(val))
		for _, item := range val {
			n, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			items = append(items, n)
		}
		return SequenceNode{Items: items}, nil
	case yaml.MapSlice:
		keys := make([]string, 0, len(val))
		entries := make(map[string]Node, len(val))
		for _, item := range val {
			key := fmt.Sprintf("%v", item.Key)
			n, err := FromAny(item.Value)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			entries[key] = n
		}
		return MappingNode{Keys: keys, Entries: entries}, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		entries := make(map[string]Node, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sortStrings(keys)
		for _, k := range keys {
			n, err := FromAny(val[k])
			if err != nil {
				return nil, err
			}
			entries[k] = n
		}
		return MappingNode{Keys: keys, Entries: entries}, nil
	default:
		return nil, fmt.Errorf("confignode: unsupported decoded value of type %T", v)
	}
}

func sortStrings(keys []string) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
