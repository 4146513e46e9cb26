package confignode

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ReadFile parses a YAML document at path into a ConfigNode tree.
//
// This is the one piece of spec.md's "out of scope, interface only" list
// (the YAML document reader) that the toolkit still ships a working
// implementation of — the core (Evaluator, Serializer) never depends on
// *how* a tree was produced, only on the ConfigNode shape, so a thin
// concrete reader belongs here rather than behind a build tag.
//
// YAML merge keys (`<<: *alias`) are resolved by goccy/go-yaml during
// decode, so by the time FromAny runs the tree is already flattened
// (spec §9, "Cyclic anchors").
func ReadFile(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("confignode: read %s: %w", path, err)
	}
	return ReadBytes(data)
}

// ReadBytes parses a YAML document already in memory.
func ReadBytes(data []byte) (Node, error) {
	var decoded any
	if err := yaml.UnmarshalWithOptions(data, &decoded, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("confignode: parse yaml: %w", err)
	}
	node, err := FromAny(decoded)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// MustMapping asserts that node is a MappingNode, for call sites that
// already know the document's top-level shape (e.g. a serializer schema
// must be a mapping with inline/derived/constants entries).
func MustMapping(node Node) (MappingNode, error) {
	m, ok := node.(MappingNode)
	if !ok {
		return MappingNode{}, fmt.Errorf("confignode: expected a mapping at document root, got %T", node)
	}
	return m, nil
}
