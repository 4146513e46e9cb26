// Package eval implements the typed-node Evaluator (spec §4.3): tagged
// dispatch over a recursive ConfigNode tree, threading an ambient Store
// through handlers that declare store access, folding the tree into a
// concrete Value.
package eval

import (
	"github.com/kjaganathan/adapt/internal/adapterr"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Evaluator drives tagged dispatch. It owns a Registry (the closed
// handler set) and a SymbolTable (how `callable`/`instance` load
// third-party SDK symbols by name — the evaluator's only hook into the
// outside world per spec's non-goal "the evaluator only needs to load
// symbols by name and invoke them").
type Evaluator struct {
	Registry *Registry
	Symbols  *SymbolTable
}

// New builds an Evaluator with the default handler set and the given
// symbol table (pass NewSymbolTable() for an empty one if the caller has
// no third-party adapters registered yet).
func New(symbols *SymbolTable) *Evaluator {
	return &Evaluator{Registry: NewRegistry(), Symbols: symbols}
}

// Eval is the evaluator's single entry point (spec §4.3 contract:
// `evaluate(node, store) -> value`). For a typed mapping it dispatches to
// the tag's handler; for any other node (scalar, sequence, or a mapping
// without a "type" entry) it returns the node verbatim as a Value —
// typed evaluation is explicit, the tree is only walked where a type tag
// drives it.
func (e *Evaluator) Eval(node confignode.Node, st *store.Store) (Value, error) {
	switch n := node.(type) {
	case confignode.MappingNode:
		if tag, ok := n.Tag(); ok {
			h, found := e.Registry.Lookup(tag)
			if !found {
				return nil, adapterr.NewUnknownType(tag)
			}
			return h.Eval(e, n, st)
		}
		return passthroughMapping(n)
	case confignode.SequenceNode:
		return passthroughSequence(n)
	case confignode.ScalarNode:
		return scalarToValue(n.Value)
	default:
		return Null{}, nil
	}
}

// EvalTyped evaluates node only if it is a typed mapping; otherwise it
// returns the node converted to a Value without dispatch. This is the
// "evaluate if it is a typed mapping, else pass through" behavior used by
// `list`, `filter`'s value entries, and query_builder's sub-nodes.
func (e *Evaluator) EvalTyped(node confignode.Node, st *store.Store) (Value, error) {
	if m, ok := node.(confignode.MappingNode); ok {
		if _, tagged := m.Tag(); tagged {
			return e.Eval(node, st)
		}
	}
	return e.Eval(node, st)
}

func passthroughMapping(n confignode.MappingNode) (Value, error) {
	keys := append([]string(nil), n.Keys...)
	entries := make(map[string]Value, len(n.Entries))
	for _, k := range keys {
		v, err := nodeToValue(n.Entries[k])
		if err != nil {
			return nil, err
		}
		entries[k] = v
	}
	return NewMap(keys, entries), nil
}

func passthroughSequence(n confignode.SequenceNode) (Value, error) {
	items := make(List, 0, len(n.Items))
	for _, it := range n.Items {
		v, err := nodeToValue(it)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// nodeToValue converts a ConfigNode into a Value without evaluating any
// nested "type" tags — used for structural passthrough of untyped data.
func nodeToValue(n confignode.Node) (Value, error) {
	switch v := n.(type) {
	case confignode.ScalarNode:
		return scalarToValue(v.Value)
	case confignode.SequenceNode:
		return passthroughSequence(v)
	case confignode.MappingNode:
		return passthroughMapping(v)
	default:
		return Null{}, nil
	}
}

func scalarToValue(v any) (Value, error) {
	return FromNative(v)
}

// NodeArg looks up key among node's arguments (its non-"type" entries)
// and reports whether it was present.
func NodeArg(node confignode.MappingNode, key string) (confignode.Node, bool) {
	return node.Get(key)
}
