// Package transform implements the field transformers used only by the
// Serializer (spec §4.4): a dispatch table distinct from the Evaluator's
// (spec §4.4 note), since the two share some type tag names (`constant`)
// but differ in semantics — field transformers compile once from their
// config subtree and are then called as (value) -> value against decoded
// records, never against a ConfigNode tree.
package transform

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/adapterr"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Op is one of the closed set of predicate operators a `when` clause can
// use (spec §4.4 table).
type Op string

const (
	OpEqual       Op = "equal"
	OpNotEqual    Op = "not_equal"
	OpGreaterThan Op = "greater_than"
	OpLessThan    Op = "less_than"
	OpIn          Op = "in"
	OpNotIn       Op = "not_in"
	OpNull        Op = "null"
	OpNotNull     Op = "not_null"
)

var allOps = []Op{OpEqual, OpNotEqual, OpGreaterThan, OpLessThan, OpIn, OpNotIn, OpNull, OpNotNull}

// Predicate is a compiled `when` clause: {field, operator, operand}. Spec
// Design Notes §9 calls for reifying this eagerly at compile time instead
// of re-deriving the operator on every record, and for rejecting
// ambiguous `when` clauses (zero or multiple operator keys) at compile
// time rather than at record time.
type Predicate struct {
	Field   string
	Op      Op
	Operand any
}

// CompilePredicate parses a `when` mapping into a Predicate. The field
// entry is optional here (callers that need a default, like serializer
// field-level ignore rules defaulting `field` to `entry.from`, apply the
// default before calling this).
func CompilePredicate(when confignode.MappingNode) (Predicate, error) {
	var field string
	if fieldNode, ok := when.Get("field"); ok {
		s, ok := fieldNode.(confignode.ScalarNode)
		if !ok {
			return Predicate{}, fmt.Errorf("transform: when.field must be a scalar")
		}
		if str, ok := s.Value.(string); ok {
			field = str
		}
	}

	var found []Op
	var operand any
	var op Op
	for _, candidate := range allOps {
		n, ok := when.Get(string(candidate))
		if !ok {
			continue
		}
		found = append(found, candidate)
		op = candidate
		val, err := literalFromNode(n)
		if err != nil {
			return Predicate{}, err
		}
		operand = val
	}
	if len(found) != 1 {
		names := make([]string, len(found))
		for i, f := range found {
			names[i] = string(f)
		}
		return Predicate{}, adapterr.NewPredicateOperatorAmbiguous(field, names)
	}

	return Predicate{Field: field, Op: op, Operand: operand}, nil
}

func literalFromNode(n confignode.Node) (any, error) {
	switch v := n.(type) {
	case confignode.ScalarNode:
		return v.Value, nil
	case confignode.SequenceNode:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			val, err := literalFromNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case confignode.MappingNode:
		out := make(map[string]any, len(v.Keys))
		for _, k := range v.Keys {
			val, err := literalFromNode(v.Entries[k])
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	default:
		return nil, nil
	}
}

// Eval applies the predicate to value (the field's current value, not
// the whole record — callers extract record[p.Field] before calling
// this).
func (p Predicate) Eval(value any) bool {
	switch p.Op {
	case OpEqual:
		return value == p.Operand
	case OpNotEqual:
		return value != p.Operand
	case OpGreaterThan:
		return value != nil && compareNumeric(value, p.Operand) > 0
	case OpLessThan:
		return value != nil && compareNumeric(value, p.Operand) < 0
	case OpIn:
		return memberOf(value, p.Operand)
	case OpNotIn:
		return !memberOf(value, p.Operand)
	case OpNull:
		return value == nil
	case OpNotNull:
		return value != nil
	default:
		return false
	}
}

func memberOf(value any, operand any) bool {
	items, ok := operand.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}

func compareNumeric(a, b any) int {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return 0
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}
