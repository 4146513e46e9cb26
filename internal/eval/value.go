package eval

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/sentinel"
)

// Value is the Evaluator's closed result sum type (spec Design Notes §9):
// Null | Bool | Int | Float | String | List | Map | Callable | Sentinel |
// Opaque(any). Concrete cases implement value() as an unexported marker
// method so no external package can add a case.
type Value interface {
	value()
	// Native unwraps to the plain Go representation a Store, a field
	// transformer or an SDK adapter expects.
	Native() any
}

type Null struct{}

func (Null) value()        {}
func (Null) Native() any   { return nil }

type Bool bool

func (Bool) value()      {}
func (v Bool) Native() any { return bool(v) }

type Int int64

func (Int) value()      {}
func (v Int) Native() any { return int64(v) }

type Float float64

func (Float) value()      {}
func (v Float) Native() any { return float64(v) }

type String string

func (String) value()      {}
func (v String) Native() any { return string(v) }

// List is an ordered sequence of values.
type List []Value

func (List) value() {}
func (v List) Native() any {
	out := make([]any, len(v))
	for i, item := range v {
		out[i] = item.Native()
	}
	return out
}

// Map is a keyed record that preserves insertion order.
type Map struct {
	Keys    []string
	Entries map[string]Value
}

func (Map) value() {}

func (v Map) Native() any {
	out := make(map[string]any, len(v.Entries))
	for k, val := range v.Entries {
		out[k] = val.Native()
	}
	return out
}

// Get returns the value bound to key, if present.
func (v Map) Get(key string) (Value, bool) {
	val, ok := v.Entries[key]
	return val, ok
}

// NewMap builds a Map preserving the given key order.
func NewMap(keys []string, entries map[string]Value) Map {
	return Map{Keys: keys, Entries: entries}
}

// Callable wraps an invocable symbol (spec: `callable` / instance
// construction): the registered symbol's name and the Go function that
// SymbolTable.Resolve bound to it.
type Callable struct {
	Name   string
	Invoke func(args Map) (Value, error)
}

func (Callable) value()      {}
func (c Callable) Native() any { return c }

// Opaque wraps a runtime object the evaluator does not interpret further
// — an instantiated SDK client, an authorization object, etc.
type Opaque struct {
	Data any
}

func (Opaque) value()      {}
func (o Opaque) Native() any { return o.Data }

// Sentinel carries one of the package sentinel.Kind markers as a Value so
// it can flow through dict/list/filter construction like any other
// result and be tested for with IsSentinel.
type Sentinel struct {
	Kind sentinel.Kind
}

func (Sentinel) value()      {}
func (s Sentinel) Native() any { return sentinel.Of(s.Kind) }

// IsSentinel reports whether v carries sentinel kind k.
func IsSentinel(v Value, k sentinel.Kind) bool {
	s, ok := v.(Sentinel)
	return ok && s.Kind == k
}

// FromNative lifts a plain Go value (string, bool, int64, float64, nil,
// []any, map[string]any, or a sentinel.Value) into the Value sum type.
// It is the inverse of Value.Native and is how values read back out of
// the Store re-enter evaluation.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case sentinel.Value:
		return Sentinel{Kind: val.Kind}, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(int64(val)), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []any:
		items := make(List, 0, len(val))
		for _, item := range val {
			lv, err := FromNative(item)
			if err != nil {
				return nil, err
			}
			items = append(items, lv)
		}
		return items, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		entries := make(map[string]Value, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		for _, k := range keys {
			ev, err := FromNative(val[k])
			if err != nil {
				return nil, err
			}
			entries[k] = ev
		}
		return NewMap(keys, entries), nil
	default:
		return Opaque{Data: val}, nil
	}
}

// MustString returns v's underlying string or an error describing the
// type mismatch.
func MustString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("eval: expected a string value, got %T", v)
	}
	return string(s), nil
}
