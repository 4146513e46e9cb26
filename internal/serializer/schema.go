// Package serializer implements the record Serializer (spec §4.5-§4.6): a
// schema compiled once from a declarative config, then streamed against
// input records to produce output records. It uses internal/transform's
// field transformers, never the general evaluator, to turn source values
// into output values.
package serializer

import "github.com/kjaganathan/adapt/internal/transform"

// Record is one input or output row: an untyped string-keyed map, the same
// shape records arrive in and are emitted in.
type Record = map[string]any

// Schema is the compiled form of one serializer schema level (spec §3
// SerializerSchema). A nested `array`/`extended_array` field compiles to
// its own Schema, recursively.
type Schema struct {
	Inline    []InlineField
	Derived   []DerivedField
	Constants []ConstantField

	// KeySet is the union of every field name this schema (and its nested
	// sub-schemas) can produce. It drives dict_normalize pre-population.
	KeySet map[string]struct{}

	// DictNormalize mirrors the top-level serializer's setting; nested
	// array sub-schemas never normalize (spec §4.6 step 2), extended_array
	// sub-schemas inherit it.
	DictNormalize bool
}

// FieldKind distinguishes an ordinary scalar field from the two nested-
// sub-schema shapes.
type FieldKind int

const (
	FieldOrdinary FieldKind = iota
	FieldArray
	FieldExtendedArray
)

// InlineField is one compiled entry of the schema's `inline` list.
type InlineField struct {
	Kind FieldKind
	Name string

	// From is the source selector, used by all three kinds. Object is true
	// when From should be read as a dotted path ("a.b.c") into nested
	// mappings rather than a single flat key.
	From   string
	Object bool

	// Ordinary-only:
	Transformer transform.Transformer
	IsCase      bool // whether Transformer's compiled type was `case`
	Ignore      transform.Transformer

	// Array / ExtendedArray only:
	Sub *Schema
}

// DerivedField is one compiled entry of the schema's `derived` list.
// Unlike InlineField, From is optional: when absent the field's
// transformer receives the whole accumulator built so far.
type DerivedField struct {
	Name        string
	From        string
	HasFrom     bool
	Transformer transform.Transformer
	IsCase      bool
	Ignore      transform.Transformer
}

// ConstantField is one compiled entry of the schema's `constants` list.
type ConstantField struct {
	Name  string
	Value any
}
