package serializer

import (
	"iter"
	"strings"

	"github.com/kjaganathan/adapt/internal/sentinel"
)

// SerializeRecords streams each input record through schema, yielding zero
// or more output records per input (spec §4.6). It is single-pass and
// restartable-per-call: calling it again on a fresh input sequence is
// fine, ranging over the same returned sequence twice is not.
func SerializeRecords(schema *Schema, records iter.Seq[Record]) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for record := range records {
			for _, out := range processRecord(schema, record) {
				if !yield(out) {
					return
				}
			}
		}
	}
}

// processRecord runs the full Start -> Inline -> Derived -> Constants ->
// (Emit | EmitSpread) state machine for one input record.
func processRecord(schema *Schema, record Record) []Record {
	acc := newAccumulator(schema)

	var spreads []Record
	for _, field := range schema.Inline {
		switch field.Kind {
		case FieldOrdinary:
			processOrdinaryField(acc, record, field)
		case FieldArray:
			acc[field.Name] = processArrayField(record, field)
		case FieldExtendedArray:
			spreads = processExtendedArrayField(record, field)
		}
	}

	for _, field := range schema.Derived {
		processDerivedField(acc, field)
	}

	for _, field := range schema.Constants {
		acc[field.Name] = field.Value
	}

	if len(spreads) == 0 {
		return []Record{acc}
	}

	// extended_array: Cartesian product in declaration order — the base
	// accumulator first, then one record per sub-record with its fields
	// merged in (spec §4.6 step 5).
	out := make([]Record, 0, 1+len(spreads))
	out = append(out, acc)
	for _, sub := range spreads {
		merged := cloneRecord(acc)
		for k, v := range sub {
			merged[k] = v
		}
		out = append(out, merged)
	}
	return out
}

func newAccumulator(schema *Schema) Record {
	acc := make(Record, len(schema.KeySet))
	if schema.DictNormalize {
		for k := range schema.KeySet {
			acc[k] = nil
		}
	}
	return acc
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func processOrdinaryField(acc Record, record Record, field InlineField) {
	if field.Ignore != nil {
		result, err := field.Ignore.Transform(record)
		if err == nil && !sentinel.Is(result, sentinel.DoNotIgnore) {
			acc[field.Name] = unwrapIgnore(result)
			return
		}
	}

	value, found := resolveFrom(record, field.From, field.Object)
	if field.Object && !found {
		acc[field.Name] = nil
		return
	}

	var input any = value
	if field.IsCase {
		input = record
	}

	result, err := field.Transformer.Transform(input)
	if err != nil {
		acc[field.Name] = nil
		return
	}
	acc[field.Name] = unwrapIgnore(result)
}

// unwrapIgnore converts the IGNORE sentinel (the only sentinel that can
// legitimately reach a written field, via an `ignore`/`case` branch) into
// nil — sentinels never appear in emitted output (spec §8 invariant 5).
func unwrapIgnore(value any) any {
	if sentinel.IsAny(value) {
		return nil
	}
	return value
}

// processArrayField and processExtendedArrayField share the same nested-
// serialization mechanics; they differ only in how the caller treats the
// result (written under field.Name vs. spread across output records) and
// in Sub's DictNormalize (fixed at compile time — see compileInlineField).
func processArrayField(record Record, field InlineField) []Record {
	return serializeNested(record, field)
}

func processExtendedArrayField(record Record, field InlineField) []Record {
	return serializeNested(record, field)
}

func serializeNested(record Record, field InlineField) []Record {
	itemsVal, ok := record[field.From].([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(itemsVal))
	for _, item := range itemsVal {
		itemRecord, ok := item.(map[string]any)
		if !ok {
			continue
		}
		for sub := range SerializeRecords(field.Sub, single(itemRecord)) {
			out = append(out, sub)
		}
	}
	return out
}

func single(r Record) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		yield(r)
	}
}

func processDerivedField(acc Record, field DerivedField) {
	if field.Ignore != nil {
		result, err := field.Ignore.Transform(acc)
		if err == nil && !sentinel.Is(result, sentinel.DoNotIgnore) {
			acc[field.Name] = unwrapIgnore(result)
			return
		}
	}

	var input any = acc
	if !field.IsCase {
		if field.HasFrom {
			input = acc[field.From]
		} else {
			input = acc
		}
	}

	result, err := field.Transformer.Transform(input)
	if err != nil {
		acc[field.Name] = nil
		return
	}
	acc[field.Name] = unwrapIgnore(result)
}

// resolveFrom resolves a field's source value out of record. When object
// is set, from is a dotted path ("a.b.c") walked through nested mappings;
// a missing segment reports !ok (the OBJECT_NOT_FOUND case, which the
// caller renders as a null field per spec §4.6 step 2).
func resolveFrom(record Record, from string, object bool) (any, bool) {
	if !object {
		v, ok := record[from]
		return v, ok
	}
	segments := strings.Split(from, ".")
	var cur any = record
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}
