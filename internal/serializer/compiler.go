package serializer

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/adapterr"
	"github.com/kjaganathan/adapt/internal/transform"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Compile parses a schema mapping (spec §4.5: top-level `inline`,
// `derived`, `constants` sequences) into a Schema. dictNormalize controls
// whether the root schema's runtime pre-populates its accumulator with
// the full key set (spec §4.6 step 1); nested `array` sub-schemas never
// normalize regardless of what's passed in, `extended_array` sub-schemas
// inherit it.
func Compile(node confignode.Node, dictNormalize bool) (*Schema, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("serializer: schema must be a mapping, got %T", node)
	}

	schema := &Schema{KeySet: make(map[string]struct{}), DictNormalize: dictNormalize}
	seen := make(map[string]struct{})

	if inlineNode, ok := mapping.Get("inline"); ok {
		entries, err := asSequence(inlineNode, "inline")
		if err != nil {
			return nil, err
		}
		for _, entryNode := range entries {
			field, err := compileInlineField(entryNode, dictNormalize)
			if err != nil {
				return nil, err
			}
			if err := markSeen(seen, "inline", field.Name); err != nil {
				return nil, err
			}
			schema.Inline = append(schema.Inline, field)
			mergeFieldKeys(schema.KeySet, field)
		}
	}

	if derivedNode, ok := mapping.Get("derived"); ok {
		entries, err := asSequence(derivedNode, "derived")
		if err != nil {
			return nil, err
		}
		for _, entryNode := range entries {
			field, err := compileDerivedField(entryNode)
			if err != nil {
				return nil, err
			}
			if err := markSeen(seen, "derived", field.Name); err != nil {
				return nil, err
			}
			schema.Derived = append(schema.Derived, field)
			schema.KeySet[field.Name] = struct{}{}
		}
	}

	if constantsNode, ok := mapping.Get("constants"); ok {
		entries, err := asSequence(constantsNode, "constants")
		if err != nil {
			return nil, err
		}
		for _, entryNode := range entries {
			field, err := compileConstantField(entryNode)
			if err != nil {
				return nil, err
			}
			if err := markSeen(seen, "constants", field.Name); err != nil {
				return nil, err
			}
			schema.Constants = append(schema.Constants, field)
			schema.KeySet[field.Name] = struct{}{}
		}
	}

	return schema, nil
}

func markSeen(seen map[string]struct{}, category, name string) error {
	key := category + ":" + name
	if _, ok := seen[key]; ok {
		return adapterr.NewDuplicateField(category, name)
	}
	seen[key] = struct{}{}
	return nil
}

func mergeFieldKeys(keySet map[string]struct{}, field InlineField) {
	switch field.Kind {
	case FieldOrdinary:
		keySet[field.Name] = struct{}{}
	case FieldArray:
		// The array's own name holds the list; it does not spread the
		// nested schema's keys into this level.
		keySet[field.Name] = struct{}{}
	case FieldExtendedArray:
		// extended_array spreads its sub-records' fields directly into
		// the output, so its nested key set joins this level's instead
		// of the field's own name.
		for k := range field.Sub.KeySet {
			keySet[k] = struct{}{}
		}
	}
}

func asSequence(node confignode.Node, name string) ([]confignode.Node, error) {
	seq, ok := node.(confignode.SequenceNode)
	if !ok {
		return nil, fmt.Errorf("serializer: %q must be a sequence, got %T", name, node)
	}
	return seq.Items, nil
}

func compileInlineField(node confignode.Node, parentDictNormalize bool) (InlineField, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return InlineField{}, fmt.Errorf("serializer: inline entry must be a mapping, got %T", node)
	}

	name, err := requiredString(mapping, "name")
	if err != nil {
		return InlineField{}, err
	}
	from, _ := optionalString(mapping, "from")
	object, _ := optionalBool(mapping, "object")

	if typeNode, ok := mapping.Get("type"); ok {
		tag, err := scalarString(typeNode, "type")
		if err != nil {
			return InlineField{}, err
		}
		switch tag {
		case "array":
			sub, err := Compile(mapping, false)
			if err != nil {
				return InlineField{}, err
			}
			return InlineField{Kind: FieldArray, Name: name, From: from, Object: object, Sub: sub}, nil
		case "extended_array":
			sub, err := Compile(mapping, parentDictNormalize)
			if err != nil {
				return InlineField{}, err
			}
			return InlineField{Kind: FieldExtendedArray, Name: name, From: from, Object: object, Sub: sub}, nil
		}
	}

	transformNode, ok := mapping.Get("transform")
	if !ok {
		return InlineField{}, fmt.Errorf("serializer: inline field %q: missing %q", name, "transform")
	}
	isCase := isCaseNode(transformNode)
	transformer, err := transform.Compile(transformNode, from)
	if err != nil {
		return InlineField{}, err
	}

	field := InlineField{Kind: FieldOrdinary, Name: name, From: from, Object: object, Transformer: transformer, IsCase: isCase}

	if ignoreNode, ok := mapping.Get("ignore"); ok {
		ignoreTransformer, err := compileIgnoreField(ignoreNode, from)
		if err != nil {
			return InlineField{}, err
		}
		field.Ignore = ignoreTransformer
	}

	return field, nil
}

func compileDerivedField(node confignode.Node) (DerivedField, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return DerivedField{}, fmt.Errorf("serializer: derived entry must be a mapping, got %T", node)
	}
	name, err := requiredString(mapping, "name")
	if err != nil {
		return DerivedField{}, err
	}
	from, hasFrom := optionalString(mapping, "from")

	transformNode, ok := mapping.Get("transform")
	if !ok {
		return DerivedField{}, fmt.Errorf("serializer: derived field %q: missing %q", name, "transform")
	}
	isCase := isCaseNode(transformNode)
	defaultField := from
	transformer, err := transform.Compile(transformNode, defaultField)
	if err != nil {
		return DerivedField{}, err
	}

	field := DerivedField{Name: name, From: from, HasFrom: hasFrom, Transformer: transformer, IsCase: isCase}

	if ignoreNode, ok := mapping.Get("ignore"); ok {
		ignoreTransformer, err := compileIgnoreField(ignoreNode, from)
		if err != nil {
			return DerivedField{}, err
		}
		field.Ignore = ignoreTransformer
	}

	return field, nil
}

func compileConstantField(node confignode.Node) (ConstantField, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return ConstantField{}, fmt.Errorf("serializer: constants entry must be a mapping, got %T", node)
	}
	name, err := requiredString(mapping, "name")
	if err != nil {
		return ConstantField{}, err
	}
	valueNode, ok := mapping.Get("value")
	if !ok {
		return ConstantField{}, fmt.Errorf("serializer: constant field %q: missing %q", name, "value")
	}
	value, err := literal(valueNode)
	if err != nil {
		return ConstantField{}, err
	}
	return ConstantField{Name: name, Value: value}, nil
}

func compileIgnoreField(node confignode.Node, defaultField string) (transform.Transformer, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("serializer: ignore entry must be a mapping, got %T", node)
	}
	wrapped := confignode.MappingNode{
		Keys:    append([]string{"type"}, mapping.Keys...),
		Entries: withType(mapping, "ignore"),
	}
	return transform.Compile(wrapped, defaultField)
}

func withType(mapping confignode.MappingNode, tag string) map[string]confignode.Node {
	entries := make(map[string]confignode.Node, len(mapping.Entries)+1)
	for k, v := range mapping.Entries {
		entries[k] = v
	}
	entries["type"] = confignode.ScalarNode{Value: tag}
	return entries
}

func isCaseNode(node confignode.Node) bool {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return false
	}
	tag, ok := mapping.Tag()
	return ok && tag == "case"
}

func requiredString(mapping confignode.MappingNode, key string) (string, error) {
	n, ok := mapping.Get(key)
	if !ok {
		return "", fmt.Errorf("serializer: missing %q", key)
	}
	return scalarString(n, key)
}

func optionalString(mapping confignode.MappingNode, key string) (string, bool) {
	n, ok := mapping.Get(key)
	if !ok {
		return "", false
	}
	s, err := scalarString(n, key)
	if err != nil {
		return "", false
	}
	return s, true
}

func optionalBool(mapping confignode.MappingNode, key string) (bool, bool) {
	n, ok := mapping.Get(key)
	if !ok {
		return false, false
	}
	s, ok := n.(confignode.ScalarNode)
	if !ok {
		return false, false
	}
	b, ok := s.Value.(bool)
	return b, ok
}

func scalarString(node confignode.Node, key string) (string, error) {
	s, ok := node.(confignode.ScalarNode)
	if !ok {
		return "", fmt.Errorf("serializer: %q must be a scalar", key)
	}
	str, ok := s.Value.(string)
	if !ok {
		return "", fmt.Errorf("serializer: %q must be a string, got %T", key, s.Value)
	}
	return str, nil
}

func literal(node confignode.Node) (any, error) {
	switch v := node.(type) {
	case confignode.ScalarNode:
		return v.Value, nil
	case confignode.SequenceNode:
		out := make([]any, 0, len(v.Items))
		for _, item := range v.Items {
			val, err := literal(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case confignode.MappingNode:
		out := make(map[string]any, len(v.Keys))
		for _, k := range v.Keys {
			val, err := literal(v.Entries[k])
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
