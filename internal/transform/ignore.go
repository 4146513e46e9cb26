package transform

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/sentinel"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// ignoreTransformer is the pre-gate that decides whether a field's normal
// transformer chain should be bypassed entirely (spec §4.4: "shape
// identical to one case arm, used as a pre-gate"). It carries the same
// field/predicate/then shape as a single caseBranch: when the predicate
// over record[field] holds, `then` is produced instead of running the
// field's own transformer; when it does not, the DO_NOT_IGNORE sentinel
// tells the caller to proceed with the field's normal transformer chain.
type ignoreTransformer struct {
	field     string
	predicate Predicate

	isLiteral    bool
	literal      any
	then         Transformer
	thenField    string
	hasThenField bool
}

// compileIgnore compiles an `ignore { when, then }` node. defaultField
// mirrors compileCase's: serializer field-level ignore rules default
// `when.field` to the entry's own source field.
func compileIgnore(node confignode.MappingNode, defaultField string) (Transformer, error) {
	whenNode, ok := node.Get("when")
	if !ok {
		return nil, fmt.Errorf("transform: ignore: missing %q", "when")
	}
	whenMapping, ok := whenNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("transform: ignore: %q must be a mapping", "when")
	}
	whenMapping = withDefaultField(whenMapping, defaultField)
	pred, err := CompilePredicate(whenMapping)
	if err != nil {
		return nil, err
	}

	t := ignoreTransformer{field: pred.Field, predicate: pred}

	thenNode, ok := node.Get("then")
	if !ok {
		// A bare ignore gate with no `then` simply reports IGNORE itself.
		t.isLiteral = true
		t.literal = sentinel.Of(sentinel.Ignore)
		return t, nil
	}
	if thenMapping, typed := isTypedMapping(thenNode); typed {
		thenField := pred.Field
		hasOwnField := false
		if fieldNode, ok := thenMapping.Get("field"); ok {
			if s, ok := fieldNode.(confignode.ScalarNode); ok {
				if str, ok := s.Value.(string); ok {
					thenField = str
					hasOwnField = true
				}
			}
		}
		then, err := Compile(thenNode, thenField)
		if err != nil {
			return nil, err
		}
		t.then = then
		t.thenField = thenField
		t.hasThenField = hasOwnField
		return t, nil
	}
	v, err := literalFromNode(thenNode)
	if err != nil {
		return nil, err
	}
	t.isLiteral = true
	t.literal = v
	return t, nil
}

// Transform expects value to be the current record (map[string]any), same
// convention as the case transformer.
func (t ignoreTransformer) Transform(value any) (any, error) {
	record, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("transform: ignore: expected a record, got %T", value)
	}
	fieldValue, present := record[t.field]
	if !present || !t.predicate.Eval(fieldValue) {
		return sentinel.Of(sentinel.DoNotIgnore), nil
	}
	if t.isLiteral {
		return t.literal, nil
	}
	input := fieldValue
	if t.hasThenField {
		input = record[t.thenField]
	}
	return t.then.Transform(input)
}
