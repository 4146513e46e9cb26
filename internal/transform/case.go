package transform

import (
	"fmt"

	"github.com/kjaganathan/adapt/pkg/confignode"
)

// caseBranch is one entry of a `case` transformer's `cases` list.
type caseBranch struct {
	field     string
	predicate Predicate

	isLiteral   bool
	literal     any
	then        Transformer
	thenField   string
	hasThenField bool
}

// caseTransformer evaluates its branches in declared order against the
// full record (not a single scalar) — spec §8 scenario S4 has two
// branches of the same `case` node reading two different record fields,
// which is only possible when the transformer carries record-wide access
// rather than a single pre-extracted value. A branch whose `when.field`
// is absent from the record is skipped (the spec's "CASE_MISS, skip to
// next case" rule) rather than treated as a false predicate.
type caseTransformer struct {
	branches   []caseBranch
	hasDefault bool
	defaultVal any
}

// compileCase compiles a `case { cases: [{when, then}], default? }` node.
// defaultField is used only as the default `field` for a branch's `when`
// clause when that clause omits one.
func compileCase(node confignode.MappingNode, defaultField string) (Transformer, error) {
	casesNode, ok := node.Get("cases")
	if !ok {
		return nil, fmt.Errorf("transform: case: missing %q", "cases")
	}
	seq, ok := casesNode.(confignode.SequenceNode)
	if !ok {
		return nil, fmt.Errorf("transform: case: %q must be a sequence", "cases")
	}

	branches := make([]caseBranch, 0, len(seq.Items))
	for _, item := range seq.Items {
		branchNode, ok := item.(confignode.MappingNode)
		if !ok {
			return nil, fmt.Errorf("transform: case: each entry of %q must be a mapping", "cases")
		}
		whenNode, ok := branchNode.Get("when")
		if !ok {
			return nil, fmt.Errorf("transform: case: branch missing %q", "when")
		}
		whenMapping, ok := whenNode.(confignode.MappingNode)
		if !ok {
			return nil, fmt.Errorf("transform: case: %q must be a mapping", "when")
		}
		whenMapping = withDefaultField(whenMapping, defaultField)
		pred, err := CompilePredicate(whenMapping)
		if err != nil {
			return nil, err
		}

		thenNode, ok := branchNode.Get("then")
		if !ok {
			return nil, fmt.Errorf("transform: case: branch missing %q", "then")
		}
		branch := caseBranch{field: pred.Field, predicate: pred}
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
			branch.then = then
			branch.thenField = thenField
			branch.hasThenField = hasOwnField
		} else {
			v, err := literalFromNode(thenNode)
			if err != nil {
				return nil, err
			}
			branch.isLiteral = true
			branch.literal = v
		}

		branches = append(branches, branch)
	}

	t := caseTransformer{branches: branches}
	if defaultNode, ok := node.Get("default"); ok {
		v, err := literalFromNode(defaultNode)
		if err != nil {
			return nil, err
		}
		t.hasDefault = true
		t.defaultVal = v
	}
	return t, nil
}

// isTypedMapping reports whether node is a mapping carrying a "type" tag
// (as opposed to a literal scalar/sequence/plain mapping).
func isTypedMapping(node confignode.Node) (confignode.MappingNode, bool) {
	m, ok := node.(confignode.MappingNode)
	if !ok {
		return confignode.MappingNode{}, false
	}
	_, tagged := m.Tag()
	return m, tagged
}

// withDefaultField returns a mapping identical to node but with a "field"
// entry injected when node declares none, so CompilePredicate always sees
// a field even though `case`/`ignore` clauses are allowed to omit it.
func withDefaultField(node confignode.MappingNode, field string) confignode.MappingNode {
	if _, ok := node.Get("field"); ok || field == "" {
		return node
	}
	keys := append([]string{"field"}, node.Keys...)
	entries := make(map[string]confignode.Node, len(node.Entries)+1)
	for k, v := range node.Entries {
		entries[k] = v
	}
	entries["field"] = confignode.ScalarNode{Value: field}
	return confignode.MappingNode{Keys: keys, Entries: entries}
}

// Transform expects value to be the current record (map[string]any), not
// a single pre-extracted scalar — see the type doc comment.
func (t caseTransformer) Transform(value any) (any, error) {
	record, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("transform: case: expected a record, got %T", value)
	}
	for _, b := range t.branches {
		fieldValue, present := record[b.field]
		if !present {
			continue // CASE_MISS: this branch's field is absent, try the next
		}
		if !b.predicate.Eval(fieldValue) {
			continue
		}
		if b.isLiteral {
			return b.literal, nil
		}
		input := fieldValue
		if b.hasThenField {
			input = record[b.thenField]
		}
		return b.then.Transform(input)
	}
	if t.hasDefault {
		return t.defaultVal, nil
	}
	return nil, nil
}
