package transform

import (
	"fmt"

	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Compile dispatches a field-transformer config node to its compiled
// Transformer by tag. This table is deliberately separate from
// internal/eval's Registry (package doc in predicate.go): `constant` means
// something different here (a fixed field value, no Evaluator involved)
// than the Evaluator's `constant` handler (a typed Value literal), and
// `case`/`ignore` recurse back into Compile for their `then` sub-nodes
// rather than into the Evaluator.
//
// fieldName is the serializer field this transformer belongs to; it is
// used only as the default `field` for `case`/`ignore` predicates that
// omit one.
func Compile(node confignode.Node, fieldName string) (Transformer, error) {
	mapping, ok := node.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("transform: expected a mapping, got %T", node)
	}
	tag, ok := mapping.Tag()
	if !ok {
		return nil, fmt.Errorf("transform: field %q: missing %q", fieldName, "type")
	}

	switch tag {
	case "date":
		return compileDate(mapping)
	case "date_parser":
		return compileDateParser(mapping)
	case "float":
		return compileFloat(mapping)
	case "integer":
		return compileInteger(mapping)
	case "bool":
		return compileBool(mapping)
	case "string":
		return compileString(mapping)
	case "enum":
		return compileEnum(mapping)
	case "currency":
		return compileCurrency(mapping)
	case "constant":
		return compileConstant(mapping)
	case "case":
		return compileCase(mapping, fieldName)
	case "ignore":
		return compileIgnore(mapping, fieldName)
	default:
		return nil, fmt.Errorf("transform: field %q: unknown transformer type %q", fieldName, tag)
	}
}

// Chain runs an ordered list of compiled transformers left-to-right, each
// consuming the previous one's output. The serializer compiler does not
// use it: each serializer field entry carries a single `transform` node.
type Chain struct {
	Steps []Transformer
}

// CompileChain compiles every node in nodes in order.
func CompileChain(nodes []confignode.Node, fieldName string) (Chain, error) {
	steps := make([]Transformer, 0, len(nodes))
	for _, n := range nodes {
		t, err := Compile(n, fieldName)
		if err != nil {
			return Chain{}, err
		}
		steps = append(steps, t)
	}
	return Chain{Steps: steps}, nil
}

func (c Chain) Transform(value any) (any, error) {
	cur := value
	for _, step := range c.Steps {
		out, err := step.Transform(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	return cur, nil
}
