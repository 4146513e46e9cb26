package transform

import (
	"testing"

	"github.com/kjaganathan/adapt/pkg/confignode"
)

// typedMapping builds a mapping node carrying a `type: <tag>` entry.
func typedMapping(tag string, entries map[string]confignode.Node) confignode.MappingNode {
	keys := make([]string, 0, len(entries)+1)
	all := make(map[string]confignode.Node, len(entries)+1)
	for k, v := range entries {
		keys = append(keys, k)
		all[k] = v
	}
	keys = append(keys, "type")
	all["type"] = confignode.ScalarNode{Value: tag}
	return confignode.MappingNode{Keys: keys, Entries: all}
}

func branchMapping(field, op string, operand any, then confignode.Node) confignode.Node {
	return mapping(map[string]confignode.Node{
		"when": mapping(map[string]confignode.Node{
			"field": scalar(field),
			op:      scalar(operand),
		}),
		"then": then,
	})
}

// TestCaseTwoBranchesDistinctFields is grounded on the budget-derivation
// scenario: one `case` node whose two branches read two different
// record fields (daily_budget, lifetime_budget), which only works when
// Transform receives the whole record rather than a single scalar.
func TestCaseTwoBranchesDistinctFields(t *testing.T) {
	node := typedMapping("case", map[string]confignode.Node{
		"cases": confignode.SequenceNode{Items: []confignode.Node{
			branchMapping("daily_budget", "not_in", []any{nil}, scalar("daily")),
			branchMapping("lifetime_budget", "not_in", []any{nil}, scalar("lifetime")),
		}},
		"default": scalar(nil),
	})

	tr, err := Compile(node, "")
	if err != nil {
		t.Fatal(err)
	}

	out, err := tr.Transform(map[string]any{"daily_budget": int64(500), "lifetime_budget": nil})
	if err != nil {
		t.Fatal(err)
	}
	if out != "daily" {
		t.Fatalf("got %v, want daily", out)
	}

	out, err = tr.Transform(map[string]any{"daily_budget": nil, "lifetime_budget": int64(10000)})
	if err != nil {
		t.Fatal(err)
	}
	if out != "lifetime" {
		t.Fatalf("got %v, want lifetime", out)
	}

	out, err = tr.Transform(map[string]any{"daily_budget": nil, "lifetime_budget": nil})
	if err != nil {
		t.Fatal(err)
	}
	if out != nil {
		t.Fatalf("got %v, want default nil", out)
	}
}

// TestCaseBranchMissingFieldIsSkipped checks the CASE_MISS semantics: a
// branch whose field is absent from the record (not merely null) is
// skipped in favor of the next branch, rather than treated as false.
func TestCaseBranchMissingFieldIsSkipped(t *testing.T) {
	node := typedMapping("case", map[string]confignode.Node{
		"cases": confignode.SequenceNode{Items: []confignode.Node{
			branchMapping("a", "equal", "x", scalar("matched-a")),
			branchMapping("b", "equal", "y", scalar("matched-b")),
		}},
	})
	tr, err := Compile(node, "")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Transform(map[string]any{"b": "y"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "matched-b" {
		t.Fatalf("got %v, want matched-b", out)
	}
}

func TestCaseThenTypedTransformerWithOwnField(t *testing.T) {
	thenNode := typedMapping("integer", nil)
	thenNode.Keys = append(thenNode.Keys, "field")
	thenNode.Entries["field"] = scalar("raw_amount")

	node := typedMapping("case", map[string]confignode.Node{
		"cases": confignode.SequenceNode{Items: []confignode.Node{
			branchMapping("status", "equal", "ENABLED", thenNode),
		}},
	})
	tr, err := Compile(node, "")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Transform(map[string]any{"status": "ENABLED", "raw_amount": "123"})
	if err != nil {
		t.Fatal(err)
	}
	if out != int64(123) {
		t.Fatalf("got %v (%T), want int64(123)", out, out)
	}
}

func TestCaseDefaultFieldAppliesWhenWhenOmitsField(t *testing.T) {
	branch := mapping(map[string]confignode.Node{
		"when": mapping(map[string]confignode.Node{
			"equal": scalar("ENABLED"),
		}),
		"then": scalar("on"),
	})
	node := typedMapping("case", map[string]confignode.Node{
		"cases": confignode.SequenceNode{Items: []confignode.Node{branch}},
	})
	tr, err := Compile(node, "status")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Transform(map[string]any{"status": "ENABLED"})
	if err != nil {
		t.Fatal(err)
	}
	if out != "on" {
		t.Fatalf("got %v", out)
	}
}
