package transform

import (
	"testing"

	"github.com/kjaganathan/adapt/internal/sentinel"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

func TestIgnoreBareGateReportsIgnore(t *testing.T) {
	node := typedMapping("ignore", map[string]confignode.Node{
		"when": mapping(map[string]confignode.Node{
			"field": scalar("status"),
			"equal": scalar("REMOVED"),
		}),
	})
	tr, err := Compile(node, "")
	if err != nil {
		t.Fatal(err)
	}

	out, err := tr.Transform(map[string]any{"status": "REMOVED"})
	if err != nil {
		t.Fatal(err)
	}
	if !sentinel.Is(out, sentinel.Ignore) {
		t.Fatalf("got %v, want the IGNORE sentinel", out)
	}

	out, err = tr.Transform(map[string]any{"status": "ENABLED"})
	if err != nil {
		t.Fatal(err)
	}
	if !sentinel.Is(out, sentinel.DoNotIgnore) {
		t.Fatalf("got %v, want the DO_NOT_IGNORE sentinel", out)
	}
}

func TestIgnoreWithLiteralThen(t *testing.T) {
	node := typedMapping("ignore", map[string]confignode.Node{
		"when": mapping(map[string]confignode.Node{
			"field": scalar("amount"),
			"null":  scalar(true),
		}),
		"then": scalar(float64(0)),
	})
	tr, err := Compile(node, "")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Transform(map[string]any{"amount": nil})
	if err != nil {
		t.Fatal(err)
	}
	if out != float64(0) {
		t.Fatalf("got %v, want 0", out)
	}
}

func TestIgnoreDefaultFieldFromSerializerEntry(t *testing.T) {
	node := typedMapping("ignore", map[string]confignode.Node{
		"when": mapping(map[string]confignode.Node{
			"equal": scalar(nil),
		}),
	})
	tr, err := Compile(node, "campaign_id")
	if err != nil {
		t.Fatal(err)
	}
	out, err := tr.Transform(map[string]any{"campaign_id": nil})
	if err != nil {
		t.Fatal(err)
	}
	if !sentinel.Is(out, sentinel.Ignore) {
		t.Fatalf("got %v, want IGNORE", out)
	}
}
