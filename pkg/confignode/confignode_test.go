package confignode

import "testing"

func TestReadBytesProducesDeclaredOrderMapping(t *testing.T) {
	doc := []byte("b: 2\na: 1\n")
	node, err := ReadBytes(doc)
	if err != nil {
		t.Fatal(err)
	}
	m, ok := node.(MappingNode)
	if !ok {
		t.Fatalf("got %#v", node)
	}
	if m.Keys[0] != "b" || m.Keys[1] != "a" {
		t.Fatalf("got key order %v, want document order [b a]", m.Keys)
	}
}

func TestTagAndArgs(t *testing.T) {
	node, err := ReadBytes([]byte("type: constant\nvalue: 42\nsplit_on: \",\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	m := node.(MappingNode)
	tag, ok := m.Tag()
	if !ok || tag != "constant" {
		t.Fatalf("got tag %q, ok=%v", tag, ok)
	}
	args := m.Args()
	if len(args) != 2 {
		t.Fatalf("got %d args, want 2 (excluding type)", len(args))
	}
	for _, kv := range args {
		if kv.Key == "type" {
			t.Fatalf("Args() must exclude the type key")
		}
	}
}

func TestGetMissingKey(t *testing.T) {
	m := MappingNode{Keys: nil, Entries: map[string]Node{}}
	if _, ok := m.Get("missing"); ok {
		t.Fatalf("expected Get to report false for a missing key")
	}
}

func TestFromAnyScalarsAndNested(t *testing.T) {
	node, err := FromAny(map[string]any{
		"name": "test",
		"tags": []any{"a", "b"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m, ok := node.(MappingNode)
	if !ok {
		t.Fatalf("got %#v", node)
	}
	tagsNode, ok := m.Get("tags")
	if !ok {
		t.Fatalf("missing tags key")
	}
	seq, ok := tagsNode.(SequenceNode)
	if !ok || len(seq.Items) != 2 {
		t.Fatalf("got %#v", tagsNode)
	}
}
