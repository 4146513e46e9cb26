package format

import "testing"

func strp(s string) *string { return &s }
func tagp(t Tag) *Tag        { return &t }

func TestApplyPassthrough(t *testing.T) {
	out, err := Apply("hello", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "hello" {
		t.Fatalf("got %v", out)
	}
}

func TestApplySplitOnly(t *testing.T) {
	out, err := Apply("123,456", strp(","), nil)
	if err != nil {
		t.Fatal(err)
	}
	list, ok := out.([]any)
	if !ok || len(list) != 2 || list[0] != "123" || list[1] != "456" {
		t.Fatalf("got %#v", out)
	}
}

func TestApplySplitThenIntList(t *testing.T) {
	out, err := Apply("123,456", strp(","), tagp(IntList))
	if err != nil {
		t.Fatal(err)
	}
	if out != "(123, 456)" {
		t.Fatalf("got %q", out)
	}
}

func TestApplySingleQuotedList(t *testing.T) {
	out, err := Apply("ENABLED,PAUSED", strp(","), tagp(SingleQuotedList))
	if err != nil {
		t.Fatal(err)
	}
	if out != "('ENABLED', 'PAUSED')" {
		t.Fatalf("got %q", out)
	}
}

func TestApplyDoubleQuotedList(t *testing.T) {
	out, err := Apply("ENABLED", strp(","), tagp(DoubleQuotedList))
	if err != nil {
		t.Fatal(err)
	}
	if out != `("ENABLED")` {
		t.Fatalf("got %q", out)
	}
}

func TestApplyIntRenderWithoutSplit(t *testing.T) {
	out, err := Apply("42", nil, tagp(Int))
	if err != nil {
		t.Fatal(err)
	}
	if out != int64(42) {
		t.Fatalf("got %v (%T)", out, out)
	}
}

func TestApplyStringQuoting(t *testing.T) {
	out, err := Apply("abc", nil, tagp(StringSingleQuoted))
	if err != nil {
		t.Fatal(err)
	}
	if out != "'abc'" {
		t.Fatalf("got %q", out)
	}
}

func TestApplyUnknownTag(t *testing.T) {
	bad := Tag("NOT_A_TAG")
	if _, err := Apply("x", nil, &bad); err == nil {
		t.Fatalf("expected an error for an unknown render tag")
	}
}

func TestParseTagRejectsUnknown(t *testing.T) {
	if _, err := ParseTag("nope"); err == nil {
		t.Fatalf("expected ParseTag to reject an unknown tag")
	}
}

func TestSplitOnNonStringErrors(t *testing.T) {
	if _, err := Apply(42, strp(","), nil); err == nil {
		t.Fatalf("expected split_on to require a string value")
	}
}
