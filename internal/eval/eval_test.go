package eval

import (
	"testing"

	"github.com/kjaganathan/adapt/internal/sentinel"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

func scalar(v any) confignode.ScalarNode { return confignode.ScalarNode{Value: v} }

func mapping(entries map[string]confignode.Node) confignode.MappingNode {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	return confignode.MappingNode{Keys: keys, Entries: entries}
}

func typed(tag string, entries map[string]confignode.Node) confignode.MappingNode {
	m := mapping(entries)
	if m.Entries == nil {
		m.Entries = map[string]confignode.Node{}
	}
	m.Keys = append(m.Keys, "type")
	m.Entries["type"] = scalar(tag)
	return m
}

func seq(items ...confignode.Node) confignode.SequenceNode {
	return confignode.SequenceNode{Items: items}
}

func newEval() *Evaluator {
	return New(NewSymbolTable())
}

func TestEvalScalarPassthrough(t *testing.T) {
	ev := newEval()
	v, err := ev.Eval(scalar("hello"), store.New())
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := v.(String); !ok || string(s) != "hello" {
		t.Fatalf("got %#v", v)
	}
}

func TestEvalConstant(t *testing.T) {
	ev := newEval()
	node := typed("constant", map[string]confignode.Node{"value": scalar(int64(42))})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	if i, ok := v.(Int); !ok || int64(i) != 42 {
		t.Fatalf("got %#v", v)
	}
}

func TestEvalConstantWithFormatter(t *testing.T) {
	ev := newEval()
	node := typed("constant", map[string]confignode.Node{
		"value":     scalar("1,2,3"),
		"split_on":  scalar(","),
		"format_as": scalar("INT_LIST"),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.(String)
	if !ok || string(s) != "(1, 2, 3)" {
		t.Fatalf("got %#v", v)
	}
}

func TestEvalExternalInputRequiredMissing(t *testing.T) {
	ev := newEval()
	node := typed("external_input", map[string]confignode.Node{
		"key":      scalar("campaign_id"),
		"required": scalar(true),
	})
	if _, err := ev.Eval(node, store.New()); err == nil {
		t.Fatalf("expected an error for a missing required external input")
	}
}

func TestEvalExternalInputIgnoreIf(t *testing.T) {
	ev := newEval()
	st := store.New()
	st.Add("status", "")
	node := typed("external_input", map[string]confignode.Node{
		"key":       scalar("status"),
		"ignore_if": scalar(""),
	})
	v, err := ev.Eval(node, st)
	if err != nil {
		t.Fatal(err)
	}
	if !IsSentinel(v, sentinel.Ignore) {
		t.Fatalf("got %#v, want the IGNORE sentinel", v)
	}
}

func TestEvalDictPreservesDeclaredOrder(t *testing.T) {
	ev := newEval()
	node := typed("dict", map[string]confignode.Node{
		"items": mapping(map[string]confignode.Node{
			"b": scalar("2"),
			"a": scalar("1"),
		}),
	})
	// force a specific declared order
	itemsNode := node.Entries["items"].(confignode.MappingNode)
	itemsNode.Keys = []string{"b", "a"}
	node.Entries["items"] = itemsNode

	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(Map)
	if !ok {
		t.Fatalf("got %#v", v)
	}
	if m.Keys[0] != "b" || m.Keys[1] != "a" {
		t.Fatalf("got key order %v, want declared order [b a]", m.Keys)
	}
}

func TestEvalListEvaluatesTypedItems(t *testing.T) {
	ev := newEval()
	node := typed("list", map[string]confignode.Node{
		"items": seq(
			scalar("plain"),
			typed("constant", map[string]confignode.Node{"value": scalar("typed")}),
		),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	list, ok := v.(List)
	if !ok || len(list) != 2 {
		t.Fatalf("got %#v", v)
	}
	if s, ok := list[0].(String); !ok || string(s) != "plain" {
		t.Fatalf("got %#v", list[0])
	}
	if s, ok := list[1].(String); !ok || string(s) != "typed" {
		t.Fatalf("got %#v", list[1])
	}
}

// TestEvalFilterDropsIgnoredEntries is grounded on the spec's sql filter
// scenario: a filter value that evaluates to the IGNORE sentinel (e.g.
// via external_input.ignore_if) must not appear in filter's result list.
func TestEvalFilterDropsIgnoredEntries(t *testing.T) {
	ev := newEval()
	node := typed("filter", map[string]confignode.Node{
		"schema": mapping(map[string]confignode.Node{
			"key":      scalar("column"),
			"operator": scalar("operator"),
			"value":    scalar("value"),
		}),
		"items": mapping(map[string]confignode.Node{
			"status": mapping(map[string]confignode.Node{
				"operator": scalar("in"),
				"value":    typed("constant", map[string]confignode.Node{"value": scalar(sentinel.Of(sentinel.Ignore))}),
			}),
			"id": mapping(map[string]confignode.Node{
				"operator": scalar("equal"),
				"value":    typed("constant", map[string]confignode.Node{"value": scalar(int64(1))}),
			}),
		}),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	list, ok := v.(List)
	if !ok || len(list) != 1 {
		t.Fatalf("got %#v, want exactly one surviving filter entry", v)
	}
}

func TestEvalSQLFilterJoinsWithAND(t *testing.T) {
	ev := newEval()
	node := typed("sql_filter", map[string]confignode.Node{
		"items": mapping(map[string]confignode.Node{
			"campaign.id": mapping(map[string]confignode.Node{
				"operator": scalar("IN"),
				"value":    typed("constant", map[string]confignode.Node{"value": scalar("(123, 456)")}),
			}),
			"campaign.status": mapping(map[string]confignode.Node{
				"operator": scalar("IN"),
				"value":    typed("constant", map[string]confignode.Node{"value": scalar(`("ENABLED")`)}),
			}),
		}),
	})
	itemsNode := node.Entries["items"].(confignode.MappingNode)
	itemsNode.Keys = []string{"campaign.id", "campaign.status"}
	node.Entries["items"] = itemsNode

	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.(String)
	if !ok {
		t.Fatalf("got %#v", v)
	}
	want := `campaign.id IN (123, 456) AND campaign.status IN ("ENABLED")`
	if string(s) != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestEvalQueryBuilderPrependsWhere(t *testing.T) {
	ev := newEval()
	node := typed("query_builder", map[string]confignode.Node{
		"query": typed("sql_query", map[string]confignode.Node{
			"query": scalar("SELECT campaign.id, campaign.name FROM campaign"),
		}),
		"filters": typed("sql_filter", map[string]confignode.Node{
			"items": mapping(map[string]confignode.Node{
				"campaign.status": mapping(map[string]confignode.Node{
					"operator": scalar("IN"),
					"value":    typed("constant", map[string]confignode.Node{"value": scalar(`("ENABLED")`)}),
				}),
			}),
		}),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.(String)
	if !ok {
		t.Fatalf("got %#v", v)
	}
	want := `SELECT campaign.id, campaign.name FROM campaign WHERE campaign.status IN ("ENABLED")`
	if string(s) != want {
		t.Fatalf("got %q, want %q", s, want)
	}
}

func TestEvalCallableResolvesRegisteredSymbol(t *testing.T) {
	symbols := NewSymbolTable()
	symbols.RegisterCallable("googleads", "CampaignService", "search", func(args Map) (Value, error) {
		return String("called"), nil
	})
	ev := New(symbols)
	node := typed("callable", map[string]confignode.Node{
		"module": scalar("googleads"),
		"class":  scalar("CampaignService"),
		"method": scalar("search"),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	callable, ok := v.(Callable)
	if !ok {
		t.Fatalf("got %#v", v)
	}
	result, err := callable.Invoke(NewMap(nil, map[string]Value{}))
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := result.(String); !ok || string(s) != "called" {
		t.Fatalf("got %#v", result)
	}
}

func TestEvalCallableUnknownSymbolErrors(t *testing.T) {
	ev := newEval()
	node := typed("callable", map[string]confignode.Node{
		"module": scalar("nope"),
		"class":  scalar("nope"),
		"method": scalar("nope"),
	})
	if _, err := ev.Eval(node, store.New()); err == nil {
		t.Fatalf("expected an error for an unregistered symbol")
	}
}

func TestEvalInitializerInvokesResolvedCallable(t *testing.T) {
	symbols := NewSymbolTable()
	symbols.RegisterCallable("facebook", "Client", "new", func(args Map) (Value, error) {
		tokenVal, _ := args.Get("token")
		return Opaque{Data: tokenVal.Native()}, nil
	})
	ev := New(symbols)
	node := typed("initializer", map[string]confignode.Node{
		"client": typed("callable", map[string]confignode.Node{
			"module": scalar("facebook"),
			"class":  scalar("Client"),
			"method": scalar("new"),
		}),
		"arguments": typed("dict", map[string]confignode.Node{
			"items": mapping(map[string]confignode.Node{
				"token": typed("constant", map[string]confignode.Node{"value": scalar("abc")}),
			}),
		}),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	if v.Native() != "abc" {
		t.Fatalf("got %#v", v)
	}
}

type fakeAuthClient struct{}

func (fakeAuthClient) Call(method string, args Map) (Value, error) {
	return String("auth:" + method), nil
}

func TestEvalFromAuthorizerReadsStore(t *testing.T) {
	ev := newEval()
	st := store.New()
	st.Add("authorization", fakeAuthClient{})
	node := typed("from_authorizer", map[string]confignode.Node{
		"method":    scalar("get_token"),
		"arguments": typed("dict", map[string]confignode.Node{"items": mapping(nil)}),
	})
	v, err := ev.Eval(node, st)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := v.(String); !ok || string(s) != "auth:get_token" {
		t.Fatalf("got %#v", v)
	}
}

func TestEvalFromAuthorizerMissingStoreEntry(t *testing.T) {
	ev := newEval()
	node := typed("from_authorizer", map[string]confignode.Node{
		"method":    scalar("get_token"),
		"arguments": typed("dict", map[string]confignode.Node{"items": mapping(nil)}),
	})
	if _, err := ev.Eval(node, store.New()); err == nil {
		t.Fatalf("expected an error when no authorization is in the store")
	}
}

func TestEvalPipelineBuildsForwardToDescriptor(t *testing.T) {
	symbols := NewSymbolTable()
	symbols.RegisterCallable("pipeline", "noop", "run", func(args Map) (Value, error) {
		return Null{}, nil
	})
	ev := New(symbols)
	node := typed("pipeline", map[string]confignode.Node{
		"name": scalar("fetch"),
		"client": typed("callable", map[string]confignode.Node{
			"module": scalar("pipeline"),
			"class":  scalar("noop"),
			"method": scalar("run"),
		}),
		"forward_to": mapping(map[string]confignode.Node{
			"export": mapping(map[string]confignode.Node{
				"as_arg": scalar("records"),
			}),
		}),
	})
	v, err := ev.Eval(node, store.New())
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(Map)
	if !ok {
		t.Fatalf("got %#v", v)
	}
	nameVal, _ := m.Get("name")
	if s, _ := MustString(nameVal); s != "fetch" {
		t.Fatalf("got %#v", nameVal)
	}
	processorVal, _ := m.Get("processor")
	if _, ok := processorVal.(Callable); !ok {
		t.Fatalf("expected processor to be a Callable, got %#v", m.Entries["processor"])
	}
	forwardVal, _ := m.Get("forward_to")
	forwardList, ok := forwardVal.(List)
	if !ok || len(forwardList) != 1 {
		t.Fatalf("got %#v", forwardVal)
	}
}

func TestUnknownTypeTagErrors(t *testing.T) {
	ev := newEval()
	if _, err := ev.Eval(typed("not_a_real_type", nil), store.New()); err == nil {
		t.Fatalf("expected an error for an unregistered type tag")
	}
}
