package eval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kjaganathan/adapt/internal/adapterr"
	"github.com/kjaganathan/adapt/internal/format"
	"github.com/kjaganathan/adapt/internal/sentinel"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

func registerCoreHandlers(r *Registry) {
	r.Register("constant", HandlerFunc{Store: false, Fn: evalConstant})
	r.Register("external_input", HandlerFunc{Store: true, Fn: evalExternalInput})
	r.Register("dict", HandlerFunc{Store: true, Fn: evalDict})
	r.Register("list", HandlerFunc{Store: true, Fn: evalList})
	r.Register("filter", HandlerFunc{Store: true, Fn: evalFilter})
	r.Register("sql_query", HandlerFunc{Store: false, Fn: evalSQLQuery})
	r.Register("sql_filter", HandlerFunc{Store: true, Fn: evalSQLFilter})
	r.Register("query_builder", HandlerFunc{Store: true, Fn: evalQueryBuilder})
	r.Register("callable", HandlerFunc{Store: false, Fn: evalCallable})
	r.Register("instance", HandlerFunc{Store: true, Fn: evalInstance})
	r.Register("initializer", HandlerFunc{Store: true, Fn: evalInitializer})
	r.Register("from_authorizer", HandlerFunc{Store: true, Fn: evalFromAuthorizer})
	r.Register("pipeline", HandlerFunc{Store: true, Fn: evalPipeline})
}

// --- helpers -----------------------------------------------------------

func optionalString(node confignode.MappingNode, key string) (*string, error) {
	n, ok := node.Get(key)
	if !ok {
		return nil, nil
	}
	s, ok := n.(confignode.ScalarNode)
	if !ok {
		return nil, fmt.Errorf("eval: %q must be a scalar string", key)
	}
	if s.Value == nil {
		return nil, nil
	}
	str, ok := s.Value.(string)
	if !ok {
		return nil, fmt.Errorf("eval: %q must be a string, got %T", key, s.Value)
	}
	return &str, nil
}

func requiredString(node confignode.MappingNode, key string) (string, error) {
	s, err := optionalString(node, key)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", fmt.Errorf("eval: missing required argument %q", key)
	}
	return *s, nil
}

func optionalBool(node confignode.MappingNode, key string, def bool) (bool, error) {
	n, ok := node.Get(key)
	if !ok {
		return def, nil
	}
	s, ok := n.(confignode.ScalarNode)
	if !ok {
		return def, fmt.Errorf("eval: %q must be a scalar bool", key)
	}
	b, ok := s.Value.(bool)
	if !ok {
		return def, fmt.Errorf("eval: %q must be a bool, got %T", key, s.Value)
	}
	return b, nil
}

func scalarLiteral(n confignode.Node) (any, error) {
	switch v := n.(type) {
	case confignode.ScalarNode:
		return v.Value, nil
	default:
		val, err := nodeToValue(n)
		if err != nil {
			return nil, err
		}
		return val.Native(), nil
	}
}

// --- constant { value, split_on?, format_as? } --------------------------

func evalConstant(_ *Evaluator, node confignode.MappingNode, _ *store.Store) (Value, error) {
	valueNode, ok := node.Get("value")
	if !ok {
		return nil, fmt.Errorf("eval: constant: missing %q", "value")
	}
	raw, err := scalarLiteral(valueNode)
	if err != nil {
		return nil, err
	}
	out, err := applyFormatterArgs(node, raw)
	if err != nil {
		return nil, err
	}
	return FromNative(out)
}

func applyFormatterArgs(node confignode.MappingNode, raw any) (any, error) {
	splitOn, err := optionalString(node, "split_on")
	if err != nil {
		return nil, err
	}
	formatAsStr, err := optionalString(node, "format_as")
	if err != nil {
		return nil, err
	}
	var tag *format.Tag
	if formatAsStr != nil {
		t, err := format.ParseTag(*formatAsStr)
		if err != nil {
			return nil, err
		}
		tag = &t
	}
	return format.Apply(raw, splitOn, tag)
}

// --- external_input { key, required?, ignore_if?, split_on?, format_as? } ---

func evalExternalInput(_ *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	key, err := requiredString(node, "key")
	if err != nil {
		return nil, err
	}
	required, err := optionalBool(node, "required", false)
	if err != nil {
		return nil, err
	}

	poisonPill := sentinel.Of(sentinel.NotFound)
	val := st.Get(key, required, poisonPill)
	if required {
		if pv, ok := val.(sentinel.Value); ok && pv.Kind == sentinel.NotFound {
			return nil, adapterr.NewMissingInput(key)
		}
	}

	ignoreIfNode, hasIgnoreIf := node.Get("ignore_if")
	if hasIgnoreIf {
		ignoreIf, err := scalarLiteral(ignoreIfNode)
		if err != nil {
			return nil, err
		}
		if val == ignoreIf {
			return Sentinel{Kind: sentinel.Ignore}, nil
		}
	}
	// ignore_if defaults to the IGNORE sentinel itself, i.e. off: a
	// plain store value can never equal a sentinel.Value, so the
	// comparison above never fires unless the config set ignore_if.

	out, err := applyFormatterArgs(node, val)
	if err != nil {
		return nil, err
	}
	return FromNative(out)
}

// --- dict { items: mapping<name, typedNode> } ---------------------------

func evalDict(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	itemsNode, ok := node.Get("items")
	if !ok {
		return nil, fmt.Errorf("eval: dict: missing %q", "items")
	}
	items, ok := itemsNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("eval: dict: %q must be a mapping", "items")
	}
	keys := append([]string(nil), items.Keys...)
	entries := make(map[string]Value, len(keys))
	for _, k := range keys {
		v, err := ev.Eval(items.Entries[k], st)
		if err != nil {
			return nil, err
		}
		entries[k] = v
	}
	return NewMap(keys, entries), nil
}

// --- list { items: sequence<node> } -------------------------------------

func evalList(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	itemsNode, ok := node.Get("items")
	if !ok {
		return nil, fmt.Errorf("eval: list: missing %q", "items")
	}
	items, ok := itemsNode.(confignode.SequenceNode)
	if !ok {
		return nil, fmt.Errorf("eval: list: %q must be a sequence", "items")
	}
	out := make(List, 0, len(items.Items))
	for _, item := range items.Items {
		v, err := ev.EvalTyped(item, st)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// --- filter { schema: {key,operator,value}, items: mapping<name,{operator,value}>, json_dumps? } ---

func evalFilter(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	schemaNode, ok := node.Get("schema")
	if !ok {
		return nil, fmt.Errorf("eval: filter: missing %q", "schema")
	}
	schema, ok := schemaNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("eval: filter: %q must be a mapping", "schema")
	}
	keyName, err := requiredString(schema, "key")
	if err != nil {
		return nil, err
	}
	opName, err := requiredString(schema, "operator")
	if err != nil {
		return nil, err
	}
	valName, err := requiredString(schema, "value")
	if err != nil {
		return nil, err
	}

	itemsNode, ok := node.Get("items")
	if !ok {
		return nil, fmt.Errorf("eval: filter: missing %q", "items")
	}
	items, ok := itemsNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("eval: filter: %q must be a mapping", "items")
	}

	results := make(List, 0, len(items.Keys))
	for _, name := range items.Keys {
		entryNode := items.Entries[name]
		entry, ok := entryNode.(confignode.MappingNode)
		if !ok {
			return nil, fmt.Errorf("eval: filter: item %q must be a mapping", name)
		}
		operator, err := requiredString(entry, "operator")
		if err != nil {
			return nil, err
		}
		valueNode, ok := entry.Get("value")
		if !ok {
			return nil, fmt.Errorf("eval: filter: item %q missing %q", name, "value")
		}
		val, err := ev.EvalTyped(valueNode, st)
		if err != nil {
			return nil, err
		}
		if IsSentinel(val, sentinel.Ignore) {
			continue
		}
		results = append(results, NewMap(
			[]string{keyName, opName, valName},
			map[string]Value{keyName: String(name), opName: String(operator), valName: val},
		))
	}

	jsonDumps, err := optionalBool(node, "json_dumps", false)
	if err != nil {
		return nil, err
	}
	if jsonDumps {
		b, err := json.Marshal(results.Native())
		if err != nil {
			return nil, fmt.Errorf("eval: filter: json_dumps: %w", err)
		}
		return String(b), nil
	}
	return results, nil
}

// --- sql_query { query } -------------------------------------------------

func evalSQLQuery(_ *Evaluator, node confignode.MappingNode, _ *store.Store) (Value, error) {
	q, err := requiredString(node, "query")
	if err != nil {
		return nil, err
	}
	return String(q), nil
}

// --- sql_filter { items: mapping<column,{operator,value}> } -------------

func evalSQLFilter(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	itemsNode, ok := node.Get("items")
	if !ok {
		return nil, fmt.Errorf("eval: sql_filter: missing %q", "items")
	}
	items, ok := itemsNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("eval: sql_filter: %q must be a mapping", "items")
	}
	var clauses []string
	for _, col := range items.Keys {
		entryNode := items.Entries[col]
		entry, ok := entryNode.(confignode.MappingNode)
		if !ok {
			return nil, fmt.Errorf("eval: sql_filter: item %q must be a mapping", col)
		}
		operator, err := requiredString(entry, "operator")
		if err != nil {
			return nil, err
		}
		valueNode, ok := entry.Get("value")
		if !ok {
			return nil, fmt.Errorf("eval: sql_filter: item %q missing %q", col, "value")
		}
		val, err := ev.EvalTyped(valueNode, st)
		if err != nil {
			return nil, err
		}
		if IsSentinel(val, sentinel.Ignore) {
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s %s %v", col, operator, nativeForSQL(val)))
	}
	return String(strings.Join(clauses, " AND ")), nil
}

func nativeForSQL(v Value) any {
	if s, ok := v.(String); ok {
		return string(s)
	}
	return v.Native()
}

// --- query_builder { query, filters } ------------------------------------

func evalQueryBuilder(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	queryNode, ok := node.Get("query")
	if !ok {
		return nil, fmt.Errorf("eval: query_builder: missing %q", "query")
	}
	filtersNode, ok := node.Get("filters")
	if !ok {
		return nil, fmt.Errorf("eval: query_builder: missing %q", "filters")
	}
	queryVal, err := ev.Eval(queryNode, st)
	if err != nil {
		return nil, err
	}
	query, err := MustString(queryVal)
	if err != nil {
		return nil, err
	}
	filtersVal, err := ev.Eval(filtersNode, st)
	if err != nil {
		return nil, err
	}
	filters, err := MustString(filtersVal)
	if err != nil {
		return nil, err
	}

	parts := []string{strings.TrimSpace(query)}
	if filters != "" {
		parts = append(parts, "WHERE "+filters)
	}
	return String(strings.Join(parts, " ")), nil
}

// --- callable { module, class, method } ----------------------------------

func evalCallable(ev *Evaluator, node confignode.MappingNode, _ *store.Store) (Value, error) {
	module, err := requiredString(node, "module")
	if err != nil {
		return nil, err
	}
	class, err := requiredString(node, "class")
	if err != nil {
		return nil, err
	}
	method, err := requiredString(node, "method")
	if err != nil {
		return nil, err
	}
	return ev.Symbols.Resolve(module, class, method)
}

// --- instance { module, class, arguments } -------------------------------

func evalInstance(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	module, err := requiredString(node, "module")
	if err != nil {
		return nil, err
	}
	class, err := requiredString(node, "class")
	if err != nil {
		return nil, err
	}
	argumentsNode, ok := node.Get("arguments")
	if !ok {
		return nil, fmt.Errorf("eval: instance: missing %q", "arguments")
	}
	argsVal, err := ev.Eval(argumentsNode, st)
	if err != nil {
		return nil, err
	}
	argsMap, ok := argsVal.(Map)
	if !ok {
		return nil, fmt.Errorf("eval: instance: arguments must evaluate to a mapping, got %T", argsVal)
	}
	return ev.Symbols.New(module, class, argsMap)
}

// --- initializer { client, arguments } -----------------------------------

func evalInitializer(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	clientNode, ok := node.Get("client")
	if !ok {
		return nil, fmt.Errorf("eval: initializer: missing %q", "client")
	}
	argumentsNode, ok := node.Get("arguments")
	if !ok {
		return nil, fmt.Errorf("eval: initializer: missing %q", "arguments")
	}
	clientVal, err := ev.Eval(clientNode, st)
	if err != nil {
		return nil, err
	}
	callable, ok := clientVal.(Callable)
	if !ok {
		return nil, fmt.Errorf("eval: initializer: client must evaluate to a callable, got %T", clientVal)
	}
	argsVal, err := ev.Eval(argumentsNode, st)
	if err != nil {
		return nil, err
	}
	argsMap, ok := argsVal.(Map)
	if !ok {
		return nil, fmt.Errorf("eval: initializer: arguments must evaluate to a mapping, got %T", argsVal)
	}
	return callable.Invoke(argsMap)
}

// --- from_authorizer { method, arguments } -------------------------------

func evalFromAuthorizer(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	method, err := requiredString(node, "method")
	if err != nil {
		return nil, err
	}
	argumentsNode, ok := node.Get("arguments")
	if !ok {
		return nil, fmt.Errorf("eval: from_authorizer: missing %q", "arguments")
	}

	poisonPill := sentinel.Of(sentinel.NotFound)
	raw := st.Get("authorization", true, poisonPill)
	if pv, ok := raw.(sentinel.Value); ok && pv.Kind == sentinel.NotFound {
		return nil, adapterr.NewMissingInput("authorization")
	}
	authClient, ok := raw.(AuthClient)
	if !ok {
		return nil, fmt.Errorf("eval: from_authorizer: store key %q is not an AuthClient (got %T)", "authorization", raw)
	}

	argsVal, err := ev.Eval(argumentsNode, st)
	if err != nil {
		return nil, err
	}
	argsMap, ok := argsVal.(Map)
	if !ok {
		return nil, fmt.Errorf("eval: from_authorizer: arguments must evaluate to a mapping, got %T", argsVal)
	}
	return authClient.Call(method, argsMap)
}

// --- pipeline { name, client, arguments?, forward_to? } ------------------

func evalPipeline(ev *Evaluator, node confignode.MappingNode, st *store.Store) (Value, error) {
	name, err := requiredString(node, "name")
	if err != nil {
		return nil, err
	}
	clientNode, ok := node.Get("client")
	if !ok {
		return nil, fmt.Errorf("eval: pipeline: missing %q", "client")
	}
	processor, err := ev.Eval(clientNode, st)
	if err != nil {
		return nil, err
	}

	arguments := NewMap(nil, map[string]Value{})
	if argumentsNode, ok := node.Get("arguments"); ok {
		argsVal, err := ev.Eval(argumentsNode, st)
		if err != nil {
			return nil, err
		}
		if m, ok := argsVal.(Map); ok {
			arguments = m
		}
	}

	var forwardTo List
	if forwardNode, ok := node.Get("forward_to"); ok {
		forwardMapping, ok := forwardNode.(confignode.MappingNode)
		if !ok {
			return nil, fmt.Errorf("eval: pipeline: %q must be a mapping", "forward_to")
		}
		for _, downstream := range forwardMapping.Keys {
			propsNode, ok := forwardMapping.Entries[downstream].(confignode.MappingNode)
			if !ok {
				return nil, fmt.Errorf("eval: pipeline: forward_to entry %q must be a mapping", downstream)
			}
			asArg, err := requiredString(propsNode, "as_arg")
			if err != nil {
				return nil, err
			}
			forwardTo = append(forwardTo, NewMap(
				[]string{"forward_to", "name"},
				map[string]Value{"forward_to": String(downstream), "name": String(asArg)},
			))
		}
	}

	return NewMap(
		[]string{"name", "processor", "arguments", "forward_to"},
		map[string]Value{
			"name":       String(name),
			"processor":  processor,
			"arguments":  arguments,
			"forward_to": forwardTo,
		},
	), nil
}
