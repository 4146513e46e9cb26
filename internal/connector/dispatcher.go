package connector

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/eval"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// Dispatchable is how Dispatcher invokes a named method on a loaded SDK
// client. Go has no `getattr(client, name)(**kwargs)` equivalent that
// stays type-safe, so rather than reach for reflection (which would need
// exact exported Go method names and manual arg-slice construction per
// SDK) every adapter registered in the connector layer implements this
// one interface — the same name-based-dispatch shape eval.AuthClient
// already uses for `from_authorizer`.
type Dispatchable interface {
	Call(method string, args eval.Map) (eval.Value, error)
}

// Receive evaluates config's `arguments`, invokes config.method on
// client, and — if config declares a `post_processor` — evaluates it with
// the response available under store key "POST_PROCESSOR_RESPONSE"
// (spec's out-of-core connector layer, §1 "third-party SDK adapters").
func Receive(ev *eval.Evaluator, client Dispatchable, config confignode.MappingNode, st *store.Store) (eval.Value, error) {
	argumentsNode, ok := config.Get("arguments")
	if !ok {
		return nil, fmt.Errorf("connector: dispatcher config missing %q", "arguments")
	}
	argsValue, err := ev.Eval(argumentsNode, st)
	if err != nil {
		return nil, err
	}
	argsMap, ok := argsValue.(eval.Map)
	if !ok {
		return nil, fmt.Errorf("connector: dispatcher %q must evaluate to a mapping, got %T", "arguments", argsValue)
	}

	method, err := scalarString(config, "method")
	if err != nil {
		return nil, err
	}

	response, err := client.Call(method, argsMap)
	if err != nil {
		return nil, fmt.Errorf("connector: dispatcher: calling %q: %w", method, err)
	}

	postProcessorNode, ok := config.Get("post_processor")
	if !ok {
		return response, nil
	}
	st.Add("POST_PROCESSOR_RESPONSE", response.Native())
	return ev.Eval(postProcessorNode, st)
}
