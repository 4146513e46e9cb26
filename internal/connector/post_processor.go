package connector

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/eval"
)

// FlattenStream adapts a streaming SDK response (an iterable of
// SDK-specific row objects) into a list of plain maps, the Go analogue of
// the original's SearchStreamToDict post-processor: it exists because
// some connectors (Google Ads' search_stream in particular) return an
// iterator of rich response objects rather than plain records, and
// downstream serializer schemas only understand maps.
//
// Each element of stream must already be a map[string]any, or implement
// ToMap() map[string]any — the latter is what a concrete SDK adapter's
// row wrapper is expected to provide, mirroring the original's
// `MessageToDict(pb)` call.
func FlattenStream(stream any) ([]map[string]any, error) {
	items, ok := stream.([]any)
	if !ok {
		if items2, ok := stream.([]map[string]any); ok {
			return items2, nil
		}
		return nil, fmt.Errorf("connector: post_processor: expected a stream of rows, got %T", stream)
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			out = append(out, v)
		case interface{ ToMap() map[string]any }:
			out = append(out, v.ToMap())
		default:
			return nil, fmt.Errorf("connector: post_processor: row of type %T has no map representation", item)
		}
	}
	return out, nil
}

// RegisterPostProcessors wires the built-in post-processors into symbols
// under the "connector.post_processor" module, so a config's
// `post_processor` node can reference them the same way it references any
// other SDK symbol (spec's "load symbols by name" non-goal).
func RegisterPostProcessors(symbols *eval.SymbolTable) {
	symbols.RegisterCallable("connector.post_processor", "SearchStreamToDict", "process", func(args eval.Map) (eval.Value, error) {
		responseVal, ok := args.Get("stream")
		if !ok {
			return nil, fmt.Errorf("connector: post_processor: missing %q argument", "stream")
		}
		rows, err := FlattenStream(responseVal.Native())
		if err != nil {
			return nil, err
		}
		native := make([]any, len(rows))
		for i, r := range rows {
			native[i] = r
		}
		return eval.FromNative(native)
	})
}
