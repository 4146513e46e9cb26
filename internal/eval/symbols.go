package eval

import "fmt"

// SymbolTable is how `callable`, `instance` and `initializer` load
// third-party SDK symbols by name (spec's explicit non-goal: "all
// third-party SDK adapters... the evaluator only needs to load symbols
// by name and invoke them"). A symbol is addressed by (module, class,
// method) the same way the original Python implementation used
// importlib — here it's a plain registration map populated by whatever
// adapter package wires in a concrete SDK, never by the evaluator
// itself.
type SymbolTable struct {
	callables map[string]func(args Map) (Value, error)
	factories map[string]func(args Map) (Value, error)
}

// NewSymbolTable builds an empty table. Callers register the adapters
// they actually ship (Facebook Ads, Google Ads, ...); an Evaluator with
// no registrations still evaluates every handler in spec §4.3 except
// `callable`/`instance`, which fail with a descriptive error instead of
// a generic UnknownType.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		callables: make(map[string]func(args Map) (Value, error)),
		factories: make(map[string]func(args Map) (Value, error)),
	}
}

func symbolKey(module, class, method string) string {
	return module + "." + class + "." + method
}

// RegisterCallable binds (module, class, method) to a Go function so the
// `callable` handler can resolve it as a Value Callable.
func (s *SymbolTable) RegisterCallable(module, class, method string, fn func(args Map) (Value, error)) {
	s.callables[symbolKey(module, class, method)] = fn
}

// RegisterFactory binds (module, class) to a constructor so the
// `instance` handler can build one.
func (s *SymbolTable) RegisterFactory(module, class string, fn func(args Map) (Value, error)) {
	s.factories[module+"."+class] = fn
}

// Resolve returns a Callable wrapping the registered (module, class,
// method) function.
func (s *SymbolTable) Resolve(module, class, method string) (Callable, error) {
	fn, ok := s.callables[symbolKey(module, class, method)]
	if !ok {
		return Callable{}, fmt.Errorf("eval: no symbol registered for %s.%s.%s", module, class, method)
	}
	return Callable{Name: symbolKey(module, class, method), Invoke: fn}, nil
}

// New constructs module.class via its registered factory.
func (s *SymbolTable) New(module, class string, args Map) (Value, error) {
	fn, ok := s.factories[module+"."+class]
	if !ok {
		return nil, fmt.Errorf("eval: no factory registered for %s.%s", module, class)
	}
	return fn(args)
}

// AuthClient is what `from_authorizer` expects to find under the store
// key "authorization": an object that can dispatch a named method with
// evaluated keyword-style arguments, same shape as the Python
// implementation's `getattr(auth_client, method)(**args)`.
type AuthClient interface {
	Call(method string, args Map) (Value, error)
}
