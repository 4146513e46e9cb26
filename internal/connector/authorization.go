// Package connector implements the thin wrappers over the Evaluator that
// the spec keeps out of core scope but names as external collaborators:
// Authorization (builds an auth client from a typed `initializer` node),
// Service (loads an authorization config, then evaluates a client node
// with the auth object in scope), and Dispatcher (invokes one method on a
// client with evaluated arguments, optionally post-processing the
// result).
package connector

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/eval"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// InitializeAuthorization evaluates config's `initializer` entry and
// returns the constructed auth client.
func InitializeAuthorization(ev *eval.Evaluator, config confignode.MappingNode, st *store.Store) (eval.Value, error) {
	initializerNode, ok := config.Get("initializer")
	if !ok {
		return nil, fmt.Errorf("connector: authorization config missing %q", "initializer")
	}
	return ev.Eval(initializerNode, st)
}

// AuthorizationFromConfigPath reads the YAML document at path and builds
// the auth client it describes.
func AuthorizationFromConfigPath(ev *eval.Evaluator, path string, st *store.Store) (eval.Value, error) {
	node, err := confignode.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mapping, err := confignode.MustMapping(node)
	if err != nil {
		return nil, err
	}
	return InitializeAuthorization(ev, mapping, st)
}
