package connector

import (
	"fmt"

	"github.com/kjaganathan/adapt/internal/eval"
	"github.com/kjaganathan/adapt/internal/locator"
	"github.com/kjaganathan/adapt/internal/store"
	"github.com/kjaganathan/adapt/pkg/confignode"
)

// InitializeService loads the authorization config named by
// config.authorization.{namespace,config_name}, constructs the auth
// object, writes it into st under "authorization" (so `from_authorizer`
// handlers can find it), and then evaluates config.client (spec §6
// "Service config").
func InitializeService(ev *eval.Evaluator, config confignode.MappingNode, st *store.Store) (eval.Value, error) {
	authNode, ok := config.Get("authorization")
	if !ok {
		return nil, fmt.Errorf("connector: service config missing %q", "authorization")
	}
	authMapping, ok := authNode.(confignode.MappingNode)
	if !ok {
		return nil, fmt.Errorf("connector: service config %q must be a mapping", "authorization")
	}
	namespace, err := scalarString(authMapping, "namespace")
	if err != nil {
		return nil, err
	}
	configName, err := scalarString(authMapping, "config_name")
	if err != nil {
		return nil, err
	}

	authPath, err := locator.Locate("authorization", namespace, configName)
	if err != nil {
		return nil, err
	}
	authClient, err := AuthorizationFromConfigPath(ev, authPath, st)
	if err != nil {
		return nil, err
	}
	st.Add("authorization", authClient.Native())

	clientNode, ok := config.Get("client")
	if !ok {
		return nil, fmt.Errorf("connector: service config missing %q", "client")
	}
	return ev.Eval(clientNode, st)
}

// ServiceFromConfigPath reads the YAML document at path and initializes
// the service it describes.
func ServiceFromConfigPath(ev *eval.Evaluator, path string, st *store.Store) (eval.Value, error) {
	node, err := confignode.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mapping, err := confignode.MustMapping(node)
	if err != nil {
		return nil, err
	}
	return InitializeService(ev, mapping, st)
}

func scalarString(mapping confignode.MappingNode, key string) (string, error) {
	n, ok := mapping.Get(key)
	if !ok {
		return "", fmt.Errorf("connector: missing %q", key)
	}
	s, ok := n.(confignode.ScalarNode)
	if !ok {
		return "", fmt.Errorf("connector: %q must be a scalar", key)
	}
	str, ok := s.Value.(string)
	if !ok {
		return "", fmt.Errorf("connector: %q must be a string, got %T", key, s.Value)
	}
	return str, nil
}
