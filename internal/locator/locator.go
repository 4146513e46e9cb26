// Package locator resolves (module, namespace, config_name) triples to a
// file path under a process-wide configuration root (spec §6 "Config
// locator").
package locator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kjaganathan/adapt/internal/adapterr"
)

// EnvVar names the environment variable carrying the configuration root.
const EnvVar = "ADAPT_CONFIGS"

// Locate joins the configured root with module/namespace/configName and
// verifies the result exists and is not a directory, returning
// ConfigNotFound otherwise.
func Locate(module, namespace, configName string) (string, error) {
	root, ok := os.LookupEnv(EnvVar)
	if !ok || root == "" {
		return "", fmt.Errorf("locator: %s environment variable not set", EnvVar)
	}
	path := filepath.Join(root, module, namespace, configName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", adapterr.NewConfigNotFound(path)
	}
	return path, nil
}
