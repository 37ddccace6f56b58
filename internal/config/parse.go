package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bennypowers.dev/csscomb/internal/engine"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrSyntax marks a config file that could not be parsed. Callers warn and
// fall back to an empty config.
var ErrSyntax = errors.New("config syntax error")

// readFile reads and parses a config file. JSON may carry comments; files
// ending in .yaml or .yml are read as YAML.
func readFile(path string) (engine.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: config paths come from the workspace or the user's settings
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return parse(path, data)
}

func parse(path string, data []byte) (engine.Config, error) {
	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &raw); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, path, err)
		}
	}

	if raw == nil {
		return engine.Config{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: config must be an object", ErrSyntax, path)
	}
	return engine.Config(m), nil
}

// splitExclude removes the exclude key from cfg and returns its patterns.
func splitExclude(cfg engine.Config) (engine.Config, []string) {
	out := make(engine.Config, len(cfg))
	var exclude []string
	for k, v := range cfg {
		if k != "exclude" {
			out[k] = v
			continue
		}
		switch patterns := v.(type) {
		case string:
			exclude = append(exclude, patterns)
		case []string:
			exclude = append(exclude, patterns...)
		case []any:
			for _, p := range patterns {
				if s, ok := p.(string); ok {
					exclude = append(exclude, s)
				}
			}
		}
	}
	return out, exclude
}
