package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// NpmPrefix marks a preset that lives in an installed package, e.g.
// "npm:@acme/csscomb-config" or "npm:csscomb-config-acme/strict.json".
const NpmPrefix = "npm:"

// packageEntryFiles are tried, in order, when a preset package names no
// entry point of its own.
var packageEntryFiles = []string{".csscomb.json", "csscomb.json", ".csscomb.yaml", ".csscomb.yml"}

type packageManifest struct {
	Main    string `json:"main"`
	Exports any    `json:"exports"`
}

// resolvePackagePreset finds the config file of an npm: preset under
// base/node_modules, honouring the package's "exports" map.
func resolvePackagePreset(ref, base string) (string, error) {
	name, subpath, err := splitPackageRef(ref)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, "node_modules", filepath.FromSlash(name))
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("preset package %s not found in %s: %w", name, filepath.Join(base, "node_modules"), err)
	}

	manifest, _ := readManifest(dir)

	request := "."
	if subpath != "" {
		request = "./" + subpath
	}
	if manifest != nil && manifest.Exports != nil {
		if path, err := resolveExports(dir, manifest.Exports, request); err == nil {
			return path, nil
		}
	}

	if subpath != "" {
		return existing(filepath.Join(dir, filepath.FromSlash(subpath)))
	}
	if manifest != nil && manifest.Main != "" && isConfigExt(manifest.Main) {
		if path, err := existing(filepath.Join(dir, filepath.FromSlash(manifest.Main))); err == nil {
			return path, nil
		}
	}
	for _, f := range packageEntryFiles {
		if path, err := existing(filepath.Join(dir, f)); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("preset package %s has no config file", name)
}

// splitPackageRef splits "@scope/pkg/sub/path" into "@scope/pkg" and
// "sub/path".
func splitPackageRef(ref string) (name, subpath string, err error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, ".") {
		return "", "", fmt.Errorf("invalid preset package %q", ref)
	}

	n := 2
	if strings.HasPrefix(ref, "@") {
		n = 3
	}
	parts := strings.SplitN(ref, "/", n)
	if n == 3 {
		if len(parts) < 2 || parts[1] == "" {
			return "", "", fmt.Errorf("invalid preset package %q: scoped packages need @scope/name", ref)
		}
		name = parts[0] + "/" + parts[1]
		if len(parts) == 3 {
			subpath = parts[2]
		}
		return name, subpath, nil
	}
	name = parts[0]
	if len(parts) == 2 {
		subpath = parts[1]
	}
	return name, subpath, nil
}

func readManifest(dir string) (*packageManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, err
	}
	var m packageManifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSyntax, filepath.Join(dir, "package.json"), err)
	}
	return &m, nil
}

// resolveExports resolves request ("." or "./sub/path") against an
// "exports" field: a string, a subpath map, or conditions.
func resolveExports(dir string, exports any, request string) (string, error) {
	switch exp := exports.(type) {
	case string:
		if request == "." {
			return existing(filepath.Join(dir, filepath.FromSlash(exp)))
		}
	case map[string]any:
		if target, ok := exp[request]; ok {
			return exportTarget(dir, target)
		}
		for pattern, target := range exp {
			prefix, suffix, ok := strings.Cut(pattern, "*")
			if !ok || strings.Contains(suffix, "*") {
				continue
			}
			if len(request) >= len(prefix)+len(suffix) &&
				strings.HasPrefix(request, prefix) && strings.HasSuffix(request, suffix) {
				sub := request[len(prefix) : len(request)-len(suffix)]
				if s, ok := target.(string); ok {
					target = strings.Replace(s, "*", sub, 1)
				}
				return exportTarget(dir, target)
			}
		}
		// A conditions object at the top level applies to ".".
		if request == "." {
			if _, isSubpathMap := exp["."]; !isSubpathMap {
				return exportTarget(dir, exp)
			}
		}
	}
	return "", fmt.Errorf("no export for %s", request)
}

func exportTarget(dir string, target any) (string, error) {
	switch t := target.(type) {
	case string:
		return existing(filepath.Join(dir, filepath.FromSlash(t)))
	case map[string]any:
		for _, cond := range []string{"csscomb", "default", "require", "import"} {
			if next, ok := t[cond]; ok {
				return exportTarget(dir, next)
			}
		}
	}
	return "", errors.New("no usable export target")
}

func existing(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

func isConfigExt(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
