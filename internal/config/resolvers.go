package config

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"bennypowers.dev/csscomb/internal/comb"
	"bennypowers.dev/csscomb/internal/engine"
	"bennypowers.dev/csscomb/internal/log"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
)

// WorkspacePatterns match config files inside a workspace.
var WorkspacePatterns = []string{
	"**/*csscomb.json",
	"**/*csscomb.yaml",
	"**/*csscomb.yml",
}

// skippedDirs are never searched for workspace config files.
var skippedDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
}

// userGlobalFiles are looked up in the home directory, in order.
var userGlobalFiles = []string{"csscomb.json", ".csscomb.json"}

// PackageJSONKey holds an inline config in a workspace's package.json.
const PackageJSONKey = "csscombConfig"

type request struct {
	filePath string
	root     string
	preset   any
}

// baseDir is the directory relative preset paths resolve against.
func (r request) baseDir() string {
	if r.root != "" {
		return r.root
	}
	if r.filePath != "" {
		return filepath.Dir(r.filePath)
	}
	return ""
}

// resolver reports found=false when its source does not apply.
type resolver func(ctx context.Context, req request) (Resolved, bool, error)

func (s *Store) resolvers() []resolver {
	return []resolver{
		explicitPreset,
		builtinPreset,
		s.presetFile,
		s.environmentFile,
		workspaceFile,
		packageJSON,
		s.userGlobalFile,
	}
}

func explicitPreset(_ context.Context, req request) (Resolved, bool, error) {
	m, ok := req.preset.(map[string]any)
	if !ok || len(m) == 0 {
		return Resolved{}, false, nil
	}
	cfg, exclude := splitExclude(engine.Config(m))
	return Resolved{Origin: OriginExplicit, Config: cfg, Exclude: exclude}, true, nil
}

func builtinPreset(_ context.Context, req request) (Resolved, bool, error) {
	name, ok := req.preset.(string)
	if !ok || !comb.IsBuiltin(name) {
		return Resolved{}, false, nil
	}
	cfg, err := comb.BuiltinConfig(name)
	if err != nil {
		return Resolved{}, false, err
	}
	cfg, exclude := splitExclude(cfg)
	return Resolved{Origin: OriginBuiltin, Config: cfg, Exclude: exclude}, true, nil
}

func (s *Store) presetFile(_ context.Context, req request) (Resolved, bool, error) {
	name, ok := req.preset.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return Resolved{}, false, nil
	}
	path, err := s.expandPath(name, req.baseDir())
	if err != nil {
		return Resolved{Origin: OriginPresetFile}, true, err
	}
	return fromFile(OriginPresetFile, path)
}

func (s *Store) environmentFile(_ context.Context, req request) (Resolved, bool, error) {
	name := strings.TrimSpace(s.getenv(EnvVar))
	if name == "" {
		return Resolved{}, false, nil
	}
	path, err := s.expandPath(name, req.baseDir())
	if err != nil {
		return Resolved{}, false, nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("%s points at %s, which cannot be read: %v", EnvVar, path, err)
		return Resolved{}, false, nil
	}
	return fromFile(OriginEnvironment, path)
}

// workspaceFile searches the workspace for a config file. The shallowest
// match wins, ties broken by path.
func workspaceFile(ctx context.Context, req request) (Resolved, bool, error) {
	if req.root == "" {
		return Resolved{}, false, nil
	}

	matches, err := findWorkspaceFiles(ctx, req.root)
	if err != nil {
		return Resolved{}, false, err
	}
	if len(matches) == 0 {
		return Resolved{}, false, nil
	}
	return fromFile(OriginWorkspaceFile, filepath.Join(req.root, filepath.FromSlash(matches[0])))
}

func findWorkspaceFiles(ctx context.Context, root string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped rather than failing the search.
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		for _, pattern := range WorkspacePatterns {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				matches = append(matches, rel)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s for config files: %w", root, err)
	}

	slices.SortFunc(matches, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(strings.Count(a, "/"), strings.Count(b, "/")),
			cmp.Compare(a, b),
		)
	})
	return matches, nil
}

// packageJSON reads the csscombConfig key of the workspace's package.json.
// A package.json that cannot be parsed is not a config file and is skipped.
func packageJSON(_ context.Context, req request) (Resolved, bool, error) {
	if req.root == "" {
		return Resolved{}, false, nil
	}
	path := filepath.Join(req.root, "package.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: workspace package.json
	if err != nil {
		return Resolved{}, false, nil
	}

	var pkg map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		log.Debug("Skipping unparseable %s: %v", path, err)
		return Resolved{}, false, nil
	}
	raw, ok := pkg[PackageJSONKey]
	if !ok {
		return Resolved{}, false, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return Resolved{Origin: OriginPackageJSON, Path: path}, true,
			fmt.Errorf("%w: %s: %s must be an object", ErrSyntax, path, PackageJSONKey)
	}
	cfg, exclude := splitExclude(engine.Config(m))
	return Resolved{Origin: OriginPackageJSON, Path: path, Config: cfg, Exclude: exclude}, true, nil
}

func (s *Store) userGlobalFile(_ context.Context, _ request) (Resolved, bool, error) {
	home, err := s.home()
	if err != nil || home == "" {
		return Resolved{}, false, nil
	}
	for _, name := range userGlobalFiles {
		path := filepath.Join(home, name)
		if _, err := os.Stat(path); err == nil {
			return fromFile(OriginUserGlobal, path)
		}
	}
	return Resolved{}, false, nil
}

// fromFile reads path as the config of origin. Read and parse failures
// still count as found so lower tiers are not consulted.
func fromFile(origin Origin, path string) (Resolved, bool, error) {
	resolved := Resolved{Origin: origin, Path: path}
	cfg, err := readFile(path)
	if err != nil {
		return resolved, true, err
	}
	resolved.Config, resolved.Exclude = splitExclude(cfg)
	return resolved, true, nil
}

// expandPath expands a leading ~, resolves npm: presets from base/node_modules
// and resolves relative paths against base.
func (s *Store) expandPath(name, base string) (string, error) {
	if ref, ok := strings.CutPrefix(name, NpmPrefix); ok {
		if base == "" {
			return "", fmt.Errorf("cannot resolve %s without a workspace", name)
		}
		return resolvePackagePreset(ref, base)
	}
	if name == "~" || strings.HasPrefix(name, "~/") || strings.HasPrefix(name, `~\`) {
		home, err := s.home()
		if err != nil {
			return "", fmt.Errorf("cannot expand %s: %w", name, err)
		}
		return filepath.Join(home, name[1:]), nil
	}
	if filepath.IsAbs(name) || base == "" {
		return filepath.Clean(name), nil
	}
	return filepath.Join(base, name), nil
}

// IsConfigFile reports whether a change to path can change a resolved
// config: a file matching WorkspacePatterns, a package.json or a user
// global file.
func IsConfigFile(path string) bool {
	base := filepath.Base(path)
	if base == "package.json" || slices.Contains(userGlobalFiles, base) {
		return true
	}
	for _, pattern := range WorkspacePatterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a missing config file.
func IsNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
