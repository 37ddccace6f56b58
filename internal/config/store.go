// Package config resolves the comb configuration that applies to a file.
//
// Sources are consulted in a fixed order and the first one present wins;
// nothing is merged across sources. Results are cached per workspace root
// until Invalidate is called.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"sync"

	"bennypowers.dev/csscomb/internal/engine"
	"bennypowers.dev/csscomb/internal/log"
	"golang.org/x/sync/singleflight"
)

// Origin names the source a config was resolved from.
type Origin string

const (
	OriginExplicit      Origin = "explicit-preset-object"
	OriginBuiltin       Origin = "named-builtin"
	OriginPresetFile    Origin = "preset-file"
	OriginEnvironment   Origin = "environment"
	OriginWorkspaceFile Origin = "workspace-file"
	OriginPackageJSON   Origin = "package-json"
	OriginUserGlobal    Origin = "user-global-file"
	OriginDefault       Origin = "default"
)

// EnvVar names a config file used when no preset is set and before the
// workspace is searched.
const EnvVar = "CSSCOMB_CONFIG"

// Resolved is the config for one formatting pass.
type Resolved struct {
	Origin Origin
	// Path of the file the config was read from, if any.
	Path    string
	Config  engine.Config
	Exclude []string
}

// IsEmpty reports whether the config sets no options.
func (r Resolved) IsEmpty() bool {
	return len(r.Config) == 0
}

type cacheEntry struct {
	fingerprint string
	resolved    Resolved
	err         error
}

// Store resolves and caches configs. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	cache      map[string]cacheEntry
	generation uint64
	group      singleflight.Group

	home   func() (string, error)
	getenv func(string) string
}

// Option configures a Store.
type Option func(*Store)

// WithHome overrides the user's home directory.
func WithHome(dir string) Option {
	return func(s *Store) {
		s.home = func() (string, error) { return dir, nil }
	}
}

// WithEnv overrides environment lookups.
func WithEnv(getenv func(string) string) Option {
	return func(s *Store) {
		s.getenv = getenv
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		cache:  map[string]cacheEntry{},
		home:   os.UserHomeDir,
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the config for filePath in the workspace at root. preset
// is the editor's preset setting: nil, a built-in name, a path, or an
// inline object.
//
// A config file that cannot be parsed yields a Resolved with an empty
// config and an error wrapping ErrSyntax. The result, error included, is
// cached until Invalidate.
func (s *Store) Resolve(ctx context.Context, filePath, root string, preset any) (Resolved, error) {
	fingerprint, err := fingerprintOf(preset)
	if err != nil {
		return Resolved{Origin: OriginDefault, Config: engine.Config{}}, err
	}

	// Without a root, relative presets resolve against the file's
	// directory, so entries are keyed by that directory instead.
	req := request{filePath: filePath, root: root, preset: preset}
	base := req.baseDir()

	s.mu.Lock()
	entry, ok := s.cache[base]
	generation := s.generation
	s.mu.Unlock()
	if ok && entry.fingerprint == fingerprint {
		return clone(entry.resolved), entry.err
	}

	key := fmt.Sprintf("%d\x00%s\x00%s", generation, base, fingerprint)
	v, _, _ := s.group.Do(key, func() (any, error) {
		resolved, err := s.resolve(ctx, req)
		entry := cacheEntry{fingerprint: fingerprint, resolved: resolved, err: err}
		if ctx.Err() == nil {
			s.mu.Lock()
			if s.generation == generation {
				s.cache[base] = entry
			}
			s.mu.Unlock()
		}
		return entry, nil
	})

	entry = v.(cacheEntry)
	log.Debug("Resolved config for %s from %s %s", filePath, entry.resolved.Origin, entry.resolved.Path)
	return clone(entry.resolved), entry.err
}

// Invalidate drops every cached config.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = map[string]cacheEntry{}
	s.generation++
	log.Debug("Config cache invalidated")
}

// Cached reports whether a config is cached for dir, the workspace root
// or, for files outside a workspace, the file's directory.
func (s *Store) Cached(dir string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.cache[dir]
	return ok
}

func (s *Store) resolve(ctx context.Context, req request) (Resolved, error) {
	for _, r := range s.resolvers() {
		if err := ctx.Err(); err != nil {
			return Resolved{Origin: OriginDefault, Config: engine.Config{}}, err
		}
		resolved, found, err := r(ctx, req)
		if found || err != nil {
			if resolved.Config == nil {
				resolved.Config = engine.Config{}
			}
			return resolved, err
		}
	}
	return Resolved{Origin: OriginDefault, Config: engine.Config{}}, nil
}

func fingerprintOf(preset any) (string, error) {
	data, err := json.Marshal(preset)
	if err != nil {
		return "", fmt.Errorf("preset is not serialisable: %w", err)
	}
	return string(data), nil
}

func clone(r Resolved) Resolved {
	r.Config = maps.Clone(r.Config)
	r.Exclude = append([]string(nil), r.Exclude...)
	return r
}
