// Package comb holds the handle on the comb engine. The handle is loaded
// lazily for one engine version and swapped only when the requested version
// changes.
package comb

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"bennypowers.dev/csscomb/internal/engine"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/syntax"
)

// State of the engine handle.
type State int

const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// VersionFor maps the useLatestCore setting to an engine generation.
func VersionFor(useLatest bool) engine.Version {
	if useLatest {
		return engine.Next
	}
	return engine.Stable
}

// Adapter calls through to the engine. It is safe for concurrent use.
type Adapter struct {
	mu      sync.Mutex
	state   State
	version engine.Version
	loads   int
}

// NewAdapter returns an adapter in the unloaded state.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Use selects the engine version. The handle is (re)loaded iff the version
// differs from the loaded one; it reports whether a load happened.
func (a *Adapter) Use(version engine.Version) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Loaded && a.version == version {
		return false
	}
	log.Info("Loading comb engine (%s)", version)
	a.state = Loaded
	a.version = version
	a.loads++
	return true
}

// State returns the current state and, when loaded, the loaded version.
func (a *Adapter) State() (State, engine.Version) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state, a.version
}

// Loads counts engine loads since creation.
func (a *Adapter) Loads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loads
}

// Format runs the engine over text. The sass-indented dialect is handed to
// the engine as sass. Engine errors are returned unchanged so callers can
// inspect *engine.SyntaxError.
func (a *Adapter) Format(ctx context.Context, text, dialect string, cfg engine.Config) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.mu.Lock()
	if a.state == Unloaded {
		a.state = Loaded
		a.version = engine.Stable
		a.loads++
	}
	version := a.version
	a.mu.Unlock()

	comb, err := engine.New(version, cfg)
	if err != nil {
		return "", err
	}
	return comb.ProcessString(text, engine.Options{Syntax: engineSyntax(dialect)})
}

func engineSyntax(dialect string) string {
	if dialect == syntax.SassIndented {
		return syntax.Sass
	}
	return dialect
}

// IsBuiltin reports whether name is one of the engine's presets.
func IsBuiltin(name string) bool {
	return slices.Contains(engine.PresetNames(), name)
}

// BuiltinNames lists the engine's preset names.
func BuiltinNames() []string {
	return engine.PresetNames()
}

// BuiltinConfig returns a fresh copy of a named preset.
func BuiltinConfig(name string) (engine.Config, error) {
	cfg, err := engine.Preset(name)
	if err != nil {
		return nil, fmt.Errorf("builtin config %q: %w", name, err)
	}
	return cfg, nil
}
