package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"bennypowers.dev/csscomb/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func noEnv(string) string { return "" }

// newStore returns a store with an empty home directory and no environment.
func newStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(WithHome(t.TempDir()), WithEnv(noEnv))
}

func TestResolveCascade(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, root, home string)
		preset   any
		env      string
		origin   Origin
		expected engine.Config
		exclude  []string
		path     string
	}{
		{
			name:     "default",
			origin:   OriginDefault,
			expected: engine.Config{},
		},
		{
			name: "explicit object wins over workspace file",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, ".csscomb.json"), `{"quotes": "double"}`)
			},
			preset:   map[string]any{"quotes": "single", "exclude": []any{"vendor/**"}},
			origin:   OriginExplicit,
			expected: engine.Config{"quotes": "single"},
			exclude:  []string{"vendor/**"},
		},
		{
			name:   "empty object falls through",
			preset: map[string]any{},
			origin: OriginDefault,
		},
		{
			name:     "builtin name",
			preset:   "zen",
			origin:   OriginBuiltin,
			expected: nil,
		},
		{
			name: "preset path relative to root",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "conf", "comb.json"), `{"eof-newline": true}`)
			},
			preset:   "./conf/comb.json",
			origin:   OriginPresetFile,
			expected: engine.Config{"eof-newline": true},
			path:     "conf/comb.json",
		},
		{
			name: "preset path in home",
			setup: func(t *testing.T, _, home string) {
				writeFile(t, filepath.Join(home, "styles", "comb.json"), `{"leading-zero": false}`)
			},
			preset:   "~/styles/comb.json",
			origin:   OriginPresetFile,
			expected: engine.Config{"leading-zero": false},
		},
		{
			name: "environment",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "env.json"), `{"strip-spaces": true}`)
				writeFile(t, filepath.Join(root, "csscomb.json"), `{"quotes": "double"}`)
			},
			env:      "env.json",
			origin:   OriginEnvironment,
			expected: engine.Config{"strip-spaces": true},
		},
		{
			name:     "missing environment file is skipped",
			env:      "nowhere.json",
			origin:   OriginDefault,
			expected: engine.Config{},
		},
		{
			name: "workspace file wins over global file",
			setup: func(t *testing.T, root, home string) {
				writeFile(t, filepath.Join(root, "csscomb.json"), `{"quotes": "double"}`)
				writeFile(t, filepath.Join(home, ".csscomb.json"), `{"quotes": "single"}`)
			},
			origin:   OriginWorkspaceFile,
			expected: engine.Config{"quotes": "double"},
			path:     "csscomb.json",
		},
		{
			name: "shallowest workspace file wins",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "a", "b", ".csscomb.json"), `{"quotes": "single"}`)
				writeFile(t, filepath.Join(root, "z", "csscomb.json"), `{"quotes": "double"}`)
			},
			origin:   OriginWorkspaceFile,
			expected: engine.Config{"quotes": "double"},
			path:     "z/csscomb.json",
		},
		{
			name: "dependency and hidden directories are skipped",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "node_modules", "x", "csscomb.json"), `{"quotes": "single"}`)
				writeFile(t, filepath.Join(root, "bower_components", "csscomb.json"), `{"quotes": "single"}`)
				writeFile(t, filepath.Join(root, ".git", "csscomb.json"), `{"quotes": "single"}`)
			},
			origin:   OriginDefault,
			expected: engine.Config{},
		},
		{
			name: "yaml workspace file with comments and exclude",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "web", ".csscomb.yml"), "# comb\nblock-indent: 4\nexclude:\n  - dist/**\n")
			},
			origin:   OriginWorkspaceFile,
			expected: engine.Config{"block-indent": 4},
			exclude:  []string{"dist/**"},
			path:     "web/.csscomb.yml",
		},
		{
			name: "json with comments",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, ".csscomb.json"), "{\n  // single quotes\n  \"quotes\": \"single\",\n}\n")
			},
			origin:   OriginWorkspaceFile,
			expected: engine.Config{"quotes": "single"},
		},
		{
			name: "package.json",
			setup: func(t *testing.T, root, home string) {
				writeFile(t, filepath.Join(root, "package.json"), `{"name": "x", "csscombConfig": {"color-case": "upper"}}`)
				writeFile(t, filepath.Join(home, "csscomb.json"), `{"quotes": "single"}`)
			},
			origin:   OriginPackageJSON,
			expected: engine.Config{"color-case": "upper"},
			path:     "package.json",
		},
		{
			name: "package.json without key falls through",
			setup: func(t *testing.T, root, _ string) {
				writeFile(t, filepath.Join(root, "package.json"), `{"name": "x"}`)
			},
			origin:   OriginDefault,
			expected: engine.Config{},
		},
		{
			name: "global csscomb.json before .csscomb.json",
			setup: func(t *testing.T, _, home string) {
				writeFile(t, filepath.Join(home, "csscomb.json"), `{"quotes": "double"}`)
				writeFile(t, filepath.Join(home, ".csscomb.json"), `{"quotes": "single"}`)
			},
			origin:   OriginUserGlobal,
			expected: engine.Config{"quotes": "double"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			home := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, root, home)
			}
			env := func(key string) string {
				if key == EnvVar {
					return tt.env
				}
				return ""
			}
			store := NewStore(WithHome(home), WithEnv(env))

			resolved, err := store.Resolve(context.Background(), filepath.Join(root, "a.css"), root, tt.preset)
			require.NoError(t, err)
			assert.Equal(t, tt.origin, resolved.Origin)
			if tt.expected != nil {
				assert.Equal(t, tt.expected, resolved.Config)
			}
			if tt.exclude != nil {
				assert.Equal(t, tt.exclude, resolved.Exclude)
			}
			if tt.path != "" {
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.path)), resolved.Path)
			}
		})
	}
}

func TestResolveBuiltinMatchesEngine(t *testing.T) {
	store := newStore(t)
	resolved, err := store.Resolve(context.Background(), "", "", "yandex")
	require.NoError(t, err)

	expected, err := engine.Preset("yandex")
	require.NoError(t, err)
	delete(expected, "exclude")
	assert.Equal(t, expected, resolved.Config)
}

func TestResolveMalformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"invalid json", "csscomb.json", `{"quotes": `},
		{"invalid yaml", ".csscomb.yaml", "quotes: [single\n"},
		{"not an object", "csscomb.json", `["quotes"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			home := t.TempDir()
			writeFile(t, filepath.Join(root, tt.file), tt.content)
			// A valid global file must not be consulted.
			writeFile(t, filepath.Join(home, "csscomb.json"), `{"quotes": "single"}`)

			store := NewStore(WithHome(home), WithEnv(noEnv))
			resolved, err := store.Resolve(context.Background(), "", root, nil)
			require.ErrorIs(t, err, ErrSyntax)
			assert.Equal(t, OriginWorkspaceFile, resolved.Origin)
			assert.Empty(t, resolved.Config)
			assert.True(t, resolved.IsEmpty())
		})
	}
}

func TestResolveMissingPresetFile(t *testing.T) {
	store := newStore(t)
	root := t.TempDir()
	resolved, err := store.Resolve(context.Background(), "", root, "missing.json")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NotErrorIs(t, err, ErrSyntax)
	assert.Equal(t, OriginPresetFile, resolved.Origin)
	assert.NotNil(t, resolved.Config)
}

func TestResolveCaching(t *testing.T) {
	store := newStore(t)
	root := t.TempDir()
	path := filepath.Join(root, "csscomb.json")
	writeFile(t, path, `{"quotes": "single"}`)
	ctx := context.Background()

	first, err := store.Resolve(ctx, "", root, nil)
	require.NoError(t, err)
	assert.Equal(t, "single", first.Config["quotes"])
	assert.True(t, store.Cached(root))

	writeFile(t, path, `{"quotes": "double"}`)
	cached, err := store.Resolve(ctx, "", root, nil)
	require.NoError(t, err)
	assert.Equal(t, "single", cached.Config["quotes"], "served from cache until invalidated")

	store.Invalidate()
	assert.False(t, store.Cached(root))
	fresh, err := store.Resolve(ctx, "", root, nil)
	require.NoError(t, err)
	assert.Equal(t, "double", fresh.Config["quotes"])
}

func TestResolveWithoutRootCachesPerDirectory(t *testing.T) {
	store := newStore(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "comb.json"), `{"quotes": "single"}`)
	writeFile(t, filepath.Join(dir, "b", "comb.json"), `{"quotes": "double"}`)
	ctx := context.Background()

	a, err := store.Resolve(ctx, filepath.Join(dir, "a", "x.css"), "", "./comb.json")
	require.NoError(t, err)
	b, err := store.Resolve(ctx, filepath.Join(dir, "b", "y.css"), "", "./comb.json")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "a", "comb.json"), a.Path)
	assert.Equal(t, "single", a.Config["quotes"])
	assert.Equal(t, filepath.Join(dir, "b", "comb.json"), b.Path)
	assert.Equal(t, "double", b.Config["quotes"])
	assert.True(t, store.Cached(filepath.Join(dir, "a")))
	assert.True(t, store.Cached(filepath.Join(dir, "b")))
}

func TestResolvePresetChangeBypassesCache(t *testing.T) {
	store := newStore(t)
	root := t.TempDir()
	ctx := context.Background()

	a, err := store.Resolve(ctx, "", root, map[string]any{"quotes": "single"})
	require.NoError(t, err)
	b, err := store.Resolve(ctx, "", root, map[string]any{"quotes": "double"})
	require.NoError(t, err)
	assert.Equal(t, "single", a.Config["quotes"])
	assert.Equal(t, "double", b.Config["quotes"])
}

func TestResolveReturnsCopies(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	preset := map[string]any{"quotes": "single"}

	a, err := store.Resolve(ctx, "", "", preset)
	require.NoError(t, err)
	a.Config["quotes"] = "double"

	b, err := store.Resolve(ctx, "", "", preset)
	require.NoError(t, err)
	assert.Equal(t, "single", b.Config["quotes"])
}

func TestResolveConcurrent(t *testing.T) {
	store := newStore(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "csscomb.json"), `{"quotes": "single"}`)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := store.Resolve(context.Background(), "", root, nil)
			assert.NoError(t, err)
			assert.Equal(t, OriginWorkspaceFile, resolved.Origin)
		}()
		if i%4 == 0 {
			store.Invalidate()
		}
	}
	wg.Wait()
}

func TestResolveCancelled(t *testing.T) {
	store := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := t.TempDir()
	_, err := store.Resolve(ctx, "", root, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Cached(root))
}
