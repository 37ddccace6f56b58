package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/uriutil"
	"github.com/stretchr/testify/require"
)

// Workspace writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns its path.
func Workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		WriteFile(t, root, name, content)
	}
	return root
}

// WriteFile writes content to root/name, creating parent directories.
func WriteFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// URI returns the file URI of root/name.
func URI(root, name string) string {
	return uriutil.PathToURI(filepath.Join(root, filepath.FromSlash(name)))
}

// ServerEnv returns the environment for a server process: the current one
// with HOME pointed at home and no CSSCOMB_CONFIG, so the user's own config
// files never leak into a test.
func ServerEnv(home string, extra ...string) []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "HOME=") || strings.HasPrefix(kv, config.EnvVar+"=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "HOME="+home)
	return append(env, extra...)
}
