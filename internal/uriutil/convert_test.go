package uriutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathToURI(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "absolute path", input: "/home/user/project/a.css", expected: "file:///home/user/project/a.css"},
		{name: "root", input: "/", expected: "file:///"},
		{name: "spaces", input: "/home/user/my project/b.vue", expected: "file:///home/user/my%20project/b.vue"},
		{name: "unicode", input: "/home/user/样式.scss", expected: "file:///home/user/%E6%A0%B7%E5%BC%8F.scss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PathToURI(tt.input))
		})
	}
}

func TestURIToPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX paths")
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain", input: "file:///home/user/a.css", expected: "/home/user/a.css"},
		{name: "percent-encoded", input: "file:///home/user/my%20project/b.vue", expected: "/home/user/my project/b.vue"},
		{name: "drive letter", input: "file:///C:/proj/a.css", expected: "C:/proj/a.css"},
		{name: "not a URI scheme", input: "/already/a/path.css", expected: "/already/a/path.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, URIToPath(tt.input))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "with space", "x.less")
	assert.Equal(t, path, URIToPath(PathToURI(path)))
}

func TestIsFileURI(t *testing.T) {
	assert.True(t, IsFileURI("file:///a.css"))
	assert.False(t, IsFileURI("untitled:Untitled-1"))
	assert.False(t, IsFileURI("vscode-vfs://github/a.css"))
}

func TestRelativeSlashPath(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "work", "site")

	rel, ok := RelativeSlashPath(root, filepath.Join(root, "src", "vendor", "reset.css"))
	assert.True(t, ok)
	assert.Equal(t, "src/vendor/reset.css", rel)

	_, ok = RelativeSlashPath(root, filepath.Join(string(filepath.Separator), "elsewhere", "a.css"))
	assert.False(t, ok)

	_, ok = RelativeSlashPath("", "a.css")
	assert.False(t, ok)
}
