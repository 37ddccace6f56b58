package config

import (
	"testing"

	"bennypowers.dev/csscomb/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestSplitExclude(t *testing.T) {
	tests := []struct {
		name    string
		cfg     engine.Config
		config  engine.Config
		exclude []string
	}{
		{"none", engine.Config{"quotes": "single"}, engine.Config{"quotes": "single"}, nil},
		{"array", engine.Config{"exclude": []any{"a/**", 3, "b.css"}}, engine.Config{}, []string{"a/**", "b.css"}},
		{"string slice", engine.Config{"exclude": []string{"a/**"}}, engine.Config{}, []string{"a/**"}},
		{"single string", engine.Config{"exclude": "a/**", "eof-newline": true}, engine.Config{"eof-newline": true}, []string{"a/**"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, exclude := splitExclude(tt.cfg)
			assert.Equal(t, tt.config, cfg)
			assert.Equal(t, tt.exclude, exclude)
		})
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := parse("csscomb.yml", []byte("# nothing\n"))
	assert.NoError(t, err)
	assert.Equal(t, engine.Config{}, cfg)
}

func TestIsConfigFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"/w/.csscomb.json", true},
		{"/w/csscomb.json", true},
		{"/w/sub/team.csscomb.yaml", true},
		{"/w/.csscomb.yml", true},
		{"/w/package.json", true},
		{"/w/a.css", false},
		{"/w/csscomb.json.bak", false},
		{"/w/tsconfig.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsConfigFile(tt.path))
		})
	}
}
