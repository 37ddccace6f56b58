package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("nil gives defaults", func(t *testing.T) {
		s, err := Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, Default(), s)
		assert.True(t, s.SupportEmbeddedStyles)
		assert.False(t, s.FormatOnSave)
		assert.Nil(t, s.Preset)
	})

	t.Run("section key", func(t *testing.T) {
		s, err := Parse(map[string]any{
			"csscomb": map[string]any{
				"preset":             "zen",
				"formatOnSave":       true,
				"ignoreFilesOnSave":  []any{"vendor/**"},
				"useLatestCore":      true,
				"syntaxAssociations": map[string]any{"postcss": "css"},
			},
			"editor": map[string]any{"tabSize": 4},
		})
		require.NoError(t, err)
		assert.Equal(t, "zen", s.Preset)
		assert.True(t, s.FormatOnSave)
		assert.True(t, s.UseLatestCore)
		assert.True(t, s.SupportEmbeddedStyles, "unset keys keep defaults")
		assert.Equal(t, []string{"vendor/**"}, s.IgnoreFilesOnSave)
		assert.Equal(t, map[string]string{"postcss": "css"}, s.SyntaxAssociations)
	})

	t.Run("bare section", func(t *testing.T) {
		s, err := Parse(map[string]any{
			"supportEmbeddedStyles": false,
			"preset":                map[string]any{"color-case": "lower"},
		})
		require.NoError(t, err)
		assert.False(t, s.SupportEmbeddedStyles)
		assert.Equal(t, map[string]any{"color-case": "lower"}, s.Preset)
	})

	t.Run("null section", func(t *testing.T) {
		s, err := Parse(map[string]any{"csscomb": nil})
		require.NoError(t, err)
		assert.Equal(t, Default(), s)
	})

	t.Run("not a map", func(t *testing.T) {
		s, err := Parse("csscomb")
		assert.Error(t, err)
		assert.Equal(t, Default(), s)
	})

	t.Run("wrong field type", func(t *testing.T) {
		s, err := Parse(map[string]any{"csscomb": map[string]any{"formatOnSave": "yes"}})
		assert.Error(t, err)
		assert.Equal(t, Default(), s)
	})
}

func TestClone(t *testing.T) {
	s := Default()
	s.SyntaxAssociations["postcss"] = "css"
	s.IgnoreFilesOnSave = append(s.IgnoreFilesOnSave, "a/**")

	c := s.Clone()
	c.SyntaxAssociations["postcss"] = "scss"
	c.IgnoreFilesOnSave[0] = "b/**"

	assert.Equal(t, "css", s.SyntaxAssociations["postcss"])
	assert.Equal(t, "a/**", s.IgnoreFilesOnSave[0])
}

func TestEmbeddedDefault(t *testing.T) {
	s := Default()
	s.EmbeddedDefaultSyntax["vue"] = "scss"

	assert.Equal(t, "scss", s.EmbeddedDefault("vue"))
	assert.Equal(t, "css", s.EmbeddedDefault("html"))
}
