package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		languageID   string
		associations map[string]string
		expected     string
	}{
		{name: "css", languageID: "css", expected: "css"},
		{name: "scss stays scss", languageID: "scss", expected: "scss"},
		{name: "indented sass", languageID: "sass-indented", expected: "sass"},
		{name: "sass", languageID: "sass", expected: "sass"},
		{name: "association wins over sass rule", languageID: "sass-indented", associations: map[string]string{"sass-indented": "scss"}, expected: "scss"},
		{name: "association for unknown id", languageID: "postcss", associations: map[string]string{"postcss": "css"}, expected: "css"},
		{name: "empty association ignored", languageID: "less", associations: map[string]string{"less": ""}, expected: "less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.languageID, tt.associations))
		})
	}
}

func TestIsStylesheet(t *testing.T) {
	assert.True(t, IsStylesheet("less", nil))
	assert.True(t, IsStylesheet("sass-indented", nil))
	assert.False(t, IsStylesheet("stylus", nil))
	assert.True(t, IsStylesheet("postcss", map[string]string{"postcss": "css"}))
	assert.False(t, IsStylesheet("html", nil))
}

func TestIsMarkup(t *testing.T) {
	for _, id := range []string{"html", "htm", "vue", "vue-html", "svelte"} {
		assert.True(t, IsMarkup(id, nil), id)
	}
	assert.False(t, IsMarkup("css", nil))
	assert.True(t, IsMarkup("astro", map[string]string{"astro": "html"}))
}

func TestFromPath(t *testing.T) {
	assert.Equal(t, "scss", FromPath("/a/b/_vars.SCSS"))
	assert.Equal(t, "vue", FromPath("App.vue"))
	assert.Equal(t, "sass", FromPath("x.sass"))
	assert.Empty(t, FromPath("README.md"))
}
