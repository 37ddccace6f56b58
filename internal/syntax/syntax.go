// Package syntax names the stylesheet dialects the formatter accepts and the
// markup languages that may embed them.
package syntax

import (
	"path/filepath"
	"strings"

	"bennypowers.dev/csscomb/internal/collections"
)

const (
	CSS          = "css"
	Less         = "less"
	SCSS         = "scss"
	Sass         = "sass"
	SassIndented = "sass-indented"
)

// Stylesheets are the dialects a whole document may be formatted as.
var Stylesheets = collections.NewSet(CSS, Less, SCSS, Sass, SassIndented)

// Markup languages whose <style> elements are formatted in place.
var Markup = collections.NewSet("html", "htm", "vue", "vue-html", "svelte")

// IsStylesheet reports whether dialect (after association) is a stylesheet.
func IsStylesheet(dialect string, associations map[string]string) bool {
	return Stylesheets.Has(Associate(dialect, associations))
}

// IsMarkup reports whether languageID (after association) embeds styles.
func IsMarkup(languageID string, associations map[string]string) bool {
	return Markup.Has(Associate(languageID, associations))
}

// Associate maps a language identifier through the user's association
// table. Unmapped identifiers are returned as given.
func Associate(languageID string, associations map[string]string) string {
	if mapped, ok := associations[languageID]; ok && mapped != "" {
		return mapped
	}
	return languageID
}

// Normalize returns the engine dialect for a document language. An
// association wins; otherwise any name containing "sass" becomes sass.
func Normalize(languageID string, associations map[string]string) string {
	if mapped, ok := associations[languageID]; ok && mapped != "" {
		return mapped
	}
	if strings.Contains(languageID, Sass) {
		return Sass
	}
	return languageID
}

var extensions = map[string]string{
	".css":    CSS,
	".less":   Less,
	".scss":   SCSS,
	".sass":   Sass,
	".html":   "html",
	".htm":    "htm",
	".vue":    "vue",
	".svelte": "svelte",
}

// FromPath guesses the language identifier of a file from its extension,
// returning "" when unknown. Used where no client supplies a languageId.
func FromPath(path string) string {
	return extensions[strings.ToLower(filepath.Ext(path))]
}
