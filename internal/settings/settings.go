// Package settings holds the editor-facing configuration of the server,
// received under the "csscomb" section of workspace/didChangeConfiguration.
package settings

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Section is the configuration section clients send settings under.
const Section = "csscomb"

// Settings mirrors the csscomb.* editor settings.
type Settings struct {
	// Preset is a built-in preset name, a path to a config file, or an
	// inline config object. Nil falls through to config file discovery.
	Preset any `json:"preset"`

	FormatOnSave bool `json:"formatOnSave"`

	// IgnoreFilesOnSave are doublestar globs, relative to the workspace
	// root, that are never formatted on save.
	IgnoreFilesOnSave []string `json:"ignoreFilesOnSave"`

	SupportEmbeddedStyles bool `json:"supportEmbeddedStyles"`

	// UseLatestCore selects the next generation of the comb engine.
	UseLatestCore bool `json:"useLatestCore"`

	// SyntaxAssociations map a language id or a <style lang> value to a
	// dialect, e.g. {"postcss": "css"}.
	SyntaxAssociations map[string]string `json:"syntaxAssociations"`

	// EmbeddedDefaultSyntax is the dialect of a <style> element without a
	// lang attribute, per markup language. Unlisted languages use css.
	EmbeddedDefaultSyntax map[string]string `json:"embeddedDefaultSyntax"`
}

// Default returns the settings used before the client sends any.
func Default() Settings {
	return Settings{
		SupportEmbeddedStyles: true,
		IgnoreFilesOnSave:     []string{},
		SyntaxAssociations:    map[string]string{},
		EmbeddedDefaultSyntax: map[string]string{},
	}
}

// Parse decodes client settings onto the defaults. It accepts either the
// whole settings object (with a "csscomb" key) or the section itself.
func Parse(raw any) (Settings, error) {
	s := Default()
	if raw == nil {
		return s, nil
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return s, fmt.Errorf("settings is not a map")
	}

	section := any(m)
	if val, exists := m[Section]; exists {
		section = val
	}
	if section == nil {
		return s, nil
	}

	jsonBytes, err := json.Marshal(section)
	if err != nil {
		return s, fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, &s); err != nil {
		return Default(), fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return s, nil
}

// Clone returns a copy that shares no maps or slices with s.
func (s Settings) Clone() Settings {
	c := s
	c.IgnoreFilesOnSave = append([]string(nil), s.IgnoreFilesOnSave...)
	c.SyntaxAssociations = maps.Clone(s.SyntaxAssociations)
	c.EmbeddedDefaultSyntax = maps.Clone(s.EmbeddedDefaultSyntax)
	return c
}

// EmbeddedDefault returns the dialect for a lang-less <style> in languageID.
func (s Settings) EmbeddedDefault(languageID string) string {
	if d, ok := s.EmbeddedDefaultSyntax[languageID]; ok && d != "" {
		return d
	}
	return "css"
}
