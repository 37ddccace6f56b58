package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIndent(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"empty", "", ""},
		{"flat", "a\nb\nc", ""},
		{"two spaces", "<div>\n  <style>\n    a{}\n  </style>\n</div>\n", "  "},
		{"four spaces", "a {\n    b {\n        c: d;\n    }\n}", "    "},
		{"tabs", "<template>\n\t<div>\n\t\t<p></p>\n\t</div>\n</template>", "\t"},
		{"blank lines ignored", "a\n\n   \n  b\n\n    c", "  "},
		{"majority wins", "a\n  b\n    c\n  d\ne\n    f\n", "  "},
		{"mixed lines skipped", "a\n \tb\n    c\n", "    "},
		{"crlf", "a\r\n  b\r\n", "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectIndent(tt.text))
		})
	}
}

func TestIndentUnit(t *testing.T) {
	assert.Equal(t, "\t", IndentUnit("a\n\tb", true, 4), "detected unit wins")
	assert.Equal(t, "    ", IndentUnit("a", true, 4))
	assert.Equal(t, "\t", IndentUnit("a", false, 4))
	assert.Equal(t, "  ", IndentUnit("a", true, 0))
}
