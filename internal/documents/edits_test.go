package documents_test

import (
	"testing"

	"bennypowers.dev/csscomb/internal/documents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func edit(startLine, startChar, endLine, endChar uint32, text string) protocol.TextEdit {
	return protocol.TextEdit{
		Range: protocol.Range{
			Start: protocol.Position{Line: startLine, Character: startChar},
			End:   protocol.Position{Line: endLine, Character: endChar},
		},
		NewText: text,
	}
}

func TestApplyEdits(t *testing.T) {
	content := "<style>\na{}\n</style>\n<p>x</p>\n<style>\nb{}\n</style>\n"

	tests := []struct {
		name  string
		edits []protocol.TextEdit
		want  string
	}{
		{
			name:  "no edits",
			edits: nil,
			want:  content,
		},
		{
			name:  "single edit",
			edits: []protocol.TextEdit{edit(1, 0, 1, 3, "a {}")},
			want:  "<style>\na {}\n</style>\n<p>x</p>\n<style>\nb{}\n</style>\n",
		},
		{
			name: "edits out of order keep original coordinates",
			edits: []protocol.TextEdit{
				edit(5, 0, 5, 3, "b {\n}"),
				edit(1, 0, 1, 3, "a {\n}"),
			},
			want: "<style>\na {\n}\n</style>\n<p>x</p>\n<style>\nb {\n}\n</style>\n",
		},
		{
			name:  "insert at end of document",
			edits: []protocol.TextEdit{edit(7, 0, 7, 0, "<!-- end -->")},
			want:  content + "<!-- end -->",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := documents.ApplyEdits(content, tt.edits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyEditsErrors(t *testing.T) {
	t.Run("overlap", func(t *testing.T) {
		_, err := documents.ApplyEdits("abcdef", []protocol.TextEdit{
			edit(0, 0, 0, 4, "x"),
			edit(0, 2, 0, 6, "y"),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "overlapping")
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := documents.ApplyEdits("abc", []protocol.TextEdit{edit(4, 0, 4, 1, "x")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of bounds")
	})
}
