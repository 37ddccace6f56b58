package documents

import (
	"fmt"
	"strings"

	"bennypowers.dev/csscomb/internal/position"
	"bennypowers.dev/csscomb/internal/uriutil"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document is an open text buffer as last reported by the client.
type Document struct {
	uri        string
	languageID string
	content    string
	version    int
}

func NewDocument(uri, languageID string, version int, content string) *Document {
	return &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		content:    content,
	}
}

func (d *Document) URI() string        { return d.uri }
func (d *Document) LanguageID() string { return d.languageID }
func (d *Document) Version() int       { return d.version }
func (d *Document) Content() string    { return d.content }

// Path returns the file system path for file:// documents and "" otherwise.
func (d *Document) Path() string {
	if !uriutil.IsFileURI(d.uri) {
		return ""
	}
	return uriutil.URIToPath(d.uri)
}

// LineCount returns the number of lines; an empty document has one.
func (d *Document) LineCount() int {
	return strings.Count(d.content, "\n") + 1
}

// PositionAt converts a byte offset into an LSP position.
func (d *Document) PositionAt(offset int) protocol.Position {
	line, col := position.OffsetToLineCol(d.content, offset)
	return protocol.Position{Line: line, Character: col}
}

// OffsetAt converts an LSP position into a byte offset, clamping the
// character to the line length.
func (d *Document) OffsetAt(pos protocol.Position) int {
	return position.LineColToOffset(d.content, pos.Line, pos.Character)
}

// FullRange spans the whole document.
func (d *Document) FullRange() protocol.Range {
	return protocol.Range{
		Start: protocol.Position{},
		End:   d.PositionAt(len(d.content)),
	}
}

// TextInRange returns the text covered by r, normalising reversed ranges.
func (d *Document) TextInRange(r protocol.Range) string {
	start, end := d.OffsetAt(r.Start), d.OffsetAt(r.End)
	if start > end {
		start, end = end, start
	}
	return d.content[start:end]
}

// SetContent replaces the content. Updates older than the current version
// are rejected.
func (d *Document) SetContent(content string, version int) error {
	if version < d.version {
		return fmt.Errorf("rejected stale update: document version is %d but update version is %d", d.version, version)
	}
	d.content = content
	d.version = version
	return nil
}
