// Package extract finds the style blocks of a document: the whole document
// for stylesheets, or the contents of <style> elements for markup.
package extract

import (
	"errors"

	"bennypowers.dev/csscomb/internal/position"
	"bennypowers.dev/csscomb/internal/settings"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ErrUnsupportedSyntax marks a block, or a document, in a dialect the
// engine does not format.
var ErrUnsupportedSyntax = errors.New("unsupported syntax")

// EmbeddedMeta is attached to blocks found inside markup.
type EmbeddedMeta struct {
	// Indent prefixes every non-first, non-blank line of the formatted
	// block: the opening tag's line indent plus one indent unit.
	Indent string
	// OriginSyntax is the language declared on the tag, or the default
	// for the markup language when the tag declares none.
	OriginSyntax string
}

// StyleBlock is one region of a document to format. Range addresses
// Content in the text the block was extracted from.
type StyleBlock struct {
	Syntax   string
	Content  string
	Range    protocol.Range
	Err      error
	Changed  bool
	Embedded *EmbeddedMeta
}

// Input is the snapshot a pass extracts from.
type Input struct {
	LanguageID string
	Text       string
	// Selection limits whole-document extraction. Nil or empty means the
	// whole document.
	Selection *protocol.Range
	Settings  settings.Settings
	// InsertSpaces and TabSize come from the client's FormattingOptions and
	// are used when the document's indentation cannot be detected.
	InsertSpaces bool
	TabSize      int
}

// Kind tags an extractor variant.
type Kind int

const (
	WholeDocument Kind = iota
	Embedded
)

func (k Kind) String() string {
	if k == Embedded {
		return "embedded"
	}
	return "whole-document"
}

// Extractor is one of the closed set of extraction strategies.
type Extractor struct {
	Kind Kind
}

// Extractors in the order they are tried.
var Extractors = []Extractor{{Kind: Embedded}, {Kind: WholeDocument}}

// Select returns the first extractor applicable to languageID.
func Select(languageID string, s settings.Settings) (Extractor, bool) {
	for _, e := range Extractors {
		if e.IsApplicable(languageID, s) {
			return e, true
		}
	}
	return Extractor{}, false
}

// IsApplicable reports whether the extractor handles languageID.
func (e Extractor) IsApplicable(languageID string, s settings.Settings) bool {
	switch e.Kind {
	case Embedded:
		return embeddedApplies(languageID, s)
	default:
		return wholeDocumentApplies(languageID, s)
	}
}

// Extract returns the document's blocks in document order.
func (e Extractor) Extract(in Input) []StyleBlock {
	switch e.Kind {
	case Embedded:
		return extractEmbedded(in)
	default:
		return []StyleBlock{extractWholeDocument(in)}
	}
}

func rangeOf(text string, start, end int) protocol.Range {
	sl, sc := position.OffsetToLineCol(text, start)
	el, ec := position.OffsetToLineCol(text, end)
	return protocol.Range{
		Start: protocol.Position{Line: sl, Character: sc},
		End:   protocol.Position{Line: el, Character: ec},
	}
}
