package extract

import (
	"fmt"
	"strings"

	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/parser/html"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/syntax"
)

const (
	openTag  = "<style"
	closeTag = "</style"
)

func embeddedApplies(languageID string, s settings.Settings) bool {
	return s.SupportEmbeddedStyles && syntax.IsMarkup(languageID, s.SyntaxAssociations)
}

type opener struct {
	tagStart     int
	contentStart int
	tag          string
}

// extractEmbedded scans text once for <style>...</style> pairs. A later
// opener replaces a pending one, a closer without an opener is ignored and
// an opener still pending at the end of the text yields nothing.
func extractEmbedded(in Input) []StyleBlock {
	text := in.Text
	unit := documents.IndentUnit(text, in.InsertSpaces, in.TabSize)

	parser := html.AcquireParser()
	defer html.ReleaseParser(parser)

	var blocks []StyleBlock
	var pending *opener
	pos := 0
	for {
		i := strings.IndexByte(text[pos:], '<')
		if i < 0 {
			break
		}
		i += pos

		switch {
		case tagAt(text, i, openTag):
			end := tagEnd(text, i+len(openTag))
			if end < 0 {
				return blocks
			}
			pending = &opener{tagStart: i, contentStart: end + 1, tag: text[i : end+1]}
			pos = end + 1
		case tagAt(text, i, closeTag):
			if pending != nil {
				blocks = append(blocks, embeddedBlock(in, parser, unit, pending, i))
				pending = nil
			}
			pos = i + len(closeTag)
		default:
			pos = i + 1
		}
	}
	return blocks
}

// tagAt reports whether text holds the tag name at i, case-insensitively,
// followed by whitespace, '>' or '/'.
func tagAt(text string, i int, name string) bool {
	end := i + len(name)
	if end >= len(text) || !strings.EqualFold(text[i:end], name) {
		return false
	}
	switch text[end] {
	case ' ', '\t', '\n', '\r', '\f', '>', '/':
		return true
	}
	return false
}

// tagEnd returns the index of the '>' closing a start tag, skipping quoted
// attribute values, or -1.
func tagEnd(text string, from int) int {
	var quote byte
	for i := from; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i
		}
	}
	return -1
}

func embeddedBlock(in Input, parser *html.Parser, unit string, o *opener, closeStart int) StyleBlock {
	text := in.Text
	end := blockEnd(text, o.contentStart, closeStart)

	origin := parser.Lang(o.tag)
	if origin == "" {
		origin = in.Settings.EmbeddedDefault(in.LanguageID)
	}
	dialect := syntax.Normalize(origin, in.Settings.SyntaxAssociations)

	block := StyleBlock{
		Syntax:  dialect,
		Content: text[o.contentStart:end],
		Range:   rangeOf(text, o.contentStart, end),
		Embedded: &EmbeddedMeta{
			Indent:       lineIndent(text, o.tagStart) + unit,
			OriginSyntax: origin,
		},
	}
	if !syntax.Stylesheets.Has(dialect) {
		block.Err = fmt.Errorf("%w: %q", ErrUnsupportedSyntax, origin)
	}
	return block
}

// blockEnd walks back from the closing tag over horizontal whitespace. When
// that reaches a newline the block ends after it, leaving the closing tag's
// indentation out of the block; otherwise it ends at the closing tag.
func blockEnd(text string, contentStart, closeStart int) int {
	j := closeStart
	for j > contentStart && (text[j-1] == ' ' || text[j-1] == '\t') {
		j--
	}
	if j > contentStart && text[j-1] == '\n' {
		return j
	}
	return closeStart
}

// lineIndent returns the leading whitespace of the line holding offset.
func lineIndent(text string, offset int) string {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := start
	for end < offset && (text[end] == ' ' || text[end] == '\t') {
		end++
	}
	return text[start:end]
}
