package extract

import (
	"bennypowers.dev/csscomb/internal/position"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/syntax"
)

func wholeDocumentApplies(languageID string, s settings.Settings) bool {
	return syntax.IsStylesheet(languageID, s.SyntaxAssociations)
}

// extractWholeDocument always yields one block: the selection when it is
// non-empty, the whole text otherwise.
func extractWholeDocument(in Input) StyleBlock {
	start, end := 0, len(in.Text)
	if sel := in.Selection; sel != nil && sel.Start != sel.End {
		start = position.LineColToOffset(in.Text, sel.Start.Line, sel.Start.Character)
		end = position.LineColToOffset(in.Text, sel.End.Line, sel.End.Character)
		if start > end {
			start, end = end, start
		}
	}

	return StyleBlock{
		Syntax:  syntax.Normalize(in.LanguageID, in.Settings.SyntaxAssociations),
		Content: in.Text[start:end],
		Range:   rangeOf(in.Text, start, end),
	}
}
