// Package formatting implements the LSP formatting requests. Every request
// runs one format pass and reports block errors, config warnings and
// structural problems to the client's output.
package formatting

import (
	"errors"

	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/extract"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/lsp/methods/workspace"
	"bennypowers.dev/csscomb/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Pass describes one formatting request.
type Pass struct {
	URI       string
	Selection *protocol.Range
	OnSave    bool
	Options   protocol.FormattingOptions
}

// Formatting handles textDocument/formatting
func Formatting(req *types.RequestContext, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	return Run(req, Pass{URI: params.TextDocument.URI, Options: params.Options})
}

// RangeFormatting handles textDocument/rangeFormatting. In markup
// documents only the style blocks the range touches are formatted.
func RangeFormatting(req *types.RequestContext, params *protocol.DocumentRangeFormattingParams) ([]protocol.TextEdit, error) {
	selection := params.Range
	return Run(req, Pass{URI: params.TextDocument.URI, Selection: &selection, Options: params.Options})
}

// WillSaveWaitUntil handles textDocument/willSaveWaitUntil. It formats only
// when formatOnSave is enabled and the file is not excluded.
func WillSaveWaitUntil(req *types.RequestContext, params *protocol.WillSaveTextDocumentParams) ([]protocol.TextEdit, error) {
	return Run(req, Pass{URI: params.TextDocument.URI, OnSave: true})
}

// Run formats the document named by p and returns the edits for every
// block that formatted cleanly. Structural problems are reported to the
// client and produce no edits rather than a request error.
func Run(req *types.RequestContext, p Pass) ([]protocol.TextEdit, error) {
	state := req.Server.State()
	doc := req.Server.Document(p.URI)

	insertSpaces, tabSize := Options(p.Options)
	result, err := req.Server.Formatter().Run(req.Context(), format.Request{
		Document:     doc,
		Root:         state.RootPath,
		Selection:    p.Selection,
		Settings:     state.Settings,
		OnSave:       p.OnSave,
		InsertSpaces: insertSpaces,
		TabSize:      tabSize,
	})
	if result != nil {
		if p.Selection != nil {
			result.Blocks = touching(result.Blocks, *p.Selection)
		}
		report(req, result)
	}
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		reportStructural(req, p.URI, err)
		return []protocol.TextEdit{}, nil
	}

	edits := result.Edits()
	log.Info("Formatted %s: %d edit(s) from %d block(s)", p.URI, len(edits), len(result.Blocks))
	return edits, nil
}

// touching drops embedded blocks that lie entirely outside sel. An empty
// selection keeps every block.
func touching(blocks []extract.StyleBlock, sel protocol.Range) []extract.StyleBlock {
	if sel.Start == sel.End {
		return blocks
	}
	kept := blocks[:0]
	for _, b := range blocks {
		if b.Embedded == nil || (!before(sel.End, b.Range.Start) && !before(b.Range.End, sel.Start)) {
			kept = append(kept, b)
		}
	}
	return kept
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

// report surfaces config warnings and per-block failures.
func report(req *types.RequestContext, result *format.Result) {
	for _, w := range result.Warnings {
		workspace.LogWarning(req.GLSP, "%v", w)
		if errors.Is(w, config.ErrSyntax) {
			workspace.ShowMessage(req.GLSP, protocol.MessageTypeWarning, w.Error())
		}
	}
	for _, err := range result.BlockErrors() {
		workspace.LogError(req.GLSP, "%v", err)
	}
}

func reportStructural(req *types.RequestContext, uri string, err error) {
	switch {
	case errors.Is(err, format.ErrExcluded):
		workspace.LogInfo(req.GLSP, "Skipped %s: %v", uri, err)
	case errors.Is(err, format.ErrNoStyleBlocks):
		workspace.LogInfo(req.GLSP, "Nothing to format in %s: %v", uri, err)
	default:
		workspace.LogError(req.GLSP, "Cannot format %s: %v", uri, err)
	}
}

// Options reads insertSpaces and tabSize from the client's formatting
// options. Missing or mistyped values come back as zero values.
func Options(opts protocol.FormattingOptions) (insertSpaces bool, tabSize int) {
	if v, ok := opts[protocol.FormattingOptionInsertSpaces].(bool); ok {
		insertSpaces = v
	}
	switch v := opts[protocol.FormattingOptionTabSize].(type) {
	case float64:
		tabSize = int(v)
	case int:
		tabSize = v
	case protocol.UInteger:
		tabSize = int(v)
	case protocol.Integer:
		tabSize = int(v)
	}
	if tabSize < 0 {
		tabSize = 0
	}
	return insertSpaces, tabSize
}
