// Package format runs a formatting pass over one document: it extracts the
// style blocks, resolves the config once, formats each block in document
// order and turns the results into text edits.
package format

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bennypowers.dev/csscomb/internal/comb"
	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/engine"
	"bennypowers.dev/csscomb/internal/extract"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/syntax"
	"bennypowers.dev/csscomb/internal/uriutil"
	"github.com/bmatcuk/doublestar/v4"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Errors that abort a whole pass.
var (
	ErrNoDocument        = errors.New("no active document")
	ErrUnsupportedSyntax = extract.ErrUnsupportedSyntax
	ErrNoStyleBlocks     = errors.New("no style blocks found")
	ErrExcluded          = errors.New("file is excluded from formatting")
)

// Engine formats one block. *comb.Adapter implements it.
type Engine interface {
	Use(version engine.Version) bool
	Format(ctx context.Context, text, dialect string, cfg engine.Config) (string, error)
}

// ConfigSource resolves the config of a file. *config.Store implements it.
type ConfigSource interface {
	Resolve(ctx context.Context, filePath, root string, preset any) (config.Resolved, error)
}

// Request describes one pass.
type Request struct {
	Document *documents.Document
	// Root is the workspace root path, "" when there is none.
	Root      string
	Selection *protocol.Range
	Settings  settings.Settings
	// OnSave marks a pass run for willSaveWaitUntil. Such passes honour
	// formatOnSave and the exclude patterns.
	OnSave       bool
	InsertSpaces bool
	TabSize      int
}

// Result of a pass. Blocks has one entry per extracted block, in document
// order, whether or not formatting it succeeded.
type Result struct {
	Blocks   []extract.StyleBlock
	Config   config.Resolved
	Warnings []error
}

// Edits returns one edit per changed block that formatted cleanly. Ranges
// refer to the text the pass started from, so the edits must be applied
// together.
func (r *Result) Edits() []protocol.TextEdit {
	if r == nil {
		return []protocol.TextEdit{}
	}
	edits := []protocol.TextEdit{}
	for _, b := range r.Blocks {
		if b.Err != nil || !b.Changed {
			continue
		}
		edits = append(edits, protocol.TextEdit{Range: b.Range, NewText: b.Content})
	}
	return edits
}

// BlockErrors returns the failures of individual blocks, each prefixed
// with the block's position.
func (r *Result) BlockErrors() []error {
	if r == nil {
		return nil
	}
	var errs []error
	for _, b := range r.Blocks {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("%s block at %d:%d: %w",
				b.Syntax, b.Range.Start.Line+1, b.Range.Start.Character+1, b.Err))
		}
	}
	return errs
}

// Formatter runs passes. It holds no per-pass state.
type Formatter struct {
	engine  Engine
	configs ConfigSource
}

func New(engine Engine, configs ConfigSource) *Formatter {
	return &Formatter{engine: engine, configs: configs}
}

// NewDefault wires a fresh adapter and config store.
func NewDefault() *Formatter {
	return New(comb.NewAdapter(), config.NewStore())
}

// Run formats the document in req. Structural problems are returned as
// errors; per-block failures are recorded on the blocks. A save pass with
// formatOnSave disabled returns an empty result.
func (f *Formatter) Run(ctx context.Context, req Request) (*Result, error) {
	doc := req.Document
	if doc == nil {
		return nil, ErrNoDocument
	}
	if req.OnSave && !req.Settings.FormatOnSave {
		return &Result{}, nil
	}

	extractor, ok := extract.Select(doc.LanguageID(), req.Settings)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSyntax, doc.LanguageID())
	}

	result := &Result{}
	resolved, err := f.configs.Resolve(ctx, doc.Path(), req.Root, req.Settings.Preset)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, config.ErrSyntax) {
			result.Warnings = append(result.Warnings, fmt.Errorf("invalid config, using defaults: %w", err))
		} else {
			result.Warnings = append(result.Warnings, fmt.Errorf("config could not be read, using defaults: %w", err))
		}
		resolved.Config = engine.Config{}
	}
	result.Config = resolved

	if req.OnSave {
		excluded, err := isExcluded(doc.Path(), req.Root, req.Settings.IgnoreFilesOnSave, resolved.Exclude)
		if err != nil {
			result.Warnings = append(result.Warnings, err)
		}
		if excluded {
			return result, ErrExcluded
		}
	}

	f.engine.Use(comb.VersionFor(req.Settings.UseLatestCore))

	blocks := extractor.Extract(extract.Input{
		LanguageID:   doc.LanguageID(),
		Text:         doc.Content(),
		Selection:    req.Selection,
		Settings:     req.Settings,
		InsertSpaces: req.InsertSpaces,
		TabSize:      req.TabSize,
	})
	if len(blocks) == 0 {
		return result, ErrNoStyleBlocks
	}

	for i := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.formatBlock(ctx, &blocks[i], resolved)
	}
	result.Blocks = blocks

	log.Debug("Formatted %s: %d block(s) with %s config", doc.URI(), len(blocks), resolved.Origin)
	return result, nil
}

// formatBlock formats one block in place. Embedded blocks are taken out of
// their indentation before formatting and put back afterwards, unless the
// config is empty and the engine leaves the layout alone.
func (f *Formatter) formatBlock(ctx context.Context, b *extract.StyleBlock, resolved config.Resolved) {
	if b.Err != nil {
		return
	}

	reindent := b.Embedded != nil && !resolved.IsEmpty()
	src := b.Content
	if reindent {
		src = dedent(src, b.Embedded.Indent)
	}

	out, err := f.format(ctx, src, b.Syntax, resolved.Config)
	if err != nil {
		b.Err = err
		return
	}
	if reindent {
		out = indent(out, b.Embedded.Indent)
	}
	if out != b.Content {
		b.Changed = true
		b.Content = out
	}
}

// format calls the engine, retrying once as scss when the sass parser
// rejects the text.
func (f *Formatter) format(ctx context.Context, text, dialect string, cfg engine.Config) (string, error) {
	out, err := f.engine.Format(ctx, text, dialect, cfg)
	var se *engine.SyntaxError
	if err != nil && errors.As(err, &se) && se.Syntax == syntax.Sass {
		log.Debug("Retrying sass block as scss: %v", err)
		return f.engine.Format(ctx, text, syntax.SCSS, cfg)
	}
	return out, err
}

// indent prefixes every line but the first with prefix, skipping blank
// lines.
func indent(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = prefix + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// dedent removes prefix from every line but the first.
func dedent(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = strings.TrimPrefix(lines[i], prefix)
	}
	return strings.Join(lines, "\n")
}

// isExcluded matches the file against the union of both pattern lists,
// relative to the workspace root.
func isExcluded(path, root string, patterns ...[]string) (bool, error) {
	if path == "" {
		return false, nil
	}
	rel, ok := uriutil.RelativeSlashPath(root, path)
	if !ok {
		return false, nil
	}
	var errs []error
	for _, list := range patterns {
		for _, pattern := range list {
			match, err := doublestar.Match(pattern, rel)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
				continue
			}
			if match {
				log.Info("%s matches exclude pattern %q", rel, pattern)
				return true, nil
			}
		}
	}
	return false, errors.Join(errs...)
}
