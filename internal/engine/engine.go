// Package engine is the comb formatting engine: it parses a stylesheet into a
// whitespace-preserving tree, applies the configured options and prints it
// back. Anything an option does not touch is reproduced byte for byte.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Version selects an engine generation.
type Version string

const (
	Stable Version = "stable"
	Next   Version = "next"
)

// Config maps option names to values, as found in a csscomb.json file.
type Config map[string]any

// Options describe the text handed to ProcessString.
type Options struct {
	Syntax   string
	Filename string
}

// ErrUnknownSyntax is returned for a syntax the engine cannot process.
var ErrUnknownSyntax = errors.New("unknown syntax")

// SyntaxError reports text the engine could not parse. Syntax is the
// dialect the text was parsed as; callers use it to retry under another.
type SyntaxError struct {
	Syntax   string
	Filename string
	Line     int
	Column   int
	Message  string
}

func (e *SyntaxError) Error() string {
	where := e.Filename
	if where == "" {
		where = "input"
	}
	return fmt.Sprintf("Parsing error at %s (%s): %s at line %d, column %d",
		where, e.Syntax, e.Message, e.Line, e.Column)
}

// OptionError reports an option whose value the engine does not accept.
type OptionError struct {
	Option string
	Value  any
	Want   string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("option %q: value %v is invalid, expected %s", e.Option, e.Value, e.Want)
}

// Comb is a configured engine instance.
type Comb struct {
	version Version
	opts    settings
}

// New configures an engine of the given version. Unknown options are
// ignored; known options with invalid values are reported.
func New(version Version, cfg Config) (*Comb, error) {
	if version != Stable && version != Next {
		return nil, fmt.Errorf("unknown engine version %q", version)
	}
	opts, err := configure(version, cfg)
	if err != nil {
		return nil, err
	}
	return &Comb{version: version, opts: opts}, nil
}

// Version returns the engine generation.
func (c *Comb) Version() Version {
	return c.version
}

// ProcessString formats text.
func (c *Comb) ProcessString(text string, opts Options) (string, error) {
	switch opts.Syntax {
	case "css", "less", "scss":
		return c.processBraces(text, opts)
	case "sass":
		return c.processSass(text, opts)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSyntax, opts.Syntax)
}

func (c *Comb) processBraces(text string, opts Options) (string, error) {
	root, err := parse(text, opts.Syntax)
	if err != nil {
		var se *SyntaxError
		if errors.As(err, &se) {
			se.Filename = opts.Filename
		}
		return "", err
	}
	if opts.Syntax == "css" {
		if err := validateCSS(text); err != nil {
			err.Filename = opts.Filename
			return "", err
		}
	}

	c.opts.applyTree(root)

	var sb strings.Builder
	root.write(&sb)
	return c.opts.applyText(sb.String()), nil
}

// errorAt builds a SyntaxError for a byte offset in src.
func errorAt(src, syntax string, offset int, format string, args ...any) *SyntaxError {
	if offset > len(src) {
		offset = len(src)
	}
	line := strings.Count(src[:offset], "\n") + 1
	col := offset - strings.LastIndexByte(src[:offset], '\n')
	return &SyntaxError{
		Syntax:  syntax,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	}
}
