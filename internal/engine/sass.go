package engine

import (
	"slices"
	"strings"
)

type sassLine struct {
	indent string
	text   string
	trail  string
	decl   *node
	depth  int
	blank  bool
}

// processSass formats the indented syntax line by line. Braces outside
// strings and interpolation mean the text is not indented sass; the error
// carries Syntax "sass" so callers can retry it as scss.
func (c *Comb) processSass(text string, opts Options) (string, error) {
	if err := checkIndented(text); err != nil {
		err.Filename = opts.Filename
		return "", err
	}

	raw := strings.Split(text, "\n")
	lines := make([]*sassLine, len(raw))
	for i, r := range raw {
		body := strings.TrimRight(r, spaceChars)
		content := strings.TrimLeft(body, " \t")
		lines[i] = &sassLine{
			indent: body[:len(body)-len(content)],
			text:   content,
			trail:  r[len(body):],
			blank:  content == "",
		}
	}

	var stack []int
	for i, l := range lines {
		if l.blank {
			continue
		}
		w := len(l.indent)
		for len(stack) > 0 && w <= stack[len(stack)-1] {
			stack = stack[:len(stack)-1]
		}
		l.depth = len(stack)

		if next := nextContent(lines, i); next != nil && len(next.indent) > w {
			stack = append(stack, w)
			if c.opts.quotes != "" {
				l.text = convertQuotes(l.text, c.opts.quotes)
			}
			continue
		}
		if strings.HasPrefix(l.text, "//") || strings.HasPrefix(l.text, "/*") {
			continue
		}
		if n := statement(l.text); n.kind == declNode {
			n.value = c.opts.transformValue(n.value)
			if c.opts.spaceBeforeColon != nil {
				n.colonBefore = *c.opts.spaceBeforeColon
			}
			if c.opts.spaceAfterColon != nil {
				n.colonAfter = *c.opts.spaceAfterColon
			}
			l.decl = n
		} else if c.opts.quotes != "" {
			l.text = convertQuotes(l.text, c.opts.quotes)
		}
	}

	if c.opts.sortOrder != nil {
		c.opts.sortSassRuns(lines)
	}

	var sb strings.Builder
	for i, l := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if l.blank {
			sb.WriteString(c.opts.trailing(raw[i]))
			continue
		}
		if c.opts.blockIndent != nil {
			sb.WriteString(strings.Repeat(*c.opts.blockIndent, l.depth))
		} else {
			sb.WriteString(l.indent)
		}
		if l.decl != nil {
			l.decl.write(&sb)
		} else {
			sb.WriteString(l.text)
		}
		sb.WriteString(c.opts.trailing(l.trail))
	}
	return c.opts.applyText(sb.String()), nil
}

// trailing keeps the whitespace at the end of a line unless strip-spaces
// is set, in which case only a carriage return survives.
func (s *settings) trailing(ws string) string {
	if !s.stripSpaces {
		return ws
	}
	if strings.HasSuffix(ws, "\r") {
		return "\r"
	}
	return ""
}

func nextContent(lines []*sassLine, i int) *sassLine {
	for _, l := range lines[i+1:] {
		if !l.blank {
			return l
		}
	}
	return nil
}

// sortSassRuns sorts each run of consecutive declaration lines at one depth.
func (s *settings) sortSassRuns(lines []*sassLine) {
	for start := 0; start < len(lines); {
		if lines[start].decl == nil {
			start++
			continue
		}
		end := start + 1
		for end < len(lines) && lines[end].decl != nil && lines[end].depth == lines[start].depth {
			end++
		}
		run := lines[start:end]
		decls := make([]*node, len(run))
		for i, l := range run {
			decls[i] = l.decl
		}
		slices.SortStableFunc(decls, s.compare)
		for i, l := range run {
			l.decl = decls[i]
		}
		start = end
	}
}

func checkIndented(text string) *SyntaxError {
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case c == '"' || c == '\'':
			end, ok := stringEnd(text, i)
			if !ok {
				return errorAt(text, "sass", i, "unterminated string")
			}
			i = end
		case c == '#' && i+1 < len(text) && text[i+1] == '{':
			end, ok := interpolationEnd(text, i+1)
			if !ok {
				return errorAt(text, "sass", i, "unterminated interpolation")
			}
			i = end
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			nl := strings.IndexByte(text[i:], '\n')
			if nl < 0 {
				return nil
			}
			i += nl
		case c == '{' || c == '}':
			return errorAt(text, "sass", i, "unexpected '%c' in indented syntax", c)
		}
	}
	return nil
}
