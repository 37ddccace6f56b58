package engine

import "strings"

const spaceChars = " \t\r\n\f"

type nodeKind int

const (
	declNode    nodeKind = iota // property: value
	ruleNode                    // selector or at-rule followed by a block
	commentNode                 // /* */ or, in less and scss, //
	rawNode                     // any other statement, e.g. @import or a mixin call
)

// node is one statement. Every byte of the source lives in exactly one
// field, so writing an unmodified tree reproduces its input.
type node struct {
	kind   nodeKind
	before string // whitespace preceding the statement

	property    string
	colonBefore string
	colonAfter  string
	value       string

	prelude     string
	braceBefore string
	body        *block

	text string // comment or raw statement

	semiBefore string
	semicolon  bool
}

type block struct {
	nodes []*node
	after string // whitespace before '}' or end of input
}

func (b *block) write(sb *strings.Builder) {
	for _, n := range b.nodes {
		n.write(sb)
	}
	sb.WriteString(b.after)
}

func (n *node) write(sb *strings.Builder) {
	sb.WriteString(n.before)
	switch n.kind {
	case declNode:
		sb.WriteString(n.property)
		sb.WriteString(n.colonBefore)
		sb.WriteByte(':')
		sb.WriteString(n.colonAfter)
		sb.WriteString(n.value)
	case ruleNode:
		sb.WriteString(n.prelude)
		sb.WriteString(n.braceBefore)
		sb.WriteByte('{')
		n.body.write(sb)
		sb.WriteByte('}')
		return
	default:
		sb.WriteString(n.text)
	}
	sb.WriteString(n.semiBefore)
	if n.semicolon {
		sb.WriteByte(';')
	}
}

type parser struct {
	src    string
	syntax string
	pos    int
}

func parse(src, syntax string) (*block, error) {
	p := &parser{src: src, syntax: syntax}
	return p.parseBlock(-1)
}

func (p *parser) lineComments() bool {
	return p.syntax == "less" || p.syntax == "scss"
}

// parseBlock reads statements up to the '}' matching the '{' at open, or
// to end of input when open is negative.
func (p *parser) parseBlock(open int) (*block, error) {
	b := &block{}
	for {
		ws := p.skipSpace()
		if p.pos >= len(p.src) {
			if open >= 0 {
				return nil, errorAt(p.src, p.syntax, open, "unclosed block")
			}
			b.after = ws
			return b, nil
		}

		rest := p.src[p.pos:]
		switch {
		case rest[0] == '}':
			if open < 0 {
				return nil, errorAt(p.src, p.syntax, p.pos, "unexpected '}'")
			}
			p.pos++
			b.after = ws
			return b, nil

		case strings.HasPrefix(rest, "/*"):
			end := strings.Index(rest[2:], "*/")
			if end < 0 {
				return nil, errorAt(p.src, p.syntax, p.pos, "unterminated comment")
			}
			text := rest[:end+4]
			p.pos += len(text)
			b.nodes = append(b.nodes, &node{kind: commentNode, before: ws, text: text})

		case p.lineComments() && strings.HasPrefix(rest, "//"):
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			text := strings.TrimRight(rest[:end], "\r")
			p.pos += len(text)
			b.nodes = append(b.nodes, &node{kind: commentNode, before: ws, text: text})

		default:
			n, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			n.before = ws
			b.nodes = append(b.nodes, n)
		}
	}
}

func (p *parser) skipSpace() string {
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(spaceChars, p.src[p.pos]) >= 0 {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) parseStatement() (*node, error) {
	start := p.pos
	end, err := p.scan(start)
	if err != nil {
		return nil, err
	}

	if end < len(p.src) && p.src[end] == '{' {
		head := p.src[start:end]
		prelude := strings.TrimRight(head, spaceChars)
		p.pos = end + 1
		body, err := p.parseBlock(end)
		if err != nil {
			return nil, err
		}
		return &node{
			kind:        ruleNode,
			prelude:     prelude,
			braceBefore: head[len(prelude):],
			body:        body,
		}, nil
	}

	if end < len(p.src) && p.src[end] == ';' {
		p.pos = end + 1
		n := statement(p.src[start:end])
		n.semicolon = true
		return n, nil
	}

	// '}' or end of input: trailing whitespace belongs to the block
	text := strings.TrimRight(p.src[start:end], spaceChars)
	p.pos = start + len(text)
	return statement(text), nil
}

// scan returns the offset of the first ';', '{' or '}' at nesting depth zero,
// or len(src). Strings, comments, parentheses and #{} / @{} interpolation
// are skipped.
func (p *parser) scan(from int) (int, error) {
	src := p.src
	depth := 0
	parenStart := -1
	for i := from; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			end, ok := stringEnd(src, i)
			if !ok {
				return 0, errorAt(src, p.syntax, i, "unterminated string")
			}
			i = end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return 0, errorAt(src, p.syntax, i, "unterminated comment")
			}
			i += end + 3
		case (c == '#' || c == '@') && i+1 < len(src) && src[i+1] == '{':
			end, ok := interpolationEnd(src, i+1)
			if !ok {
				return 0, errorAt(src, p.syntax, i, "unterminated interpolation")
			}
			i = end
		case c == '\\':
			i++
		case c == '(':
			if depth == 0 {
				parenStart = i
			}
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (c == ';' || c == '{' || c == '}'):
			return i, nil
		}
	}
	if depth > 0 {
		return 0, errorAt(src, p.syntax, parenStart, "unclosed parenthesis")
	}
	return len(src), nil
}

// stringEnd returns the offset of the quote closing the string opened at
// start. Strings may not span lines unless the newline is escaped.
func stringEnd(src string, start int) (int, bool) {
	q := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case q:
			return i, true
		case '\n':
			return 0, false
		}
	}
	return 0, false
}

// interpolationEnd returns the offset of the '}' matching the '{' at open.
func interpolationEnd(src string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '"', '\'':
			end, ok := stringEnd(src, i)
			if !ok {
				return 0, false
			}
			i = end
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// statement classifies a block-less statement. A statement is a declaration
// when it has a property-shaped name before its first top-level colon.
func statement(text string) *node {
	trimmed := strings.TrimRight(text, spaceChars)
	semiBefore := text[len(trimmed):]

	colon := topLevelColon(trimmed)
	if colon <= 0 || trimmed[0] == '@' {
		return &node{kind: rawNode, text: trimmed, semiBefore: semiBefore}
	}

	name := strings.TrimRight(trimmed[:colon], spaceChars)
	if !isPropertyName(name) {
		return &node{kind: rawNode, text: trimmed, semiBefore: semiBefore}
	}

	rest := trimmed[colon+1:]
	value := strings.TrimLeft(rest, spaceChars)
	return &node{
		kind:        declNode,
		property:    name,
		colonBefore: trimmed[len(name):colon],
		colonAfter:  rest[:len(rest)-len(value)],
		value:       value,
		semiBefore:  semiBefore,
	}
}

func topLevelColon(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\'':
			end, ok := stringEnd(s, i)
			if !ok {
				return -1
			}
			i = end
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '{':
			if i > 0 && (s[i-1] == '#' || s[i-1] == '@') {
				end, ok := interpolationEnd(s, i)
				if !ok {
					return -1
				}
				i = end
			}
		case ':':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isPropertyName accepts plain, vendor-prefixed, custom (--x) and scss
// variable ($x) names, plus the *zoom and _height hacks.
func isPropertyName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_':
		case (c == '$' || c == '*') && i == 0:
		default:
			return false
		}
	}
	return true
}
