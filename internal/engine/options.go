package engine

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"
)

// settings is a parsed Config. Pointer fields distinguish "unset" from a
// false or empty value.
type settings struct {
	alwaysSemicolon         bool
	blockIndent             *string
	colorCase               string
	colorShorthand          *bool
	eofNewline              *bool
	leadingZero             *bool
	linesBetweenRulesets    *int
	quotes                  string
	removeEmptyRulesets     bool
	sortOrder               map[string]int
	sortFallbackABC         bool
	unknownSortIndex        int
	spaceAfterColon         *string
	spaceBeforeColon        *string
	spaceAfterOpeningBrace  *string
	spaceBeforeOpeningBrace *string
	spaceBeforeClosingBrace *string
	spaceBetweenDecls       *string
	stripSpaces             bool
	unitlessZero            bool
}

// Options the engine accepts but leaves to the host editor or does not
// act on.
var passiveOptions = map[string]bool{
	"element-case":                    true,
	"exclude":                         true,
	"space-after-combinator":          true,
	"space-after-selector-delimiter":  true,
	"space-before-combinator":         true,
	"space-before-selector-delimiter": true,
	"tab-size":                        true,
	"template":                        true,
	"vendor-prefix-align":             true,
	"verbose":                         true,
}

func configure(version Version, cfg Config) (settings, error) {
	s := settings{}
	for name, v := range cfg {
		if v == nil || passiveOptions[name] {
			continue
		}
		var err error
		switch name {
		case "always-semicolon":
			s.alwaysSemicolon, err = boolOption(name, v)
		case "block-indent":
			s.blockIndent, err = spaceOption(name, v)
		case "color-case":
			s.colorCase, err = enumOption(name, v, "lower", "upper")
		case "color-shorthand":
			s.colorShorthand, err = boolPtrOption(name, v)
		case "eof-newline":
			s.eofNewline, err = boolPtrOption(name, v)
		case "leading-zero":
			s.leadingZero, err = boolPtrOption(name, v)
		case "lines-between-rulesets":
			if version == Next {
				s.linesBetweenRulesets, err = countOption(name, v)
			}
		case "quotes":
			s.quotes, err = enumOption(name, v, "single", "double")
		case "remove-empty-rulesets":
			s.removeEmptyRulesets, err = boolOption(name, v)
		case "sort-order":
			s.sortOrder, s.unknownSortIndex, err = sortOrderOption(name, v)
		case "sort-order-fallback":
			var fb string
			fb, err = enumOption(name, v, "abc")
			s.sortFallbackABC = fb == "abc"
		case "space-after-colon":
			s.spaceAfterColon, err = spaceOption(name, v)
		case "space-before-colon":
			s.spaceBeforeColon, err = spaceOption(name, v)
		case "space-after-opening-brace":
			s.spaceAfterOpeningBrace, err = spaceOption(name, v)
		case "space-before-opening-brace":
			s.spaceBeforeOpeningBrace, err = spaceOption(name, v)
		case "space-before-closing-brace":
			s.spaceBeforeClosingBrace, err = spaceOption(name, v)
		case "space-between-declarations":
			s.spaceBetweenDecls, err = spaceOption(name, v)
		case "strip-spaces":
			s.stripSpaces, err = boolOption(name, v)
		case "unitless-zero":
			s.unitlessZero, err = boolOption(name, v)
		}
		if err != nil {
			return settings{}, err
		}
	}
	return s, nil
}

func boolOption(name string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, &OptionError{Option: name, Value: v, Want: "true or false"}
	}
	return b, nil
}

func boolPtrOption(name string, v any) (*bool, error) {
	b, err := boolOption(name, v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func enumOption(name string, v any, allowed ...string) (string, error) {
	str, ok := v.(string)
	if !ok || !slices.Contains(allowed, str) {
		return "", &OptionError{Option: name, Value: v, Want: "one of " + strings.Join(allowed, ", ")}
	}
	return str, nil
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 0
	case int64:
		return int(n), n >= 0
	case float64:
		return int(n), n >= 0 && n == math.Trunc(n)
	}
	return 0, false
}

func countOption(name string, v any) (*int, error) {
	n, ok := intValue(v)
	if !ok {
		return nil, &OptionError{Option: name, Value: v, Want: "a non-negative integer"}
	}
	return &n, nil
}

// spaceOption accepts a whitespace-only string or a number of spaces.
func spaceOption(name string, v any) (*string, error) {
	if n, ok := intValue(v); ok {
		ws := strings.Repeat(" ", n)
		return &ws, nil
	}
	str, ok := v.(string)
	if !ok || strings.Trim(str, spaceChars) != "" {
		return nil, &OptionError{Option: name, Value: v, Want: "a number or a whitespace string"}
	}
	return &str, nil
}

func sortOrderOption(name string, v any) (map[string]int, int, error) {
	groups, ok := v.([]any)
	if !ok {
		return nil, 0, &OptionError{Option: name, Value: v, Want: "an array of property names"}
	}
	order := map[string]int{}
	unknown := -1
	idx := 0
	add := func(item any) bool {
		prop, ok := item.(string)
		if !ok {
			return false
		}
		if prop == "..." {
			unknown = idx
		} else if _, seen := order[prop]; !seen {
			order[prop] = idx
		}
		idx++
		return true
	}
	for _, g := range groups {
		if inner, isGroup := g.([]any); isGroup {
			for _, item := range inner {
				if !add(item) {
					return nil, 0, &OptionError{Option: name, Value: v, Want: "an array of property names"}
				}
			}
			continue
		}
		if !add(g) {
			return nil, 0, &OptionError{Option: name, Value: v, Want: "an array of property names"}
		}
	}
	if unknown < 0 {
		unknown = idx
	}
	return order, unknown, nil
}

// applyTree runs the structural options in a fixed order. Spacing options
// run before block-indent so indentation is computed on the final layout.
func (s *settings) applyTree(root *block) {
	walk(root, 0, func(b *block, depth int) {
		if s.removeEmptyRulesets {
			removeEmpty(b)
		}
		for _, n := range b.nodes {
			s.applyNode(n)
		}
		if s.sortOrder != nil {
			s.sort(b)
		}
		s.applySpacing(b, depth)
	})
	if s.blockIndent != nil {
		indent(root, *s.blockIndent, 0)
	}
	if s.stripSpaces {
		walk(root, 0, func(b *block, depth int) {
			if !strings.Contains(b.after, "\n") {
				b.after = ""
			}
		})
	}
}

// walk visits blocks bottom-up so removing an emptied rule sees its
// children already processed.
func walk(b *block, depth int, fn func(*block, int)) {
	for _, n := range b.nodes {
		if n.kind == ruleNode {
			walk(n.body, depth+1, fn)
		}
	}
	fn(b, depth)
}

func (s *settings) applyNode(n *node) {
	switch n.kind {
	case declNode:
		if s.alwaysSemicolon {
			n.semicolon = true
		}
		n.value = s.transformValue(n.value)
		if s.spaceBeforeColon != nil {
			n.colonBefore = *s.spaceBeforeColon
		}
		if s.spaceAfterColon != nil {
			n.colonAfter = *s.spaceAfterColon
		}
	case ruleNode:
		if s.quotes != "" {
			n.prelude = convertQuotes(n.prelude, s.quotes)
		}
		if s.spaceBeforeOpeningBrace != nil {
			n.braceBefore = *s.spaceBeforeOpeningBrace
		}
	case rawNode:
		if s.quotes != "" {
			n.text = convertQuotes(n.text, s.quotes)
		}
	}
}

func (s *settings) transformValue(v string) string {
	if s.quotes != "" {
		v = convertQuotes(v, s.quotes)
	}
	if s.leadingZero != nil {
		v = mapUnquoted(v, func(seg string) string { return leadingZero(seg, *s.leadingZero) })
	}
	if s.unitlessZero {
		v = mapUnquoted(v, unitlessZero)
	}
	if s.colorShorthand != nil || s.colorCase != "" {
		v = mapUnquoted(v, func(seg string) string { return s.hexColors(seg) })
	}
	return v
}

func (s *settings) applySpacing(b *block, depth int) {
	prevDecl := false
	for i, n := range b.nodes {
		switch {
		case i == 0 && depth > 0 && s.spaceAfterOpeningBrace != nil:
			n.before = *s.spaceAfterOpeningBrace
		case n.kind == declNode && prevDecl && s.spaceBetweenDecls != nil:
			n.before = *s.spaceBetweenDecls
		case n.kind == ruleNode && i > 0 && s.linesBetweenRulesets != nil:
			n.before = reindent(strings.Repeat("\n", *s.linesBetweenRulesets+1), lineIndent(n.before))
		}
		prevDecl = n.kind == declNode
	}
	if depth > 0 && s.spaceBeforeClosingBrace != nil {
		b.after = *s.spaceBeforeClosingBrace
	}
}

func removeEmpty(b *block) {
	kept := b.nodes[:0]
	var orphan *string
	for i, n := range b.nodes {
		if n.kind == ruleNode && len(n.body.nodes) == 0 {
			if i == 0 {
				ws := n.before
				orphan = &ws
			}
			continue
		}
		if orphan != nil {
			n.before = *orphan
			orphan = nil
		}
		kept = append(kept, n)
	}
	b.nodes = kept
}

// reindent replaces whatever follows the last newline in ws.
func reindent(ws, prefix string) string {
	i := strings.LastIndexByte(ws, '\n')
	if i < 0 {
		return ws
	}
	return ws[:i+1] + prefix
}

// lineIndent returns the whitespace after the last newline in ws, or "".
func lineIndent(ws string) string {
	i := strings.LastIndexByte(ws, '\n')
	if i < 0 {
		return ""
	}
	return ws[i+1:]
}

// indent applies block-indent. Top-level statements get no indentation.
func indent(b *block, unit string, depth int) {
	prefix := strings.Repeat(unit, depth)
	for i, n := range b.nodes {
		if depth == 0 && i == 0 && !strings.Contains(n.before, "\n") {
			n.before = ""
		} else {
			n.before = reindent(n.before, prefix)
		}
		if n.kind == ruleNode {
			indent(n.body, unit, depth+1)
		}
	}
	if depth > 0 {
		b.after = reindent(b.after, strings.Repeat(unit, depth-1))
	} else {
		b.after = reindent(b.after, "")
	}
}

var vendorPrefix = regexp.MustCompile(`^-(webkit|moz|ms|o)-`)

type sortKey struct {
	group    int
	name     string
	prefixed int
}

func (s *settings) key(prop string) sortKey {
	base := strings.ToLower(prop)
	prefixed := 1
	if stripped := vendorPrefix.ReplaceAllString(base, ""); stripped != base {
		base, prefixed = stripped, 0
	}
	k := sortKey{prefixed: prefixed}
	if idx, ok := s.sortOrder[base]; ok {
		k.group = idx
		return k
	}
	k.group = s.unknownSortIndex
	if s.sortFallbackABC {
		k.name = base
	}
	return k
}

func (s *settings) compare(a, b *node) int {
	ka, kb := s.key(a.property), s.key(b.property)
	return cmp.Or(
		cmp.Compare(ka.group, kb.group),
		cmp.Compare(ka.name, kb.name),
		cmp.Compare(ka.prefixed, kb.prefixed),
	)
}

// sort reorders the declarations of a block among the slots declarations
// already occupy. Variables keep their place. Each slot keeps its leading
// whitespace so the block layout is unchanged.
func (s *settings) sort(b *block) {
	var slots []int
	var decls []*node
	for i, n := range b.nodes {
		if n.kind != declNode || strings.HasPrefix(n.property, "$") || strings.HasPrefix(n.property, "--") {
			continue
		}
		slots = append(slots, i)
		copied := *n
		decls = append(decls, &copied)
	}
	if len(decls) < 2 {
		return
	}

	slices.SortStableFunc(decls, s.compare)

	last := len(b.nodes) - 1
	for i, slot := range slots {
		decls[i].before = b.nodes[slot].before
		if slot != last {
			decls[i].semicolon = true
		}
	}
	for i, slot := range slots {
		b.nodes[slot] = decls[i]
	}
}

var trailingSpace = regexp.MustCompile(`[ \t]+(\r?\n)`)

func (s *settings) applyText(text string) string {
	if s.stripSpaces {
		text = trailingSpace.ReplaceAllString(text, "$1")
		text = strings.TrimRight(text, " \t")
	}
	if s.eofNewline != nil {
		if *s.eofNewline {
			if text != "" && !strings.HasSuffix(text, "\n") {
				text += "\n"
			}
		} else {
			text = strings.TrimRight(text, spaceChars)
		}
	}
	return text
}
