package engine

import (
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
)

var cssLang = sitter.NewLanguage(tree_sitter_css.Language())

var cssParserPool = sync.Pool{
	New: func() any {
		parser := sitter.NewParser()
		if err := parser.SetLanguage(cssLang); err != nil {
			panic(fmt.Sprintf("failed to set CSS language: %v", err))
		}
		return parser
	},
}

// validateCSS parses text with the tree-sitter CSS grammar and reports the
// first ERROR or MISSING node.
func validateCSS(text string) *SyntaxError {
	parser := cssParserPool.Get().(*sitter.Parser)
	parser.Reset()
	defer cssParserPool.Put(parser)

	source := []byte(text)
	tree := parser.Parse(source, nil)
	if tree == nil {
		return &SyntaxError{Syntax: "css", Line: 1, Column: 1, Message: "failed to parse CSS"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil
	}

	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPosition()
	msg := fmt.Sprintf("unexpected %q", truncate(bad.Utf8Text(source), 20))
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Kind())
	}
	return &SyntaxError{
		Syntax:  "css",
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Message: msg,
	}
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
