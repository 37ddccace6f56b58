// Package html reads the attributes of <style> start tags with tree-sitter.
package html

import (
	"fmt"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
)

// Parser reads start tag attributes
type Parser struct {
	parser    *sitter.Parser
	attrQuery *sitter.Query
}

var htmlLang = sitter.NewLanguage(tree_sitter_html.Language())

const attrQuerySource = `
	(attribute
		(attribute_name) @attr_name
		[
			(attribute_value) @attr_value
			(quoted_attribute_value (attribute_value) @attr_value)
		]?)
`

// parserPool holds idle parsers. It has no New func so ClosePool can
// drain it.
var parserPool sync.Pool

func newParser() *Parser {
	parser := sitter.NewParser()
	if err := parser.SetLanguage(htmlLang); err != nil {
		panic(fmt.Sprintf("failed to set HTML language: %v", err))
	}
	attrQuery, qerr := sitter.NewQuery(htmlLang, attrQuerySource)
	if qerr != nil {
		panic(fmt.Sprintf("failed to compile attribute query: %v", qerr))
	}
	return &Parser{parser: parser, attrQuery: attrQuery}
}

// AcquireParser gets a parser from the pool, creating one if it is empty
func AcquireParser() *Parser {
	if p, ok := parserPool.Get().(*Parser); ok && p != nil {
		p.parser.Reset()
		return p
	}
	return newParser()
}

// ReleaseParser returns a parser to the pool
func ReleaseParser(p *Parser) {
	if p != nil {
		parserPool.Put(p)
	}
}

// Close closes the parser and releases its resources
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
	if p.attrQuery != nil {
		p.attrQuery.Close()
	}
}

// ClosePool closes the idle parsers in the pool. Parsers acquired later
// are created fresh.
func ClosePool() {
	for {
		p, ok := parserPool.Get().(*Parser)
		if !ok || p == nil {
			return
		}
		p.Close()
	}
}

// Attributes parses a start tag such as `<style lang="scss" scoped>` and
// returns its attributes keyed by lower-cased name. Attributes without a
// value map to "". The first valued occurrence of a repeated attribute wins.
func (p *Parser) Attributes(tag string) map[string]string {
	attrs := map[string]string{}

	// Close the element so the grammar sees a complete style_element.
	source := []byte(tag + "</style>")
	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return attrs
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	names := p.attrQuery.CaptureNames()
	matches := cursor.Matches(p.attrQuery, tree.RootNode(), source)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var name, value string
		for _, capture := range match.Captures {
			node := capture.Node
			text := string(source[node.StartByte():node.EndByte()])
			switch names[capture.Index] {
			case "attr_name":
				name = strings.ToLower(text)
			case "attr_value":
				value = text
			}
		}
		if name == "" {
			continue
		}
		if old, seen := attrs[name]; !seen || (old == "" && value != "") {
			attrs[name] = value
		}
	}
	return attrs
}

// Lang returns the stylesheet language a <style> tag declares: its lang
// attribute, or the subtype of a `type="text/<lang>"` attribute. It
// returns "" when the tag declares neither. The result is lower-cased.
func (p *Parser) Lang(tag string) string {
	attrs := p.Attributes(tag)
	if lang := strings.ToLower(strings.TrimSpace(attrs["lang"])); lang != "" {
		return lang
	}
	if typ, ok := strings.CutPrefix(strings.ToLower(strings.TrimSpace(attrs["type"])), "text/"); ok && typ != "" {
		return typ
	}
	return ""
}
