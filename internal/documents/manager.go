package documents

import (
	"fmt"
	"strings"
	"sync"

	"bennypowers.dev/csscomb/internal/position"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Manager tracks the documents the client has open.
type Manager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		documents: make(map[string]*Document),
	}
}

// Get returns the open document for uri, or nil.
func (m *Manager) Get(uri string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documents[uri]
}

func (m *Manager) GetAll() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	return docs
}

func (m *Manager) DidOpen(uri, languageID string, version int, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[uri] = NewDocument(uri, languageID, version, content)
	return nil
}

func (m *Manager) DidClose(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; !exists {
		return fmt.Errorf("document not found: %s", uri)
	}
	delete(m.documents, uri)
	return nil
}

// DidChange applies full or incremental content changes in order. Nothing
// is committed if any change is out of bounds.
func (m *Manager) DidChange(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[uri]
	if !exists {
		return fmt.Errorf("document not found: %s", uri)
	}

	content := doc.Content()
	for _, change := range changes {
		if change.Range == nil {
			content = change.Text
			continue
		}
		next, err := applyIncrementalChange(content, *change.Range, change.Text)
		if err != nil {
			return fmt.Errorf("failed to apply changes: %w", err)
		}
		content = next
	}

	if err := doc.SetContent(content, version); err != nil {
		return fmt.Errorf("failed to set document content: %w", err)
	}
	return nil
}

// applyIncrementalChange splices text into content over r. A position one
// line past the last line (character 0) addresses the end of the document.
func applyIncrementalChange(content string, r protocol.Range, text string) (string, error) {
	start, err := offsetOf(content, r.Start, "start")
	if err != nil {
		return "", err
	}
	end, err := offsetOf(content, r.End, "end")
	if err != nil {
		return "", err
	}
	if start > end {
		start, end = end, start
	}
	return content[:start] + text + content[end:], nil
}

func offsetOf(content string, pos protocol.Position, which string) (int, error) {
	lines := strings.Count(content, "\n") + 1
	line := int(pos.Line)
	switch {
	case line < lines:
		return position.LineColToOffset(content, pos.Line, pos.Character), nil
	case line == lines && pos.Character == 0:
		return len(content), nil
	default:
		return 0, fmt.Errorf("%s line %d out of bounds (total lines: %d)", which, line, lines)
	}
}
