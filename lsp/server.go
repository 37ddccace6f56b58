package lsp

import (
	"context"
	"sync"

	"bennypowers.dev/csscomb/internal/comb"
	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/parser/html"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/watch"
	"bennypowers.dev/csscomb/lsp/methods/lifecycle"
	"bennypowers.dev/csscomb/lsp/methods/textDocument"
	"bennypowers.dev/csscomb/lsp/methods/textDocument/formatting"
	"bennypowers.dev/csscomb/lsp/methods/workspace"
	"bennypowers.dev/csscomb/lsp/methods/workspace/command"
	"bennypowers.dev/csscomb/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

// Verify that Server implements ServerContext interface
var _ types.ServerContext = (*Server)(nil)

// Server represents the CSSComb Language Server
type Server struct {
	documents  *documents.Manager
	configs    *config.Store
	formatter  *format.Formatter
	glspServer *server.Server
	context    *glsp.Context
	rootURI    string            // Workspace root URI
	rootPath   string            // Workspace root path (file system)
	settings   settings.Settings // csscomb.* editor settings
	watches    bool              // Client registers didChangeWatchedFiles dynamically
	configMu   sync.RWMutex      // Protects root, settings, watches and context

	watcher   *watch.Watcher // Server-side config watcher, nil unless started
	watcherMu sync.Mutex
}

// NewServer creates a new CSSComb LSP server. opts configure its config
// store.
func NewServer(opts ...config.Option) (*Server, error) {
	store := config.NewStore(opts...)
	s := &Server{
		documents: documents.NewManager(),
		configs:   store,
		formatter: format.New(comb.NewAdapter(), store),
		settings:  settings.Default(),
	}

	protocolHandler := protocol.Handler{
		Initialize:                      method(s, "initialize", lifecycle.Initialize),
		Initialized:                     notify(s, "initialized", lifecycle.Initialized),
		Shutdown:                        noParam(s, "shutdown", lifecycle.Shutdown),
		SetTrace:                        notify(s, "$/setTrace", lifecycle.SetTrace),
		WorkspaceDidChangeConfiguration: notify(s, "workspace/didChangeConfiguration", workspace.DidChangeConfiguration),
		WorkspaceDidChangeWatchedFiles:  notify(s, "workspace/didChangeWatchedFiles", workspace.DidChangeWatchedFiles),
		WorkspaceExecuteCommand:         method(s, "workspace/executeCommand", command.ExecuteCommand),
		TextDocumentDidOpen:             notify(s, "textDocument/didOpen", textDocument.DidOpen),
		TextDocumentDidChange:           notify(s, "textDocument/didChange", textDocument.DidChange),
		TextDocumentDidClose:            notify(s, "textDocument/didClose", textDocument.DidClose),
		TextDocumentFormatting:          method(s, "textDocument/formatting", formatting.Formatting),
		TextDocumentRangeFormatting:     method(s, "textDocument/rangeFormatting", formatting.RangeFormatting),
		TextDocumentWillSaveWaitUntil:   method(s, "textDocument/willSaveWaitUntil", formatting.WillSaveWaitUntil),
	}

	s.glspServer = server.NewServer(&protocolHandler, lifecycle.ServerName, false)

	return s, nil
}

// RunStdio starts the LSP server using stdio transport
func (s *Server) RunStdio() error {
	return s.glspServer.RunStdio()
}

// Close stops the config watcher and releases the tag parser pool.
// It is safe to call Close multiple times.
func (s *Server) Close() error {
	s.watcherMu.Lock()
	w := s.watcher
	s.watcher = nil
	s.watcherMu.Unlock()

	var err error
	if w != nil {
		err = w.Stop()
	}
	html.ClosePool()
	return err
}

// ServerContext interface implementation

// Document returns the document with the given URI
func (s *Server) Document(uri string) *documents.Document {
	return s.documents.Get(uri)
}

// DocumentManager returns the document manager
func (s *Server) DocumentManager() *documents.Manager {
	return s.documents
}

// AllDocuments returns all tracked documents
func (s *Server) AllDocuments() []*documents.Document {
	return s.documents.GetAll()
}

// Formatter returns the formatter shared by all requests
func (s *Server) Formatter() *format.Formatter {
	return s.formatter
}

// ConfigStore returns the config store behind the formatter
func (s *Server) ConfigStore() *config.Store {
	return s.configs
}

// InvalidateConfig drops every cached config
func (s *Server) InvalidateConfig() {
	s.configs.Invalidate()
}

// GLSPContext returns the GLSP context.
// Access is protected by configMu to prevent concurrent races.
func (s *Server) GLSPContext() *glsp.Context {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.context
}

// SetGLSPContext sets the GLSP context.
// Access is protected by configMu to prevent concurrent races.
func (s *Server) SetGLSPContext(ctx *glsp.Context) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.context = ctx
}

// StartConfigWatcher watches the workspace root for config file changes.
// Without a root there is nothing to watch. Starting twice is a no-op.
func (s *Server) StartConfigWatcher() error {
	root := s.RootPath()
	if root == "" {
		log.Info("No workspace root; config watcher not started")
		return nil
	}

	s.watcherMu.Lock()
	defer s.watcherMu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := watch.New(root, s.InvalidateConfig)
	if err != nil {
		return err
	}
	if err := w.Start(context.Background()); err != nil {
		_ = w.Stop()
		return err
	}
	s.watcher = w
	log.Info("Watching %s for config changes", root)
	return nil
}
