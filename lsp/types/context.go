package types

import (
	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/settings"
	"github.com/tliron/glsp"
)

// ServerContext provides all dependencies needed for LSP handlers.
// Handlers depend on this interface so tests can swap in a mock.
type ServerContext interface {
	// Document operations
	Document(uri string) *documents.Document
	DocumentManager() *documents.Manager
	AllDocuments() []*documents.Document

	// Workspace operations
	RootURI() string
	RootPath() string
	SetRootURI(uri string)
	SetRootPath(path string)
	State() ServerState

	// Editor settings (the csscomb.* section)
	Settings() settings.Settings
	SetSettings(s settings.Settings)

	// Formatting
	Formatter() *format.Formatter
	InvalidateConfig()

	// Config file watching. Clients that support dynamic registration get
	// glob watchers; the others get a server-side fsnotify watcher.
	ClientWatchesFiles() bool
	SetClientWatchesFiles(supported bool)
	RegisterFileWatchers(ctx *glsp.Context) error
	StartConfigWatcher() error

	// LSP context (for notifications outside a request)
	GLSPContext() *glsp.Context
	SetGLSPContext(ctx *glsp.Context)

	// Close stops the watcher and releases parser pools.
	Close() error
}
