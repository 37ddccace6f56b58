package testutil

import (
	"sync"

	"bennypowers.dev/csscomb/internal/comb"
	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/documents"
	"bennypowers.dev/csscomb/internal/format"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/lsp/types"
	"github.com/tliron/glsp"
)

// MockServerContext implements types.ServerContext for testing.
// It provides a minimal implementation with configurable behavior via callback functions.
type MockServerContext struct {
	mu          sync.Mutex
	docs        *documents.Manager
	rootURI     string
	rootPath    string
	settings    settings.Settings
	store       *config.Store
	formatter   *format.Formatter
	glspContext *glsp.Context
	watches     bool

	// Optional callbacks for custom behavior in tests
	RegisterWatchersFunc func(*glsp.Context) error
	StartWatcherFunc     func() error

	// Tracking for tests that need to verify methods were called
	RegisterWatchersCalled bool
	StartWatcherCalled     bool
	Invalidations          int
	Closed                 bool
}

// NewMockServerContext creates a mock with a real formatter. The config
// store never looks at the real home directory or environment.
func NewMockServerContext() *MockServerContext {
	store := config.NewStore(config.WithHome(""), config.WithEnv(func(string) string { return "" }))
	return &MockServerContext{
		docs:      documents.NewManager(),
		settings:  settings.Default(),
		store:     store,
		formatter: format.New(comb.NewAdapter(), store),
	}
}

// Document returns the document with the given URI
func (m *MockServerContext) Document(uri string) *documents.Document {
	return m.docs.Get(uri)
}

// DocumentManager returns the document manager
func (m *MockServerContext) DocumentManager() *documents.Manager {
	return m.docs
}

// AllDocuments returns all tracked documents
func (m *MockServerContext) AllDocuments() []*documents.Document {
	return m.docs.GetAll()
}

// RootURI returns the workspace root URI
func (m *MockServerContext) RootURI() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootURI
}

// RootPath returns the workspace root path
func (m *MockServerContext) RootPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rootPath
}

// SetRootURI sets the workspace root URI
func (m *MockServerContext) SetRootURI(uri string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootURI = uri
}

// SetRootPath sets the workspace root path
func (m *MockServerContext) SetRootPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootPath = path
}

// State returns a snapshot of root and settings
func (m *MockServerContext) State() types.ServerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return types.ServerState{RootURI: m.rootURI, RootPath: m.rootPath, Settings: m.settings.Clone()}
}

// Settings returns the editor settings
func (m *MockServerContext) Settings() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Clone()
}

// SetSettings replaces the editor settings
func (m *MockServerContext) SetSettings(s settings.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings = s
}

// Formatter returns the formatter backed by the mock's config store
func (m *MockServerContext) Formatter() *format.Formatter {
	return m.formatter
}

// ConfigStore exposes the store so tests can check the cache
func (m *MockServerContext) ConfigStore() *config.Store {
	return m.store
}

// InvalidateConfig drops cached configs and counts the call
func (m *MockServerContext) InvalidateConfig() {
	m.mu.Lock()
	m.Invalidations++
	m.mu.Unlock()
	m.store.Invalidate()
}

// ClientWatchesFiles reports whether the client registers file watchers
func (m *MockServerContext) ClientWatchesFiles() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.watches
}

// SetClientWatchesFiles records the client's watcher capability
func (m *MockServerContext) SetClientWatchesFiles(supported bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watches = supported
}

// RegisterFileWatchers registers file watchers with the client
func (m *MockServerContext) RegisterFileWatchers(ctx *glsp.Context) error {
	m.RegisterWatchersCalled = true
	if m.RegisterWatchersFunc != nil {
		return m.RegisterWatchersFunc(ctx)
	}
	return nil
}

// StartConfigWatcher starts the server-side watcher
func (m *MockServerContext) StartConfigWatcher() error {
	m.StartWatcherCalled = true
	if m.StartWatcherFunc != nil {
		return m.StartWatcherFunc()
	}
	return nil
}

// GLSPContext returns the GLSP context
func (m *MockServerContext) GLSPContext() *glsp.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.glspContext
}

// SetGLSPContext sets the GLSP context
func (m *MockServerContext) SetGLSPContext(ctx *glsp.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.glspContext = ctx
}

// Close records the call
func (m *MockServerContext) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
