package lsp

import (
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/lsp/types"
)

// RootURI returns the workspace root URI
func (s *Server) RootURI() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootURI
}

// RootPath returns the workspace root path
func (s *Server) RootPath() string {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.rootPath
}

// SetRootURI sets the workspace root URI
func (s *Server) SetRootURI(uri string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootURI = uri
}

// SetRootPath sets the workspace root path
func (s *Server) SetRootPath(path string) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.rootPath = path
}

// Settings returns a copy of the editor settings
func (s *Server) Settings() settings.Settings {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.settings.Clone()
}

// SetSettings replaces the editor settings
func (s *Server) SetSettings(next settings.Settings) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.settings = next.Clone()
}

// State returns a consistent snapshot of root and settings, so a pass
// never mixes the settings of one didChangeConfiguration with the root of
// another.
func (s *Server) State() types.ServerState {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return types.ServerState{
		RootURI:  s.rootURI,
		RootPath: s.rootPath,
		Settings: s.settings.Clone(),
	}
}

// ClientWatchesFiles reports whether the client registers file watchers
func (s *Server) ClientWatchesFiles() bool {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.watches
}

// SetClientWatchesFiles records the client's watcher capability
func (s *Server) SetClientWatchesFiles(supported bool) {
	s.configMu.Lock()
	defer s.configMu.Unlock()
	s.watches = supported
}
