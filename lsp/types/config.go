package types

import (
	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/settings"
)

// ExecuteCommand is the command clients run to format a document on demand.
// Its arguments are the document URI and an optional range.
const ExecuteCommand = "csscomb.execute"

// WatcherRegistrationID identifies the dynamic didChangeWatchedFiles
// registration.
const WatcherRegistrationID = "csscomb-config-watcher"

// ServerState is a snapshot of the mutable server state, taken under one
// lock so handlers see a consistent root and settings.
type ServerState struct {
	RootURI  string
	RootPath string
	Settings settings.Settings
}

// ConfigWatchPatterns are the globs registered with the client: the
// workspace config file patterns plus package.json.
func ConfigWatchPatterns() []string {
	return append([]string{"**/package.json"}, config.WorkspacePatterns...)
}
