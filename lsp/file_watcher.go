package lsp

import (
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// RegisterFileWatchers asks the client to watch every file that can change
// a resolved config.
func (s *Server) RegisterFileWatchers(context *glsp.Context) error {
	// An empty context (created with &glsp.Context{}) won't have Call initialized
	if context == nil || context.Call == nil {
		log.Info("Skipping file watcher registration (no client context)")
		return nil
	}

	patterns := types.ConfigWatchPatterns()
	watchers := make([]protocol.FileSystemWatcher, 0, len(patterns))
	for _, pattern := range patterns {
		watchers = append(watchers, protocol.FileSystemWatcher{GlobPattern: pattern})
	}

	params := protocol.RegistrationParams{
		Registrations: []protocol.Registration{
			{
				ID:     types.WatcherRegistrationID,
				Method: protocol.MethodWorkspaceDidChangeWatchedFiles,
				RegisterOptions: protocol.DidChangeWatchedFilesRegistrationOptions{
					Watchers: watchers,
				},
			},
		},
	}

	// client/registerCapability is a request. Calling it synchronously from
	// the initialized handler would deadlock: the response is read by the
	// same loop that is blocked waiting for it.
	go func(ctx *glsp.Context) {
		var result any
		ctx.Call(protocol.ServerClientRegisterCapability, params, &result)
		log.Info("File watcher registration completed")
	}(context)

	log.Info("Sent file watcher registration request (%d watchers)", len(watchers))
	return nil
}
