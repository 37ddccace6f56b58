package lifecycle

import (
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Initialized handles the LSP initialized notification. Config file changes
// are watched by the client when it can register watchers, and by the
// server otherwise.
func Initialized(req *types.RequestContext, params *protocol.InitializedParams) error {
	log.Info("Server initialized")

	// Store context for notifications sent outside a request
	req.Server.SetGLSPContext(req.GLSP)

	if req.Server.ClientWatchesFiles() {
		if err := req.Server.RegisterFileWatchers(req.GLSP); err != nil {
			req.AddWarning(err)
		}
		return nil
	}

	if err := req.Server.StartConfigWatcher(); err != nil {
		// Don't fail initialization; configs are still read, just not refreshed
		req.AddWarning(err)
	}
	return nil
}
