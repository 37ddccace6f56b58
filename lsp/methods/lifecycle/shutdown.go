package lifecycle

import (
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/lsp/types"
)

// Shutdown handles the LSP shutdown request
func Shutdown(req *types.RequestContext) error {
	log.Info("Server shutting down")
	return req.Server.Close()
}
