package workspace

import (
	"bennypowers.dev/csscomb/internal/config"
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/uriutil"
	"bennypowers.dev/csscomb/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeWatchedFiles handles the workspace/didChangeWatchedFiles notification.
// A change to any config file drops the whole config cache; the next pass
// walks the cascade again.
func DidChangeWatchedFiles(req *types.RequestContext, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		path := uriutil.URIToPath(change.URI)
		if !config.IsConfigFile(path) {
			continue
		}
		log.Info("Config file changed: %s (%s)", path, changeName(change.Type))
		req.Server.InvalidateConfig()
		return nil
	}
	return nil
}

func changeName(t protocol.UInteger) string {
	switch t {
	case protocol.FileChangeTypeCreated:
		return "created"
	case protocol.FileChangeTypeChanged:
		return "changed"
	case protocol.FileChangeTypeDeleted:
		return "deleted"
	}
	return "unknown"
}
