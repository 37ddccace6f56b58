package lifecycle

import (
	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/internal/uriutil"
	"bennypowers.dev/csscomb/internal/version"
	"bennypowers.dev/csscomb/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ServerName is reported in serverInfo.
const ServerName = "csscomb-language-server"

// Initialize handles the LSP initialize request
func Initialize(req *types.RequestContext, params *protocol.InitializeParams) (any, error) {
	clientName := "unknown"
	if params.ClientInfo != nil {
		clientName = params.ClientInfo.Name
	}
	log.Info("Initializing for client: %s", clientName)

	setRoot(req.Server, params)

	watches := supportsWatcherRegistration(params.Capabilities)
	req.Server.SetClientWatchesFiles(watches)
	log.Info("Client file watcher registration: %t", watches)

	// Clients may pass the settings up front instead of waiting for
	// didChangeConfiguration.
	if params.InitializationOptions != nil {
		s, err := settings.Parse(params.InitializationOptions)
		if err != nil {
			req.AddWarning(err)
		} else {
			req.Server.SetSettings(s)
		}
	}

	syncKind := protocol.TextDocumentSyncKindIncremental
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose:         boolPtr(true),
				Change:            &syncKind,
				WillSaveWaitUntil: boolPtr(true),
			},
			DocumentFormattingProvider:      true,
			DocumentRangeFormattingProvider: true,
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{types.ExecuteCommand},
			},
		},
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ServerName,
			Version: strPtr(version.GetVersion()),
		},
	}, nil
}

// setRoot takes the workspace root from rootUri, then the first workspace
// folder, then the deprecated rootPath.
func setRoot(server types.ServerContext, params *protocol.InitializeParams) {
	switch {
	case params.RootURI != nil && *params.RootURI != "":
		server.SetRootURI(*params.RootURI)
		server.SetRootPath(uriutil.URIToPath(*params.RootURI))
	case len(params.WorkspaceFolders) > 0:
		server.SetRootURI(params.WorkspaceFolders[0].URI)
		server.SetRootPath(uriutil.URIToPath(params.WorkspaceFolders[0].URI))
	case params.RootPath != nil && *params.RootPath != "":
		server.SetRootPath(*params.RootPath)
		server.SetRootURI(uriutil.PathToURI(*params.RootPath))
	default:
		log.Info("No workspace root; config discovery limited to presets and user files")
		return
	}
	log.Info("Workspace root: %s", server.RootPath())
}

func supportsWatcherRegistration(caps protocol.ClientCapabilities) bool {
	if caps.Workspace == nil || caps.Workspace.DidChangeWatchedFiles == nil {
		return false
	}
	dyn := caps.Workspace.DidChangeWatchedFiles.DynamicRegistration
	return dyn != nil && *dyn
}

func boolPtr(b bool) *bool {
	return &b
}

func strPtr(s string) *string {
	return &s
}
