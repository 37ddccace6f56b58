package workspace

import (
	"bennypowers.dev/csscomb/internal/settings"
	"bennypowers.dev/csscomb/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeConfiguration handles the workspace/didChangeConfiguration notification.
// Any settings change can change the resolved config (the preset is a
// setting), so the config cache is dropped as well.
func DidChangeConfiguration(req *types.RequestContext, params *protocol.DidChangeConfigurationParams) error {
	s, err := settings.Parse(params.Settings)
	if err != nil {
		LogWarning(req.GLSP, "Failed to parse settings, using defaults: %v", err)
	}

	req.Server.SetSettings(s)
	req.Server.InvalidateConfig()

	LogInfo(req.GLSP, "Settings updated (formatOnSave: %t, embedded styles: %t, latest core: %t)",
		s.FormatOnSave, s.SupportEmbeddedStyles, s.UseLatestCore)
	return nil
}
