// Package command implements workspace/executeCommand.
package command

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/csscomb/internal/log"
	"bennypowers.dev/csscomb/lsp/methods/textDocument/formatting"
	"bennypowers.dev/csscomb/lsp/methods/workspace"
	"bennypowers.dev/csscomb/lsp/types"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ExecuteCommand handles workspace/executeCommand. csscomb.execute takes
// the document URI and an optional range, formats the document and asks
// the client to apply the edits in one workspace/applyEdit.
func ExecuteCommand(req *types.RequestContext, params *protocol.ExecuteCommandParams) (any, error) {
	if params.Command != types.ExecuteCommand {
		return nil, fmt.Errorf("unknown command %q", params.Command)
	}

	uri, selection, err := parseArguments(params.Arguments)
	if err != nil {
		return nil, err
	}

	if req.Server.Document(uri) == nil {
		workspace.ShowMessage(req.GLSP, protocol.MessageTypeError, "No active document to format")
		return nil, nil
	}

	edits, err := formatting.Run(req, formatting.Pass{URI: uri, Selection: selection})
	if err != nil {
		return nil, err
	}
	if len(edits) == 0 {
		return nil, nil
	}

	applyEdit(req.GLSP, uri, edits)
	return nil, nil
}

// parseArguments decodes [uri, range?]. The range arrives as a JSON object.
func parseArguments(args []any) (string, *protocol.Range, error) {
	if len(args) == 0 {
		return "", nil, fmt.Errorf("%s: missing document URI", types.ExecuteCommand)
	}
	uri, ok := args[0].(string)
	if !ok || uri == "" {
		return "", nil, fmt.Errorf("%s: document URI must be a string", types.ExecuteCommand)
	}
	if len(args) < 2 || args[1] == nil {
		return uri, nil, nil
	}

	data, err := json.Marshal(args[1])
	if err != nil {
		return "", nil, fmt.Errorf("%s: invalid range: %w", types.ExecuteCommand, err)
	}
	var r protocol.Range
	if err := json.Unmarshal(data, &r); err != nil {
		return "", nil, fmt.Errorf("%s: invalid range: %w", types.ExecuteCommand, err)
	}
	return uri, &r, nil
}

// applyEdit sends workspace/applyEdit. The request goes out from a
// goroutine because the client answers on the same connection the
// handler is blocking.
func applyEdit(ctx *glsp.Context, uri string, edits []protocol.TextEdit) {
	if ctx == nil || ctx.Call == nil {
		return
	}
	label := "CSSComb"
	params := protocol.ApplyWorkspaceEditParams{
		Label: &label,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentUri][]protocol.TextEdit{uri: edits},
		},
	}
	go func() {
		var response protocol.ApplyWorkspaceEditResponse
		ctx.Call(protocol.ServerWorkspaceApplyEdit, params, &response)
		if !response.Applied {
			reason := "no reason given"
			if response.FailureReason != nil {
				reason = *response.FailureReason
			}
			workspace.LogWarning(ctx, "Client did not apply the edit to %s: %s", uri, reason)
			return
		}
		log.Debug("Applied %d edit(s) to %s", len(edits), uri)
	}()
}
