package workspace

import (
	"fmt"

	"bennypowers.dev/csscomb/internal/log"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LogError logs an error message to stderr and optionally to the LSP client
func LogError(context *glsp.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Error("%s", message)
	notifyLog(context, protocol.MessageTypeError, message)
}

// LogWarning logs a warning message to stderr and optionally to the LSP client
func LogWarning(context *glsp.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Warn("%s", message)
	notifyLog(context, protocol.MessageTypeWarning, message)
}

// LogInfo logs an informational message to stderr and optionally to the LSP client
func LogInfo(context *glsp.Context, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	log.Info("%s", message)
	notifyLog(context, protocol.MessageTypeInfo, message)
}

// ShowMessage sends a message to be displayed to the user
func ShowMessage(context *glsp.Context, messageType protocol.MessageType, message string) {
	if context == nil || context.Notify == nil {
		return
	}
	go func() {
		context.Notify(protocol.ServerWindowShowMessage, &protocol.ShowMessageParams{
			Type:    messageType,
			Message: Prefix + message,
		})
	}()
}

// Prefix marks every message this server sends to the client's output.
const Prefix = "[CSSComb] "

// notifyLog sends window/logMessage off the handler goroutine so a slow
// client cannot stall the request.
func notifyLog(context *glsp.Context, messageType protocol.MessageType, message string) {
	if context == nil || context.Notify == nil {
		return
	}
	go func() {
		context.Notify(protocol.ServerWindowLogMessage, &protocol.LogMessageParams{
			Type:    messageType,
			Message: Prefix + message,
		})
	}()
}
