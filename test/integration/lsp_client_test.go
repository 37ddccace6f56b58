package integration_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"bennypowers.dev/csscomb/test/integration/testutil"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var (
	buildOnce  sync.Once
	binaryPath string
	buildErr   error
)

// buildServer compiles the server binary once per test run.
func buildServer(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			buildErr = err
			return
		}
		projectRoot := filepath.Join(cwd, "..", "..")
		binaryPath = filepath.Join(os.TempDir(), "csscomb-language-server-test")

		cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/csscomb-language-server")
		cmd.Dir = projectRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("failed to build server: %w: %s", err, output)
		}
	})
	require.NoError(t, buildErr)
	return binaryPath
}

type response struct {
	Result json.RawMessage
	Error  json.RawMessage
}

// ServerMessage is a request or notification sent by the server.
type ServerMessage struct {
	Method string
	Params json.RawMessage
}

// LSPClient talks to a server process over stdio.
type LSPClient struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	reader    *bufio.Reader
	msgID     int
	responses map[int]chan response
	received  []ServerMessage
	writeMu   sync.Mutex
	mu        sync.Mutex
	t         *testing.T
}

// NewLSPClient starts a server with a clean home directory.
func NewLSPClient(t *testing.T) *LSPClient {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping stdio integration test in short mode")
	}

	serverCmd := exec.Command(buildServer(t), "--log-level", "debug")
	serverCmd.Env = testutil.ServerEnv(t.TempDir())
	stdin, err := serverCmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := serverCmd.StdoutPipe()
	require.NoError(t, err)
	stderr, err := serverCmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, serverCmd.Start())

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			t.Logf("[SERVER] %s", scanner.Text())
		}
	}()

	c := &LSPClient{
		cmd:       serverCmd,
		stdin:     stdin,
		reader:    bufio.NewReader(stdout),
		responses: map[int]chan response{},
		t:         t,
	}
	go c.readMessages()
	t.Cleanup(c.Close)
	return c
}

// Close shuts the server down and waits for it to exit.
func (c *LSPClient) Close() {
	id := c.sendRequest("shutdown", nil)
	_, _ = c.waitForResponse(id, 2*time.Second)
	c.sendNotification("exit", nil)
	_ = c.stdin.Close()

	done := make(chan struct{})
	go func() {
		_ = c.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = c.cmd.Process.Kill()
		<-done
	}
}

func (c *LSPClient) sendRequest(method string, params any) int {
	c.mu.Lock()
	c.msgID++
	id := c.msgID
	c.responses[id] = make(chan response, 1)
	c.mu.Unlock()

	c.sendMessage(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	return id
}

func (c *LSPClient) sendNotification(method string, params any) {
	c.sendMessage(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (c *LSPClient) sendMessage(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Errorf("marshal message: %v", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	// Errors after the server has exited are expected during Close.
	_, _ = fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n", len(data))
	_, _ = c.stdin.Write(data)
}

func (c *LSPClient) waitForResponse(id int, timeout time.Duration) (json.RawMessage, error) {
	c.mu.Lock()
	ch, ok := c.responses[id]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no response channel for message ID %d", id)
	}

	select {
	case res := <-ch:
		if len(res.Error) > 0 {
			return nil, fmt.Errorf("server error: %s", res.Error)
		}
		return res.Result, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for response to message %d", id)
	}
}

func (c *LSPClient) readMessages() {
	for {
		content, err := readMessage(c.reader)
		if err != nil {
			return
		}

		var message struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			Result json.RawMessage `json:"result"`
			Error  json.RawMessage `json:"error"`
		}
		if err := json.Unmarshal(content, &message); err != nil {
			continue
		}

		if message.Method != "" {
			c.mu.Lock()
			c.received = append(c.received, ServerMessage{Method: message.Method, Params: message.Params})
			c.mu.Unlock()
			if len(message.ID) > 0 {
				go c.reply(message.ID, message.Method)
			}
			continue
		}

		var id int
		if err := json.Unmarshal(message.ID, &id); err != nil {
			continue
		}
		c.mu.Lock()
		if ch, ok := c.responses[id]; ok {
			ch <- response{Result: message.Result, Error: message.Error}
		}
		c.mu.Unlock()
	}
}

// reply answers server requests the way an editor would.
func (c *LSPClient) reply(id json.RawMessage, method string) {
	var result any
	if method == protocol.ServerWorkspaceApplyEdit {
		result = protocol.ApplyWorkspaceEditResponse{Applied: true}
	}
	c.sendMessage(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result":  result,
	})
}

func readMessage(r *bufio.Reader) ([]byte, error) {
	length := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(name, "Content-Length") {
			if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &length); err != nil {
				return nil, err
			}
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}
	content := make([]byte, length)
	_, err := io.ReadFull(r, content)
	return content, err
}

// Received returns what the server has sent with the given method so far.
func (c *LSPClient) Received(method string) []ServerMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ServerMessage
	for _, m := range c.received {
		if m.Method == method {
			out = append(out, m)
		}
	}
	return out
}

// LogMessages returns the text of every window/logMessage received.
func (c *LSPClient) LogMessages() []string {
	var out []string
	for _, m := range c.Received(protocol.ServerWindowLogMessage) {
		var params protocol.LogMessageParams
		if json.Unmarshal(m.Params, &params) == nil {
			out = append(out, params.Message)
		}
	}
	return out
}

func (c *LSPClient) call(method string, params any, result any) error {
	id := c.sendRequest(method, params)
	raw, err := c.waitForResponse(id, 5*time.Second)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(raw, result)
}

// Initialize runs the initialize handshake against rootURI.
func (c *LSPClient) Initialize(rootURI string, options map[string]any) (*protocol.InitializeResult, error) {
	params := map[string]any{
		"processId": nil,
		"rootUri":   rootURI,
		"capabilities": map[string]any{
			"workspace": map[string]any{
				"didChangeWatchedFiles": map[string]any{"dynamicRegistration": true},
			},
		},
	}
	if options != nil {
		params["initializationOptions"] = options
	}

	var res protocol.InitializeResult
	if err := c.call("initialize", params, &res); err != nil {
		return nil, err
	}
	c.sendNotification("initialized", map[string]any{})
	return &res, nil
}

// DidOpen opens a document at version 1.
func (c *LSPClient) DidOpen(uri, languageID, text string) {
	c.sendNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

// DidChangeConfiguration sends new editor settings.
func (c *LSPClient) DidChangeConfiguration(settings map[string]any) {
	c.sendNotification("workspace/didChangeConfiguration", map[string]any{"settings": settings})
}

// DidChangeWatchedFiles reports a changed file.
func (c *LSPClient) DidChangeWatchedFiles(uri string) {
	c.sendNotification("workspace/didChangeWatchedFiles", map[string]any{
		"changes": []map[string]any{{"uri": uri, "type": protocol.FileChangeTypeChanged}},
	})
}

func formattingOptions() map[string]any {
	return map[string]any{"tabSize": 2, "insertSpaces": true}
}

// Formatting requests whole-document formatting.
func (c *LSPClient) Formatting(uri string) ([]protocol.TextEdit, error) {
	var edits []protocol.TextEdit
	err := c.call("textDocument/formatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"options":      formattingOptions(),
	}, &edits)
	return edits, err
}

// RangeFormatting requests formatting of r.
func (c *LSPClient) RangeFormatting(uri string, r protocol.Range) ([]protocol.TextEdit, error) {
	var edits []protocol.TextEdit
	err := c.call("textDocument/rangeFormatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"range":        r,
		"options":      formattingOptions(),
	}, &edits)
	return edits, err
}

// WillSaveWaitUntil requests the edits to apply before a manual save.
func (c *LSPClient) WillSaveWaitUntil(uri string) ([]protocol.TextEdit, error) {
	var edits []protocol.TextEdit
	err := c.call("textDocument/willSaveWaitUntil", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"reason":       protocol.TextDocumentSaveReasonManual,
	}, &edits)
	return edits, err
}

// ExecuteCommand runs a workspace command.
func (c *LSPClient) ExecuteCommand(command string, args ...any) error {
	return c.call("workspace/executeCommand", map[string]any{
		"command":   command,
		"arguments": args,
	}, nil)
}
