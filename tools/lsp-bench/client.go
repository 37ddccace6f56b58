package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// LSPClient drives a language server process over stdio.
type LSPClient struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	responses map[int]chan json.RawMessage
	mu        sync.Mutex
	writeMu   sync.Mutex
	nextID    int
	reader    *bufio.Reader
	cancel    context.CancelFunc
}

type jsonrpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type jsonrpcNotification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// jsonrpcMessage is anything the server sends: a response to one of our
// requests, a request of its own, or a notification.
type jsonrpcMessage struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewLSPClient starts serverCmd and begins reading its output.
func NewLSPClient(serverCmd string) (*LSPClient, error) {
	parts := strings.Fields(serverCmd)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty server command")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start server: %w", err)
	}

	client := &LSPClient{
		cmd:       cmd,
		stdin:     stdin,
		responses: make(map[int]chan json.RawMessage),
		reader:    bufio.NewReader(stdout),
		cancel:    cancel,
	}
	go client.readMessages()
	return client, nil
}

// readMessage reads one base-protocol message. Header names are matched
// case-insensitively and unknown headers are ignored.
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
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &length); err != nil {
			return nil, fmt.Errorf("bad Content-Length %q: %w", value, err)
		}
	}
	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(r, content); err != nil {
		return nil, err
	}
	return content, nil
}

func (c *LSPClient) readMessages() {
	for {
		content, err := readMessage(c.reader)
		if err != nil {
			return
		}

		var msg jsonrpcMessage
		if err := json.Unmarshal(content, &msg); err != nil {
			continue
		}

		// Server requests (client/registerCapability, workspace/applyEdit)
		// get an empty success so the server is never left waiting.
		if msg.Method != "" {
			if len(msg.ID) > 0 {
				go c.write(map[string]any{"jsonrpc": "2.0", "id": msg.ID, "result": nil})
			}
			continue
		}

		var id int
		if err := json.Unmarshal(msg.ID, &id); err != nil {
			continue
		}
		c.mu.Lock()
		if ch, ok := c.responses[id]; ok {
			ch <- msg.Result
			close(ch)
			delete(c.responses, id)
		}
		c.mu.Unlock()
	}
}

func (c *LSPClient) write(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(data), data)
	return err
}

// newID returns request ids starting at 1.
func (c *LSPClient) newID() (int, chan json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	ch := make(chan json.RawMessage, 1)
	c.responses[c.nextID] = ch
	return c.nextID, ch
}

func (c *LSPClient) call(method string, params any) (json.RawMessage, error) {
	id, respChan := c.newID()

	if err := c.write(jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return nil, err
	}

	select {
	case result := <-respChan:
		return result, nil
	case <-time.After(5 * time.Second):
		c.mu.Lock()
		delete(c.responses, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("timeout waiting for response to %s", method)
	}
}

func (c *LSPClient) notify(method string, params any) error {
	return c.write(jsonrpcNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// Initialize runs the initialize handshake.
func (c *LSPClient) Initialize(rootURI string) error {
	params := map[string]any{
		"processId":    nil,
		"rootUri":      rootURI,
		"capabilities": map[string]any{},
	}
	if _, err := c.call("initialize", params); err != nil {
		return err
	}
	return c.notify("initialized", map[string]any{})
}

// Configure sends csscomb settings.
func (c *LSPClient) Configure(settings map[string]any) error {
	return c.notify("workspace/didChangeConfiguration", map[string]any{
		"settings": map[string]any{"csscomb": settings},
	})
}

// DidOpen sends a textDocument/didOpen notification
func (c *LSPClient) DidOpen(uri, languageID, text string) error {
	return c.notify("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

var formattingOptions = map[string]any{"tabSize": 2, "insertSpaces": true}

// Formatting sends a textDocument/formatting request and returns the
// number of edits.
func (c *LSPClient) Formatting(uri string) (int, error) {
	return c.edits("textDocument/formatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"options":      formattingOptions,
	})
}

// RangeFormatting formats lines [startLine, endLine).
func (c *LSPClient) RangeFormatting(uri string, startLine, endLine int) (int, error) {
	return c.edits("textDocument/rangeFormatting", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"range": map[string]any{
			"start": map[string]any{"line": startLine, "character": 0},
			"end":   map[string]any{"line": endLine, "character": 0},
		},
		"options": formattingOptions,
	})
}

func (c *LSPClient) edits(method string, params any) (int, error) {
	raw, err := c.call(method, params)
	if err != nil {
		return 0, err
	}
	var edits []json.RawMessage
	if err := json.Unmarshal(raw, &edits); err != nil {
		return 0, fmt.Errorf("unexpected %s result %s: %w", method, raw, err)
	}
	return len(edits), nil
}

// Close shuts down the LSP server
func (c *LSPClient) Close() error {
	_, _ = c.call("shutdown", nil)
	_ = c.notify("exit", nil)
	c.cancel()
	_ = c.stdin.Close()
	return c.cmd.Wait()
}

// GetProcessMemory returns the server's resident set size (Linux only).
func (c *LSPClient) GetProcessMemory() (uint64, error) {
	if c.cmd.Process == nil {
		return 0, fmt.Errorf("process not started")
	}
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", c.cmd.Process.Pid))
	if err != nil {
		return 0, err
	}
	return parseRSS(data)
}

func parseRSS(status []byte) (uint64, error) {
	for _, line := range bytes.Split(status, []byte("\n")) {
		if !bytes.HasPrefix(line, []byte("VmRSS:")) {
			continue
		}
		var size uint64
		var unit string
		if _, err := fmt.Sscanf(string(line), "VmRSS: %d %s", &size, &unit); err != nil {
			return 0, err
		}
		if unit == "kB" {
			return size * 1024, nil
		}
		return size, nil
	}
	return 0, fmt.Errorf("could not parse memory usage")
}
