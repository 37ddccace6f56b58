package testutil

import (
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Notification is one message the server sent to the client.
type Notification struct {
	Method string
	Params any
}

// MockClient records what the server sends. Calls are answered by
// CallFunc when set, and otherwise left with a zero result.
type MockClient struct {
	mu            sync.Mutex
	notifications []Notification
	calls         []Notification

	CallFunc func(method string, params any, result any)
}

// Context returns a glsp context wired to the recorder.
func (c *MockClient) Context() *glsp.Context {
	return &glsp.Context{
		Notify: func(method string, params any) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.notifications = append(c.notifications, Notification{Method: method, Params: params})
		},
		Call: func(method string, params any, result any) {
			c.mu.Lock()
			c.calls = append(c.calls, Notification{Method: method, Params: params})
			fn := c.CallFunc
			c.mu.Unlock()
			if fn != nil {
				fn(method, params, result)
			}
		},
	}
}

// Notifications returns a copy of the notifications received so far.
func (c *MockClient) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.notifications...)
}

// Calls returns a copy of the requests received so far.
func (c *MockClient) Calls() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.calls...)
}

// LogMessages returns the text of every window/logMessage.
func (c *MockClient) LogMessages() []string {
	var out []string
	for _, n := range c.Notifications() {
		if n.Method != protocol.ServerWindowLogMessage {
			continue
		}
		if p, ok := n.Params.(*protocol.LogMessageParams); ok {
			out = append(out, p.Message)
		}
	}
	return out
}

// ShownMessages returns the text of every window/showMessage.
func (c *MockClient) ShownMessages() []string {
	var out []string
	for _, n := range c.Notifications() {
		if n.Method != protocol.ServerWindowShowMessage {
			continue
		}
		if p, ok := n.Params.(*protocol.ShowMessageParams); ok {
			out = append(out, p.Message)
		}
	}
	return out
}
