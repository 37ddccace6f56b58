package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestReadMessage(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"result":{"capabilities":{}}}`
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "CRLF", input: fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body), want: body},
		{name: "LF", input: fmt.Sprintf("Content-Length: %d\n\n%s", len(body), body), want: body},
		{name: "Content-Length last", input: fmt.Sprintf("Content-Type: application/json\r\nContent-Length: %d\r\n\r\n%s", len(body), body), want: body},
		{name: "mixed case", input: "CoNtEnT-LeNgTh: 2\r\n\r\n{}", want: "{}"},
		{name: "extra spaces", input: "Content-Length:   2  \r\n\r\n{}", want: "{}"},
		{name: "no Content-Length", input: "Content-Type: application/json\r\n\r\n{}", wantErr: true},
		{name: "invalid value", input: "Content-Length: invalid\r\n\r\n{}", wantErr: true},
		{name: "truncated body", input: "Content-Length: 20\r\n\r\n{}", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadConsecutiveMessages(t *testing.T) {
	input := "Content-Length: 2\r\n\r\n{}Content-Length: 4\r\n\r\nnull"
	r := bufio.NewReader(strings.NewReader(input))
	for _, want := range []string{"{}", "null"} {
		got, err := readMessage(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}

// A request id of 0 is valid and must be sent, so the field has no omitempty.
func TestRequestIDAlwaysSerialized(t *testing.T) {
	for _, id := range []int{0, 1, 42} {
		data, err := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", ID: id, Method: "test"})
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		if want := fmt.Sprintf(`"id":%d`, id); !strings.Contains(string(data), want) {
			t.Errorf("request JSON %s missing %s", data, want)
		}
	}
}

func TestNewIDStartsAtOne(t *testing.T) {
	c := &LSPClient{responses: map[int]chan json.RawMessage{}}
	first, _ := c.newID()
	second, _ := c.newID()
	if first != 1 || second != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", first, second)
	}
}

func TestNotificationHasNoID(t *testing.T) {
	data, err := json.Marshal(jsonrpcNotification{JSONRPC: "2.0", Method: "textDocument/didOpen"})
	if err != nil {
		t.Fatalf("failed to marshal notification: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("notification should not have an id: %s", data)
	}
}

func TestComputeStats(t *testing.T) {
	var latencies []time.Duration
	for i := 100; i >= 1; i-- {
		latencies = append(latencies, time.Duration(i)*time.Millisecond)
	}

	res := computeStats("formatting", latencies)
	if res.Iterations != 100 {
		t.Errorf("iterations = %d", res.Iterations)
	}
	if res.MinLatency != time.Millisecond || res.MaxLatency != 100*time.Millisecond {
		t.Errorf("min/max = %v/%v", res.MinLatency, res.MaxLatency)
	}
	if res.AvgLatency != 50500*time.Microsecond {
		t.Errorf("avg = %v", res.AvgLatency)
	}
	if res.P50Latency != 51*time.Millisecond || res.P95Latency != 96*time.Millisecond || res.P99Latency != 100*time.Millisecond {
		t.Errorf("percentiles = %v/%v/%v", res.P50Latency, res.P95Latency, res.P99Latency)
	}

	if empty := computeStats("none", nil); empty.Iterations != 0 || empty.Name != "none" {
		t.Errorf("empty stats = %+v", empty)
	}
}

func TestParseRSS(t *testing.T) {
	status := []byte("Name:\tcsscomb\nVmPeak:\t  2000 kB\nVmRSS:\t  1500 kB\n")
	got, err := parseRSS(status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1500*1024 {
		t.Errorf("rss = %d", got)
	}

	if _, err := parseRSS([]byte("Name:\tcsscomb\n")); err == nil {
		t.Error("expected an error without VmRSS")
	}
}

func TestGeneratedDocuments(t *testing.T) {
	css := stylesheet(3)
	if got := strings.Count(css, "\n"); got != 3 {
		t.Errorf("stylesheet has %d rules", got)
	}

	page := markupPage(8, 4)
	if got := strings.Count(page, "<style>"); got != 4 {
		t.Errorf("page has %d style blocks", got)
	}
	if !strings.Contains(page, "      .b3-1{padding:1px}\n") {
		t.Errorf("unexpected page:\n%s", page)
	}
}
