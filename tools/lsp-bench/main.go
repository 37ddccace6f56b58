// Command lsp-bench measures formatting latency of a language server over
// stdio.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

type BenchmarkResults struct {
	Timestamp   time.Time         `json:"timestamp"`
	Server      string            `json:"server"`
	Preset      string            `json:"preset"`
	Rules       int               `json:"rules"`
	Iterations  int               `json:"iterations"`
	Operations  []OperationResult `json:"operations"`
	MemoryUsage MemoryStats       `json:"memory_usage"`
}

type OperationResult struct {
	Name       string        `json:"name"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	MinLatency time.Duration `json:"min_latency_ns"`
	MaxLatency time.Duration `json:"max_latency_ns"`
	P50Latency time.Duration `json:"p50_latency_ns"`
	P95Latency time.Duration `json:"p95_latency_ns"`
	P99Latency time.Duration `json:"p99_latency_ns"`
	Iterations int           `json:"iterations"`
}

type MemoryStats struct {
	Idle      uint64 `json:"idle_bytes"`
	UnderLoad uint64 `json:"under_load_bytes"`
}

const (
	rootURI = "file:///bench"
	cssURI  = rootURI + "/bench.css"
	scssURI = rootURI + "/bench.scss"
	htmlURI = rootURI + "/bench.html"
)

func main() {
	serverCmd := flag.String("server", "csscomb-language-server", "server command to benchmark")
	iterations := flag.Int("iterations", 100, "number of iterations per operation")
	rules := flag.Int("rules", 200, "rules per generated document")
	preset := flag.String("preset", "csscomb", "built-in preset to format with")
	outputFile := flag.String("output", "benchmark-results.json", "output file for results")
	flag.Parse()

	if err := run(*serverCmd, *preset, *rules, *iterations, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(serverCmd, preset string, rules, iterations int, outputFile string) error {
	fmt.Printf("LSP formatting benchmark\n")
	fmt.Printf("Server: %s\nPreset: %s\nRules: %d\nIterations: %d\n\n", serverCmd, preset, rules, iterations)

	client, err := NewLSPClient(serverCmd)
	if err != nil {
		return fmt.Errorf("failed to start LSP server: %w", err)
	}
	defer func() { _ = client.Close() }()

	results := BenchmarkResults{
		Timestamp:  time.Now(),
		Server:     serverCmd,
		Preset:     preset,
		Rules:      rules,
		Iterations: iterations,
	}

	initResult, err := benchmarkInitialization(client, rootURI)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	results.Operations = append(results.Operations, initResult)

	if err := client.Configure(map[string]any{"preset": preset}); err != nil {
		return err
	}
	css := stylesheet(rules)
	for _, doc := range []struct{ uri, lang, text string }{
		{cssURI, "css", css},
		{scssURI, "scss", css},
		{htmlURI, "html", markupPage(rules, 4)},
	} {
		if err := client.DidOpen(doc.uri, doc.lang, doc.text); err != nil {
			return fmt.Errorf("failed to open %s: %w", doc.uri, err)
		}
	}

	ops := []struct {
		name string
		op   func() error
	}{
		{"formatting (css)", func() error { _, err := client.Formatting(cssURI); return err }},
		{"formatting (scss)", func() error { _, err := client.Formatting(scssURI); return err }},
		{"formatting (html)", func() error { _, err := client.Formatting(htmlURI); return err }},
		{"rangeFormatting", func() error { _, err := client.RangeFormatting(cssURI, 0, max(rules/10, 1)); return err }},
	}
	for _, o := range ops {
		fmt.Printf("Benchmarking %s (%d iterations)...\n", o.name, iterations)
		res, err := benchmarkOperation(o.name, iterations, o.op)
		if err != nil {
			return err
		}
		results.Operations = append(results.Operations, res)
		fmt.Printf("   avg: %v, p95: %v, p99: %v\n", res.AvgLatency, res.P95Latency, res.P99Latency)
	}

	results.MemoryUsage = getMemoryStats(client, cssURI)

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(outputFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	fmt.Printf("\nResults saved to %s\n", outputFile)
	printSummary(results)
	return nil
}

func printSummary(results BenchmarkResults) {
	fmt.Printf("\nSummary\n%s\n", strings.Repeat("=", 18))
	for _, op := range results.Operations {
		fmt.Printf("%-20s: avg=%10v  p95=%10v  p99=%10v\n",
			op.Name,
			op.AvgLatency,
			op.P95Latency,
			op.P99Latency,
		)
	}
	fmt.Printf("\nMemory Usage:\n")
	fmt.Printf("  Idle:       %d bytes (%.2f MB)\n", results.MemoryUsage.Idle, float64(results.MemoryUsage.Idle)/1024/1024)
	fmt.Printf("  Under Load: %d bytes (%.2f MB)\n", results.MemoryUsage.UnderLoad, float64(results.MemoryUsage.UnderLoad)/1024/1024)
}
