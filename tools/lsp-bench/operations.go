package main

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

func benchmarkInitialization(client *LSPClient, rootURI string) (OperationResult, error) {
	start := time.Now()
	if err := client.Initialize(rootURI); err != nil {
		return OperationResult{}, err
	}
	return computeStats("initialize", []time.Duration{time.Since(start)}), nil
}

// benchmarkOperation times op over iterations. The first error aborts
// the run.
func benchmarkOperation(name string, iterations int, op func() error) (OperationResult, error) {
	latencies := make([]time.Duration, 0, iterations)
	for range iterations {
		start := time.Now()
		if err := op(); err != nil {
			return OperationResult{}, fmt.Errorf("%s: %w", name, err)
		}
		latencies = append(latencies, time.Since(start))
	}
	return computeStats(name, latencies), nil
}

func computeStats(name string, latencies []time.Duration) OperationResult {
	if len(latencies) == 0 {
		return OperationResult{Name: name}
	}

	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum time.Duration
	for _, d := range latencies {
		sum += d
	}

	return OperationResult{
		Name:       name,
		AvgLatency: sum / time.Duration(len(latencies)),
		MinLatency: sorted[0],
		MaxLatency: sorted[len(sorted)-1],
		P50Latency: sorted[len(sorted)*50/100],
		P95Latency: sorted[len(sorted)*95/100],
		P99Latency: sorted[len(sorted)*99/100],
		Iterations: len(latencies),
	}
}

// stylesheet generates n unformatted rules.
func stylesheet(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, ".rule-%d{color:red;margin:0 %dpx;background:url(\"img/%d.png\")}\n", i, i%16, i)
	}
	return sb.String()
}

// markupPage spreads n rules over the given number of <style> elements,
// indented the way templates usually are.
func markupPage(n, blocks int) string {
	var sb strings.Builder
	sb.WriteString("<!doctype html>\n<html>\n  <head>\n")
	per := max(n/max(blocks, 1), 1)
	for b := range blocks {
		sb.WriteString("    <style>\n")
		for i := range per {
			fmt.Fprintf(&sb, "      .b%d-%d{padding:%dpx}\n", b, i, i)
		}
		sb.WriteString("    </style>\n")
	}
	sb.WriteString("  </head>\n  <body></body>\n</html>\n")
	return sb.String()
}

func getMemoryStats(client *LSPClient, uri string) MemoryStats {
	idle, _ := client.GetProcessMemory()
	for range 10 {
		_, _ = client.Formatting(uri)
	}
	underLoad, _ := client.GetProcessMemory()
	return MemoryStats{Idle: idle, UnderLoad: underLoad}
}
