package documents

import "strings"

type indentKey struct {
	tabs bool
	size int
}

// DetectIndent returns the indentation unit used by text: the most frequent
// change in leading whitespace between consecutive indented lines. It
// returns "" when the text has no indentation.
func DetectIndent(text string) string {
	usage := map[indentKey]int{}
	weight := map[indentKey]int{}

	prev := 0
	var last indentKey
	for line := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		// Mixed leading whitespace does not vote.
		if strings.Contains(lead, " ") && strings.Contains(lead, "\t") {
			continue
		}

		diff := len(lead) - prev
		if diff < 0 {
			diff = -diff
		}
		prev = len(lead)
		if diff == 0 {
			if last.size > 0 {
				weight[last]++
			}
			continue
		}

		key := indentKey{tabs: lead != "" && lead[0] == '\t', size: diff}
		if lead == "" {
			key.tabs = last.tabs
		}
		usage[key]++
		last = key
	}

	var best indentKey
	bestUsage, bestWeight := 0, 0
	for k, u := range usage {
		w := weight[k]
		if u > bestUsage || (u == bestUsage && w > bestWeight) ||
			(u == bestUsage && w == bestWeight && lessKey(k, best)) {
			best, bestUsage, bestWeight = k, u, w
		}
	}
	if bestUsage == 0 {
		return ""
	}
	if best.tabs {
		return strings.Repeat("\t", best.size)
	}
	return strings.Repeat(" ", best.size)
}

func lessKey(a, b indentKey) bool {
	if a.tabs != b.tabs {
		return !a.tabs
	}
	return a.size < b.size
}

// IndentUnit returns the detected unit of text, falling back to the
// client's formatting options and then to two spaces.
func IndentUnit(text string, insertSpaces bool, tabSize int) string {
	if unit := DetectIndent(text); unit != "" {
		return unit
	}
	if tabSize > 0 {
		if !insertSpaces {
			return "\t"
		}
		return strings.Repeat(" ", tabSize)
	}
	return "  "
}
