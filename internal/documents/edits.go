package documents

import (
	"fmt"
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// ApplyEdits applies edits whose ranges all refer to content, as a client
// applies the edits of one formatting response. Overlapping edits are an
// error.
func ApplyEdits(content string, edits []protocol.TextEdit) (string, error) {
	type span struct {
		start, end int
		text       string
	}

	spans := make([]span, 0, len(edits))
	for _, e := range edits {
		start, err := offsetOf(content, e.Range.Start, "start")
		if err != nil {
			return "", err
		}
		end, err := offsetOf(content, e.Range.End, "end")
		if err != nil {
			return "", err
		}
		if start > end {
			start, end = end, start
		}
		spans = append(spans, span{start, end, e.NewText})
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return "", fmt.Errorf("overlapping edits at offset %d", spans[i].start)
		}
	}

	// Back to front, so earlier offsets stay valid.
	for i := len(spans) - 1; i >= 0; i-- {
		s := spans[i]
		content = content[:s.start] + s.text + content[s.end:]
	}
	return content, nil
}
