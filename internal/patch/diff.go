package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// LineStats counts added and removed lines between two versions.
func LineStats(before, after string) (added, removed int) {
	for _, d := range lineDiffs(before, after) {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

// UnifiedDiff renders a line diff with ---/+++ headers and +/-/space
// prefixed lines.
func UnifiedDiff(filePath, before, after string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", filePath)
	fmt.Fprintf(&b, "+++ %s\n", filePath)

	for _, d := range lineDiffs(before, after) {
		lines := strings.Split(d.Text, "\n")
		for i, line := range lines {
			// Skip empty trailing element from split
			if i == len(lines)-1 && line == "" {
				continue
			}
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				b.WriteString(" " + line + "\n")
			case diffmatchpatch.DiffDelete:
				b.WriteString("-" + line + "\n")
			case diffmatchpatch.DiffInsert:
				b.WriteString("+" + line + "\n")
			}
		}
	}
	return b.String()
}

func lineDiffs(before, after string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
