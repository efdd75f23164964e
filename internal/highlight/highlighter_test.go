package highlight

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func strip(s string) string { return ansi.ReplaceAllString(s, "") }

func TestHighlightKeepsText(t *testing.T) {
	h := New("")
	code := "package main\n\nfunc main() {}\n"
	assert.Equal(t, code, strip(h.Highlight(code, "go")))
	assert.Equal(t, "plain words", strip(h.Highlight("plain words", "no-such-language")))
}

func TestFileNumbersLines(t *testing.T) {
	out := strip(New("monokai").File("app.js", "a()\nb()", "javascript"))
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "   1 │ a()", lines[0])
	assert.Equal(t, "   2 │ b()", lines[1])
}

func TestDiffKeepsLines(t *testing.T) {
	diff := "--- a.go\n+++ a.go\n x\n-y\n+z"
	assert.Equal(t, diff, strip(New("").Diff(diff)))
}
