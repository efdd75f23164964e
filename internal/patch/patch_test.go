package patch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearh/internal/project"
)

func newTestProject() *project.Project {
	p := project.New()
	p.Clock = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestParseModificationsKeepsWhitespace(t *testing.T) {
	resp := "Intro\nMODIFY_START:  src/app.js \nFIND:\n  let x = 1;\nREPLACE:\n  let x = 2;\nMODIFY_END\n" +
		"MODIFY_START: b.txt\nFIND:\nold\nREPLACE:\nnew\nMODIFY_END"

	blocks := ParseModifications(resp)
	require.Len(t, blocks, 2)
	assert.Equal(t, ModifyBlock{Path: "src/app.js", Find: "  let x = 1;", Replace: "  let x = 2;\n"}, blocks[0])
	assert.Equal(t, "b.txt", blocks[1].Path)
	assert.Equal(t, "new\n", blocks[1].Replace)
}

func TestParseFilesAndReport(t *testing.T) {
	resp := "Here you go\nFILE_START: index.html\n<p>hi</p>\nFILE_END\n" +
		"MODIFICATION_REPORT_START\n  changed stuff  \nMODIFICATION_REPORT_END\nbye"

	files := ParseFiles(resp)
	require.Len(t, files, 1)
	assert.Equal(t, "index.html", files[0].Path)
	assert.Equal(t, "<p>hi</p>\n", files[0].Content)

	report, ok := ExtractReport(resp)
	require.True(t, ok)
	assert.Equal(t, "changed stuff", report)

	assert.Equal(t, "Here you go\n\n\nbye", Prose(resp))

	_, ok = ExtractReport("nothing here")
	assert.False(t, ok)
}

func TestHideCodeAndPlanDetection(t *testing.T) {
	assert.Equal(t, "Try [Code applied to editor] now", HideCode("Try ```go\nfmt.Println()\n``` now"))

	assert.True(t, IsProjectPlan("## Project Plan\n1. setup"))
	assert.True(t, IsProjectPlan("Project Structure:\n- a"))
	assert.True(t, IsProjectPlan("This project has a structure we implement in steps"))
	assert.False(t, IsProjectPlan("This Project has a Structure we Implement"))
	assert.False(t, IsProjectPlan("just chatting"))
}

func TestResolveExact(t *testing.T) {
	m := Resolve(DefaultChain, "abc\ndef\nghi", "def", "DEF")
	require.Equal(t, Applied, m.Outcome)
	assert.Equal(t, "exact", m.Strategy)
	assert.Equal(t, "abc\nDEF\nghi", m.Content)
}

func TestResolveExactReplacesFirstOccurrenceOnly(t *testing.T) {
	m := Resolve(DefaultChain, "x\nx\n", "x", "y")
	require.Equal(t, Applied, m.Outcome)
	assert.Equal(t, "y\nx\n", m.Content)
}

func TestResolveNormalized(t *testing.T) {
	m := Resolve(DefaultChain, "abc\n  def  \nghi\n", "def", "DEF")
	require.Equal(t, Applied, m.Outcome)
	assert.Equal(t, "exact", m.Strategy)

	// Multi-line find with drifted indentation forces the line window.
	content := "func f() {\n\tif x {\n\t\treturn 1\n\t}\n}\n"
	find := "if x {\n    return 1\n}"
	m = Resolve(DefaultChain, content, find, "\treturn 2")
	require.Equal(t, Applied, m.Outcome)
	assert.Equal(t, "normalized", m.Strategy)
	assert.Equal(t, "func f() {\n\treturn 2\n}\n", m.Content)
}

func TestResolveNormalizedIndentedLine(t *testing.T) {
	content := "abc\n  def  \nghi"
	m := Resolve([]Strategy{normalizedStrategy{}}, content, "def", "DEF")
	require.Equal(t, Applied, m.Outcome)
	assert.Equal(t, "abc\nDEF\nghi", m.Content)
}

func TestResolveNotFound(t *testing.T) {
	content := "const total = 1;\nconst totalCount = 2;\nother\n"
	m := Resolve(DefaultChain, content, "const total = 5;\nmore", "x")
	assert.Equal(t, NotFound, m.Outcome)
	assert.Empty(t, m.Content)

	m = Resolve(DefaultChain, content, "const total", "x")
	assert.Equal(t, Applied, m.Outcome)

	m = Resolve(DefaultChain, "a\nb\n", "", "x")
	assert.Equal(t, NotFound, m.Outcome)
}

func TestFindCandidates(t *testing.T) {
	content := "total\nconst total = 1;\nnothing\nx total y\ntotal\ntotal\ntotal\ntotal\n"
	got := FindCandidates(content, "  total  \nsecond")
	require.Len(t, got, MaxCandidates)
	assert.Equal(t, Candidate{Line: 1, Text: "total"}, got[0])
	assert.Equal(t, Candidate{Line: 2, Text: "const total = 1;"}, got[1])
	assert.Equal(t, 4, got[2].Line)

	assert.Empty(t, FindCandidates(content, "\nzzz"))
}

type sink struct{ msgs []string }

func (s *sink) notify(m string) { s.msgs = append(s.msgs, m) }

func TestApplyModificationsExactOnJSON(t *testing.T) {
	p := newTestProject()
	p.CreateFile("data.json", "abc\ndef\nghi", false)

	var s sink
	saved := 0
	e := NewEngine(p, s.notify, func(context.Context) error { saved++; return nil })

	mods := e.ApplyResponse(context.Background(), "MODIFY_START: data.json\nFIND:\ndef\nREPLACE:\nDEF\nMODIFY_END")
	require.Len(t, mods, 1)

	f, _ := p.File("data.json")
	assert.Equal(t, "abc\nDEF\n\nghi", f.Content)
	assert.Equal(t, "Modified 1 lines", mods[0].Description)
	assert.True(t, mods[0].Success)
	assert.True(t, p.InContext("data.json"))
	assert.Equal(t, 1, saved)
	require.Len(t, s.msgs, 1)
	assert.Contains(t, s.msgs[0], "✅ Successfully modified 1 file(s):")
	assert.Contains(t, s.msgs[0], "• data.json - Modified 1 lines")
}

func TestApplyModificationsAddsRevisionComment(t *testing.T) {
	p := newTestProject()
	p.CreateFile("app.js", "const a = 1;\nconst b = 2;\n", false)
	before, _ := p.File("app.js")

	e := NewEngine(p, nil, nil)
	mods := e.ApplyModifications(context.Background(), []ModifyBlock{
		{Path: "app.js", Find: "const b = 2;", Replace: "const b = 3;"},
	})
	require.Len(t, mods, 1)

	f, _ := p.File("app.js")
	assert.Equal(t, before.Revision+1, f.Revision)
	assert.Contains(t, f.Content, "const b = 3;")
	assert.Contains(t, f.Content, "// File: app.js")
	assert.Contains(t, f.Content, "Revision 2 - AI modification lines ~0")
	// The revision line changes too.
	assert.Equal(t, 2, mods[0].Added)
	assert.Equal(t, 2, mods[0].Removed)
}

func TestApplyModificationsFailedBlockLeavesFileUntouched(t *testing.T) {
	p := newTestProject()
	p.CreateFile("a.json", "one\ntwo\n", false)
	p.CreateFile("b.json", "three\nfour\n", false)
	beforeA, _ := p.File("a.json")

	var s sink
	e := NewEngine(p, s.notify, nil)
	mods := e.ApplyModifications(context.Background(), []ModifyBlock{
		{Path: "a.json", Find: "missing line", Replace: "x"},
		{Path: "ghost.json", Find: "one", Replace: "x"},
		{Path: "b.json", Find: "four", Replace: "FOUR"},
	})

	require.Len(t, mods, 1)
	assert.Equal(t, "b.json", mods[0].File)

	afterA, _ := p.File("a.json")
	assert.Equal(t, beforeA.Content, afterA.Content)
	assert.Equal(t, beforeA.Revision, afterA.Revision)

	b, _ := p.File("b.json")
	assert.Equal(t, "three\nFOUR\n", b.Content)

	require.Len(t, s.msgs, 2)
	assert.Contains(t, s.msgs[0], "⚠️ Could not apply modification to a.json")
	assert.Contains(t, s.msgs[0], "missing line")
	assert.Contains(t, s.msgs[1], "Successfully modified 1 file(s)")
}

func TestApplyModificationsAllFailed(t *testing.T) {
	p := newTestProject()
	p.CreateFile("a.json", "one\n", false)

	var s sink
	e := NewEngine(p, s.notify, func(context.Context) error { return errors.New("unexpected save") })
	mods := e.ApplyModifications(context.Background(), []ModifyBlock{{Path: "a.json", Find: "two", Replace: "x"}})

	assert.Empty(t, mods)
	require.Len(t, s.msgs, 2)
	assert.True(t, strings.HasPrefix(s.msgs[1], "❌ No modifications could be applied."))

	s.msgs = nil
	assert.Empty(t, e.ApplyModifications(context.Background(), nil))
	assert.Empty(t, s.msgs)
}

func TestNotFoundMessageTruncatesFind(t *testing.T) {
	msg := notFoundMessage("x.js", strings.Repeat("a", 250), []Candidate{{Line: 3, Text: "aaa"}})
	assert.Contains(t, msg, strings.Repeat("a", 200)+"...")
	assert.NotContains(t, msg, strings.Repeat("a", 201))
	assert.Contains(t, msg, "Line 3: aaa")
}

func TestNotFoundMessageTruncatesByRune(t *testing.T) {
	msg := notFoundMessage("x.js", strings.Repeat("é", 250), nil)
	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, strings.Repeat("é", 200)+"...")
	assert.NotContains(t, msg, strings.Repeat("é", 201))
}

func TestGenerateProjectFiles(t *testing.T) {
	p := newTestProject()
	var progress []float64
	saved := false
	g := NewGenerator(p, func(done, total int, pct float64) { progress = append(progress, pct) },
		func(context.Context) error { saved = true; return nil })

	resp := "Plan text\nFILE_START: src/main.json\n```json\n{\"a\": 1}\n```\nFILE_END\n" +
		"FILE_START: data.json\n'''\n[1, 2]\n'''\nFILE_END\n"
	paths := g.GenerateProjectFiles(context.Background(), resp)

	assert.Equal(t, []string{"src/main.json", "data.json"}, paths)
	files := p.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "src/main.json", files[0].Path)
	assert.Equal(t, "{\"a\": 1}\n", files[0].Content)
	assert.Equal(t, "data.json", files[1].Path)
	assert.Equal(t, "[1, 2]\n", files[1].Content)

	assert.Equal(t, []float64{50, 100}, progress)
	assert.True(t, saved)
	assert.Equal(t, "src/main.json", p.ActiveFile())
	assert.True(t, p.InContext("data.json"))
}

func TestGenerateProjectFilesOpensReadme(t *testing.T) {
	p := newTestProject()
	g := NewGenerator(p, nil, nil)
	g.GenerateProjectFiles(context.Background(),
		"FILE_START: a.txt\nA\nFILE_END\nFILE_START: docs/README.md\n# Hi\nFILE_END")
	assert.Equal(t, "docs/README.md", p.ActiveFile())

	assert.Empty(t, g.GenerateProjectFiles(context.Background(), "no blocks"))
}

func TestCleanFileContent(t *testing.T) {
	tests := []struct {
		name, path, in, want string
	}{
		{"backtick fence", "a.py", "```python\nprint(1)\n```", "print(1)"},
		{"quote fence", "a.py", "'''\nprint(1)\n'''", "print(1)"},
		{"html", "index.html", "```html\n<p>x</p>\n```", "<p>x</p>"},
		{"html word", "index.html", "html\n<p>x</p>", "<p>x</p>"},
		{"leading blank", "a.txt", "\n\nbody\n\n\n", "body\n"},
		{"plain", "a.txt", "body", "body"},
		{"empty", "a.txt", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanFileContent(tt.in, tt.path))
		})
	}
}

func TestLineStatsAndUnifiedDiff(t *testing.T) {
	added, removed := LineStats("a\nb\nc\n", "a\nB\nc\nd\n")
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)

	diff := UnifiedDiff("f.txt", "a\nb\n", "a\nc\n")
	assert.Equal(t, "--- f.txt\n+++ f.txt\n a\n-b\n+c\n", diff)
}
