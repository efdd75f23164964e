package project

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 8, 12, 19, 59, 39, 0, time.Local)

func newTestProject() *Project {
	p := New()
	p.Clock = func() time.Time { return fixedNow }
	return p
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		key  string
		want Key
	}{
		{"src/app.js", Key{Kind: KindFile, Name: "src/app.js"}},
		{"prompt_prompt_17.txt", Key{Kind: KindPrompt, Name: "prompt_17.txt"}},
		{"instructions_style_guide.md", Key{Kind: KindInstruction, Name: "style_guide.md"}},
		{"agent_tweaker_my_rules.md", Key{Kind: KindAgentInstruction, AgentID: "tweaker", Name: "my_rules.md"}},
		{"agent_", Key{Kind: KindFile, Name: "agent_"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKey(tt.key))
		})
	}
	assert.Equal(t, "agent_debugger_a_b", AgentInstructionKey("debugger", "a_b"))
}

func TestContextSetKeepsInsertionOrder(t *testing.T) {
	s := NewContextSet("b", "a")
	assert.True(t, s.Add("c"))
	assert.False(t, s.Add("a"))
	assert.Equal(t, []string{"b", "a", "c"}, s.Keys())

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Has("a"))
	assert.False(t, s.Toggle("b"))
	assert.True(t, s.Toggle("b"))
	assert.Equal(t, []string{"c", "b"}, s.Keys())
}

func TestCommentSyntax(t *testing.T) {
	assert.Equal(t, "//", CommentSyntax("main.go"))
	assert.Equal(t, "#", CommentSyntax("script.PY"))
	assert.Equal(t, "--", CommentSyntax("db/schema.sql"))
	assert.Equal(t, "<!--", CommentSyntax("index.html"))
	assert.Equal(t, "//", CommentSyntax("Makefile"))
	assert.False(t, SupportsComments("package.json"))
	assert.True(t, IsCodeFile("README.md"))
	assert.False(t, IsCodeFile("notes.txt"))
}

func TestFileHeader(t *testing.T) {
	assert.Equal(t,
		"// File: src/app.js\n// [2025-08-12, 19:59:39] Revision 1 - Initial generation\n\n",
		FileHeader("src/app.js", fixedNow))
	assert.Equal(t,
		"<!-- File: index.html -->\n<!-- [2025-08-12, 19:59:39] Revision 1 - Initial generation -->\n\n",
		FileHeader("index.html", fixedNow))
	assert.Equal(t,
		"/* File: a.css */\n/* [2025-08-12, 19:59:39] Revision 1 - Initial generation */\n\n",
		FileHeader("a.css", fixedNow))
}

func TestAddRevisionComment(t *testing.T) {
	t.Run("replaces the last marker", func(t *testing.T) {
		content := FileHeader("a.py", fixedNow) + "print(1)"
		got := AddRevisionComment("a.py", content, 2, "AI modification", "~1 lines", fixedNow)
		lines := strings.Split(got, "\n")
		assert.Equal(t, "# File: a.py", lines[0])
		assert.Equal(t, "# [2025-08-12, 19:59:39] Revision 2 - AI modification lines ~1 lines", lines[1])
		assert.Equal(t, "print(1)", lines[3])
	})

	t.Run("inserts after the File line", func(t *testing.T) {
		got := AddRevisionComment("a.go", "// File: a.go\npackage a", 2, "AI updated", "", fixedNow)
		assert.Equal(t, "// File: a.go\n// [2025-08-12, 19:59:39] Revision 2 - AI updated\npackage a", got)
	})

	t.Run("prepends without a header", func(t *testing.T) {
		got := AddRevisionComment("a.go", "package a", 3, "AI updated", "", fixedNow)
		assert.Equal(t, "// [2025-08-12, 19:59:39] Revision 3 - AI updated\npackage a", got)
	})

	t.Run("code mentioning revisions is kept", func(t *testing.T) {
		content := "// File: a.go\npackage a\n\nvar Revision = 3\nvar x = arr[20]"
		got := AddRevisionComment("a.go", content, 2, "AI updated", "", fixedNow)
		assert.Equal(t, "// File: a.go\n// [2025-08-12, 19:59:39] Revision 2 - AI updated\npackage a\n\nvar Revision = 3\nvar x = arr[20]", got)
	})

	t.Run("markup markers are matched", func(t *testing.T) {
		content := FileHeader("a.css", fixedNow) + ".a { width: 20px; } /* Revision note */"
		got := AddRevisionComment("a.css", content, 2, "AI updated", "", fixedNow)
		lines := strings.Split(got, "\n")
		assert.Equal(t, "/* [2025-08-12, 19:59:39] Revision 2 - AI updated */", lines[1])
		assert.Equal(t, ".a { width: 20px; } /* Revision note */", lines[3])
	})

	t.Run("json is left alone", func(t *testing.T) {
		assert.Equal(t, "{}", AddRevisionComment("a.json", "{}", 2, "x", "", fixedNow))
	})
}

func TestCreateFileBuildsFoldersAndHeader(t *testing.T) {
	p := newTestProject()

	created := p.CreateFile("src/components/App.jsx", "export default 1;\n", true)
	require.True(t, created)

	f, ok := p.File("src/components/App.jsx")
	require.True(t, ok)
	assert.Equal(t, "App.jsx", f.Name)
	assert.Equal(t, 1, f.Revision)
	assert.True(t, strings.HasPrefix(f.Content, "// File: src/components/App.jsx\n"))
	assert.True(t, p.InContext("src/components/App.jsx"))

	folders := p.Folders()
	require.Len(t, folders, 2)
	assert.Equal(t, "src", folders[0].Path)
	assert.Equal(t, []string{"src/components"}, folders[0].Children)
	assert.Equal(t, []string{"src/components/App.jsx"}, folders[1].Children)
}

func TestCreateFileJSONHasNoRevision(t *testing.T) {
	p := newTestProject()
	p.CreateFile("package.json", "{}", false)

	f, _ := p.File("package.json")
	assert.Equal(t, "{}", f.Content)
	assert.Equal(t, 0, f.Revision)
	assert.False(t, p.InContext("package.json"))
}

func TestCreateFileOverwriteBumpsRevision(t *testing.T) {
	p := newTestProject()
	p.CreateFile("main.go", "package main\n", false)

	created := p.CreateFile("main.go", "package main\n\nfunc main() {}\n", true)
	assert.False(t, created)

	f, _ := p.File("main.go")
	assert.Equal(t, 2, f.Revision)
	assert.True(t, strings.HasPrefix(f.Content, "// [2025-08-12, 19:59:39] Revision 2 - AI updated\n"))
	assert.True(t, p.InContext("main.go"))
}

func TestTree(t *testing.T) {
	p := newTestProject()
	p.CreateFile("src/app.js", "", false)
	p.CreateFile("README.md", "", false)
	p.CreateFile("src/lib/util.js", "", false)

	want := strings.Join([]string{
		"├── src/",
		"  ├── app.js",
		"  ├── lib/",
		"    ├── util.js",
		"├── README.md",
	}, "\n")
	assert.Equal(t, want, p.Tree())
}

func TestSnapshotRestoresState(t *testing.T) {
	p := newTestProject()
	p.CreateFile("a/b.txt", "hello", true)
	p.PutInstruction(Attachment{Name: "rules.md", Content: "be nice"})
	p.AppendChat("user", "hi")
	require.NoError(t, p.OpenFile("a/b.txt"))

	data, err := p.MarshalSnapshot()
	require.NoError(t, err)

	restored, err := UnmarshalSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, p.ID(), restored.ID())
	assert.Equal(t, p.ContextKeys(), restored.ContextKeys())
	assert.Equal(t, "a/b.txt", restored.ActiveFile())
	assert.Equal(t, p.Tree(), restored.Tree())
	assert.Equal(t, []ChatTurn{{Role: "user", Content: "hi"}}, restored.RecentChat(10))
	_, ok := restored.Instruction("rules.md")
	assert.True(t, ok)
}

func TestAddLongPrompt(t *testing.T) {
	p := newTestProject()
	name := p.AddLongPrompt(strings.Repeat("x", 2500))

	assert.Equal(t, "prompt_"+strconv.FormatInt(fixedNow.UnixMilli(), 10)+".txt", name)
	assert.True(t, p.InContext("prompt_"+name))
	a, ok := p.Prompt(name)
	require.True(t, ok)
	assert.True(t, a.IsLongPrompt)
	assert.Equal(t, 2500, a.Size)
}

func TestDeleteFile(t *testing.T) {
	p := newTestProject()
	p.CreateFile("x/y.go", "package x", true)
	require.NoError(t, p.OpenFile("x/y.go"))

	require.NoError(t, p.DeleteFile("x/y.go"))
	assert.ErrorIs(t, p.DeleteFile("x/y.go"), ErrFileNotFound)
	assert.False(t, p.InContext("x/y.go"))
	assert.Empty(t, p.ActiveFile())
	assert.Equal(t, "├── x/", p.Tree())
}

func TestImportDirHonorsExcludes(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	write("main.go", "package main")
	write("pkg/util.go", "package pkg")
	write("node_modules/dep/index.js", "module.exports = 1")
	write("bin.dat", "a\x00b")

	p := newTestProject()
	n, err := p.ImportDir(root, []string{"**/node_modules/**"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, ok := p.File("pkg/util.go")
	require.True(t, ok)
	assert.Equal(t, "package pkg", f.Content)
	assert.Equal(t, "Go", f.Language)
	_, ok = p.File("node_modules/dep/index.js")
	assert.False(t, ok)
}

func TestExcluded(t *testing.T) {
	assert.True(t, Excluded("dist/app.js", []string{"**/dist/**"}))
	assert.True(t, Excluded("yarn.lock", []string{"**/*.lock"}))
	assert.False(t, Excluded("src/app.js", []string{"**/dist/**"}))
}
