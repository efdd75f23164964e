package context

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearh/internal/agent"
	"codearh/internal/config"
	"codearh/internal/project"
)

type staticStatus string

func (s staticStatus) StatusText() string { return string(s) }

func setup(t *testing.T) (*project.Project, *agent.Registry, *Builder) {
	t.Helper()
	p := project.New()
	reg := agent.NewRegistry(config.DefaultConfig().Agents)
	return p, reg, NewBuilder(p, reg, config.DefaultConfig().Context)
}

func mustAgent(t *testing.T, reg *agent.Registry, id string) agent.Agent {
	t.Helper()
	a, ok := reg.Get(id)
	require.True(t, ok)
	return a
}

func TestBuildSectionOrder(t *testing.T) {
	p, reg, b := setup(t)
	p.CreateFile("src/app.js", "console.log(1)", false)
	p.CreateFile("notes.md", "plain notes", false)
	p.AppendChat("user", "hi")
	p.AppendChat("assistant", "hello")
	p.PutInstruction(project.Attachment{Name: "style.md", Content: "use tabs"})
	p.AddPrompt(project.Attachment{Name: "brief.txt", Content: "the brief"})
	p.AddPrompt(project.Attachment{Name: "shot.png", Type: "image/png", Content: "binary"})
	require.NoError(t, reg.AddInstruction(agent.Tweaker, agent.Instruction{Name: "rules.md", Content: "be careful"}, p))

	out := b.Build(mustAgent(t, reg, agent.Tweaker), Options{})

	labels := []string{
		"=== ACTIVE AGENT CONTEXT ===",
		"=== AGENT-SPECIFIC INSTRUCTIONS ===",
		"=== CHAT CONTEXT ===",
		"=== PROJECT STRUCTURE ===",
		"=== AGENT SYSTEM STATUS ===",
		"=== GENERAL INSTRUCTION: style.md ===",
		"=== PROMPT ATTACHMENT: brief.txt ===",
		"=== PROMPT ATTACHMENT: shot.png ===",
		"=== PROJECT FILES (RELEVANT) ===",
		"=== PROJECT FILES (OTHER) ===",
		"=== ENHANCED AGENT GUIDANCE ===",
	}
	last := -1
	for _, l := range labels {
		i := strings.Index(out, l)
		require.GreaterOrEqual(t, i, 0, "missing %s", l)
		assert.Greater(t, i, last, "%s out of order", l)
		last = i
	}

	assert.Contains(t, out, "Agent: Tweaker (🔧)")
	assert.Contains(t, out, "Agent Instructions: 1 custom instruction(s)")
	assert.Contains(t, out, "--- Tweaker Instruction: rules.md ---\nbe careful\n")
	assert.Contains(t, out, "USER: hi\nASSISTANT: hello")
	assert.Contains(t, out, "[Image: shot.png]")
	assert.NotContains(t, out, "binary")
	assert.Contains(t, out, "Agent Instructions Available: Yes")
	assert.Contains(t, out, "✅ All agents active")

	// the code file is relevant to the tweaker, the notes are not
	relevant := strings.Index(out, "=== PROJECT FILES (RELEVANT) ===")
	other := strings.Index(out, "=== PROJECT FILES (OTHER) ===")
	js := strings.Index(out, "=== FILE: src/app.js ===")
	md := strings.Index(out, "=== FILE: notes.md ===")
	assert.True(t, relevant < js && js < other && other < md)
}

func TestBuildSkipsInstructionsNotInContext(t *testing.T) {
	p, reg, b := setup(t)
	require.NoError(t, reg.AddInstruction(agent.Debugger, agent.Instruction{Name: "a.md", Content: "secret"}, p))
	p.RemoveContext(project.AgentInstructionKey(agent.Debugger, "a.md"))

	out := b.Build(mustAgent(t, reg, agent.Debugger), Options{})
	assert.NotContains(t, out, "=== AGENT-SPECIFIC INSTRUCTIONS ===")
	assert.NotContains(t, out, "secret")
	assert.Contains(t, out, "Agent Instructions: 1 custom instruction(s)")
}

func TestBuildNoFiles(t *testing.T) {
	_, reg, b := setup(t)
	out := b.Build(mustAgent(t, reg, agent.Generator), Options{})

	assert.Contains(t, out, "=== NO PROJECT FILES IN CONTEXT ===\nProject files exist: No\nContext enabled: true\nFiles in context set: 0\n")
	assert.NotContains(t, out, "=== AGENT-SPECIFIC INSTRUCTIONS ===")
	assert.Contains(t, out, "Agent Instructions Available: No")
}

func TestBuildProjectContextDisabled(t *testing.T) {
	p, reg, b := setup(t)
	p.SetProjectContextEnabled(false)
	p.CreateFile("index.html", "<p>x</p>", false)
	require.NoError(t, p.OpenFile("index.html"))

	out := b.Build(mustAgent(t, reg, agent.Generator), Options{})
	assert.Contains(t, out, "Project files exist: Yes")
	assert.Contains(t, out, "Context enabled: false")
	assert.Contains(t, out, "=== ACTIVE FILE: index.html ===")
	assert.False(t, p.InContext("index.html"))
}

func TestBuildActiveFileInContextIsNotRepeated(t *testing.T) {
	p, reg, b := setup(t)
	p.CreateFile("index.html", "<p>x</p>", true)
	require.NoError(t, p.OpenFile("index.html"))

	out := b.Build(mustAgent(t, reg, agent.Generator), Options{})
	assert.NotContains(t, out, "=== ACTIVE FILE:")
	assert.Equal(t, 1, strings.Count(out, "=== FILE: index.html ==="))
}

func TestBuildHonorsExcludeGlobs(t *testing.T) {
	p, reg, _ := setup(t)
	cfg := config.DefaultConfig().Context
	cfg.Exclude = []string{"dist/**"}
	b := NewBuilder(p, reg, cfg)
	p.CreateFile("dist/bundle.js", "minified", false)
	p.CreateFile("main.go", "package main", false)

	out := b.Build(mustAgent(t, reg, agent.Generator), Options{})
	assert.Contains(t, out, "=== FILE: main.go ===")
	assert.NotContains(t, out, "=== FILE: dist/bundle.js ===")
}

func TestBuildSimplifiedOmitsChat(t *testing.T) {
	p, reg, b := setup(t)
	p.AppendChat("user", "remember the blue button")

	a := mustAgent(t, reg, agent.Generator)
	out := b.Build(a, Options{Simplify: true})
	assert.Contains(t, out, "=== CHAT CONTEXT (SIMPLIFIED) ===\nChat history omitted to reduce request size for this attempt.")
	assert.NotContains(t, out, "blue button")
	assert.NotContains(t, out, "=== ENHANCED AGENT GUIDANCE ===")
}

func TestBuildSimplifiedEmptyProjectIsShorter(t *testing.T) {
	_, reg, b := setup(t)
	a := mustAgent(t, reg, agent.Generator)

	full := b.Build(a, Options{})
	simple := b.Build(a, Options{Simplify: true})
	assert.LessOrEqual(t, len(simple), len(full))
}

func TestBuildChatWindow(t *testing.T) {
	p, reg, b := setup(t)
	for i := 0; i < 15; i++ {
		p.AppendChat("user", "turn-"+string(rune('a'+i)))
	}
	out := b.Build(mustAgent(t, reg, agent.Generator), Options{})
	assert.NotContains(t, out, "turn-e")
	assert.Contains(t, out, "USER: turn-f")
	assert.Contains(t, out, "USER: turn-o")
}

func TestBuildRecoversFromPanic(t *testing.T) {
	reg := agent.NewRegistry(config.DefaultConfig().Agents)
	b := NewBuilder(nil, staticStatus("ok"), config.DefaultConfig().Context)

	a, _ := reg.Get(agent.Generator)
	out := b.Build(a, Options{})
	assert.True(t, strings.HasPrefix(out, "=== ACTIVE AGENT CONTEXT ==="))
	assert.True(t, strings.HasSuffix(out, "=== ERROR IN CONTEXT PREPARATION ===\nBasic context only\n"))
}

func TestSimplifiedNeverLongerProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("simplified context is no longer than the full context", prop.ForAll(
		func(turns []string, file string) bool {
			p := project.New()
			reg := agent.NewRegistry(config.DefaultConfig().Agents)
			b := NewBuilder(p, reg, config.DefaultConfig().Context)
			for _, turn := range turns {
				p.AppendChat("user", turn)
			}
			if file != "" {
				p.CreateFile("src/"+file+".js", file, false)
			}

			a, _ := reg.Get(agent.Tweaker)
			full := b.Build(a, Options{})
			simple := b.Build(a, Options{Simplify: true})
			return len(simple) <= len(full) &&
				strings.Contains(simple, "=== CHAT CONTEXT (SIMPLIFIED) ===") &&
				!strings.Contains(simple, "USER: ")
		},
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestIsRelevant(t *testing.T) {
	file := func(p, content string) project.VirtualFile {
		name := p
		if i := strings.LastIndex(p, "/"); i >= 0 {
			name = p[i+1:]
		}
		return project.VirtualFile{Path: p, Name: name, Content: content}
	}

	tests := []struct {
		name  string
		file  project.VirtualFile
		agent string
		want  bool
	}{
		{"generator always", file("README.md", ""), agent.Generator, true},
		{"tweaker code ext", file("src/App.TSX", ""), agent.Tweaker, true},
		{"tweaker config name", file("app.config.yaml", ""), agent.Tweaker, true},
		{"tweaker package name", file("package.json", ""), agent.Tweaker, true},
		{"tweaker markdown", file("notes.md", ""), agent.Tweaker, false},
		{"debugger log name", file("server.log", ""), agent.Debugger, true},
		{"debugger exception content", file("a.txt", "NullPointerException at"), agent.Debugger, true},
		{"debugger plain", file("a.txt", "hello"), agent.Debugger, false},
		{"unknown agent", file("a.js", "error"), "reviewer", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRelevant(tt.file, tt.agent))
		})
	}
}

func TestGuidance(t *testing.T) {
	reg := agent.NewRegistry(config.DefaultConfig().Agents)
	a, _ := reg.Get(agent.Debugger)

	g := Guidance(a)
	assert.True(t, strings.HasPrefix(g, "Debugging Guidelines:\n- Identify root causes"))
	assert.NotContains(t, g, "CUSTOM INSTRUCTIONS INTEGRATION")
	assert.Contains(t, g, "\n\nMODEL-SPECIFIC OPTIMIZATION:\n- Current model: gemini-1.5-flash\n")

	require.NoError(t, reg.AddInstruction(agent.Debugger, agent.Instruction{Name: "x", Content: "y"}, nil))
	a, _ = reg.Get(agent.Debugger)
	assert.Contains(t, Guidance(a), "- You have 1 custom instruction(s) loaded for this agent")

	assert.True(t, strings.HasPrefix(Guidance(agent.Agent{ID: "other", Model: "m"}), "\n\nMODEL-SPECIFIC OPTIMIZATION:"))
}
