package router

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codearh/internal/agent"
	"codearh/internal/config"
)

func registryWith(enabled map[string]bool) *agent.Registry {
	cfg := config.DefaultConfig().Agents
	cfg.Overrides = make(map[string]config.AgentOverride)
	for id, on := range enabled {
		on := on
		cfg.Overrides[id] = config.AgentOverride{Enabled: &on}
	}
	return agent.NewRegistry(cfg)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		hasFiles bool
		disabled []string
		want     string
	}{
		{name: "debugging keywords", message: "Fix the bug in login", want: agent.Debugger},
		{name: "new project", message: "create a new project", want: agent.Generator},
		{name: "modification", message: "Refactor and tweak the header", hasFiles: true, want: agent.Tweaker},
		{name: "no keywords falls back", message: "hello there", want: agent.Generator},
		{name: "file bonus wins without keywords", message: "hello there", hasFiles: true, want: agent.Tweaker},
		{name: "tie keeps declaration order", message: "modify broken", want: agent.Tweaker},
		{name: "disabled fallback uses first enabled", message: "hello", disabled: []string{agent.Generator}, want: agent.Tweaker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := map[string]bool{}
			for _, id := range tt.disabled {
				enabled[id] = false
			}
			r := NewRouter(registryWith(enabled))
			got := r.Select(tt.message, tt.hasFiles)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestSelectRecordsHistory(t *testing.T) {
	reg := registryWith(nil)
	r := NewRouter(reg)
	stamp := time.Date(2025, 8, 12, 19, 59, 39, 0, time.UTC)
	r.Clock = func() time.Time { return stamp }

	long := "fix " + strings.Repeat("x", 200)
	got := r.Select(long, true)
	require.NotNil(t, got)

	s := reg.Settings()
	require.Len(t, s.RequestHistory, 1)
	sel := s.RequestHistory[0]
	assert.Equal(t, stamp, sel.Timestamp)
	assert.Len(t, sel.Message, 100)
	assert.Equal(t, agent.Debugger, sel.SelectedAgent)
	assert.True(t, sel.Context.HasFiles)
	assert.True(t, sel.Context.HasErrors)
	assert.False(t, sel.Context.IsNewProject)
	assert.Equal(t, agent.Debugger, s.LastUsedAgent)
}

func TestSelectNoneEnabled(t *testing.T) {
	reg := registryWith(map[string]bool{agent.Generator: false, agent.Tweaker: false, agent.Debugger: false})
	r := NewRouter(reg)
	assert.Nil(t, r.Select("create an app", false))
	assert.Empty(t, reg.Settings().RequestHistory)
}

func TestSelectNilIffNoneEnabled(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("select returns nil exactly when every agent is disabled", prop.ForAll(
		func(g, tw, d bool, message string) bool {
			r := NewRouter(registryWith(map[string]bool{
				agent.Generator: g,
				agent.Tweaker:   tw,
				agent.Debugger:  d,
			}))
			got := r.Select(message, false)
			if !g && !tw && !d {
				return got == nil
			}
			return got != nil && got.Enabled
		},
		gen.Bool(), gen.Bool(), gen.Bool(), gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestScore(t *testing.T) {
	kw := []string{"build", "new project"}

	assert.Equal(t, 0, Score(kw, "hello"))
	// substring only
	assert.Equal(t, 5, Score(kw, "rebuilding"))
	// substring plus one word match
	assert.Equal(t, 10, Score(kw, "build it"))
	// length counted once, word matches counted per occurrence
	assert.Equal(t, 15, Score(kw, "build and build"))
	assert.Equal(t, 16, Score(kw, "a new project"))
}

func TestKeywordHitIsPositive(t *testing.T) {
	for _, a := range agent.DefaultAgents() {
		for _, kw := range a.Keywords {
			assert.Positive(t, Score(a.Keywords, "please "+kw+" now"), "%s/%s", a.ID, kw)
		}
	}
}

func TestWordMatchesQuotesKeywords(t *testing.T) {
	assert.Equal(t, 1, wordMatches("a.b", "x a.b y"))
	assert.Equal(t, 0, wordMatches("a.b", "axb"))
}
