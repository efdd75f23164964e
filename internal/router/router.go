// Package router decides which agent handles a message and classifies the
// request for the prompt builder and the conversation state machine.
package router

import (
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"codearh/internal/agent"
	"codearh/internal/logging"
)

// Router selects agents from a registry and records every decision.
type Router struct {
	registry *agent.Registry

	// Clock stamps selection history entries.
	Clock func() time.Time
}

// NewRouter creates a router over reg.
func NewRouter(reg *agent.Registry) *Router {
	return &Router{registry: reg, Clock: time.Now}
}

// Signals are the contextual hints shared by selection and analysis.
type Signals struct {
	HasFiles     bool
	HasErrors    bool
	IsNewProject bool
}

// DetectSignals reads the error and new-project hints from a lowercased message.
func DetectSignals(lower string, hasFiles bool) Signals {
	return Signals{
		HasFiles:     hasFiles,
		HasErrors:    containsAny(lower, "error", "not work", "fix"),
		IsNewProject: containsAny(lower, "new project", "create app", "build"),
	}
}

// Select returns the agent that should handle message, or nil when no agent
// is enabled. The highest score wins; ties go to the agent declared first.
// With no positive score the fallback agent is used if enabled, else the
// first enabled agent.
func (r *Router) Select(message string, hasFiles bool) *agent.Agent {
	enabled := r.registry.Enabled()
	if len(enabled) == 0 {
		logging.Warn("no agents enabled")
		return nil
	}

	lower := strings.ToLower(message)
	sig := DetectSignals(lower, hasFiles)

	var best *agent.Agent
	highest := 0
	scores := make(map[string]int, len(enabled))
	for i := range enabled {
		a := &enabled[i]
		score := Score(a.Keywords, lower) + bonus(a.ID, sig)
		scores[a.ID] = score
		if score > highest {
			highest = score
			best = a
		}
	}

	reason := "keyword match"
	if best == nil {
		reason = "fallback"
		best = &enabled[0]
		fallback := r.registry.FallbackAgent()
		for i := range enabled {
			if enabled[i].ID == fallback {
				best = &enabled[i]
				break
			}
		}
	}

	r.registry.RecordSelection(agent.Selection{
		Timestamp:     r.now(),
		Message:       truncateRunes(message, 100),
		SelectedAgent: best.ID,
		Score:         highest,
		Context: agent.SelectionContext{
			HasFiles:     sig.HasFiles,
			HasErrors:    sig.HasErrors,
			IsNewProject: sig.IsNewProject,
		},
	})

	logging.Debug("agent selected", "agent", best.ID, "score", highest, "reason", reason, "scores", scores)
	return best
}

// Score sums len(kw) for every keyword contained in lower plus five points per
// whole-word occurrence. lower must already be lowercased.
func Score(keywords []string, lower string) int {
	score := 0
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		if strings.Contains(lower, kw) {
			score += len(kw)
		}
	}
	for _, kw := range keywords {
		score += 5 * wordMatches(kw, lower)
	}
	return score
}

func bonus(id string, sig Signals) int {
	switch id {
	case agent.Tweaker:
		if sig.HasFiles {
			return 2
		}
	case agent.Debugger:
		if sig.HasErrors {
			return 3
		}
	case agent.Generator:
		if sig.IsNewProject {
			return 3
		}
	}
	return 0
}

var (
	wordPatternsMu sync.Mutex
	wordPatterns   = make(map[string]*regexp.Regexp)
)

// wordMatches counts occurrences of kw bounded by word boundaries.
func wordMatches(kw, lower string) int {
	kw = strings.ToLower(kw)
	if kw == "" {
		return 0
	}
	wordPatternsMu.Lock()
	re, ok := wordPatterns[kw]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
		wordPatterns[kw] = re
	}
	wordPatternsMu.Unlock()
	return len(re.FindAllStringIndex(lower, -1))
}

func (r *Router) now() time.Time {
	if r.Clock == nil {
		return time.Now()
	}
	return r.Clock()
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
