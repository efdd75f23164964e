// Package context assembles the prompt context and the system prompt sent
// with every model call.
package context

import (
	"fmt"
	"strconv"
	"strings"

	"codearh/internal/agent"
	"codearh/internal/config"
	"codearh/internal/logging"
	"codearh/internal/project"
)

// StatusSource reports the agent system status line.
type StatusSource interface {
	StatusText() string
}

// Options tune a single Build call.
type Options struct {
	// Simplify drops the chat history and the agent guidance to shrink the
	// request.
	Simplify bool
}

// Builder renders the labeled context sections for an agent.
type Builder struct {
	project      *project.Project
	status       StatusSource
	exclude      []string
	historyTurns int
}

// NewBuilder creates a builder over p. cfg supplies the chat window and the
// globs of files that never join the context automatically.
func NewBuilder(p *project.Project, status StatusSource, cfg config.ContextConfig) *Builder {
	turns := cfg.HistoryTurns
	if turns <= 0 {
		turns = config.DefaultHistoryTurns
	}
	return &Builder{
		project:      p,
		status:       status,
		exclude:      cfg.Exclude,
		historyTurns: turns,
	}
}

type section func(b *Builder, a agent.Agent, opts Options) []string

var sections = []section{
	(*Builder).agentHeader,
	(*Builder).agentInstructions,
	(*Builder).chat,
	(*Builder).structure,
	(*Builder).systemStatus,
	(*Builder).generalInstructions,
	(*Builder).promptAttachments,
	(*Builder).projectFiles,
	(*Builder).activeFile,
	(*Builder).guidance,
}

// Build renders the context for a. It never fails: when a section panics the
// remaining sections are replaced by an error notice.
func (b *Builder) Build(a agent.Agent, opts Options) string {
	var parts []string
	for _, s := range sections {
		lines, err := b.run(s, a, opts)
		if err != nil {
			logging.Error("context preparation failed", "agent", a.ID, "error", err)
			parts = append(parts, "=== ERROR IN CONTEXT PREPARATION ===", "Basic context only", "")
			break
		}
		parts = append(parts, lines...)
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) run(s section, a agent.Agent, opts Options) (lines []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s(b, a, opts), nil
}

func (b *Builder) agentHeader(a agent.Agent, _ Options) []string {
	keywords := a.Keywords
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return []string{
		"=== ACTIVE AGENT CONTEXT ===",
		fmt.Sprintf("Agent: %s (%s)", a.Name, a.Icon),
		"Description: " + a.Description,
		"Model: " + a.Model,
		"Specialization: " + strings.Join(keywords, ", "),
		fmt.Sprintf("Agent Instructions: %d custom instruction(s)", a.InstructionCount()),
		"",
	}
}

func (b *Builder) agentInstructions(a agent.Agent, _ Options) []string {
	var body []string
	for _, in := range a.Instructions() {
		if b.project.InContext(project.AgentInstructionKey(a.ID, in.Name)) {
			body = append(body, fmt.Sprintf("--- %s Instruction: %s ---", a.Name, in.Name), in.Content, "")
		}
	}
	if len(body) == 0 {
		return nil
	}
	return append([]string{"=== AGENT-SPECIFIC INSTRUCTIONS ==="}, body...)
}

func (b *Builder) chat(_ agent.Agent, opts Options) []string {
	if opts.Simplify {
		return []string{
			"=== CHAT CONTEXT (SIMPLIFIED) ===",
			"Chat history omitted to reduce request size for this attempt.",
			"",
		}
	}
	out := []string{"=== CHAT CONTEXT ==="}
	for _, turn := range b.project.RecentChat(b.historyTurns) {
		out = append(out, strings.ToUpper(turn.Role)+": "+turn.Content)
	}
	return append(out, "")
}

func (b *Builder) structure(agent.Agent, Options) []string {
	return []string{"=== PROJECT STRUCTURE ===", b.project.Tree(), ""}
}

func (b *Builder) systemStatus(a agent.Agent, _ Options) []string {
	available := "No"
	if a.InstructionCount() > 0 {
		available = "Yes"
	}
	status := ""
	if b.status != nil {
		status = b.status.StatusText()
	}
	return []string{
		"=== AGENT SYSTEM STATUS ===",
		status,
		"Selected Agent Model: " + a.Model,
		"Agent Instructions Available: " + available,
		"",
	}
}

func (b *Builder) generalInstructions(agent.Agent, Options) []string {
	var out []string
	for _, key := range b.project.ContextKeys() {
		k := project.ParseKey(key)
		if k.Kind != project.KindInstruction {
			continue
		}
		if in, ok := b.project.Instruction(k.Name); ok {
			out = append(out, "=== GENERAL INSTRUCTION: "+k.Name+" ===", in.Content, "")
		}
	}
	return out
}

func (b *Builder) promptAttachments(agent.Agent, Options) []string {
	var out []string
	for _, key := range b.project.ContextKeys() {
		k := project.ParseKey(key)
		if k.Kind != project.KindPrompt {
			continue
		}
		att, ok := b.project.Prompt(k.Name)
		if !ok {
			continue
		}
		out = append(out, "=== PROMPT ATTACHMENT: "+k.Name+" ===")
		if att.IsImage() {
			out = append(out, "[Image: "+k.Name+"]")
		} else {
			out = append(out, att.Content)
		}
		out = append(out, "")
	}
	return out
}

func (b *Builder) projectFiles(a agent.Agent, _ Options) []string {
	p := b.project
	if p.ProjectContextEnabled() {
		for _, f := range p.Files() {
			if f.IsTemporary || project.Excluded(f.Path, b.exclude) {
				continue
			}
			if _, ok := p.Prompt(f.Name); ok {
				continue
			}
			if _, ok := p.Instruction(f.Name); ok {
				continue
			}
			p.AddContext(f.Path)
		}
	}

	var relevant, other []project.VirtualFile
	for _, key := range p.ContextKeys() {
		if project.ParseKey(key).Kind != project.KindFile {
			continue
		}
		f, ok := p.File(key)
		if !ok || f.IsTemporary {
			continue
		}
		if IsRelevant(f, a.ID) {
			relevant = append(relevant, f)
		} else {
			other = append(other, f)
		}
	}
	logging.Debug("context files included",
		"relevant", len(relevant), "other", len(other),
		"project_context", p.ProjectContextEnabled(), "context_keys", p.ContextLen())

	var out []string
	if len(relevant) > 0 {
		out = append(out, "=== PROJECT FILES (RELEVANT) ===")
		out = appendFiles(out, relevant)
	}
	if len(other) > 0 {
		out = append(out, "=== PROJECT FILES (OTHER) ===")
		out = appendFiles(out, other)
	}
	if len(relevant)+len(other) == 0 {
		exist := "No"
		if p.HasFiles() {
			exist = "Yes"
		}
		out = append(out,
			"=== NO PROJECT FILES IN CONTEXT ===",
			"Project files exist: "+exist,
			"Context enabled: "+strconv.FormatBool(p.ProjectContextEnabled()),
			"Files in context set: "+strconv.Itoa(p.ContextLen()),
			"",
		)
	}
	return out
}

func appendFiles(out []string, files []project.VirtualFile) []string {
	for _, f := range files {
		out = append(out, "=== FILE: "+f.Path+" ===", f.Content, "")
	}
	return out
}

func (b *Builder) activeFile(agent.Agent, Options) []string {
	active := b.project.ActiveFile()
	if active == "" || b.project.InContext(active) {
		return nil
	}
	f, ok := b.project.File(active)
	if !ok || f.IsTemporary {
		return nil
	}
	return []string{"=== ACTIVE FILE: " + active + " ===", f.Content, ""}
}

func (b *Builder) guidance(a agent.Agent, opts Options) []string {
	if opts.Simplify {
		return nil
	}
	return []string{"=== ENHANCED AGENT GUIDANCE ===", Guidance(a), ""}
}
