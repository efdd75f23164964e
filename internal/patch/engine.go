package patch

import (
	"context"
	"fmt"
	"strings"

	"codearh/internal/logging"
	"codearh/internal/project"
)

// Modification records one applied MODIFY block.
type Modification struct {
	File        string `json:"file"`
	Description string `json:"description"`
	Success     bool   `json:"success"`
	Strategy    string `json:"strategy"`
	Added       int    `json:"added"`
	Removed     int    `json:"removed"`

	Before string `json:"-"`
	After  string `json:"-"`
}

// Notifier receives user-facing messages produced while patching.
type Notifier func(content string)

// Saver persists the project after a batch changed it.
type Saver func(ctx context.Context) error

// Engine applies MODIFY blocks to a project.
type Engine struct {
	project *project.Project
	chain   []Strategy
	notify  Notifier
	save    Saver
}

// NewEngine creates an engine. notify and save may be nil.
func NewEngine(p *project.Project, notify Notifier, save Saver) *Engine {
	return &Engine{project: p, chain: DefaultChain, notify: notify, save: save}
}

// WithChain replaces the strategy chain.
func (e *Engine) WithChain(chain ...Strategy) *Engine {
	e.chain = chain
	return e
}

// ApplyResponse parses response and applies its MODIFY blocks.
func (e *Engine) ApplyResponse(ctx context.Context, response string) []Modification {
	return e.ApplyModifications(ctx, ParseModifications(response))
}

// ApplyModifications applies blocks in order. A block whose file is
// missing or whose find text cannot be located is skipped; the rest still
// apply. Only successful blocks appear in the result.
func (e *Engine) ApplyModifications(ctx context.Context, blocks []ModifyBlock) []Modification {
	var mods []Modification
	for _, blk := range blocks {
		if m, ok := e.apply(blk); ok {
			mods = append(mods, m)
		}
	}

	switch {
	case len(mods) > 0:
		if e.save != nil {
			if err := e.save(ctx); err != nil {
				logging.Error("failed to save project after modifications", "error", err)
			}
		}
		e.send(successSummary(mods))
	case len(blocks) > 0:
		e.send(failureSummary)
	}
	return mods
}

func (e *Engine) apply(blk ModifyBlock) (Modification, bool) {
	f, ok := e.project.File(blk.Path)
	if !ok {
		logging.Warn("modification target not found", "file", blk.Path)
		return Modification{}, false
	}

	m := Resolve(e.chain, f.Content, blk.Find, blk.Replace)
	if m.Outcome == NotFound {
		logging.Warn("modification find text not found", "file", blk.Path, "candidates", len(m.Candidates))
		e.send(notFoundMessage(blk.Path, blk.Find, m.Candidates))
		return Modification{}, false
	}

	linesChanged := abs(lineCount(m.Content) - lineCount(f.Content))
	newContent := m.Content
	revision := f.Revision
	if project.SupportsComments(blk.Path) {
		revision++
		newContent = project.AddRevisionComment(blk.Path, newContent, revision, "AI modification",
			fmt.Sprintf("~%d", linesChanged), e.project.Now())
	}
	if err := e.project.UpdateFile(blk.Path, newContent, revision); err != nil {
		// Deleted while the model was answering.
		logging.Warn("modification target vanished", "file", blk.Path, "error", err)
		return Modification{}, false
	}
	e.project.AddContext(blk.Path)

	added, removed := LineStats(f.Content, newContent)
	logging.Info("modification applied", "file", blk.Path, "strategy", m.Strategy,
		"added", added, "removed", removed)

	return Modification{
		File:        blk.Path,
		Description: fmt.Sprintf("Modified %d lines", linesChanged),
		Success:     true,
		Strategy:    m.Strategy,
		Added:       added,
		Removed:     removed,
		Before:      f.Content,
		After:       newContent,
	}, true
}

func (e *Engine) send(msg string) {
	if e.notify != nil {
		e.notify(msg)
	}
}

func notFoundMessage(filePath, find string, candidates []Candidate) string {
	shown := find
	if r := []rune(shown); len(r) > 200 {
		shown = string(r[:200]) + "..."
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("Line %d: %s", c.Line, c.Text))
	}
	return fmt.Sprintf("⚠️ Could not apply modification to %s\n\n**Find text not found:**\n```\n%s\n```\n\n"+
		"**Possible similar lines found:**\n%s\n\n"+
		"The AI may have referenced outdated code. Try asking the AI to check the current file content first.",
		filePath, shown, strings.Join(lines, "\n"))
}

func successSummary(mods []Modification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Successfully modified %d file(s):\n\n", len(mods))
	for _, m := range mods {
		fmt.Fprintf(&b, "• %s - %s\n", m.File, m.Description)
	}
	b.WriteString("\nAll changes have been applied and saved!")
	return b.String()
}

const failureSummary = "❌ No modifications could be applied. This usually means the AI referenced " +
	"code that doesn't exactly match your current files. \n\n**To fix this:**\n" +
	"1. Ask the AI to first examine the current file content\n" +
	"2. Request modifications with more specific line references\n" +
	"3. Or ask the AI to show you the exact current content before making changes"

func lineCount(s string) int { return strings.Count(s, "\n") + 1 }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
