package app

import (
	"context"
	"fmt"

	"codearh/internal/agent"
	"codearh/internal/logging"
	"codearh/internal/patch"
	"codearh/internal/router"
	"codearh/internal/undo"
)

// processResponse handles a model response in priority order: MODIFY
// blocks, FILE blocks, a project plan, then plain text.
func (a *App) processResponse(ctx context.Context, response string, ag agent.Agent, an router.RequestAnalysis) {
	parsed := patch.Parse(response)
	logging.Debug("processing response", "agent", ag.ID, "type", an.Type.String(),
		"modifications", len(parsed.Modifications), "files", len(parsed.Files))

	switch {
	case len(parsed.Modifications) > 0:
		a.states.Set(StateModifying)
		a.setStatus(fmt.Sprintf("%s Applying modifications with %s...", ag.Icon, ag.Model))

		mods := a.engine().ApplyModifications(ctx, parsed.Modifications)
		a.recordDiffs(mods)

		if parsed.HasReport {
			a.addMessage(RoleAssistant, KindReport, "🔧 Modification Report\n\n"+parsed.Report, ag.ID)
		}
		if prose := patch.Prose(response); prose != "" {
			a.addMessage(RoleAssistant, KindText, prose, ag.ID)
		}
		a.addMessage(RoleAssistant, KindText, performanceSummary(ag, "modification", len(mods)), ag.ID)
		a.finish()

	case len(parsed.Files) > 0:
		a.states.Set(StateGenerating)
		a.setStatus(fmt.Sprintf("%s Generating files with %s...", ag.Icon, ag.Model))

		if text := patch.TextPart(response); text != "" {
			a.addMessage(RoleAssistant, KindText, text, ag.ID)
		}
		before := a.snapshotFiles(parsed.Files)
		written := a.generator().Write(ctx, parsed.Files)
		a.recordGenerated(written, before)
		a.events.Publish(Event{Type: EventFiles, Time: a.now()})

		a.addMessage(RoleAssistant, KindText, performanceSummary(ag, "generation", len(parsed.Files)), ag.ID)
		a.finish()

	case patch.IsProjectPlan(response):
		a.states.Set(StateConfirming)
		a.setStatus(fmt.Sprintf("%s Awaiting confirmation...", ag.Icon))
		a.addMessage(RoleAssistant, KindPlan, planHeader(ag)+response, ag.ID)

	default:
		a.addMessage(RoleAssistant, KindText, patch.HideCode(response), ag.ID)
		info := ""
		if n := ag.InstructionCount(); n > 0 {
			info = fmt.Sprintf(" + %d custom instructions", n)
		}
		a.states.Set(StateReady)
		a.setStatus(fmt.Sprintf("%s %s completed using %s%s (%d%% confidence)",
			ag.Icon, ag.Name, ag.Model, info, an.Confidence))
	}
}

func (a *App) finish() {
	a.states.Set(StateReady)
	a.setStatus(StateReady.Text())
}

func (a *App) engine() *patch.Engine {
	return patch.NewEngine(a.Project(), func(content string) { a.assistant(content) }, a.SaveProject)
}

func (a *App) generator() *patch.Generator {
	return patch.NewGenerator(a.Project(), func(done, total int, percent float64) {
		a.events.Publish(Event{
			Type:     EventProgress,
			Status:   fmt.Sprintf("Generating files... %d/%d", done, total),
			Progress: percent,
			Time:     a.now(),
		})
	}, a.SaveProject)
}

func (a *App) recordDiffs(mods []patch.Modification) {
	if len(mods) == 0 {
		return
	}
	a.mu.Lock()
	for _, m := range mods {
		a.diffs[m.File] = m
	}
	a.mu.Unlock()
	for _, m := range mods {
		if m.Success && m.Before != m.After {
			a.history.Record(undo.NewChange(m.File, undo.SourceModify, m.Before, m.After, false, a.now()))
		}
	}
	a.events.Publish(Event{Type: EventFiles, Time: a.now()})
}

// snapshotFiles captures the current content of the files blocks target.
// Missing files are absent from the result.
func (a *App) snapshotFiles(blocks []patch.FileBlock) map[string]string {
	p := a.Project()
	out := make(map[string]string, len(blocks))
	for _, b := range blocks {
		if f, ok := p.File(b.Path); ok {
			out[b.Path] = f.Content
		}
	}
	return out
}

func (a *App) recordGenerated(paths []string, before map[string]string) {
	p := a.Project()
	seen := make(map[string]bool, len(paths))
	for _, fp := range paths {
		if seen[fp] {
			continue
		}
		seen[fp] = true
		f, ok := p.File(fp)
		if !ok {
			continue
		}
		old, existed := before[fp]
		if existed && old == f.Content {
			continue
		}
		a.history.Record(undo.NewChange(fp, undo.SourceGenerate, old, f.Content, !existed, a.now()))
	}
}

var actionVerbs = map[string]string{
	"modification": "modified",
	"generation":   "generated",
	"debugging":    "debugged",
}

func performanceSummary(ag agent.Agent, action string, count int) string {
	verb, ok := actionVerbs[action]
	if !ok {
		verb = "processed"
	}
	items := "items"
	if count == 1 {
		items = "item"
	}
	info := ""
	if n := ag.InstructionCount(); n > 0 {
		info = fmt.Sprintf("\n**Custom Instructions:** %d active", n)
	}
	return fmt.Sprintf("✅ **%s %s Agent Performance Summary**\n\n"+
		"**Action:** %s %d %s\n**Model Used:** %s\n**Specialization:** %s%s\n\n"+
		"%s Agent completed the %s successfully using %s!",
		ag.Icon, ag.Name, verb, count, items, ag.Model, ag.Description, info,
		ag.Name, action, ag.Model)
}

func planHeader(ag agent.Agent) string {
	info := ""
	if n := ag.InstructionCount(); n > 0 {
		info = fmt.Sprintf(" (%d custom instructions active)", n)
	}
	return fmt.Sprintf("%s **%s Agent** - %s\nModel: %s%s\n\n", ag.Icon, ag.Name, ag.Description, ag.Model, info)
}
