package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"codearh/internal/agent"
	"codearh/internal/app"
	"codearh/internal/project"
	"codearh/internal/security"
)

// simpleCommand adapts a function to Command.
type simpleCommand struct {
	name, description, usage string
	category                 Category
	minArgs                  int
	run                      func(ctx context.Context, args []string, env *Env) (string, error)
}

func (c *simpleCommand) Name() string        { return c.name }
func (c *simpleCommand) Description() string { return c.description }
func (c *simpleCommand) Usage() string       { return c.usage }
func (c *simpleCommand) Category() Category  { return c.category }

func (c *simpleCommand) Execute(ctx context.Context, args []string, env *Env) (string, error) {
	if len(args) < c.minArgs {
		return "", ErrUsage
	}
	return c.run(ctx, args, env)
}

func builtins() []Command {
	return []Command{
		// Agents
		&simpleCommand{name: "agents", description: "List agents and their models", usage: "/agents",
			category: CategoryAgents, run: listAgents},
		&simpleCommand{name: "toggle", description: "Enable or disable an agent", usage: "/toggle <agent>",
			category: CategoryAgents, minArgs: 1, run: toggleAgent},
		&simpleCommand{name: "model", description: "Bind an agent to a model", usage: "/model <agent> <model>",
			category: CategoryAgents, minArgs: 2, run: setModel},
		&simpleCommand{name: "instruct", description: "Attach a file as agent instructions", usage: "/instruct <agent> <file>",
			category: CategoryAgents, minArgs: 2, run: addInstruction},
		&simpleCommand{name: "forget", description: "Remove an agent instruction", usage: "/forget <agent> <name>",
			category: CategoryAgents, minArgs: 2, run: removeInstruction},
		&simpleCommand{name: "reset-agents", description: "Restore agent defaults", usage: "/reset-agents",
			category: CategoryAgents, run: resetAgents},

		// Project
		&simpleCommand{name: "files", description: "List project files", usage: "/files",
			category: CategoryProject, run: listFiles},
		&simpleCommand{name: "open", description: "Open a file", usage: "/open <path>",
			category: CategoryProject, minArgs: 1, run: openFile},
		&simpleCommand{name: "context", description: "List or toggle context entries", usage: "/context [key]",
			category: CategoryProject, run: toggleContext},
		&simpleCommand{name: "diff", description: "Show the last modification of a file", usage: "/diff [path]",
			category: CategoryProject, run: showDiff},
		&simpleCommand{name: "import", description: "Import a directory into the project", usage: "/import <dir>",
			category: CategoryProject, minArgs: 1, run: importDir},
		&simpleCommand{name: "new", description: "Start an empty project", usage: "/new",
			category: CategoryProject, run: newProject},
		&simpleCommand{name: "projects", description: "List saved projects", usage: "/projects",
			category: CategoryProject, run: listProjects},
		&simpleCommand{name: "load", description: "Load a saved project", usage: "/load <project-id>",
			category: CategoryProject, minArgs: 1, run: loadProject},
		&simpleCommand{name: "save", description: "Save the current project", usage: "/save",
			category: CategoryProject, run: saveProject},
		&simpleCommand{name: "export", description: "Write project files to a directory", usage: "/export <dir>",
			category: CategoryProject, minArgs: 1, run: exportDir},
		&simpleCommand{name: "undo", description: "Revert the last assistant edit", usage: "/undo",
			category: CategoryProject, run: undoChange},
		&simpleCommand{name: "redo", description: "Re-apply the last reverted edit", usage: "/redo",
			category: CategoryProject, run: redoChange},
		&simpleCommand{name: "history", description: "List recent assistant edits", usage: "/history [n]",
			category: CategoryProject, run: showHistory},

		// Session
		&simpleCommand{name: "copy", description: "Copy the last reply or a file to the clipboard", usage: "/copy [path]",
			category: CategorySession, run: copyText},
		&simpleCommand{name: "cost", description: "Show estimated session cost", usage: "/cost",
			category: CategorySession, run: showCost},
		&simpleCommand{name: "state", description: "Show conversation and retry state", usage: "/state",
			category: CategorySession, run: showState},
		&simpleCommand{name: "clear", description: "Clear the conversation", usage: "/clear",
			category: CategorySession, run: clearChat},
		&simpleCommand{name: "keys", description: "Show configured provider keys", usage: "/keys",
			category: CategorySession, run: showKeys},
	}
}

func agentStatus(a agent.Agent) string {
	if a.Enabled {
		return "on "
	}
	return "off"
}

func listAgents(ctx context.Context, args []string, env *Env) (string, error) {
	var sb strings.Builder
	for _, a := range env.App.Registry().Agents() {
		fmt.Fprintf(&sb, "%s %-10s [%s] %s", a.Icon, a.ID, agentStatus(a), a.Model)
		if n := a.InstructionCount(); n > 0 {
			fmt.Fprintf(&sb, " (%d instructions)", n)
		}
		sb.WriteString("\n")
	}
	sb.WriteString(env.App.Registry().StatusText())
	return sb.String(), nil
}

func toggleAgent(ctx context.Context, args []string, env *Env) (string, error) {
	enabled, err := env.App.ToggleAgent(ctx, args[0])
	if err != nil {
		return "", err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return fmt.Sprintf("Agent %s %s", args[0], state), nil
}

func setModel(ctx context.Context, args []string, env *Env) (string, error) {
	if err := env.App.SetAgentModel(ctx, args[0], args[1]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Agent %s now uses %s", args[0], args[1]), nil
}

func addInstruction(ctx context.Context, args []string, env *Env) (string, error) {
	read := env.ReadFile
	if read == nil {
		read = os.ReadFile
	}
	data, err := read(args[1])
	if err != nil {
		return "", fmt.Errorf("read instruction: %w", err)
	}
	in := agent.Instruction{Name: filepath.Base(args[1]), Content: string(data)}
	if err := env.App.AddAgentInstruction(ctx, args[0], in); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %s to %s (%d bytes)", in.Name, args[0], len(data)), nil
}

func removeInstruction(ctx context.Context, args []string, env *Env) (string, error) {
	if err := env.App.RemoveAgentInstruction(ctx, args[0], args[1]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %s from %s", args[1], args[0]), nil
}

func resetAgents(ctx context.Context, args []string, env *Env) (string, error) {
	if err := env.App.ResetAgents(ctx); err != nil {
		return "", err
	}
	return "Agents restored to defaults", nil
}

func listFiles(ctx context.Context, args []string, env *Env) (string, error) {
	p := env.App.Project()
	files := p.Files()
	if len(files) == 0 {
		return "No files in project", nil
	}
	active := p.ActiveFile()
	var sb strings.Builder
	for _, f := range files {
		marker := " "
		if p.InContext(f.Path) {
			marker = "*"
		}
		if f.Path == active {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s %s (r%d, %d bytes)\n", marker, f.Path, f.Revision, f.Size())
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func openFile(ctx context.Context, args []string, env *Env) (string, error) {
	p := env.App.Project()
	if err := p.OpenFile(args[0]); err != nil {
		return "", fmt.Errorf("%s: %w", args[0], err)
	}
	f, _ := p.File(args[0])
	return env.Render.File(f.Path, f.Content, f.Language), nil
}

func toggleContext(ctx context.Context, args []string, env *Env) (string, error) {
	p := env.App.Project()
	if len(args) == 0 {
		keys := p.ContextKeys()
		if len(keys) == 0 {
			return "Context is empty", nil
		}
		return strings.Join(keys, "\n"), nil
	}
	key := args[0]
	if _, ok := p.File(key); !ok && !isAttachmentKey(key) {
		return "", fmt.Errorf("%s: %w", key, project.ErrFileNotFound)
	}
	if p.ToggleContext(key) {
		return "Added to context: " + key, nil
	}
	return "Removed from context: " + key, nil
}

func isAttachmentKey(key string) bool {
	return project.ParseKey(key).Kind != project.KindFile
}

func showDiff(ctx context.Context, args []string, env *Env) (string, error) {
	if len(args) == 0 {
		paths := env.App.DiffPaths()
		if len(paths) == 0 {
			return "No modifications yet", nil
		}
		return "Modified files:\n" + strings.Join(paths, "\n"), nil
	}
	diff, ok := env.App.LastDiff(args[0])
	if !ok {
		return "", fmt.Errorf("no modification recorded for %s", args[0])
	}
	return env.Render.Diff(diff), nil
}

func importDir(ctx context.Context, args []string, env *Env) (string, error) {
	n, err := env.App.ImportDir(ctx, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Imported %d files from %s", n, args[0]), nil
}

func newProject(ctx context.Context, args []string, env *Env) (string, error) {
	env.App.NewProject()
	return "Started project " + env.App.Project().ID(), nil
}

func listProjects(ctx context.Context, args []string, env *Env) (string, error) {
	ids, err := env.App.Projects(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "No saved projects", nil
	}
	sort.Strings(ids)
	current := env.App.Project().ID()
	var sb strings.Builder
	for _, id := range ids {
		marker := " "
		if id == current {
			marker = ">"
		}
		fmt.Fprintf(&sb, "%s %s\n", marker, id)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

func loadProject(ctx context.Context, args []string, env *Env) (string, error) {
	if err := env.App.LoadProject(ctx, args[0]); err != nil {
		return "", err
	}
	return fmt.Sprintf("Loaded %s (%d files)", args[0], env.App.Project().FileCount()), nil
}

func saveProject(ctx context.Context, args []string, env *Env) (string, error) {
	if err := env.App.SaveProject(ctx); err != nil {
		return "", err
	}
	return "Saved " + env.App.Project().ID(), nil
}

func copyText(ctx context.Context, args []string, env *Env) (string, error) {
	if env.Copy == nil {
		return "", fmt.Errorf("clipboard is not available")
	}
	var text, what string
	if len(args) > 0 {
		f, ok := env.App.Project().File(args[0])
		if !ok {
			return "", fmt.Errorf("%s: %w", args[0], project.ErrFileNotFound)
		}
		text, what = f.Content, f.Path
	} else {
		msgs := env.App.Messages()
		for i := len(msgs) - 1; i >= 0; i-- {
			if msgs[i].Role == app.RoleAssistant {
				text, what = msgs[i].Content, "last reply"
				break
			}
		}
		if what == "" {
			return "", fmt.Errorf("nothing to copy")
		}
	}
	if err := env.Copy(text); err != nil {
		return "", fmt.Errorf("copy to clipboard: %w", err)
	}
	return fmt.Sprintf("Copied %s (%d bytes)", what, len(text)), nil
}

func showCost(ctx context.Context, args []string, env *Env) (string, error) {
	costs := env.App.Costs()
	if costs == nil {
		return "Cost tracking is not available", nil
	}
	sum := costs.Summary()
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session cost: $%.4f over %d calls", sum.Total, sum.Calls)
	models := make([]string, 0, len(sum.Models))
	for m := range sum.Models {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		mc := sum.Models[m]
		fmt.Fprintf(&sb, "\n  %s: %d calls, %d in / %d out tokens, $%.4f",
			m, mc.Calls, mc.InputTokens, mc.OutputTokens, mc.Cost)
	}
	return sb.String(), nil
}

func showState(ctx context.Context, args []string, env *Env) (string, error) {
	st := env.App.Loop().State()
	state := env.App.States().State()
	var sb strings.Builder
	fmt.Fprintf(&sb, "State: %s (%s)\n", state, state.Text())
	fmt.Fprintf(&sb, "Attempts: %d/%d", st.AttemptCount, st.MaxAttempts)
	if st.CurrentStrategy != "" {
		fmt.Fprintf(&sb, ", strategy %s", st.CurrentStrategy)
	}
	for _, rec := range st.ErrorLog {
		fmt.Fprintf(&sb, "\n  attempt %d (%s): %s", rec.Attempt, rec.Strategy, rec.Error)
	}
	return sb.String(), nil
}

func clearChat(ctx context.Context, args []string, env *Env) (string, error) {
	env.App.ClearMessages()
	return "Conversation cleared", nil
}

func exportDir(ctx context.Context, args []string, env *Env) (string, error) {
	n, err := env.App.ExportDir(ctx, args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Exported %d files to %s", n, args[0]), nil
}

func undoChange(ctx context.Context, args []string, env *Env) (string, error) {
	c, err := env.App.Undo(ctx)
	if err != nil {
		return "", err
	}
	return "↩️ Undid: " + c.Summary(), nil
}

func redoChange(ctx context.Context, args []string, env *Env) (string, error) {
	c, err := env.App.Redo(ctx)
	if err != nil {
		return "", err
	}
	return "↪️ Redid: " + c.Summary(), nil
}

func showHistory(ctx context.Context, args []string, env *Env) (string, error) {
	n := 10
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v <= 0 {
			return "", ErrUsage
		}
		n = v
	}
	changes := env.App.History(n)
	if len(changes) == 0 {
		return "No assistant edits yet", nil
	}
	var sb strings.Builder
	sb.WriteString("Recent edits (newest first):")
	for _, c := range changes {
		fmt.Fprintf(&sb, "\n  %s  %s  %+d bytes", c.Time.Format("15:04:05"), c.Summary(), c.SizeChange())
	}
	return sb.String(), nil
}

var keyProviders = []struct{ id, label string }{
	{"gemini", "Gemini"},
	{"claude", "Claude"},
	{"groq", "Groq"},
	{"ollama", "Ollama"},
}

func showKeys(ctx context.Context, args []string, env *Env) (string, error) {
	api := env.App.Config().API
	var sb strings.Builder
	sb.WriteString("API keys:")
	for _, p := range keyProviders {
		key := api.KeyFor(p.id)
		line := security.MaskKey(key)
		if key != "" {
			if err := security.ValidateKeyFormat(key); err != nil {
				line += "  ⚠️ " + err.Error()
			}
		} else if p.id == "ollama" {
			line = "(not required)"
		}
		fmt.Fprintf(&sb, "\n  %-7s %s", p.label, line)
	}
	return sb.String(), nil
}
