// Package commands implements the slash commands shared by the terminal UI
// and the CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"codearh/internal/agent"
	"codearh/internal/app"
	"codearh/internal/client"
	"codearh/internal/config"
	"codearh/internal/project"
	"codearh/internal/undo"
)

// ErrUsage is wrapped by errors caused by bad command arguments.
var ErrUsage = errors.New("usage")

// Command represents a slash command.
type Command interface {
	Name() string
	Description() string
	Usage() string
	Category() Category
	Execute(ctx context.Context, args []string, env *Env) (string, error)
}

// Category groups commands in help output.
type Category string

const (
	CategoryAgents  Category = "Agents"
	CategoryProject Category = "Project"
	CategorySession Category = "Session"
)

var categoryOrder = []Category{CategoryAgents, CategoryProject, CategorySession}

// AppInterface defines what commands need from the application.
type AppInterface interface {
	Registry() *agent.Registry
	Project() *project.Project
	Costs() *client.CostTracker
	Messages() []app.Message
	ClearMessages()
	States() *app.StateMachine
	Loop() *app.ExecutionLoop

	ToggleAgent(ctx context.Context, id string) (bool, error)
	SetAgentModel(ctx context.Context, id, model string) error
	AddAgentInstruction(ctx context.Context, id string, in agent.Instruction) error
	RemoveAgentInstruction(ctx context.Context, id, name string) error
	ResetAgents(ctx context.Context) error

	LastDiff(path string) (string, bool)
	DiffPaths() []string

	NewProject()
	SaveProject(ctx context.Context) error
	LoadProject(ctx context.Context, id string) error
	Projects(ctx context.Context) ([]string, error)
	ImportDir(ctx context.Context, root string) (int, error)
	ExportDir(ctx context.Context, root string) (int, error)

	Undo(ctx context.Context) (undo.Change, error)
	Redo(ctx context.Context) (undo.Change, error)
	History(n int) []undo.Change

	Config() *config.Config
}

// Renderer formats code and diffs. The TUI highlights them; the CLI and
// tests use PlainRenderer.
type Renderer interface {
	File(path, content, lang string) string
	Diff(diff string) string
}

// PlainRenderer returns text unchanged.
type PlainRenderer struct{}

func (PlainRenderer) File(path, content, lang string) string { return content }
func (PlainRenderer) Diff(diff string) string                { return diff }

// Env is what a command runs against.
type Env struct {
	App      AppInterface
	Render   Renderer
	Copy     func(string) error // clipboard writer
	ReadFile func(string) ([]byte, error)
}

// Handler manages slash commands.
type Handler struct {
	commands map[string]Command
	env      *Env
}

// NewHandler creates a handler with the built-in commands.
func NewHandler(env *Env) *Handler {
	if env.Render == nil {
		env.Render = PlainRenderer{}
	}
	h := &Handler{
		commands: make(map[string]Command),
		env:      env,
	}
	h.Register(&HelpCommand{handler: h})
	for _, c := range builtins() {
		h.Register(c)
	}
	return h
}

// Register adds a command to the handler.
func (h *Handler) Register(cmd Command) {
	h.commands[cmd.Name()] = cmd
}

// Parse checks if input is a slash command and extracts name and args.
// Paths like /home/user/... are not treated as commands.
func (h *Handler) Parse(input string) (string, []string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", nil, false
	}
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil, false
	}
	name := strings.TrimPrefix(parts[0], "/")
	if _, exists := h.commands[name]; !exists {
		return "", nil, false
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return name, args, true
}

// Execute runs a command by name.
func (h *Handler) Execute(ctx context.Context, name string, args []string) (string, error) {
	cmd, exists := h.commands[name]
	if !exists {
		return "", fmt.Errorf("unknown command: /%s", name)
	}
	out, err := cmd.Execute(ctx, args, h.env)
	if errors.Is(err, ErrUsage) {
		return "", fmt.Errorf("usage: %s", cmd.Usage())
	}
	return out, err
}

// GetCommand returns a command by name.
func (h *Handler) GetCommand(name string) (Command, bool) {
	cmd, exists := h.commands[name]
	return cmd, exists
}

// ListCommands returns all registered commands sorted by name.
func (h *Handler) ListCommands() []Command {
	cmds := make([]Command, 0, len(h.commands))
	for _, cmd := range h.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}

// Complete returns the command names starting with prefix, without "/".
func (h *Handler) Complete(prefix string) []string {
	prefix = strings.TrimPrefix(prefix, "/")
	var out []string
	for _, cmd := range h.ListCommands() {
		if strings.HasPrefix(cmd.Name(), prefix) {
			out = append(out, cmd.Name())
		}
	}
	return out
}

// HelpCommand shows help for commands.
type HelpCommand struct {
	handler *Handler
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Show help for commands" }
func (c *HelpCommand) Usage() string       { return "/help [command]" }
func (c *HelpCommand) Category() Category  { return CategorySession }

func (c *HelpCommand) Execute(ctx context.Context, args []string, env *Env) (string, error) {
	if len(args) > 0 {
		cmd, exists := c.handler.GetCommand(strings.TrimPrefix(args[0], "/"))
		if !exists {
			return fmt.Sprintf("Unknown command: /%s\nUse /help to see all commands.", args[0]), nil
		}
		return fmt.Sprintf("/%s - %s\n\nUsage: %s", cmd.Name(), cmd.Description(), cmd.Usage()), nil
	}

	var sb strings.Builder
	for i, cat := range categoryOrder {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(cat) + ":\n")
		for _, cmd := range c.handler.ListCommands() {
			if cmd.Category() == cat {
				fmt.Fprintf(&sb, "  %-28s %s\n", cmd.Usage(), cmd.Description())
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
