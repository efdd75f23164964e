// Package app coordinates a chat request: agent selection, the execution
// loop, response handling and persistence.
package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"codearh/internal/agent"
	"codearh/internal/client"
	"codearh/internal/config"
	appcontext "codearh/internal/context"
	"codearh/internal/logging"
	"codearh/internal/patch"
	"codearh/internal/project"
	"codearh/internal/router"
	"codearh/internal/security"
	"codearh/internal/store"
	"codearh/internal/undo"
)

const (
	noAgentsMessage    = "⚠️ No agents are currently enabled! Please enable at least one agent (🔨 Generator, 🔧 Tweaker, or 🐛 Debugger) to continue."
	noSuitableMessage  = "❌ No suitable agent available for this request. Please enable the appropriate agents."
	callFailedStatus   = "❌ AI call failed. Please try again."
	longPromptTemplate = "[Long prompt converted to attachment: %s]"
)

// App is the application core shared by the TUI, the HTTP server and the CLI.
type App struct {
	cfg      *config.Config
	store    store.Store
	client   client.Client
	registry *agent.Registry
	selector *router.Router
	states   *StateMachine
	loop     *ExecutionLoop
	events   *Broadcaster

	// busy admits one request at a time.
	busy sync.Mutex

	mu       sync.RWMutex
	project  *project.Project
	builder  *appcontext.Builder
	messages []Message
	status   string
	diffs    map[string]patch.Modification
	history  *undo.Manager
	redactor *security.Redactor

	// Clock is used for message timestamps.
	Clock func() time.Time
}

// New creates an App. st and c must not be nil.
func New(cfg *config.Config, st store.Store, c client.Client) *App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := &App{
		cfg:      cfg,
		store:    st,
		client:   c,
		registry: agent.NewRegistry(cfg.Agents),
		events:   NewBroadcaster(),
		diffs:    make(map[string]patch.Modification),
		history:  undo.NewManager(undo.DefaultMaxChanges),
		redactor: security.NewRedactor(),
		Clock:    time.Now,
	}
	a.selector = router.NewRouter(a.registry)
	a.states = NewStateMachine(func(s State) {
		a.events.Publish(Event{Type: EventState, State: s, Time: a.now()})
	})
	a.loop = NewExecutionLoop(cfg.Execution, a.buildContext, a.callModel, a.setStatus)

	if r, ok := c.(*client.Router); ok {
		r.SetStatusCallback(&appStatusCallback{app: a})
	}

	p := project.New()
	p.SetProjectContextEnabled(cfg.Context.ProjectEnabled)
	a.setProject(p)
	return a
}

func (a *App) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

// Init restores the agents and the last project from the store.
func (a *App) Init(ctx context.Context) error {
	if err := a.registry.Load(ctx, a.store); err != nil {
		return fmt.Errorf("load agents: %w", err)
	}
	if err := a.LoadLastProject(ctx); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("load project: %w", err)
	}
	return nil
}

// Config returns the configuration.
func (a *App) Config() *config.Config { return a.cfg }

// Registry returns the agent registry.
func (a *App) Registry() *agent.Registry { return a.registry }

// Events returns the event broadcaster.
func (a *App) Events() *Broadcaster { return a.events }

// States returns the conversation state machine.
func (a *App) States() *StateMachine { return a.states }

// Loop returns the execution loop.
func (a *App) Loop() *ExecutionLoop { return a.loop }

// Project returns the current project.
func (a *App) Project() *project.Project {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.project
}

// Costs returns the session cost tracker, or nil when the client does not
// track costs.
func (a *App) Costs() *client.CostTracker {
	if r, ok := a.client.(interface{ Costs() *client.CostTracker }); ok {
		return r.Costs()
	}
	return nil
}

func (a *App) setProject(p *project.Project) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.project = p
	a.builder = appcontext.NewBuilder(p, a.registry, a.cfg.Context)
	a.diffs = make(map[string]patch.Modification)
	if a.history != nil {
		a.history.Clear()
	}
}

// SendMessage runs one chat request to completion. Outcomes are reported
// as chat messages and status events; the returned error is ErrBusy, a
// *ConfigurationError or an *ExecutionError.
func (a *App) SendMessage(ctx context.Context, input string) error {
	if !a.busy.TryLock() {
		return ErrBusy
	}
	defer a.busy.Unlock()

	message := strings.TrimSpace(input)
	if message == "" {
		return nil
	}

	if !a.registry.HasEnabled() {
		a.assistant(noAgentsMessage)
		return &ConfigurationError{Message: noAgentsMessage}
	}

	p := a.Project()
	if len(message) > a.cfg.Context.LongPromptThreshold {
		name := p.AddLongPrompt(message)
		logging.Info("long prompt converted to attachment", "name", name, "size", len(message))
		message = fmt.Sprintf(longPromptTemplate, name)
	}

	a.addMessage(RoleUser, KindText, message, "")
	p.AppendChat(RoleUser, message)

	selected := a.selector.Select(message, p.HasFiles())
	if selected == nil {
		a.assistant(noSuitableMessage)
		return &ConfigurationError{Message: noSuitableMessage}
	}
	ag := *selected
	a.setStatus(fmt.Sprintf("%s %s Agent activated (%s)", ag.Icon, ag.Name, ag.Model))

	if err := client.CheckBackendKey(ag.Backend, ag.Model, a.apiKey(ag)); err != nil {
		msg := err.Error()
		var keyErr *client.KeyError
		if errors.As(err, &keyErr) {
			msg = fmt.Sprintf("Please set up API keys for %s first", client.KeyLabel(ag.Model))
		}
		a.addMessage(RoleAssistant, KindError, "⚠️ "+msg, ag.ID)
		a.setStatus(callFailedStatus)
		return &ConfigurationError{Message: msg, Err: err}
	}

	an := router.Analyze(message, ag, p.HasFiles(), a.states.Confirming())
	if status := a.states.Advance(an, ag); status != "" {
		a.setStatus(status)
	}

	response, err := a.loop.Execute(ctx, message, an, ag)
	if err != nil {
		a.states.Set(StateReady)
		a.addMessage(RoleAssistant, KindError, err.Error(), ag.ID)
		a.setStatus(callFailedStatus)
		return err
	}

	p.AppendChat(RoleAssistant, response)
	a.processResponse(ctx, response, ag, an)

	if err := a.SaveAgents(ctx); err != nil {
		logging.Error("failed to save agent settings", "error", err)
	}
	return nil
}

func (a *App) apiKey(ag agent.Agent) string {
	return a.cfg.API.KeyFor(ag.Backend.Provider())
}

// backendCaller is implemented by clients that dispatch on a resolved backend.
type backendCaller interface {
	CallBackend(ctx context.Context, b client.Backend, prompt, apiKey, model string) (string, error)
}

func (a *App) buildContext(ag agent.Agent, opts appcontext.Options) string {
	a.mu.RLock()
	b := a.builder
	a.mu.RUnlock()
	return b.Build(ag, opts)
}

func (a *App) callModel(ctx context.Context, message, contextText string, an router.RequestAnalysis, ag agent.Agent) (string, error) {
	system := appcontext.BuildSystemPrompt(ag, an, a.Project())
	logging.Debug("calling model", "agent", ag.ID, "type", an.Type.String(), "confidence", an.Confidence,
		"model", ag.Model, "complexity", string(an.Complexity), "instructions", ag.InstructionCount())
	key := a.apiKey(ag)
	prompt := appcontext.FullPrompt(system, contextText, message)
	var (
		response string
		err      error
	)
	if bc, ok := a.client.(backendCaller); ok {
		response, err = bc.CallBackend(ctx, ag.Backend, prompt, key, ag.Model)
	} else {
		response, err = a.client.Call(ctx, prompt, key, ag.Model)
	}
	return response, a.redactor.RedactError(err, key)
}

// ToggleAgent flips an agent and persists the registry.
func (a *App) ToggleAgent(ctx context.Context, id string) (bool, error) {
	enabled, err := a.registry.Toggle(id, a.Project())
	if err != nil {
		return false, err
	}
	return enabled, a.SaveAgents(ctx)
}

// SetAgentModel binds an agent to model and persists the registry.
func (a *App) SetAgentModel(ctx context.Context, id, model string) error {
	if err := a.registry.SetModel(id, model); err != nil {
		return err
	}
	return a.SaveAgents(ctx)
}

// AddAgentInstruction stores an instruction on an agent.
func (a *App) AddAgentInstruction(ctx context.Context, id string, in agent.Instruction) error {
	if err := a.registry.AddInstruction(id, in, a.Project()); err != nil {
		return err
	}
	return a.SaveAgents(ctx)
}

// RemoveAgentInstruction deletes an instruction from an agent.
func (a *App) RemoveAgentInstruction(ctx context.Context, id, name string) error {
	if err := a.registry.RemoveInstruction(id, name, a.Project()); err != nil {
		return err
	}
	return a.SaveAgents(ctx)
}

// ResetAgents restores the built-in agent defaults.
func (a *App) ResetAgents(ctx context.Context) error {
	a.registry.Reset()
	return a.SaveAgents(ctx)
}

// SaveAgents persists agent states and settings.
func (a *App) SaveAgents(ctx context.Context) error {
	return a.registry.Save(ctx, a.store)
}

// LastDiff returns the diff of the last modification applied to filePath.
func (a *App) LastDiff(filePath string) (string, bool) {
	a.mu.RLock()
	m, ok := a.diffs[filePath]
	a.mu.RUnlock()
	if !ok {
		return "", false
	}
	return patch.UnifiedDiff(filePath, m.Before, m.After), true
}

// DiffPaths lists the files with a recorded modification diff, sorted.
func (a *App) DiffPaths() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, 0, len(a.diffs))
	for p := range a.diffs {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
