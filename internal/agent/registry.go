// Package agent holds the agent definitions, their custom instructions and
// the selection history.
package agent

import (
	"fmt"
	"strings"
	"sync"

	"codearh/internal/client"
	"codearh/internal/config"
	"codearh/internal/logging"
	"codearh/internal/project"
)

// Registry holds the agents in declaration order. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	agents   []*Agent
	settings Settings

	// flags stashed when an agent is disabled, restored when re-enabled
	stash map[string]map[string]bool
}

// NewRegistry creates a registry with the built-in agents and cfg applied.
func NewRegistry(cfg config.AgentsConfig) *Registry {
	r := &Registry{
		settings: Settings{
			AutoDetection: cfg.AutoDetection,
			FallbackAgent: cfg.FallbackAgent,
		},
		stash: make(map[string]map[string]bool),
	}
	if r.settings.FallbackAgent == "" {
		r.settings.FallbackAgent = config.DefaultFallbackAgent
	}
	for _, a := range DefaultAgents() {
		a := a
		if o, ok := cfg.Overrides[a.ID]; ok {
			if o.Enabled != nil {
				a.Enabled = *o.Enabled
			}
			if o.Model != "" {
				a.Model = o.Model
			}
		}
		a.bindModel(a.Model)
		r.agents = append(r.agents, &a)
	}
	return r
}

func (r *Registry) find(id string) *Agent {
	for _, a := range r.agents {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Get returns a copy of an agent.
func (r *Registry) Get(id string) (Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a := r.find(id)
	if a == nil {
		return Agent{}, false
	}
	return a.clone(), true
}

// Agents returns copies of all agents in declaration order.
func (r *Registry) Agents() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a.clone())
	}
	return out
}

// Enabled returns the enabled agents in declaration order.
func (r *Registry) Enabled() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Agent
	for _, a := range r.agents {
		if a.Enabled {
			out = append(out, a.clone())
		}
	}
	return out
}

// HasEnabled reports whether at least one agent is enabled.
func (r *Registry) HasEnabled() bool {
	return len(r.Enabled()) > 0
}

// StatusText summarizes which agents are enabled.
func (r *Registry) StatusText() string {
	enabled := r.Enabled()
	r.mu.RLock()
	total := len(r.agents)
	r.mu.RUnlock()

	switch {
	case len(enabled) == 0:
		return "❌ No agents enabled"
	case len(enabled) == total:
		return "✅ All agents active"
	}
	names := make([]string, 0, len(enabled))
	for _, a := range enabled {
		names = append(names, a.Name)
	}
	return "⚡ Active: " + strings.Join(names, ", ")
}

// Toggle flips an agent's enabled flag and returns the new state.
// Disabling removes the agent's instruction keys from flags and remembers
// which were set; enabling restores exactly that membership. An agent that
// was never disabled through Toggle gets all its instructions flagged.
func (r *Registry) Toggle(id string, flags ContextFlags) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := r.find(id)
	if a == nil {
		return false, fmt.Errorf("unknown agent: %s", id)
	}
	a.Enabled = !a.Enabled

	if flags != nil {
		if a.Enabled {
			saved, ok := r.stash[id]
			for _, in := range a.instructions {
				key := project.AgentInstructionKey(id, in.Name)
				if !ok || saved[key] {
					flags.AddContext(key)
				}
			}
			delete(r.stash, id)
		} else {
			saved := make(map[string]bool, len(a.instructions))
			for _, in := range a.instructions {
				key := project.AgentInstructionKey(id, in.Name)
				saved[key] = flags.InContext(key)
				flags.RemoveContext(key)
			}
			r.stash[id] = saved
		}
	}

	logging.Info("agent toggled", "agent", id, "enabled", a.Enabled, "instructions", len(a.instructions))
	return a.Enabled, nil
}

// SetModel binds an agent to a model and resolves the backend serving it.
func (r *Registry) SetModel(id, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	b, err := client.ResolveBackend(model)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.find(id)
	if a == nil {
		return fmt.Errorf("unknown agent: %s", id)
	}
	a.Model = model
	a.Backend = b
	return nil
}

// AddInstruction stores an instruction on an agent and flags it in context.
// An instruction with the same name is replaced.
func (r *Registry) AddInstruction(id string, in Instruction, flags ContextFlags) error {
	if in.Name == "" {
		return fmt.Errorf("instruction name is required")
	}
	if in.Size == 0 {
		in.Size = len(in.Content)
	}
	if in.Type == "" {
		in.Type = "text/plain"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.find(id)
	if a == nil {
		return fmt.Errorf("unknown agent: %s", id)
	}

	replaced := false
	for i := range a.instructions {
		if a.instructions[i].Name == in.Name {
			a.instructions[i] = in
			replaced = true
		}
	}
	if !replaced {
		a.instructions = append(a.instructions, in)
	}

	key := project.AgentInstructionKey(id, in.Name)
	if a.Enabled {
		if flags != nil {
			flags.AddContext(key)
		}
	} else if saved, ok := r.stash[id]; ok {
		saved[key] = true
	}
	return nil
}

// RemoveInstruction deletes an instruction and its context flag.
func (r *Registry) RemoveInstruction(id, name string, flags ContextFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.find(id)
	if a == nil {
		return fmt.Errorf("unknown agent: %s", id)
	}
	for i := range a.instructions {
		if a.instructions[i].Name == name {
			a.instructions = append(a.instructions[:i], a.instructions[i+1:]...)
			key := project.AgentInstructionKey(id, name)
			if flags != nil {
				flags.RemoveContext(key)
			}
			if saved, ok := r.stash[id]; ok {
				delete(saved, key)
			}
			return nil
		}
	}
	return fmt.Errorf("agent %s has no instruction %q", id, name)
}

// Reset restores every agent to enabled, the default model and no instructions.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.agents {
		a.Enabled = true
		a.bindModel(config.DefaultModel)
		a.instructions = nil
	}
	r.stash = make(map[string]map[string]bool)
}

// Settings returns a copy of the agent system settings.
func (r *Registry) Settings() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := r.settings
	s.RequestHistory = append([]Selection(nil), r.settings.RequestHistory...)
	return s
}

// FallbackAgent returns the id used when no agent scores.
func (r *Registry) FallbackAgent() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings.FallbackAgent
}

// RecordSelection appends to the bounded history and sets the last used agent.
func (r *Registry) RecordSelection(sel Selection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settings.LastUsedAgent = sel.SelectedAgent
	r.settings.RequestHistory = append(r.settings.RequestHistory, sel)
	if n := len(r.settings.RequestHistory); n > HistorySize {
		r.settings.RequestHistory = append([]Selection(nil), r.settings.RequestHistory[n-HistorySize:]...)
	}
}
