package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codearh/internal/config"
	"codearh/internal/logging"
	"codearh/internal/store"
)

// AgentState is the persisted form of one agent.
type AgentState struct {
	Enabled      *bool             `json:"enabled,omitempty"`
	Model        string            `json:"model,omitempty"`
	Instructions []InstructionPair `json:"instructions"`
}

// InstructionPair encodes as a two-element JSON array: [name, {content, size, type}].
type InstructionPair struct {
	Name string
	Instruction
}

func (p InstructionPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.Instruction})
}

func (p *InstructionPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("instruction entry must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Name); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &p.Instruction); err != nil {
		return err
	}
	p.Instruction.Name = p.Name
	return nil
}

// States returns the persisted form of every agent keyed by id.
func (r *Registry) States() map[string]AgentState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]AgentState, len(r.agents))
	for _, a := range r.agents {
		enabled := a.Enabled
		st := AgentState{Enabled: &enabled, Model: a.Model, Instructions: []InstructionPair{}}
		for _, in := range a.instructions {
			st.Instructions = append(st.Instructions, InstructionPair{Name: in.Name, Instruction: in})
		}
		out[a.ID] = st
	}
	return out
}

// ApplyStates merges persisted states onto the registry. Missing fields keep
// their defaults: enabled is true and the model is the default model.
func (r *Registry) ApplyStates(states map[string]AgentState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range states {
		a := r.find(id)
		if a == nil {
			logging.Warn("ignoring state for unknown agent", "agent", id)
			continue
		}
		a.Enabled = true
		if st.Enabled != nil {
			a.Enabled = *st.Enabled
		}
		model := config.DefaultModel
		if st.Model != "" {
			model = st.Model
		}
		a.bindModel(model)
		a.instructions = nil
		for _, p := range st.Instructions {
			in := p.Instruction
			in.Name = p.Name
			a.instructions = append(a.instructions, in)
		}
	}
}

// ApplySettings merges persisted settings onto the current ones.
func (r *Registry) ApplySettings(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.LastUsedAgent != "" {
		r.settings.LastUsedAgent = s.LastUsedAgent
	}
	if s.RequestHistory != nil {
		h := s.RequestHistory
		if len(h) > HistorySize {
			h = h[len(h)-HistorySize:]
		}
		r.settings.RequestHistory = append([]Selection(nil), h...)
	}
	if s.FallbackAgent != "" {
		r.settings.FallbackAgent = s.FallbackAgent
	}
	r.settings.AutoDetection = s.AutoDetection
}

// Save writes the agent states and settings to st.
func (r *Registry) Save(ctx context.Context, st store.Store) error {
	states, err := json.Marshal(r.States())
	if err != nil {
		return fmt.Errorf("encode agent states: %w", err)
	}
	settings, err := json.Marshal(r.Settings())
	if err != nil {
		return fmt.Errorf("encode agent settings: %w", err)
	}
	if err := st.Put(ctx, store.KeyAgentStates, states); err != nil {
		return err
	}
	return st.Put(ctx, store.KeyAgentSettings, settings)
}

// Load restores agent states and settings from st. Corrupt agent states
// reset the registry to defaults; corrupt settings are ignored.
func (r *Registry) Load(ctx context.Context, st store.Store) error {
	data, err := st.Get(ctx, store.KeyAgentStates)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		var states map[string]AgentState
		if err := json.Unmarshal(data, &states); err != nil {
			logging.Error("failed to load agent states, resetting", "error", err)
			r.Reset()
		} else {
			r.ApplyStates(states)
		}
	}

	data, err = st.Get(ctx, store.KeyAgentSettings)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return err
	default:
		// Start from current values so absent fields keep them.
		settings := r.Settings()
		if err := json.Unmarshal(data, &settings); err != nil {
			logging.Error("failed to load agent system settings", "error", err)
		} else {
			r.ApplySettings(settings)
		}
	}
	return nil
}
