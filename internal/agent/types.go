package agent

import (
	"time"

	"codearh/internal/client"
)

// Built-in agent ids, in registry declaration order.
const (
	Generator = "generator"
	Tweaker   = "tweaker"
	Debugger  = "debugger"
)

// HistorySize bounds the selection history.
const HistorySize = 50

// Instruction is a custom guidance document attached to one agent.
type Instruction struct {
	Name    string `json:"-"`
	Content string `json:"content"`
	Size    int    `json:"size"`
	Type    string `json:"type"` // media type
}

// Agent is a behavioral profile bound to a model. Backend is resolved from
// Model whenever the model is set.
type Agent struct {
	ID           string
	Name         string
	Icon         string
	Description  string
	Enabled      bool
	Model        string
	Backend      client.Backend
	Keywords     []string
	SystemPrompt string

	instructions []Instruction
}

func (a *Agent) bindModel(model string) {
	a.Model = model
	a.Backend, _ = client.ResolveBackend(model)
}

// Instructions returns the agent's instructions in insertion order.
func (a Agent) Instructions() []Instruction {
	return append([]Instruction(nil), a.instructions...)
}

// InstructionCount returns the number of stored instructions.
func (a Agent) InstructionCount() int { return len(a.instructions) }

// Instruction returns an instruction by name.
func (a Agent) Instruction(name string) (Instruction, bool) {
	for _, in := range a.instructions {
		if in.Name == name {
			return in, true
		}
	}
	return Instruction{}, false
}

// Label returns "Name (icon)".
func (a Agent) Label() string { return a.Name + " (" + a.Icon + ")" }

func (a Agent) clone() Agent {
	a.Keywords = append([]string(nil), a.Keywords...)
	a.instructions = append([]Instruction(nil), a.instructions...)
	return a
}

// SelectionContext holds the signals observed when an agent was selected.
type SelectionContext struct {
	HasFiles     bool `json:"hasFiles"`
	HasErrors    bool `json:"hasErrors"`
	IsNewProject bool `json:"isNewProject"`
}

// Selection is one entry of the selection history.
type Selection struct {
	Timestamp     time.Time        `json:"timestamp"`
	Message       string           `json:"message"` // first 100 characters
	SelectedAgent string           `json:"selectedAgent"`
	Score         int              `json:"score"`
	Context       SelectionContext `json:"context"`
}

// Settings is the agent system state persisted next to the agents.
type Settings struct {
	LastUsedAgent  string      `json:"lastUsedAgent"`
	RequestHistory []Selection `json:"requestHistory"`
	AutoDetection  bool        `json:"autoDetection"`
	FallbackAgent  string      `json:"fallbackAgent"`
}

// ContextFlags is the context-flag set agent instructions are toggled in.
type ContextFlags interface {
	AddContext(key string) bool
	RemoveContext(key string) bool
	InContext(key string) bool
}
