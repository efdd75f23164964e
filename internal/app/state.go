package app

import (
	"fmt"
	"sync"

	"codearh/internal/agent"
	"codearh/internal/router"
)

// State is the conversation state.
type State string

const (
	StateReady      State = "ready"
	StatePlanning   State = "planning"
	StateConfirming State = "confirming"
	StateGenerating State = "generating"
	StateModifying  State = "modifying"
	StateDebugging  State = "debugging"
)

var stateTexts = map[State]string{
	StateReady:      "",
	StatePlanning:   "📋 Planning...",
	StateConfirming: "❓ Awaiting confirmation...",
	StateGenerating: "⚡ Generating project...",
	StateModifying:  "🔧 Modifying code...",
	StateDebugging:  "🐛 Debugging...",
}

// Text returns the default status line for s.
func (s State) Text() string { return stateTexts[s] }

// StateMachine tracks the conversation state.
type StateMachine struct {
	mu       sync.RWMutex
	state    State
	onChange func(State)
}

// NewStateMachine starts in StateReady. onChange may be nil.
func NewStateMachine(onChange func(State)) *StateMachine {
	return &StateMachine{state: StateReady, onChange: onChange}
}

// State returns the current state.
func (m *StateMachine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Set moves to s.
func (m *StateMachine) Set(s State) {
	m.mu.Lock()
	changed := m.state != s
	m.state = s
	cb := m.onChange
	m.mu.Unlock()
	if changed && cb != nil {
		cb(s)
	}
}

// Confirming reports whether a plan awaits confirmation.
func (m *StateMachine) Confirming() bool { return m.State() == StateConfirming }

// Advance applies the transition for an analyzed request and returns the
// status text to show. Planning is only entered from ready; an empty status
// means nothing changed.
func (m *StateMachine) Advance(an router.RequestAnalysis, a agent.Agent) string {
	switch an.Type {
	case router.TypeProjectCreation:
		if m.State() != StateReady {
			return ""
		}
		m.Set(StatePlanning)
		return fmt.Sprintf("%s Planning project with %s...", a.Icon, a.Model)
	case router.TypeConfirmation:
		m.Set(StateGenerating)
		return fmt.Sprintf("%s Generating project with %s...", a.Icon, a.Model)
	case router.TypeCodeModification:
		m.Set(StateModifying)
		return fmt.Sprintf("%s Modifying code with %s...", a.Icon, a.Model)
	case router.TypeDebugging:
		m.Set(StateDebugging)
		return fmt.Sprintf("%s Debugging with %s...", a.Icon, a.Model)
	default:
		return fmt.Sprintf("%s %s processing with %s...", a.Icon, a.Name, a.Model)
	}
}
