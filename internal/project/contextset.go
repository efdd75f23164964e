package project

import "strings"

// Context-flag key prefixes.
const (
	PromptPrefix      = "prompt_"
	InstructionPrefix = "instructions_"
	AgentPrefix       = "agent_"
)

// KeyKind classifies a context-flag key.
type KeyKind int

const (
	KindFile KeyKind = iota
	KindPrompt
	KindInstruction
	KindAgentInstruction
)

// Key is a parsed context-flag key.
type Key struct {
	Kind    KeyKind
	AgentID string // only for KindAgentInstruction
	Name    string // file path for KindFile
}

// PromptKey returns the context key of a prompt attachment.
func PromptKey(name string) string { return PromptPrefix + name }

// InstructionKey returns the context key of a general instruction.
func InstructionKey(name string) string { return InstructionPrefix + name }

// AgentInstructionKey returns the context key of an agent-specific instruction.
func AgentInstructionKey(agentID, name string) string {
	return AgentPrefix + agentID + "_" + name
}

// ParseKey classifies key. Agent ids never contain underscores, so the
// agent key splits on the first underscore after the prefix and the name
// keeps any underscores of its own.
func ParseKey(key string) Key {
	switch {
	case strings.HasPrefix(key, PromptPrefix):
		return Key{Kind: KindPrompt, Name: key[len(PromptPrefix):]}
	case strings.HasPrefix(key, InstructionPrefix):
		return Key{Kind: KindInstruction, Name: key[len(InstructionPrefix):]}
	case strings.HasPrefix(key, AgentPrefix):
		rest := key[len(AgentPrefix):]
		if id, name, ok := strings.Cut(rest, "_"); ok && id != "" {
			return Key{Kind: KindAgentInstruction, AgentID: id, Name: name}
		}
	}
	return Key{Kind: KindFile, Name: key}
}

// ContextSet is an insertion-ordered set of context-flag keys.
type ContextSet struct {
	order []string
	index map[string]struct{}
}

// NewContextSet creates a set holding keys.
func NewContextSet(keys ...string) *ContextSet {
	s := &ContextSet{index: make(map[string]struct{})}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key. It reports whether the key was new.
func (s *ContextSet) Add(key string) bool {
	if _, ok := s.index[key]; ok {
		return false
	}
	s.index[key] = struct{}{}
	s.order = append(s.order, key)
	return true
}

// Remove deletes key. It reports whether the key was present.
func (s *ContextSet) Remove(key string) bool {
	if _, ok := s.index[key]; !ok {
		return false
	}
	delete(s.index, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Has reports membership.
func (s *ContextSet) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Toggle flips membership and returns the new state.
func (s *ContextSet) Toggle(key string) bool {
	if s.Remove(key) {
		return false
	}
	s.Add(key)
	return true
}

// Len returns the number of keys.
func (s *ContextSet) Len() int { return len(s.order) }

// Keys returns a copy of the keys in insertion order.
func (s *ContextSet) Keys() []string {
	return append([]string(nil), s.order...)
}
