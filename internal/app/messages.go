package app

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageKind tells the UI how to render a message.
type MessageKind string

const (
	KindText   MessageKind = "text"
	KindReport MessageKind = "report" // modification report
	KindPlan   MessageKind = "plan"   // project plan awaiting confirmation
	KindError  MessageKind = "error"
)

// Message is one entry of the visible chat.
type Message struct {
	ID      string      `json:"id"`
	Role    string      `json:"role"`
	Kind    MessageKind `json:"kind"`
	Content string      `json:"content"`
	Agent   string      `json:"agent,omitempty"`
	Time    time.Time   `json:"time"`
}

// maxMessages bounds the visible chat kept in memory.
const maxMessages = 500

func (a *App) addMessage(role string, kind MessageKind, content, agentID string) Message {
	m := Message{
		ID:      uuid.NewString(),
		Role:    role,
		Kind:    kind,
		Content: content,
		Agent:   agentID,
		Time:    a.now(),
	}
	a.mu.Lock()
	a.messages = append(a.messages, m)
	if len(a.messages) > maxMessages {
		a.messages = append([]Message(nil), a.messages[len(a.messages)-maxMessages:]...)
	}
	a.mu.Unlock()

	a.events.Publish(Event{Type: EventMessage, Message: &m, Time: m.Time})
	return m
}

func (a *App) assistant(content string) Message {
	return a.addMessage(RoleAssistant, KindText, content, "")
}

// Messages returns the visible chat.
func (a *App) Messages() []Message {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]Message(nil), a.messages...)
}

// ClearMessages drops the visible chat and the model chat context.
func (a *App) ClearMessages() {
	a.mu.Lock()
	a.messages = nil
	a.mu.Unlock()
	a.Project().ClearChat()
}

func (a *App) setStatus(text string) {
	a.mu.Lock()
	a.status = text
	a.mu.Unlock()
	a.events.Publish(Event{Type: EventStatus, Status: text, Time: a.now()})
}

// Status returns the current status line.
func (a *App) Status() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}
