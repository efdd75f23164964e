package project

import (
	"fmt"
	"strings"
)

// Attachment is an uploaded prompt or instruction document.
type Attachment struct {
	Name         string `json:"name"`
	Content      string `json:"content"`
	Type         string `json:"type"` // media type, e.g. text/plain or image/png
	Size         int    `json:"size"`
	IsLongPrompt bool   `json:"isLongPrompt,omitempty"`
}

// IsImage reports whether the attachment is an image placeholder.
func (a Attachment) IsImage() bool { return strings.HasPrefix(a.Type, "image/") }

type attachmentSet struct {
	order []string
	items map[string]Attachment
}

func newAttachmentSet() *attachmentSet {
	return &attachmentSet{items: make(map[string]Attachment)}
}

func (s *attachmentSet) put(a Attachment) {
	if _, ok := s.items[a.Name]; !ok {
		s.order = append(s.order, a.Name)
	}
	s.items[a.Name] = a
}

func (s *attachmentSet) remove(name string) bool {
	if _, ok := s.items[name]; !ok {
		return false
	}
	delete(s.items, name)
	s.order = removeString(s.order, name)
	return true
}

func (s *attachmentSet) list() []Attachment {
	out := make([]Attachment, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.items[n])
	}
	return out
}

// AddPrompt stores a prompt attachment and flags it in context.
func (p *Project) AddPrompt(a Attachment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.Size == 0 {
		a.Size = len(a.Content)
	}
	p.prompts.put(a)
	p.context.Add(PromptKey(a.Name))
}

// Prompt returns a prompt attachment by name.
func (p *Project) Prompt(name string) (Attachment, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.prompts.items[name]
	return a, ok
}

// Prompts lists prompt attachments in upload order.
func (p *Project) Prompts() []Attachment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prompts.list()
}

// RemovePrompt deletes a prompt attachment and its context flag.
func (p *Project) RemovePrompt(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.context.Remove(PromptKey(name))
	return p.prompts.remove(name)
}

// AddLongPrompt turns an oversized message into a text attachment and
// returns the attachment name.
func (p *Project) AddLongPrompt(message string) string {
	name := fmt.Sprintf("prompt_%d.txt", p.now().UnixMilli())
	p.AddPrompt(Attachment{
		Name:         name,
		Content:      message,
		Type:         "text/plain",
		Size:         len(message),
		IsLongPrompt: true,
	})
	return name
}

// PutInstruction stores a general instruction and flags it in context.
func (p *Project) PutInstruction(a Attachment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if a.Size == 0 {
		a.Size = len(a.Content)
	}
	if a.Type == "" {
		a.Type = "text/plain"
	}
	p.general.put(a)
	p.context.Add(InstructionKey(a.Name))
}

// Instruction returns a general instruction by name.
func (p *Project) Instruction(name string) (Attachment, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.general.items[name]
	return a, ok
}

// Instructions lists general instructions in upload order.
func (p *Project) Instructions() []Attachment {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.general.list()
}

// RemoveInstruction deletes a general instruction and its context flag.
func (p *Project) RemoveInstruction(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.context.Remove(InstructionKey(name))
	return p.general.remove(name)
}
