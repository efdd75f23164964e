package project

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the persisted form of a project.
type Snapshot struct {
	ID             string        `json:"id"`
	Files          []VirtualFile `json:"files"`
	Folders        []Folder      `json:"folders"`
	ContextFiles   []string      `json:"contextFiles"`
	Prompts        []Attachment  `json:"prompts,omitempty"`
	Instructions   []Attachment  `json:"instructions,omitempty"`
	Chat           []ChatTurn    `json:"chat,omitempty"`
	ActiveFile     string        `json:"activeFile,omitempty"`
	OpenTabs       []string      `json:"openTabs,omitempty"`
	ProjectContext bool          `json:"projectContextEnabled"`
	LastModified   time.Time     `json:"lastModified"`
}

// Snapshot captures the project state.
func (p *Project) Snapshot() Snapshot {
	files := p.Files()
	folders := p.Folders()

	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		ID:             p.id,
		Files:          files,
		Folders:        folders,
		ContextFiles:   p.context.Keys(),
		Prompts:        p.prompts.list(),
		Instructions:   p.general.list(),
		Chat:           append([]ChatTurn(nil), p.chat...),
		ActiveFile:     p.activeFile,
		OpenTabs:       append([]string(nil), p.openTabs...),
		ProjectContext: p.projectContext,
		LastModified:   p.now(),
	}
}

// MarshalSnapshot encodes the project as JSON.
func (p *Project) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(p.Snapshot())
}

// FromSnapshot rebuilds a project from a snapshot.
func FromSnapshot(s Snapshot) *Project {
	p := New()
	if s.ID != "" {
		p.id = s.ID
	}
	for i := range s.Files {
		f := s.Files[i]
		p.files[f.Path] = &f
		p.fileOrder = append(p.fileOrder, f.Path)
	}
	for i := range s.Folders {
		f := s.Folders[i]
		p.folders[f.Path] = &f
		p.folderOrd = append(p.folderOrd, f.Path)
	}
	for _, k := range s.ContextFiles {
		p.context.Add(k)
	}
	for _, a := range s.Prompts {
		p.prompts.put(a)
	}
	for _, a := range s.Instructions {
		p.general.put(a)
	}
	p.chat = append(p.chat, s.Chat...)
	p.activeFile = s.ActiveFile
	p.openTabs = append(p.openTabs, s.OpenTabs...)
	p.projectContext = s.ProjectContext
	return p
}

// UnmarshalSnapshot decodes a project from JSON.
func UnmarshalSnapshot(data []byte) (*Project, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode project snapshot: %w", err)
	}
	return FromSnapshot(s), nil
}
