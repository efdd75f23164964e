// Package project holds the in-memory virtual project: files, folders, the
// context-flag set, prompt and instruction attachments and the chat context.
package project

import (
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrFileNotFound is returned when a path is not in the project.
var ErrFileNotFound = errors.New("file not found")

// VirtualFile is one file of the project.
type VirtualFile struct {
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Content     string    `json:"content"`
	Language    string    `json:"language"`
	Revision    int       `json:"revision"`
	Modified    time.Time `json:"modified"`
	IsTemporary bool      `json:"isTemporary,omitempty"`
}

// Size returns the content size in bytes.
func (f VirtualFile) Size() int { return len(f.Content) }

// Folder is a directory node. Children are child folder and file paths.
type Folder struct {
	Path     string   `json:"path"`
	Name     string   `json:"name"`
	Parent   string   `json:"parent"`
	Children []string `json:"children"`
}

// ChatTurn is one entry of the conversation sent to the model.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Project is the virtual project. It is safe for concurrent use.
type Project struct {
	mu sync.RWMutex

	id         string
	files      map[string]*VirtualFile
	fileOrder  []string
	folders    map[string]*Folder
	folderOrd  []string
	context    *ContextSet
	prompts    *attachmentSet
	general    *attachmentSet
	chat       []ChatTurn
	activeFile string
	openTabs   []string

	projectContext bool

	// Clock is used for file timestamps and revision comments.
	Clock func() time.Time
}

// New creates an empty project with a fresh id.
func New() *Project {
	return &Project{
		id:             "project-" + uuid.NewString(),
		files:          make(map[string]*VirtualFile),
		folders:        make(map[string]*Folder),
		context:        NewContextSet(),
		prompts:        newAttachmentSet(),
		general:        newAttachmentSet(),
		projectContext: true,
		Clock:          time.Now,
	}
}

// Now returns the project clock's current time.
func (p *Project) Now() time.Time { return p.now() }

func (p *Project) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

// ID returns the project id.
func (p *Project) ID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// File returns a copy of the file at path.
func (p *Project) File(filePath string) (VirtualFile, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f, ok := p.files[filePath]
	if !ok {
		return VirtualFile{}, false
	}
	return *f, true
}

// Files returns copies of all files in creation order.
func (p *Project) Files() []VirtualFile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]VirtualFile, 0, len(p.fileOrder))
	for _, fp := range p.fileOrder {
		out = append(out, *p.files[fp])
	}
	return out
}

// FileCount returns the number of files.
func (p *Project) FileCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.files)
}

// HasFiles reports whether the project contains at least one file.
func (p *Project) HasFiles() bool { return p.FileCount() > 0 }

// UpdateFile replaces the content and revision of an existing file.
func (p *Project) UpdateFile(filePath, content string, revision int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[filePath]
	if !ok {
		return ErrFileNotFound
	}
	f.Content = content
	f.Revision = revision
	f.Modified = p.now()
	return nil
}

// CreateFile creates a new file or overwrites an existing one, the way
// generated output lands in the project:
//   - a new code file that supports comments gets a File/Revision header;
//   - an overwrite with different content bumps the revision and records an
//     "AI updated" marker;
//   - missing parent folders are created;
//   - autoContext adds the path to the context set.
//
// It reports whether the file was newly created.
func (p *Project) CreateFile(filePath, content string, autoContext bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if existing, ok := p.files[filePath]; ok {
		if existing.Content != content && SupportsComments(filePath) {
			existing.Revision++
			content = AddRevisionComment(filePath, content, existing.Revision, "AI updated", "", now)
		}
		existing.Content = content
		existing.Modified = now
		if autoContext {
			p.context.Add(filePath)
		}
		return false
	}

	parent := p.ensureFolders(filePath)

	f := &VirtualFile{
		Path:     filePath,
		Name:     path.Base(filePath),
		Content:  content,
		Language: DetectLanguage(filePath),
		Revision: 1,
		Modified: now,
	}
	if IsCodeFile(filePath) {
		if SupportsComments(filePath) {
			f.Content = AddFileHeader(filePath, content, now)
		} else {
			f.Revision = 0
		}
	}

	p.files[filePath] = f
	p.fileOrder = append(p.fileOrder, filePath)
	if parent != "" {
		folder := p.folders[parent]
		folder.Children = appendUnique(folder.Children, filePath)
	}
	if autoContext {
		p.context.Add(filePath)
	}
	return true
}

// ensureFolders creates the folder chain for filePath and returns the
// immediate parent folder path ("" at the root). Callers hold p.mu.
func (p *Project) ensureFolders(filePath string) string {
	parts := strings.Split(filePath, "/")
	dirs := parts[:len(parts)-1]

	current := ""
	for _, name := range dirs {
		if name == "" {
			continue
		}
		parent := current
		if current == "" {
			current = name
		} else {
			current = current + "/" + name
		}
		if _, ok := p.folders[current]; ok {
			continue
		}
		p.folders[current] = &Folder{Path: current, Name: name, Parent: parent}
		p.folderOrd = append(p.folderOrd, current)
		if parent != "" {
			pf := p.folders[parent]
			pf.Children = appendUnique(pf.Children, current)
		}
	}
	return current
}

// DeleteFile removes a file and its context flag.
func (p *Project) DeleteFile(filePath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	f, ok := p.files[filePath]
	if !ok {
		return ErrFileNotFound
	}
	delete(p.files, filePath)
	p.fileOrder = removeString(p.fileOrder, filePath)
	p.context.Remove(filePath)
	if parent := path.Dir(f.Path); parent != "." {
		if folder, ok := p.folders[parent]; ok {
			folder.Children = removeString(folder.Children, filePath)
		}
	}
	if p.activeFile == filePath {
		p.activeFile = ""
	}
	p.openTabs = removeString(p.openTabs, filePath)
	return nil
}

// Folders returns copies of all folders in creation order.
func (p *Project) Folders() []Folder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Folder, 0, len(p.folderOrd))
	for _, fp := range p.folderOrd {
		f := *p.folders[fp]
		f.Children = append([]string(nil), f.Children...)
		out = append(out, f)
	}
	return out
}

// OpenFile makes filePath the active file.
func (p *Project) OpenFile(filePath string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.files[filePath]; !ok {
		return ErrFileNotFound
	}
	p.openTabs = appendUnique(p.openTabs, filePath)
	p.activeFile = filePath
	return nil
}

// ActiveFile returns the active file path, or "".
func (p *Project) ActiveFile() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeFile
}

// OpenTabs returns the open file paths.
func (p *Project) OpenTabs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.openTabs...)
}

// ProjectContextEnabled reports whether every project file joins the prompt.
func (p *Project) ProjectContextEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.projectContext
}

// SetProjectContextEnabled toggles whole-project context.
func (p *Project) SetProjectContextEnabled(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.projectContext = on
}

// AddContext adds a key to the context set.
func (p *Project) AddContext(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.context.Add(key)
}

// RemoveContext removes a key from the context set.
func (p *Project) RemoveContext(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.context.Remove(key)
}

// ToggleContext flips a key and returns its new membership.
func (p *Project) ToggleContext(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.context.Toggle(key)
}

// InContext reports whether key is in the context set.
func (p *Project) InContext(key string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.context.Has(key)
}

// ContextKeys returns the context set in insertion order.
func (p *Project) ContextKeys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.context.Keys()
}

// ContextLen returns the size of the context set.
func (p *Project) ContextLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.context.Len()
}

// AppendChat records a turn of the conversation.
func (p *Project) AppendChat(role, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chat = append(p.chat, ChatTurn{Role: role, Content: content})
}

// RecentChat returns up to n most recent turns.
func (p *Project) RecentChat(n int) []ChatTurn {
	p.mu.RLock()
	defer p.mu.RUnlock()
	start := 0
	if n >= 0 && len(p.chat) > n {
		start = len(p.chat) - n
	}
	return append([]ChatTurn(nil), p.chat[start:]...)
}

// ClearChat drops the chat context.
func (p *Project) ClearChat() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chat = nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
