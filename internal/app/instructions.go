package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codearh/internal/logging"
	"codearh/internal/project"
	"codearh/internal/watcher"
)

// maxInstructionSize bounds a general instruction read from disk.
const maxInstructionSize = 1 << 20

// LoadInstructions reads every file of dir into the project's general
// instructions and returns how many were loaded.
func (a *App) LoadInstructions(dir string) (int, error) {
	files, err := watcher.ListFiles(dir)
	if err != nil {
		return 0, fmt.Errorf("list instructions: %w", err)
	}
	n := 0
	for _, path := range files {
		if err := a.putInstructionFile(path); err != nil {
			logging.Warn("skipping instruction file", "path", path, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// InstructionChanged applies one watcher change to the general instructions.
func (a *App) InstructionChanged(path string, op watcher.Operation) {
	name := filepath.Base(path)
	p := a.Project()
	if op == watcher.OpDelete {
		if p.RemoveInstruction(name) {
			a.setStatus("🗑️ Instruction removed: " + name)
		}
		return
	}
	if err := a.putInstructionFile(path); err != nil {
		logging.Warn("failed to load instruction", "path", path, "error", err)
		return
	}
	a.setStatus("📄 Instruction updated: " + name)
}

func (a *App) putInstructionFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() > maxInstructionSize {
		return fmt.Errorf("instruction too large: %d bytes", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a.Project().PutInstruction(project.Attachment{
		Name:    filepath.Base(path),
		Content: string(data),
		Type:    instructionType(path),
	})
	return nil
}

func instructionType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	}
	return "text/plain"
}
