package project

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"codearh/internal/logging"
)

// MaxImportFileSize is the largest file ImportDir will load.
const MaxImportFileSize = 1 << 20

// Excluded reports whether rel matches any of the doublestar patterns.
func Excluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ImportDir loads text files under root into the project. Files matching
// an exclude pattern, binary files and files over MaxImportFileSize are
// skipped. Imported files keep their content untouched.
func (p *Project) ImportDir(root string, exclude []string) (int, error) {
	fsys := os.DirFS(root)
	count := 0

	err := fs.WalkDir(fsys, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if Excluded(rel, exclude) {
				return fs.SkipDir
			}
			return nil
		}
		if Excluded(rel, exclude) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > MaxImportFileSize {
			return nil
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			logging.Warn("skipping unreadable file", "path", rel, "error", err)
			return nil
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		p.WriteFile(filepath.ToSlash(rel), string(data))
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("import %s: %w", root, err)
	}
	logging.Info("project imported", "root", root, "files", count)
	return count, nil
}

// WriteFile stores content verbatim, creating the file and its folders when
// missing. No header or revision marker is added.
func (p *Project) WriteFile(rel, content string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f, ok := p.files[rel]; ok {
		f.Content = content
		f.Modified = p.now()
		return
	}
	parent := p.ensureFolders(rel)
	p.files[rel] = &VirtualFile{
		Path:     rel,
		Name:     filepath.Base(rel),
		Content:  content,
		Language: DetectLanguage(rel),
		Revision: 1,
		Modified: p.now(),
	}
	p.fileOrder = append(p.fileOrder, rel)
	if parent != "" {
		folder := p.folders[parent]
		folder.Children = appendUnique(folder.Children, rel)
	}
}
