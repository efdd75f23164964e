package project

import "strings"

// Tree renders the folder/file hierarchy, two spaces of indent per level.
func (p *Project) Tree() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var lines []string
	seen := make(map[string]bool)

	var add func(node string, level int)
	add = func(node string, level int) {
		indent := strings.Repeat("  ", level)
		if f, ok := p.files[node]; ok {
			if !f.IsTemporary {
				lines = append(lines, indent+"├── "+f.Name)
			}
			return
		}
		folder, ok := p.folders[node]
		if !ok {
			return
		}
		lines = append(lines, indent+"├── "+folder.Name+"/")
		for _, child := range folder.Children {
			if !seen[child] {
				seen[child] = true
				add(child, level+1)
			}
		}
	}

	for _, fp := range p.folderOrd {
		if p.folders[fp].Parent == "" && !seen[fp] {
			seen[fp] = true
			add(fp, 0)
		}
	}
	for _, fp := range p.fileOrder {
		if !strings.Contains(fp, "/") && !seen[fp] {
			seen[fp] = true
			add(fp, 0)
		}
	}
	return strings.Join(lines, "\n")
}
