package patch

import (
	"context"
	"strings"

	"codearh/internal/logging"
	"codearh/internal/project"
)

// ProgressFunc receives the percentage of files written so far.
type ProgressFunc func(done, total int, percent float64)

// Generator writes FILE blocks into a project.
type Generator struct {
	project  *project.Project
	progress ProgressFunc
	save     Saver
}

// NewGenerator creates a generator. progress and save may be nil.
func NewGenerator(p *project.Project, progress ProgressFunc, save Saver) *Generator {
	return &Generator{project: p, progress: progress, save: save}
}

// GenerateProjectFiles creates or overwrites every FILE block of response
// in source order and returns the written paths. Afterwards README.md is
// opened when present, otherwise the first file.
func (g *Generator) GenerateProjectFiles(ctx context.Context, response string) []string {
	return g.Write(ctx, ParseFiles(response))
}

// Write creates or overwrites blocks in order.
func (g *Generator) Write(ctx context.Context, blocks []FileBlock) []string {
	if len(blocks) == 0 {
		return nil
	}

	paths := make([]string, 0, len(blocks))
	for i, blk := range blocks {
		content := CleanFileContent(blk.Content, blk.Path)
		created := g.project.CreateFile(blk.Path, content, true)
		paths = append(paths, blk.Path)
		logging.Debug("project file written", "file", blk.Path, "created", created, "size", len(content))
		if g.progress != nil {
			g.progress(i+1, len(blocks), float64(i+1)/float64(len(blocks))*100)
		}
	}

	open := paths[0]
	for _, p := range paths {
		lower := strings.ToLower(p)
		if lower == "readme.md" || strings.HasSuffix(lower, "/readme.md") {
			open = p
			break
		}
	}
	if err := g.project.OpenFile(open); err != nil {
		logging.Warn("failed to open generated file", "file", open, "error", err)
	}

	if g.save != nil {
		if err := g.save(ctx); err != nil {
			logging.Error("failed to save project after generation", "error", err)
		}
	}
	logging.Info("project files generated", "count", len(paths), "opened", open)
	return paths
}
