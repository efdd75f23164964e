package context

import (
	"strings"

	"codearh/internal/agent"
	"codearh/internal/project"
)

var tweakerExtensions = map[string]bool{
	"js": true, "jsx": true, "ts": true, "tsx": true, "py": true, "java": true, "cpp": true,
	"c": true, "cs": true, "go": true, "rb": true, "php": true, "swift": true, "rs": true,
}

var debuggerMarkers = []string{"error", "log", "test", "exception", "bug"}

// IsRelevant reports whether f should be listed ahead of the other files
// for the agent agentID.
func IsRelevant(f project.VirtualFile, agentID string) bool {
	switch agentID {
	case agent.Generator:
		return true
	case agent.Tweaker:
		name := strings.ToLower(f.Name)
		return tweakerExtensions[project.Ext(f.Path)] ||
			strings.Contains(name, "config") || strings.Contains(name, "package")
	case agent.Debugger:
		name := strings.ToLower(f.Name)
		content := strings.ToLower(f.Content)
		for _, m := range debuggerMarkers {
			if strings.Contains(name, m) || strings.Contains(content, m) {
				return true
			}
		}
	}
	return false
}
