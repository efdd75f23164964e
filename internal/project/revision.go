package project

import (
	"fmt"
	"path"
	"strings"
	"time"
)

var codeExtensions = map[string]bool{
	"js": true, "jsx": true, "ts": true, "tsx": true, "py": true, "java": true,
	"cpp": true, "c": true, "h": true, "cs": true, "go": true, "rb": true,
	"php": true, "swift": true, "kt": true, "rs": true, "html": true, "css": true,
	"scss": true, "json": true, "xml": true, "yaml": true, "yml": true, "md": true,
	"sql": true, "sh": true, "bash": true,
}

var commentSyntax = map[string]string{
	"js": "//", "jsx": "//", "ts": "//", "tsx": "//", "java": "//", "cpp": "//",
	"c": "//", "cs": "//", "go": "//", "swift": "//", "rs": "//", "php": "//",
	"py": "#", "rb": "#", "sh": "#", "bash": "#", "yaml": "#", "yml": "#",
	"sql":  "--",
	"html": "<!--", "xml": "<!--",
	"css": "/*", "scss": "/*",
}

const stampLayout = "2006-01-02, 15:04:05"

// Ext returns the lowercased extension of the base name without the dot.
// A name without a dot is its own extension.
func Ext(p string) string {
	base := path.Base(p)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return strings.ToLower(base[i+1:])
	}
	return strings.ToLower(base)
}

// IsCodeFile reports whether p has a source or markup extension.
func IsCodeFile(p string) bool { return codeExtensions[Ext(p)] }

// SupportsComments reports whether revision comments may be written into p.
func SupportsComments(p string) bool { return Ext(p) != "json" }

// CommentSyntax returns the line comment token for p.
func CommentSyntax(p string) string {
	if c, ok := commentSyntax[Ext(p)]; ok {
		return c
	}
	return "//"
}

func comment(p, text string) string {
	switch Ext(p) {
	case "html", "xml":
		return "<!-- " + text + " -->"
	case "css", "scss":
		return "/* " + text + " */"
	}
	return CommentSyntax(p) + " " + text
}

// FileHeader returns the two-line header written into newly generated files.
func FileHeader(p string, now time.Time) string {
	return comment(p, "File: "+p) + "\n" +
		comment(p, fmt.Sprintf("[%s] Revision 1 - Initial generation", now.Format(stampLayout))) + "\n\n"
}

// AddFileHeader prepends FileHeader when p supports comments.
func AddFileHeader(p, content string, now time.Time) string {
	if !SupportsComments(p) {
		return content
	}
	return FileHeader(p, now) + content
}

// AddRevisionComment records a revision marker in the first 20 lines of content.
// The last existing marker is replaced. Without one the marker goes after the
// last "File:" line, or at the top of the file. Only comment lines count as
// markers or headers.
func AddRevisionComment(p, content string, revision int, message, lineInfo string, now time.Time) string {
	if !SupportsComments(p) {
		return content
	}
	text := fmt.Sprintf("[%s] Revision %d - %s", now.Format(stampLayout), revision, message)
	if lineInfo != "" {
		text += " lines " + lineInfo
	}
	marker := comment(p, text)

	opener := CommentSyntax(p)
	lines := strings.Split(content, "\n")
	revisionAt, headerAt := -1, -1
	for i := 0; i < len(lines) && i < 20; i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, opener) {
			continue
		}
		if strings.Contains(line, "File:") {
			headerAt = i
		}
		if strings.Contains(line, "Revision") || strings.Contains(line, "[20") {
			revisionAt = i
		}
	}

	switch {
	case revisionAt >= 0:
		lines[revisionAt] = marker
	case headerAt >= 0:
		lines = append(lines[:headerAt+1], append([]string{marker}, lines[headerAt+1:]...)...)
	default:
		lines = append([]string{marker}, lines...)
	}
	return strings.Join(lines, "\n")
}
