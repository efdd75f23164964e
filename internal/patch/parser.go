// Package patch turns model output into project changes: it parses the
// FILE and MODIFY markup, applies find/replace edits and writes generated
// files.
package patch

import (
	"regexp"
	"strings"
)

// FileBlock is one FILE_START..FILE_END block.
type FileBlock struct {
	Path    string
	Content string
}

// ModifyBlock is one MODIFY_START..MODIFY_END block. Find and Replace are
// kept verbatim.
type ModifyBlock struct {
	Path    string
	Find    string
	Replace string
}

// Response is a parsed model response.
type Response struct {
	Files         []FileBlock
	Modifications []ModifyBlock
	Report        string // trimmed MODIFICATION_REPORT body
	HasReport     bool
	Raw           string
}

var (
	modifyRe = regexp.MustCompile(`MODIFY_START:\s*(.+?)\nFIND:\n([\s\S]*?)\nREPLACE:\n([\s\S]*?)MODIFY_END`)
	fileRe   = regexp.MustCompile(`FILE_START:\s*(.+?)\n([\s\S]*?)FILE_END`)
	reportRe = regexp.MustCompile(`MODIFICATION_REPORT_START([\s\S]*?)MODIFICATION_REPORT_END`)

	modifyBlockRe = regexp.MustCompile(`MODIFY_START[\s\S]*?MODIFY_END`)
	fileBlockRe   = regexp.MustCompile(`FILE_START[\s\S]*?FILE_END`)
	codeFenceRe   = regexp.MustCompile("```[\\s\\S]*?```")
)

// Parse extracts every block from response.
func Parse(response string) Response {
	r := Response{
		Files:         ParseFiles(response),
		Modifications: ParseModifications(response),
		Raw:           response,
	}
	r.Report, r.HasReport = ExtractReport(response)
	return r
}

// ParseModifications returns the MODIFY blocks in source order.
func ParseModifications(response string) []ModifyBlock {
	var out []ModifyBlock
	for _, m := range modifyRe.FindAllStringSubmatch(response, -1) {
		out = append(out, ModifyBlock{
			Path:    strings.TrimSpace(m[1]),
			Find:    m[2],
			Replace: m[3],
		})
	}
	return out
}

// ParseFiles returns the FILE blocks in source order. Content is raw; use
// CleanFileContent before writing it.
func ParseFiles(response string) []FileBlock {
	var out []FileBlock
	for _, m := range fileRe.FindAllStringSubmatch(response, -1) {
		out = append(out, FileBlock{Path: strings.TrimSpace(m[1]), Content: m[2]})
	}
	return out
}

// ExtractReport returns the trimmed modification report, if any.
func ExtractReport(response string) (string, bool) {
	m := reportRe.FindStringSubmatch(response)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Prose returns the response with every MODIFY, report and FILE block removed.
func Prose(response string) string {
	s := modifyBlockRe.ReplaceAllString(response, "")
	s = reportRe.ReplaceAllString(s, "")
	s = fileBlockRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TextPart returns the response without its FILE blocks.
func TextPart(response string) string {
	return strings.TrimSpace(fileBlockRe.ReplaceAllString(response, ""))
}

// HideCode replaces fenced code with a short placeholder for the chat view.
func HideCode(response string) string {
	return codeFenceRe.ReplaceAllLiteralString(response, "[Code applied to editor]")
}

var planMarkers = []string{
	"Project Structure:",
	"## Project Plan",
	"### Project Overview",
	"## Project Overview",
}

// IsProjectPlan reports whether response proposes a project plan that
// needs the user's confirmation.
func IsProjectPlan(response string) bool {
	for _, m := range planMarkers {
		if strings.Contains(response, m) {
			return true
		}
	}
	return strings.Contains(response, "project") &&
		strings.Contains(response, "structure") &&
		strings.Contains(response, "implement")
}
