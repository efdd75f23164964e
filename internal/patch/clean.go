package patch

import (
	"regexp"
	"strings"
)

var (
	leadingFenceRes = []*regexp.Regexp{
		regexp.MustCompile(`^'''[a-zA-Z]*\n?`),
		regexp.MustCompile("^```[a-zA-Z]*\\n?"),
	}
	trailingFenceRes = []*regexp.Regexp{
		regexp.MustCompile(`\n?'''$`),
		regexp.MustCompile("\\n?```$"),
	}
	fenceLineRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*'''?\s*$`),
		regexp.MustCompile("(?m)^\\s*```?\\s*$"),
	}
	htmlFenceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^'''html\s*\n?`),
		regexp.MustCompile("(?i)^```html\\s*\\n?"),
	}
	jsFenceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^'''javascript\s*\n?`),
		regexp.MustCompile("(?i)^```javascript\\s*\\n?"),
		regexp.MustCompile(`(?i)^'''js\s*\n?`),
		regexp.MustCompile("(?i)^```js\\s*\\n?"),
	}
	cssFenceRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^'''css\s*\n?`),
		regexp.MustCompile("(?i)^```css\\s*\\n?"),
	}

	leadingBlankRe  = regexp.MustCompile(`^\s*\n`)
	trailingBlankRe = regexp.MustCompile(`\n\s*$`)
)

// CleanFileContent strips markdown fences and stray fence lines that models
// leave around generated file content.
func CleanFileContent(content, filePath string) string {
	if content == "" {
		return content
	}

	s := content
	s = replaceFirst(s, leadingFenceRes...)
	s = replaceFirst(s, trailingFenceRes...)
	for _, re := range fenceLineRes {
		s = re.ReplaceAllString(s, "")
	}

	switch {
	case strings.HasSuffix(filePath, ".html"), strings.HasSuffix(filePath, ".htm"):
		s = replaceFirst(s, htmlFenceRes...)
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, "html\n")
	case strings.HasSuffix(filePath, ".js"), strings.HasSuffix(filePath, ".jsx"):
		s = replaceFirst(s, jsFenceRes...)
	case strings.HasSuffix(filePath, ".css"), strings.HasSuffix(filePath, ".scss"):
		s = replaceFirst(s, cssFenceRes...)
	}

	s = leadingBlankRe.ReplaceAllString(s, "")
	s = trailingBlankRe.ReplaceAllString(s, "\n")
	return s
}

// replaceFirst applies each anchored pattern once, in order.
func replaceFirst(s string, res ...*regexp.Regexp) string {
	for _, re := range res {
		if loc := re.FindStringIndex(s); loc != nil {
			s = s[:loc[0]] + s[loc[1]:]
		}
	}
	return s
}
