package project

import (
	"path"

	"github.com/alecthomas/chroma/v2/lexers"
)

// DetectLanguage returns the chroma lexer name for a file, or "Plaintext".
func DetectLanguage(p string) string {
	lexer := lexers.Match(path.Base(p))
	if lexer == nil {
		return "Plaintext"
	}
	return lexer.Config().Name
}
