package patch

import (
	"strings"
)

// Outcome discriminates a Match result.
type Outcome int

const (
	NotFound Outcome = iota
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "not_found"
}

// Candidate is a line that resembles the first line of a find text.
type Candidate struct {
	Line int // 1-based
	Text string
}

// Match is the result of running the strategy chain over one file.
type Match struct {
	Outcome    Outcome
	Strategy   string // name of the strategy that applied
	Content    string // new content when Applied
	Candidates []Candidate
}

// MaxCandidates bounds the similar lines reported for a failed match.
const MaxCandidates = 5

// Strategy tries to replace find with replace in content.
type Strategy interface {
	Name() string
	Apply(content, find, replace string) (string, bool)
}

// DefaultChain is exact replacement followed by whitespace-normalized
// line matching.
var DefaultChain = []Strategy{exactStrategy{}, normalizedStrategy{}}

// Resolve runs chain in order and returns the first application. When no
// strategy applies, the result carries candidate lines for the report.
func Resolve(chain []Strategy, content, find, replace string) Match {
	if find != "" {
		for _, s := range chain {
			if out, ok := s.Apply(content, find, replace); ok {
				return Match{Outcome: Applied, Strategy: s.Name(), Content: out}
			}
		}
	}
	return Match{Outcome: NotFound, Candidates: FindCandidates(content, find)}
}

type exactStrategy struct{}

func (exactStrategy) Name() string { return "exact" }

func (exactStrategy) Apply(content, find, replace string) (string, bool) {
	if !strings.Contains(content, find) {
		return "", false
	}
	return strings.Replace(content, find, replace, 1), true
}

type normalizedStrategy struct{}

func (normalizedStrategy) Name() string { return "normalized" }

func (normalizedStrategy) Apply(content, find, replace string) (string, bool) {
	nf := collapseSpace(find)
	if nf == "" || !strings.Contains(collapseSpace(content), nf) {
		return "", false
	}

	lines := strings.Split(content, "\n")
	findLines := strings.Split(find, "\n")
	for i := 0; i+len(findLines) <= len(lines); i++ {
		if windowMatches(lines[i:i+len(findLines)], findLines) {
			out := make([]string, 0, len(lines))
			out = append(out, lines[:i]...)
			out = append(out, strings.Split(replace, "\n")...)
			out = append(out, lines[i+len(findLines):]...)
			return strings.Join(out, "\n"), true
		}
	}
	return "", false
}

func windowMatches(window, find []string) bool {
	for j := range find {
		if strings.TrimSpace(window[j]) != strings.TrimSpace(find[j]) {
			return false
		}
	}
	return true
}

// collapseSpace folds every whitespace run into one space and trims the ends.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FindCandidates returns up to MaxCandidates lines whose trimmed text
// contains, or is contained in, the trimmed first line of find.
func FindCandidates(content, find string) []Candidate {
	first := strings.TrimSpace(strings.SplitN(find, "\n", 2)[0])
	if first == "" {
		return nil
	}
	var out []Candidate
	for i, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if strings.Contains(t, first) || strings.Contains(first, t) {
			out = append(out, Candidate{Line: i + 1, Text: t})
			if len(out) == MaxCandidates {
				break
			}
		}
	}
	return out
}
