package router

import (
	"strings"

	"codearh/internal/agent"
)

// RequestType classifies a message for prompt building and state transitions.
type RequestType string

const (
	TypeConfirmation     RequestType = "confirmation"
	TypeProjectCreation  RequestType = "project_creation"
	TypeCodeModification RequestType = "code_modification"
	TypeDebugging        RequestType = "debugging"
	TypeGeneralAssist    RequestType = "general_assistance"
)

// Complexity of a project request.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Priority of a request.
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// RequestAnalysis is computed once per message and never persisted.
type RequestAnalysis struct {
	Type                 RequestType `json:"type"`
	Technologies         []string    `json:"technologies"`
	Complexity           Complexity  `json:"complexity"`
	Priority             Priority    `json:"priority"`
	Confidence           int         `json:"confidence"` // 0-100
	HasErrors            bool        `json:"hasErrors"`
	IsNewProject         bool        `json:"isNewProject"`
	RequiresFiles        bool        `json:"requiresFiles"`
	HasAgentInstructions bool        `json:"hasAgentInstructions"`

	IsProjectRequest      bool `json:"isProjectRequest"`
	IsModificationRequest bool `json:"isModificationRequest"`
	IsDebuggingRequest    bool `json:"isDebuggingRequest"`
	IsConfirmation        bool `json:"isConfirmingGeneration"`
}

var (
	projectKeywords = []string{
		"build", "create", "make", "develop", "generate",
		"scaffold", "setup", "implement", "design", "architect",
		"start", "initialize", "new project",
	}
	modifyKeywords = []string{
		"modify", "update", "change", "edit", "revise", "fix",
		"add", "remove", "refactor", "improve", "enhance",
		"extend", "customize", "adjust", "tweak",
	}
	debugKeywords = []string{
		"debug", "error", "issue", "problem", "bug", "broken",
		"not working", "fix", "solve", "troubleshoot", "repair",
		"crash", "fail", "exception",
	}
	confirmKeywords = []string{"yes", "generate", "proceed", "continue", "go ahead", "confirm"}

	complexIndicators = []string{"complex", "advanced", "enterprise", "full", "complete", "comprehensive"}
	mediumIndicators  = []string{"medium", "standard", "typical"}
)

// technology names and their trigger words, in report order
var techMap = []struct {
	name     string
	keywords []string
}{
	{"react", []string{"react", "jsx", "component"}},
	{"vue", []string{"vue", "vuejs"}},
	{"angular", []string{"angular", "ng"}},
	{"node", []string{"node", "nodejs", "express"}},
	{"python", []string{"python", "django", "flask"}},
	{"javascript", []string{"javascript", "js", "es6"}},
	{"typescript", []string{"typescript", "ts"}},
	{"html", []string{"html", "markup"}},
	{"css", []string{"css", "styling", "styles"}},
	{"database", []string{"database", "sql", "mongodb", "mysql"}},
}

// Analyze classifies message for the selected agent. confirming reports
// whether the conversation is waiting for a plan confirmation.
//
// The type is decided in this order: confirmation, project creation by the
// generator, code modification by the tweaker, debugging by the debugger,
// and general assistance otherwise.
func Analyze(message string, a agent.Agent, hasFiles, confirming bool) RequestAnalysis {
	lower := strings.ToLower(message)
	sig := DetectSignals(lower, hasFiles)

	an := RequestAnalysis{
		Type:                  TypeGeneralAssist,
		Technologies:          DetectTechnologies(lower),
		Complexity:            ComplexitySimple,
		Priority:              PriorityNormal,
		Confidence:            Confidence(a.Keywords, lower),
		HasErrors:             sig.HasErrors,
		IsNewProject:          sig.IsNewProject,
		RequiresFiles:         hasFiles,
		HasAgentInstructions:  a.InstructionCount() > 0,
		IsProjectRequest:      containsAny(lower, projectKeywords...),
		IsModificationRequest: hasFiles && containsAny(lower, modifyKeywords...),
		IsDebuggingRequest:    containsAny(lower, debugKeywords...),
		IsConfirmation:        confirming && containsAny(lower, confirmKeywords...),
	}

	switch {
	case an.IsConfirmation:
		an.Type = TypeConfirmation
	case an.IsProjectRequest && a.ID == agent.Generator:
		an.Type = TypeProjectCreation
		an.Complexity = DetectComplexity(lower)
	case an.IsModificationRequest && a.ID == agent.Tweaker:
		an.Type = TypeCodeModification
		if an.HasErrors {
			an.Priority = PriorityHigh
		}
	case an.IsDebuggingRequest && a.ID == agent.Debugger:
		an.Type = TypeDebugging
		an.Priority = PriorityHigh
	}
	return an
}

// DetectTechnologies lists the technologies mentioned in lower.
func DetectTechnologies(lower string) []string {
	var out []string
	for _, t := range techMap {
		if containsAny(lower, t.keywords...) {
			out = append(out, t.name)
		}
	}
	return out
}

// DetectComplexity grades a project request by its wording.
func DetectComplexity(lower string) Complexity {
	switch {
	case containsAny(lower, complexIndicators...):
		return ComplexityComplex
	case containsAny(lower, mediumIndicators...):
		return ComplexityMedium
	}
	return ComplexitySimple
}

// Confidence adds 10 per contained keyword and 5 per whole-word match,
// capped at 100.
func Confidence(keywords []string, lower string) int {
	c := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			c += 10
		}
	}
	for _, kw := range keywords {
		c += 5 * wordMatches(kw, lower)
	}
	return min(c, 100)
}
