package context

import (
	"fmt"
	"strings"

	"codearh/internal/agent"
	"codearh/internal/project"
	"codearh/internal/router"
)

// InstructionFlags reports which context-flag keys are active.
type InstructionFlags interface {
	InContext(key string) bool
}

const universalRules = `

UNIVERSAL CRITICAL RULES:
1. ALWAYS use gemini-1.5-flash as the default model for all API dependencies unless explicitly specified otherwise or overridden by custom instructions.
2. When users request project creation, first propose a detailed plan, then when confirmed, generate files using FILE_START/FILE_END format.
3. ALL generated code goes directly to the editor using FILE_START/FILE_END markers - NEVER show code in chat responses.
4. Chat responses should only contain discussions, plans, and reports - NO code blocks.
5. For modifications, use MODIFY_START/MODIFY_END format with exact matching text.
6. Follow agent-specific custom instructions when they are provided and active.
7. CRITICAL: Never use markdown code block syntax ('''html, '''js, '''css, etc.) inside FILE_START/FILE_END blocks.
8. CRITICAL: File content must be clean code without any markdown formatting or code block markers.
9. CRITICAL: Do not wrap generated file content in backticks, code blocks, or markdown syntax.`

const modificationRules = `

MODIFICATION RULES:
When modifying existing code, you MUST use this EXACT format:

MODIFY_START: path/to/file.ext
FIND:
[EXACT code to find - must match character-for-character including indentation]
REPLACE:
[EXACT new code to replace with - preserve indentation style]
MODIFY_END

IMPORTANT RULES FOR MODIFICATIONS:
1. The FIND text must be EXACTLY as it appears in the file (same spaces, tabs, line breaks)
2. Include enough context (3-5 lines) to make the match unique
3. Preserve the exact indentation style (spaces vs tabs)
4. Don't add or remove empty lines unless specifically requested
5. If unsure about exact content, ask to see the current file first`

const generationRules = `

PROJECT GENERATION RULES:
For project generation, use this format:
FILE_START: path/to/file.ext
[complete file content]
FILE_END

For project plans, include:
- Clear project structure
- Technology stack (default: gemini-1.5-flash for APIs unless overridden)
- Key features
- Implementation approach`

// BuildSystemPrompt extends the agent's base prompt with its active custom
// instructions, the request analysis and the output format rules.
func BuildSystemPrompt(a agent.Agent, an router.RequestAnalysis, flags InstructionFlags) string {
	var sb strings.Builder
	sb.WriteString(a.SystemPrompt)

	var active []string
	for _, in := range a.Instructions() {
		if flags != nil && flags.InContext(project.AgentInstructionKey(a.ID, in.Name)) {
			active = append(active, in.Name+": "+in.Content)
		}
	}
	if len(active) > 0 {
		sb.WriteString("\n\n=== AGENT-SPECIFIC CUSTOM INSTRUCTIONS ===\n")
		sb.WriteString("These custom instructions override default behavior when applicable:\n\n")
		sb.WriteString(strings.Join(active, "\n\n"))
	}

	techs := strings.Join(an.Technologies, ", ")
	if techs == "" {
		techs = "None"
	}
	custom := "None"
	if an.HasAgentInstructions {
		custom = "Active"
	}
	fmt.Fprintf(&sb, `

REQUEST ANALYSIS:
- Type: %s
- Complexity: %s
- Priority: %s
- Agent Confidence: %d%%
- Technologies Detected: %s
- Has Existing Files: %t
- Contains Errors: %t
- Is New Project: %t
- Agent Model: %s
- Custom Instructions: %s`,
		an.Type, an.Complexity, an.Priority, an.Confidence, techs,
		an.RequiresFiles, an.HasErrors, an.IsNewProject, a.Model, custom)

	sb.WriteString(universalRules)
	switch an.Type {
	case router.TypeCodeModification:
		sb.WriteString(modificationRules)
	case router.TypeProjectCreation:
		sb.WriteString(generationRules)
	}
	return sb.String()
}

// FullPrompt joins the system prompt, the rendered context and the message.
func FullPrompt(system, ctx, message string) string {
	return system + "\n\nContext:\n" + ctx + "\n\nUser: " + message
}
