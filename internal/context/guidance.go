package context

import (
	"fmt"

	"codearh/internal/agent"
)

var agentGuidelines = map[string]string{
	agent.Generator: `Project Creation Guidelines:
- Always use gemini-1.5-flash as default model for API dependencies unless custom instructions specify otherwise
- Focus on clean, modern, production-ready code
- Include proper project structure and documentation
- Consider scalability and best practices
- Create comprehensive file structures with proper organization`,
	agent.Tweaker: `Code Modification Guidelines:
- Use MODIFY_START/MODIFY_END format for all changes
- Preserve existing code style and patterns
- Focus on incremental improvements
- Maintain backward compatibility when possible
- Test modifications mentally before applying`,
	agent.Debugger: `Debugging Guidelines:
- Identify root causes, not just symptoms
- Provide clear explanations of issues found
- Suggest preventive measures for future issues
- Test fixes mentally before applying
- Document debugging process and solutions`,
}

// Guidance returns the static guidelines for a, followed by a note on its
// custom instructions (when it has any) and a note on its model.
func Guidance(a agent.Agent) string {
	out := agentGuidelines[a.ID]
	if n := a.InstructionCount(); n > 0 {
		out += fmt.Sprintf(`

CUSTOM INSTRUCTIONS INTEGRATION:
- You have %d custom instruction(s) loaded for this agent
- These instructions should guide your behavior and decision-making
- Follow custom instructions while maintaining your core agent specialization
- If custom instructions conflict with core behavior, prioritize custom instructions`, n)
	}
	out += fmt.Sprintf(`

MODEL-SPECIFIC OPTIMIZATION:
- Current model: %s
- Optimize responses for this model's strengths and capabilities
- Maintain consistent quality regardless of model selection`, a.Model)
	return out
}
