package review

import "fmt"

const promptTemplate = `
You are an expert %s code reviewer.
Analyze the following code and respond with ONLY valid JSON in this exact format (no markdown, no extra text):

{
  "issues": [
    {
      "id": "unique_id_here",
      "type": "error|warning|suggestion",
      "line": number_or_null,
      "message": "description of the issue",
      "severity": "high|medium|low",
      "suggestion": "how to fix this issue"
    }
  ],
  "refactoredCode": "improved version of the code"
}

Rules:
- Always provide at least 1-3 realistic issues for any code (no code is perfect)
- Generate unique IDs for each issue
- Provide actual line numbers when possible
- Include practical suggestions
- Always provide a refactored version that addresses the issues

Code to analyze:
%s
`

// BuildPrompt constructs the instruction prompt for one review request.
// Deterministic: the same code and language always produce the same prompt.
func BuildPrompt(code, language string) string {
	return fmt.Sprintf(promptTemplate, language, code)
}
