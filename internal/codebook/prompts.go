package codebook

import (
	"fmt"
	"strings"
)

const analystSystemPrompt = "You are an expert survey analyst."

const mergeSystemPrompt = "You are a master survey analyst."

// codebookSchemaSuffix pins the JSON shape for structured codebook responses.
const codebookSchemaSuffix = "\n\nReturn ONLY a JSON object with this exact schema: " +
	`{ "codes": [ { "code": string, "description": string, "examples": string[] } ] }`

// generatePrompt builds the initial codebook generation prompt from a sample
// of unique responses.
func generatePrompt(question string, examples []string) string {
	quoted := make([]string, len(examples))
	for i, ex := range examples {
		quoted[i] = fmt.Sprintf("%q", ex)
	}
	return fmt.Sprintf(`Analyze the survey question and responses to create a thematic codebook.
**Question:** %q **Responses:**
[%s]

Identify themes, define a code and description for each, and select 3-5 verbatim examples. Include an "Other" code.`,
		question, strings.Join(quoted, "\n"))
}

// mergePrompt builds the consolidation prompt for two codebooks. Optional
// user instructions override the general guidance.
func mergePrompt(codebookA, codebookB, userInstructions string) string {
	prompt := fmt.Sprintf(`You are a master survey analyst consolidating two codebooks. Your goal is to create the most accurate final codebook.
**Codebook A:**
%s
**Codebook B:**
%s

**Analytical Process:**
1. Identify codes with similar themes.
2. For similar codes, examine their examples and evaluate if it is possible to separate the examples into two more distinct codes. If they are truly redundant, consolidate them.
3. Retain unique codes. Each code has to refer to a unique concept.`,
		codebookA, codebookB)
	if userInstructions != "" {
		prompt += fmt.Sprintf("\n\n**CRITICAL USER INSTRUCTIONS:**\nYou MUST follow these instructions. They override general guidance.\n---\n%s\n---", userInstructions)
	}
	return prompt + codebookSchemaSuffix
}

// refinePrompt builds the instruction-only refinement prompt.
func refinePrompt(currentJSON, instructions string) string {
	return fmt.Sprintf(`You are refining an existing survey codebook strictly following the user's instructions.
Current codebook JSON:
%s

Instructions:
%s
%s Do not add unrelated fields.`, currentJSON, instructions, strings.TrimPrefix(codebookSchemaSuffix, "\n\n"))
}
