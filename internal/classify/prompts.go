package classify

import "fmt"

const singleLabelSystemPrompt = "You are a survey coding assistant."

const multiLabelSystemPrompt = "You are a multi-label survey coding assistant."

// multiLabelSchemaSuffix pins the JSON shape for multi-label responses.
const multiLabelSchemaSuffix = "\n\nReturn ONLY a JSON object with this exact schema: " +
	`{ "assigned_codes": string[] }`

// singleLabelPrompt asks for exactly one best-fit label as free text.
func singleLabelPrompt(question, response, codebookText string) string {
	return fmt.Sprintf(`Classify the response based on the codebook. Choose the single best code label.
**Question:** %q **Codebook:**
---
%s
--- **Response:** %q
**Your output must be ONLY the code label.**`, question, codebookText, response)
}

// multiLabelPrompt asks for every applicable label as a structured list.
func multiLabelPrompt(question, response, codebookText string) string {
	return fmt.Sprintf(`Analyze the response and identify ALL themes from the codebook that are present.
**Question:** %q **Codebook:**
---
%s
--- **Response:** %q
**Instructions:** Return a list of all applicable code labels. If no codes apply, return an empty list.`,
		question, codebookText, response) + multiLabelSchemaSuffix
}
