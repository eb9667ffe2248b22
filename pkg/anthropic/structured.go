package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractText concatenates all text content blocks from a message response.
func ExtractText(resp *MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// CleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func CleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// ParseStructured coerces a free-text model response into the value pointed
// to by out. The model is asked for JSON but may wrap it in prose or fences;
// CleanJSON strips the wrapping before unmarshaling. A failure here is
// equivalent to an API failure for the call that produced resp.
func ParseStructured(resp *MessageResponse, out any) error {
	text := CleanJSON(ExtractText(resp))
	if text == "" {
		return eris.New("anthropic: empty structured response")
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return eris.Wrap(err, "anthropic: unmarshal structured response")
	}
	return nil
}
