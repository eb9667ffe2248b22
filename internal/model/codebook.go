package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Code is a single thematic category in a codebook.
type Code struct {
	Label       string   `json:"code"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

// Codebook is the ordered set of codes a classification run operates against.
// Labels should be unique but this is not enforced at construction: merge and
// refine can emit duplicates, and classification treats labels as opaque
// matchable strings.
type Codebook struct {
	Codes []Code `json:"codes"`
}

// Validate checks that the codebook is usable for classification.
func (cb *Codebook) Validate() error {
	if cb == nil || len(cb.Codes) == 0 {
		return eris.New("codebook: empty")
	}
	for i, c := range cb.Codes {
		if strings.TrimSpace(c.Label) == "" {
			return eris.Errorf("codebook: code %d has an empty label", i)
		}
	}
	return nil
}

// PromptText renders the codebook in the textual form embedded verbatim in
// classification and merge prompts:
//
//	- Code: <label>
//	  Description: <description>
func (cb *Codebook) PromptText() string {
	if cb == nil || len(cb.Codes) == 0 {
		return ""
	}
	lines := make([]string, 0, len(cb.Codes))
	for _, c := range cb.Codes {
		lines = append(lines, fmt.Sprintf("- Code: %s\n  Description: %s", c.Label, c.Description))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Labels returns the code labels in codebook order.
func (cb *Codebook) Labels() []string {
	labels := make([]string, len(cb.Codes))
	for i, c := range cb.Codes {
		labels[i] = c.Label
	}
	return labels
}
