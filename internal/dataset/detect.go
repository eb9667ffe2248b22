package dataset

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-coder/internal/model"
)

// ColumnProfile summarizes one column for codable-column detection.
type ColumnProfile struct {
	Name     string `json:"name"`
	NonEmpty int    `json:"non_empty"`
	Unique   int    `json:"unique"`
	Codable  bool   `json:"codable"`
}

// DetectCodable profiles every column and flags the ones suitable for
// open-ended coding: columns whose trimmed non-empty values include more
// than minUnique distinct strings. Numeric-looking and low-cardinality
// columns (IDs repeated per row, categorical answers) fall below the
// threshold and are excluded.
func DetectCodable(t *Table, minUnique int) []ColumnProfile {
	profiles := make([]ColumnProfile, 0, len(t.Header))
	for idx, name := range t.Header {
		seen := make(map[string]struct{})
		nonEmpty := 0
		for _, v := range t.Column(idx) {
			text := model.NormalizeResponse(v)
			if text == "" {
				continue
			}
			nonEmpty++
			seen[text] = struct{}{}
		}
		profiles = append(profiles, ColumnProfile{
			Name:     name,
			NonEmpty: nonEmpty,
			Unique:   len(seen),
			Codable:  len(seen) > minUnique,
		})
	}
	return profiles
}

// ValidateCodable checks that the named column exists and passes detection.
// It returns the column index or a validation failure; it never silently
// coerces an unsuitable column.
func ValidateCodable(t *Table, column string, minUnique int) (int, error) {
	idx, ok := t.ColumnIndex(column)
	if !ok {
		return 0, eris.Errorf("dataset: column %q not found", column)
	}
	for _, p := range DetectCodable(t, minUnique) {
		if p.Name == column {
			if !p.Codable {
				return 0, eris.Errorf("dataset: column %q has only %d unique non-empty values (need > %d)", column, p.Unique, minUnique)
			}
			return idx, nil
		}
	}
	return 0, eris.Errorf("dataset: column %q not found", column)
}
