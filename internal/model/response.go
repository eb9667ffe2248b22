package model

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Classification sentinels. These are distinguished literal values that never
// collide with a joined-label string (labels must not contain the separator).
const (
	// NoCodeApplied marks a multi-label result where the model returned an
	// empty list: the response matched nothing in the codebook.
	NoCodeApplied = "No Code Applied"

	// APIError marks an upstream failure (provider error, timeout, or an
	// unparseable structured response) for a single item.
	APIError = "API_ERROR"

	// LabelSeparator joins multi-label results into one string.
	LabelSeparator = " | "
)

// Mode selects the classification protocol for a run.
type Mode string

const (
	ModeSingleLabel Mode = "single"
	ModeMultiLabel  Mode = "multi"
)

// ResponseSet is the deduplicated set of distinct non-empty string values
// from the coded column. String-identical responses (case-sensitive, after
// NFKC normalization and trimming) are one classification unit; Rows maps
// each unit back to every originating row index.
type ResponseSet struct {
	Members []string
	Rows    map[string][]int
}

// NewResponseSet builds a ResponseSet from raw column values. Empty and
// whitespace-only values are dropped; member order follows first occurrence.
func NewResponseSet(values []string) *ResponseSet {
	rs := &ResponseSet{
		Rows: make(map[string][]int),
	}
	for i, v := range values {
		text := NormalizeResponse(v)
		if text == "" {
			continue
		}
		if _, seen := rs.Rows[text]; !seen {
			rs.Members = append(rs.Members, text)
		}
		rs.Rows[text] = append(rs.Rows[text], i)
	}
	return rs
}

// NormalizeResponse applies NFKC normalization and trims whitespace. Two
// values normalizing to the same string are the same classification unit.
func NormalizeResponse(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Len returns the number of classification units.
func (rs *ResponseSet) Len() int {
	return len(rs.Members)
}

// ResultCache holds one Classification Result per Response Set member for the
// duration of a run. Keys are member strings; values are either a code label,
// a joined multi-label string, or a sentinel.
type ResultCache map[string]string

// Complete reports whether every member of rs has a result.
func (c ResultCache) Complete(rs *ResponseSet) bool {
	for _, m := range rs.Members {
		if _, ok := c[m]; !ok {
			return false
		}
	}
	return true
}

// Failures returns the members whose result is the APIError sentinel.
func (c ResultCache) Failures() []string {
	var failed []string
	for member, result := range c {
		if result == APIError {
			failed = append(failed, member)
		}
	}
	return failed
}

// legacySeparator matches comma separators emitted by older runs so their
// outputs can be normalized to the pipe separator before aggregation.
var legacySeparator = regexp.MustCompile(`\s*,\s*`)

// NormalizeLegacySeparators rewrites comma-joined multi-label values to the
// pipe separator. Values without a comma pass through unchanged.
func NormalizeLegacySeparators(assigned string) string {
	if !strings.Contains(assigned, ",") {
		return assigned
	}
	return legacySeparator.ReplaceAllString(assigned, LabelSeparator)
}

// splitSeparator tolerates uneven whitespace around the pipe when exploding
// multi-label values for frequency counting.
var splitSeparator = regexp.MustCompile(`\s*\|\s*`)

// SplitLabels explodes a joined multi-label value into individual labels.
// Sentinels and single labels come back as a one-element slice.
func SplitLabels(assigned string) []string {
	if assigned == "" {
		return nil
	}
	return splitSeparator.Split(assigned, -1)
}

// JoinLabels serializes a multi-label result. An empty list serializes to the
// NoCodeApplied sentinel.
func JoinLabels(labels []string) string {
	if len(labels) == 0 {
		return NoCodeApplied
	}
	return strings.Join(labels, LabelSeparator)
}
