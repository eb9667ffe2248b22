package classify

import (
	"sort"

	"github.com/sells-group/survey-coder/internal/model"
)

// Apply maps the result cache back onto the original column values, one
// assigned-code string per row. Rows with an empty value in the coded column
// stay unassigned. Apply is a pure function of the cache and the values:
// re-applying it yields the same output.
func Apply(values []string, cache model.ResultCache) []string {
	assigned := make([]string, len(values))
	for i, v := range values {
		text := model.NormalizeResponse(v)
		if text == "" {
			continue
		}
		assigned[i] = cache[text]
	}
	return assigned
}

// FrequencyRow is one entry in the code frequency table.
type FrequencyRow struct {
	Code       string  `json:"code"`
	Frequency  int     `json:"frequency"`
	Percentage float64 `json:"percentage"`
}

// Frequencies aggregates assigned-code values into a frequency table. In
// multi-label mode each joined value is exploded on the separator and every
// label counted independently, so one response with two labels contributes
// to two buckets. Legacy comma separators are normalized first. Rows sort by
// frequency descending, then code ascending.
func Frequencies(assigned []string, mode model.Mode) []FrequencyRow {
	counts := make(map[string]int)
	total := 0

	for _, value := range assigned {
		if value == "" {
			continue
		}
		value = model.NormalizeLegacySeparators(value)

		if mode == model.ModeMultiLabel {
			for _, label := range model.SplitLabels(value) {
				if label == "" {
					continue
				}
				counts[label]++
				total++
			}
		} else {
			counts[value]++
			total++
		}
	}

	rows := make([]FrequencyRow, 0, len(counts))
	for code, n := range counts {
		row := FrequencyRow{Code: code, Frequency: n}
		if total > 0 {
			row.Percentage = float64(n) / float64(total)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Frequency == rows[j].Frequency {
			return rows[i].Code < rows[j].Code
		}
		return rows[i].Frequency > rows[j].Frequency
	})
	return rows
}
