package codebook

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-coder/internal/model"
)

// WriteJSON serializes the codebook as indented JSON.
func WriteJSON(w io.Writer, cb *model.Codebook) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(cb), "codebook: encode json")
}

// ReadJSON parses a codebook from JSON.
func ReadJSON(r io.Reader) (*model.Codebook, error) {
	var cb model.Codebook
	if err := json.NewDecoder(r).Decode(&cb); err != nil {
		return nil, eris.Wrap(err, "codebook: decode json")
	}
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	return &cb, nil
}

// WriteCSV serializes the codebook as a flat table, one row per code, with
// the examples cell JSON-encoded so list structure round-trips.
func WriteCSV(w io.Writer, cb *model.Codebook) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"code", "description", "examples"}); err != nil {
		return eris.Wrap(err, "codebook: write csv header")
	}
	for _, c := range cb.Codes {
		examples := c.Examples
		if examples == nil {
			examples = []string{}
		}
		encoded, err := json.Marshal(examples)
		if err != nil {
			return eris.Wrap(err, "codebook: marshal examples")
		}
		if err := cw.Write([]string{c.Label, c.Description, string(encoded)}); err != nil {
			return eris.Wrap(err, "codebook: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "codebook: flush csv")
}

// ReadCSV parses a codebook from a flat table. The header is matched
// case-insensitively; "label" is accepted as an alias for "code", and when
// no recognizable header is present the first two columns are used
// positionally. Example cells may be a JSON list or a |, ; or newline
// separated string.
func ReadCSV(r io.Reader) (*model.Codebook, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "codebook: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("codebook: csv is empty")
	}

	header := records[0]
	normalized := make(map[string]int, len(header))
	for i, col := range header {
		normalized[strings.ToLower(strings.TrimSpace(col))] = i
	}

	codeIdx, ok := normalized["code"]
	if !ok {
		codeIdx, ok = normalized["label"]
	}
	descIdx, descOK := normalized["description"]
	examplesIdx, examplesOK := normalized["examples"]

	rows := records[1:]
	if !ok {
		// No recognizable header: treat the first row as data and use
		// positional columns.
		codeIdx = 0
		if len(header) > 1 {
			descIdx, descOK = 1, true
		}
		rows = records
	}

	var cb model.Codebook
	for _, row := range rows {
		label := cell(row, codeIdx)
		if label == "" {
			continue
		}
		code := model.Code{Label: label}
		if descOK {
			code.Description = cell(row, descIdx)
		}
		if examplesOK {
			code.Examples = parseExamples(cell(row, examplesIdx))
		}
		cb.Codes = append(cb.Codes, code)
	}

	if err := cb.Validate(); err != nil {
		return nil, err
	}
	return &cb, nil
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseExamples decodes an examples cell: JSON list first, then the legacy
// separators, then the whole cell as a single example.
func parseExamples(raw string) []string {
	if raw == "" {
		return nil
	}

	var decoded []string
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return decoded
	}
	var single any
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if s, isString := single.(string); isString && s != "" {
			return []string{s}
		}
	}

	for _, sep := range []string{"|", ";", "\n"} {
		if strings.Contains(raw, sep) {
			var out []string
			for _, part := range strings.Split(raw, sep) {
				if p := strings.TrimSpace(part); p != "" {
					out = append(out, p)
				}
			}
			return out
		}
	}

	return []string{raw}
}
