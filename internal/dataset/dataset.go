// Package dataset loads and writes the tabular survey data the coder
// operates on. CSV and XLSX are supported; rows are kept as strings and
// validated explicitly rather than coerced.
package dataset

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is an in-memory tabular dataset: a header row plus data rows.
// Ragged rows are padded with empty cells on load.
type Table struct {
	Header []string
	Rows   [][]string
}

// Load reads a CSV or XLSX file based on its extension.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx", ".xls":
		return LoadXLSX(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadCSV reads a CSV file into a Table.
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}

	if len(records) == 0 {
		return nil, eris.New("dataset: csv is empty")
	}

	return fromRecords(records), nil
}

// LoadXLSX reads the first sheet of an XLSX file into a Table.
func LoadXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	var records [][]string
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
		}
		records = append(records, cells)
	}

	if len(records) == 0 {
		return nil, eris.New("dataset: xlsx sheet is empty")
	}

	return fromRecords(records), nil
}

func fromRecords(records [][]string) *Table {
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}

	t := &Table{Header: header}
	for _, row := range records[1:] {
		padded := make([]string, len(header))
		copy(padded, row)
		t.Rows = append(t.Rows, padded)
	}
	return t
}

// ColumnIndex returns the index of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// Column returns the values of the column at idx, one per row.
func (t *Table) Column(idx int) []string {
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			values[i] = row[idx]
		}
	}
	return values
}

// WithColumn returns a copy of the table with an extra column appended.
// values must have one entry per row; missing entries stay empty.
func (t *Table) WithColumn(name string, values []string) *Table {
	out := &Table{
		Header: append(append([]string(nil), t.Header...), name),
	}
	for i, row := range t.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		out.Rows = append(out.Rows, append(append([]string(nil), row...), v))
	}
	return out
}

// WriteCSV writes the table to a CSV file.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "dataset: create csv")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return eris.Wrap(err, "dataset: write csv header")
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "dataset: write csv row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "dataset: flush csv")
}

// WriteXLSX writes the table to a single-sheet XLSX file.
func (t *Table) WriteXLSX(path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		return eris.Wrap(err, "dataset: add xlsx sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range t.Header {
		headerRow.AddCell().SetString(h)
	}
	for _, row := range t.Rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	return eris.Wrap(f.Save(path), "dataset: save xlsx")
}
