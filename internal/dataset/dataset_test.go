package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "ID, Feedback \n1,low pay\n2,\"bad, mean boss\"\n")
	table, err := LoadCSV(path)
	require.NoError(t, err)

	// Header cells are trimmed.
	assert.Equal(t, []string{"ID", "Feedback"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2", "bad, mean boss"}, table.Rows[1])
}

func TestLoadCSVRaggedRows(t *testing.T) {
	t.Parallel()

	path := writeTempCSV(t, "a,b,c\n1,2\n1,2,3,4\n")
	table, err := LoadCSV(path)
	require.NoError(t, err)

	// Short rows are padded to the header width; long rows are truncated.
	assert.Equal(t, []string{"1", "2", ""}, table.Rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, table.Rows[1])
}

func TestLoadCSVEmpty(t *testing.T) {
	t.Parallel()

	_, err := LoadCSV(writeTempCSV(t, ""))
	assert.Error(t, err)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Load("data.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestColumnOperations(t *testing.T) {
	t.Parallel()

	table := &Table{
		Header: []string{"ID", "Feedback"},
		Rows:   [][]string{{"1", "low pay"}, {"2", "bad boss"}},
	}

	idx, ok := table.ColumnIndex("Feedback")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = table.ColumnIndex("Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"low pay", "bad boss"}, table.Column(idx))
}

func TestWithColumn(t *testing.T) {
	t.Parallel()

	table := &Table{
		Header: []string{"ID", "Feedback"},
		Rows:   [][]string{{"1", "low pay"}, {"2", "bad boss"}},
	}

	out := table.WithColumn("Assigned Code", []string{"Pay", "Culture"})
	assert.Equal(t, []string{"ID", "Feedback", "Assigned Code"}, out.Header)
	assert.Equal(t, []string{"1", "low pay", "Pay"}, out.Rows[0])

	// The source table is untouched.
	assert.Equal(t, []string{"ID", "Feedback"}, table.Header)
	assert.Len(t, table.Rows[0], 2)
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	table := &Table{
		Header: []string{"ID", "Feedback"},
		Rows:   [][]string{{"1", "has, comma"}, {"2", "plain"}},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, table.WriteCSV(path))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, table.Header, got.Header)
	assert.Equal(t, table.Rows, got.Rows)
}

func TestXLSXRoundTrip(t *testing.T) {
	t.Parallel()

	table := &Table{
		Header: []string{"ID", "Feedback"},
		Rows:   [][]string{{"1", "low pay"}, {"2", "bad boss"}},
	}
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, table.WriteXLSX(path))

	got, err := LoadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, table.Header, got.Header)
	assert.Equal(t, table.Rows, got.Rows)
}

func freeTextTable(n int) *Table {
	table := &Table{Header: []string{"ID", "Category", "Feedback"}}
	for i := 0; i < n; i++ {
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", i),
			[]string{"A", "B", "C"}[i%3],
			fmt.Sprintf("unique answer number %d", i),
		})
	}
	return table
}

func TestDetectCodable(t *testing.T) {
	t.Parallel()

	profiles := DetectCodable(freeTextTable(60), 50)
	require.Len(t, profiles, 3)

	byName := make(map[string]ColumnProfile)
	for _, p := range profiles {
		byName[p.Name] = p
	}

	// IDs are unique too, so cardinality alone flags them; the threshold is a
	// heuristic, not a classifier.
	assert.True(t, byName["ID"].Codable)
	assert.False(t, byName["Category"].Codable)
	assert.Equal(t, 3, byName["Category"].Unique)
	assert.True(t, byName["Feedback"].Codable)
	assert.Equal(t, 60, byName["Feedback"].Unique)
	assert.Equal(t, 60, byName["Feedback"].NonEmpty)
}

func TestDetectCodableThresholdIsExclusive(t *testing.T) {
	t.Parallel()

	// Exactly minUnique distinct values does not qualify; it takes more.
	profiles := DetectCodable(freeTextTable(50), 50)
	for _, p := range profiles {
		if p.Name == "Feedback" {
			assert.False(t, p.Codable)
		}
	}
}

func TestValidateCodable(t *testing.T) {
	t.Parallel()

	table := freeTextTable(60)

	idx, err := ValidateCodable(table, "Feedback", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = ValidateCodable(table, "Category", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique non-empty values")

	_, err = ValidateCodable(table, "Missing", 50)
	assert.Error(t, err)
}
