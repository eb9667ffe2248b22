package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/survey-coder/internal/codebook"
	"github.com/sells-group/survey-coder/internal/dataset"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "init store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func validateAPIKey() error {
	if cfg.Anthropic.Key == "" {
		return eris.New("anthropic API key not configured (set anthropic.key or SURVEY_ANTHROPIC_KEY)")
	}
	return nil
}

// loadCodebookFile reads a codebook in JSON or CSV interchange format,
// dispatched on extension.
func loadCodebookFile(path string) (*model.Codebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open codebook")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codebook.ReadJSON(f)
	case ".csv":
		return codebook.ReadCSV(f)
	default:
		return nil, eris.Errorf("unsupported codebook format %q", filepath.Ext(path))
	}
}

// writeCodebookFile writes a codebook in JSON or CSV interchange format,
// dispatched on extension.
func writeCodebookFile(path string, cb *model.Codebook) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create codebook file")
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return codebook.WriteJSON(f, cb)
	case ".csv":
		return codebook.WriteCSV(f, cb)
	default:
		return eris.Errorf("unsupported codebook format %q", filepath.Ext(path))
	}
}

// loadResponses loads the input table and builds the deduplicated response
// set from the validated coded column.
func loadResponses(input, column string) (*dataset.Table, int, *model.ResponseSet, error) {
	table, err := dataset.Load(input)
	if err != nil {
		return nil, 0, nil, err
	}
	colIdx, err := dataset.ValidateCodable(table, column, cfg.Columns.MinUnique)
	if err != nil {
		return nil, 0, nil, err
	}
	rs := model.NewResponseSet(table.Column(colIdx))
	if rs.Len() == 0 {
		return nil, 0, nil, eris.Errorf("column %q has no non-empty responses", column)
	}
	return table, colIdx, rs, nil
}
