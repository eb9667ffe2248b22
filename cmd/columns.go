package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/survey-coder/internal/dataset"
)

var columnsInput string

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Profile input columns and flag the ones suitable for coding",
	Long: `Loads a CSV or XLSX file and profiles every column: non-empty count,
unique count, and whether it passes the codable-column heuristic (more unique
non-empty text values than columns.min_unique).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		table, err := dataset.Load(columnsInput)
		if err != nil {
			return eris.Wrap(err, "columns: load input")
		}

		profiles := dataset.DetectCodable(table, cfg.Columns.MinUnique)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(profiles), "columns: encode profiles")
	},
}

func init() {
	columnsCmd.Flags().StringVar(&columnsInput, "input", "", "input CSV/XLSX file (required)")
	_ = columnsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(columnsCmd)
}
