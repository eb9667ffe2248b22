package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	convertInput  string
	convertOutput string
)

var codebookCmd = &cobra.Command{
	Use:   "codebook",
	Short: "Codebook file utilities",
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a codebook between JSON and CSV",
	Long: `Reads a codebook in either interchange format and writes it in the
format implied by the output extension. Conversion is lossless in both
directions; CSV cells holding example lists are JSON-encoded.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cb, err := loadCodebookFile(convertInput)
		if err != nil {
			return err
		}
		if err := cb.Validate(); err != nil {
			return eris.Wrap(err, "codebook: validate")
		}
		if err := writeCodebookFile(convertOutput, cb); err != nil {
			return err
		}
		zap.L().Info("codebook converted",
			zap.String("input", convertInput),
			zap.String("output", convertOutput),
			zap.Int("codes", len(cb.Codes)),
		)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertInput, "input", "", "codebook to read, .json or .csv (required)")
	convertCmd.Flags().StringVar(&convertOutput, "output", "", "path to write, format chosen by extension (required)")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")
	codebookCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(codebookCmd)
}
