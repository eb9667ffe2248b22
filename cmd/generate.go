package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/codebook"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

var (
	generateInput    string
	generateColumn   string
	generateQuestion string
	generateSample   int
	generateOutput   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an initial codebook from a sample of responses",
	Long: `Samples unique responses from the coded column and asks the LLM to
build a thematic codebook. The codebook is written to --output in JSON or CSV
interchange format for later refinement and classification.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := validateAPIKey(); err != nil {
			return err
		}

		_, _, rs, err := loadResponses(generateInput, generateColumn)
		if err != nil {
			return eris.Wrap(err, "generate: load responses")
		}

		question := generateQuestion
		if question == "" {
			question = generateColumn
		}

		sampleSize := generateSample
		if sampleSize <= 0 {
			sampleSize = cfg.Codebook.SampleSize
		}
		examples := codebook.Sample(rs, sampleSize)

		client := anthropic.NewClient(cfg.Anthropic.Key)
		cb, err := codebook.Generate(ctx, client, cfg.Anthropic, question, examples)
		if err != nil {
			return err
		}

		if err := writeCodebookFile(generateOutput, cb); err != nil {
			return err
		}

		zap.L().Info("codebook written",
			zap.String("path", generateOutput),
			zap.Int("codes", len(cb.Codes)),
		)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateInput, "input", "", "input CSV/XLSX file (required)")
	generateCmd.Flags().StringVar(&generateColumn, "column", "", "column to code (required)")
	generateCmd.Flags().StringVar(&generateQuestion, "question", "", "survey question text (defaults to the column name)")
	generateCmd.Flags().IntVar(&generateSample, "sample", 0, "number of unique responses to sample (defaults to codebook.sample_size)")
	generateCmd.Flags().StringVar(&generateOutput, "output", "codebook.json", "output codebook path (.json or .csv)")
	_ = generateCmd.MarkFlagRequired("input")
	_ = generateCmd.MarkFlagRequired("column")
	rootCmd.AddCommand(generateCmd)
}
