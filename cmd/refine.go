package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/codebook"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
)

var (
	refineCodebook     string
	refineInstructions string
	refineResample     bool
	refineInput        string
	refineColumn       string
	refineQuestion     string
	refineSample       int
	refineOutput       string
)

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Refine an existing codebook",
	Long: `Two refinement modes:

  - Instruction-based (default): rewrite the current codebook strictly
    following --instructions, without sampling new responses.
  - Resample-and-merge (--resample): generate a second codebook from a fresh
    random sample of the input column and merge it with the current one.
    The random sample is unseeded, so repeated runs differ.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := validateAPIKey(); err != nil {
			return err
		}

		current, err := loadCodebookFile(refineCodebook)
		if err != nil {
			return err
		}

		client := anthropic.NewClient(cfg.Anthropic.Key)

		if !refineResample {
			if refineInstructions == "" {
				return eris.New("refine: --instructions is required without --resample")
			}
			refined, err := codebook.Refine(ctx, client, cfg.Anthropic, current, refineInstructions)
			if err != nil {
				return err
			}
			return writeRefined(refined)
		}

		if refineInput == "" || refineColumn == "" {
			return eris.New("refine: --resample requires --input and --column")
		}

		_, _, rs, err := loadResponses(refineInput, refineColumn)
		if err != nil {
			return eris.Wrap(err, "refine: load responses")
		}

		question := refineQuestion
		if question == "" {
			question = refineColumn
		}

		sampleSize := refineSample
		if sampleSize <= 0 {
			sampleSize = cfg.Codebook.SampleSize
		}
		examples := codebook.RandomSample(rs, sampleSize)

		next, err := codebook.Generate(ctx, client, cfg.Anthropic, question, examples)
		if err != nil {
			return eris.Wrap(err, "refine: generate resample codebook")
		}

		merged, err := codebook.Merge(ctx, client, cfg.Anthropic, current, next, refineInstructions)
		if err != nil {
			return err
		}
		return writeRefined(merged)
	},
}

func writeRefined(cb *model.Codebook) error {
	out := refineOutput
	if out == "" {
		out = refineCodebook
	}
	if err := writeCodebookFile(out, cb); err != nil {
		return err
	}
	zap.L().Info("codebook written",
		zap.String("path", out),
		zap.Int("codes", len(cb.Codes)),
	)
	return nil
}

func init() {
	refineCmd.Flags().StringVar(&refineCodebook, "codebook", "", "current codebook path (required)")
	refineCmd.Flags().StringVar(&refineInstructions, "instructions", "", "refinement or merge instructions")
	refineCmd.Flags().BoolVar(&refineResample, "resample", false, "generate from a fresh random sample and merge")
	refineCmd.Flags().StringVar(&refineInput, "input", "", "input CSV/XLSX file (required with --resample)")
	refineCmd.Flags().StringVar(&refineColumn, "column", "", "column to code (required with --resample)")
	refineCmd.Flags().StringVar(&refineQuestion, "question", "", "survey question text (defaults to the column name)")
	refineCmd.Flags().IntVar(&refineSample, "sample", 0, "resample size (defaults to codebook.sample_size)")
	refineCmd.Flags().StringVar(&refineOutput, "output", "", "output codebook path (defaults to overwriting --codebook)")
	_ = refineCmd.MarkFlagRequired("codebook")
	rootCmd.AddCommand(refineCmd)
}
