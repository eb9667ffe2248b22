package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/classify"
	"github.com/sells-group/survey-coder/internal/cluster"
	"github.com/sells-group/survey-coder/internal/cost"
	"github.com/sells-group/survey-coder/internal/dataset"
	"github.com/sells-group/survey-coder/internal/model"
	"github.com/sells-group/survey-coder/pkg/anthropic"
	"github.com/sells-group/survey-coder/pkg/voyage"
)

// assignedColumn is the name of the column appended to the output table.
const assignedColumn = "Assigned Code"

var (
	classifyInput      string
	classifyColumn     string
	classifyQuestion   string
	classifyCodebook   string
	classifyMulti      bool
	classifyNoCluster  bool
	classifyWorkers    int
	classifyOutput     string
	classifyFreqOutput string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify every response in a column against a codebook",
	Long: `Deduplicates the coded column into a response set, optionally
accelerates with semantic clustering (one LLM call per cluster of
near-duplicate responses instead of one per response), classifies, and maps
the results back onto every original row.

Individual classification failures never abort the batch: affected rows get
the API_ERROR placeholder and can be re-run or fixed manually.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := validateAPIKey(); err != nil {
			return err
		}
		useClustering := !classifyNoCluster
		if useClustering && cfg.Voyage.Key == "" {
			return eris.New("voyage API key not configured (set voyage.key or SURVEY_VOYAGE_KEY); use --no-cluster to classify without acceleration")
		}

		cb, err := loadCodebookFile(classifyCodebook)
		if err != nil {
			return err
		}
		if err := cb.Validate(); err != nil {
			return err
		}

		table, colIdx, rs, err := loadResponses(classifyInput, classifyColumn)
		if err != nil {
			return eris.Wrap(err, "classify: load responses")
		}

		question := classifyQuestion
		if question == "" {
			question = classifyColumn
		}
		mode := model.ModeSingleLabel
		if classifyMulti {
			mode = model.ModeMultiLabel
		}
		workers := classifyWorkers
		if workers <= 0 {
			workers = cfg.Classify.Workers
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.CreateRun(ctx, model.RunParams{
			InputPath:  classifyInput,
			Column:     classifyColumn,
			Mode:       mode,
			Clustering: useClustering,
			Model:      cfg.Anthropic.ClassifyModel,
		})
		if err != nil {
			return err
		}

		zap.L().Info("classification run starting",
			zap.String("run_id", run.ID),
			zap.String("column", classifyColumn),
			zap.String("mode", string(mode)),
			zap.Bool("clustering", useClustering),
			zap.Int("responses", rs.Len()),
			zap.Int("workers", workers),
		)

		classifier := classify.NewClassifier(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic, mode, question, cb)

		var (
			embedder     classify.Embedder
			voyageClient voyage.Client
		)
		if useClustering {
			voyageClient = voyage.NewClient(cfg.Voyage.Key,
				voyage.WithBaseURL(cfg.Voyage.BaseURL),
				voyage.WithModel(cfg.Voyage.Model),
			)
			embedder = voyageClient
		}

		orch := classify.NewOrchestrator(classifier, embedder, classify.Options{
			Clustering:    useClustering,
			ClusterParams: cluster.Params{Eps: cfg.Cluster.Eps, MinPoints: cfg.Cluster.MinPoints},
			Workers:       workers,
			RatePerSec:    cfg.Classify.RatePerSec,
			Progress:      logProgress(),
		})

		_ = st.UpdateRunStatus(ctx, run.ID, model.RunStatusClassifying)

		start := time.Now()
		cache, stats, err := orch.Run(ctx, rs)
		if err != nil {
			_ = st.FailRun(ctx, run.ID)
			return eris.Wrap(err, "classify: run")
		}

		for _, report := range stats.Report {
			zap.L().Debug("cluster",
				zap.Int("id", report.ID),
				zap.Int("size", report.Size),
				zap.Float64("cohesion", report.Cohesion),
				zap.String("representative", report.Representative),
			)
		}

		// Map results back onto every original row and write outputs.
		_ = st.UpdateRunStatus(ctx, run.ID, model.RunStatusApplying)
		assigned := classify.Apply(table.Column(colIdx), cache)
		out := table.WithColumn(assignedColumn, assigned)

		outPath := classifyOutput
		if outPath == "" {
			outPath = defaultOutputPath(classifyInput)
		}
		if err := writeTable(out, outPath); err != nil {
			_ = st.FailRun(ctx, run.ID)
			return err
		}

		freqs := classify.Frequencies(assigned, mode)
		freqPath := classifyFreqOutput
		if freqPath == "" {
			freqPath = strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "-frequencies.csv"
		}
		if err := writeFrequencies(freqs, freqPath); err != nil {
			_ = st.FailRun(ctx, run.ID)
			return err
		}

		result := &model.RunResult{
			Responses:    stats.Responses,
			Clusters:     stats.Clusters,
			Outliers:     stats.Outliers,
			APICalls:     stats.APICalls,
			Failures:     stats.Failures,
			DurationMS:   time.Since(start).Milliseconds(),
			EstimatedUSD: estimateCost(stats, voyageClient),
		}
		if err := st.CompleteRun(ctx, run.ID, result); err != nil {
			zap.L().Warn("classify: failed to record run result", zap.Error(err))
		}

		zap.L().Info("classification complete",
			zap.String("run_id", run.ID),
			zap.String("output", outPath),
			zap.String("frequencies", freqPath),
			zap.Int("responses", result.Responses),
			zap.Int("clusters", result.Clusters),
			zap.Int("outliers", result.Outliers),
			zap.Int("api_calls", result.APICalls),
			zap.Int("failures", result.Failures),
			zap.Float64("estimated_cost_usd", result.EstimatedUSD),
		)
		return nil
	},
}

// logProgress logs phase transitions at info and per-call ticks at debug.
func logProgress() classify.Progress {
	var lastMessage string
	return func(fraction float64, message string) {
		if message != lastMessage {
			lastMessage = message
			zap.L().Info("progress", zap.String("phase", message), zap.Int("percent", int(fraction*100)))
			return
		}
		zap.L().Debug("progress", zap.String("phase", message), zap.Int("percent", int(fraction*100)))
	}
}

func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "-classified" + ext
}

func writeTable(t *dataset.Table, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return t.WriteXLSX(path)
	default:
		return t.WriteCSV(path)
	}
}

func writeFrequencies(rows []classify.FrequencyRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "classify: create frequency file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Code", "Frequency", "Percentage"}); err != nil {
		return eris.Wrap(err, "classify: write frequency header")
	}
	for _, row := range rows {
		record := []string{row.Code, fmt.Sprintf("%d", row.Frequency), fmt.Sprintf("%.2f%%", row.Percentage*100)}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "classify: write frequency row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "classify: flush frequency file")
}

func estimateCost(stats *classify.RunStats, voyageClient voyage.Client) float64 {
	rates := cost.DefaultRates()
	if cfg.Cost.RatesPath != "" {
		loaded, err := cost.LoadRates(cfg.Cost.RatesPath)
		if err != nil {
			zap.L().Warn("classify: rates file unreadable, using defaults", zap.Error(err))
		} else {
			rates = loaded
		}
	}
	calc := cost.NewCalculator(rates)
	total := calc.Claude(cfg.Anthropic.ClassifyModel,
		stats.Usage.InputTokens, stats.Usage.OutputTokens,
		stats.Usage.CacheCreationTokens, stats.Usage.CacheReadTokens,
	)
	if voyageClient != nil {
		total += calc.Voyage(voyageClient.TotalTokens())
	}
	return total
}

func init() {
	classifyCmd.Flags().StringVar(&classifyInput, "input", "", "input CSV/XLSX file (required)")
	classifyCmd.Flags().StringVar(&classifyColumn, "column", "", "column to code (required)")
	classifyCmd.Flags().StringVar(&classifyQuestion, "question", "", "survey question text (defaults to the column name)")
	classifyCmd.Flags().StringVar(&classifyCodebook, "codebook", "", "codebook path, .json or .csv (required)")
	classifyCmd.Flags().BoolVar(&classifyMulti, "multi", false, "enable multi-label classification")
	classifyCmd.Flags().BoolVar(&classifyNoCluster, "no-cluster", false, "disable semantic-clustering acceleration")
	classifyCmd.Flags().IntVar(&classifyWorkers, "workers", 0, "concurrent classification calls (defaults to classify.workers)")
	classifyCmd.Flags().StringVar(&classifyOutput, "output", "", "classified output path (defaults next to the input)")
	classifyCmd.Flags().StringVar(&classifyFreqOutput, "freq-output", "", "frequency table path (defaults next to the output)")
	_ = classifyCmd.MarkFlagRequired("input")
	_ = classifyCmd.MarkFlagRequired("column")
	_ = classifyCmd.MarkFlagRequired("codebook")
	rootCmd.AddCommand(classifyCmd)
}
