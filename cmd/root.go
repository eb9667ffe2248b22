package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/survey-coder/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "survey-coder",
	Short: "LLM-assisted thematic coding for open-ended survey responses",
	Long:  "Generates, refines, and merges thematic codebooks, then classifies survey responses against them, using semantic clustering to cut the number of paid LLM calls.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
