package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent classification runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(ctx, runsLimit)
		if err != nil {
			return err
		}

		if runsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(runs), "runs: encode")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tCOLUMN\tMODE\tRESPONSES\tCALLS\tFAILURES\tCOST\tCREATED")
		for _, run := range runs {
			responses, calls, failures := "-", "-", "-"
			cost := "-"
			if run.Result != nil {
				responses = fmt.Sprintf("%d", run.Result.Responses)
				calls = fmt.Sprintf("%d", run.Result.APICalls)
				failures = fmt.Sprintf("%d", run.Result.Failures)
				cost = fmt.Sprintf("$%.4f", run.Result.EstimatedUSD)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				run.ID, run.Status, run.Params.Column, run.Params.Mode,
				responses, calls, failures, cost,
				run.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return eris.Wrap(w.Flush(), "runs: flush")
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to show")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(runsCmd)
}
