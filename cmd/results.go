package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Work with persisted evaluation results on a server",
}

var resultsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List persisted evaluation results",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetUint("limit")
		if err != nil {
			return err
		}

		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving results...")
		results, err := cli.ListResults(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("listing results: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Evaluated", "Run", "User", "Policy", "Verdict"})

		for _, r := range results {
			verdict := greenCheck + " pass"
			if !r.Result.Passed {
				verdict = redCross + " fail"
			}

			t.AppendRow(table.Row{
				r.EvaluatedAt.Format(time.RFC3339),
				truncate(r.RunID, 20),
				truncate(contextLabel(r.Result.UserContext), 25),
				truncate(contextLabel(r.Result.PolicyContext), 25),
				verdict,
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var resultsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all persisted results (requires admin privileges)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}

		deleted, err := cli.ClearResults(cmd.Context())
		if err != nil {
			return fmt.Errorf("clearing results: %w", err)
		}

		fmt.Printf("%s deleted %d results\n", greenCheck, deleted)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsListCmd)
	resultsCmd.AddCommand(resultsClearCmd)

	resultsListCmd.Flags().UintP("limit", "n", 50, "Number of results to retrieve")
}
