package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/darmiel/verdict/pkg/client"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Retrieve and display audit log entries (requires admin privileges)",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, err := cmd.Flags().GetUint("limit")
		if err != nil {
			return err
		}
		action, _ := cmd.Flags().GetString("action")

		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Info().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), client.ListAuditsOpts{
			Limit:  limit,
			Action: action,
		})
		if err != nil {
			return logError(err, correlation, "failed to fetch audit log")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Source", "Pairs", "Passed", "Failed", "Error",
		})

		for _, e := range audits {
			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				truncate(e.Source, 35),
				e.Pairs,
				e.Passed,
				e.Failed,
				truncate(e.Error, 40),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().UintP("limit", "n", 25, "Number of audit entries to retrieve")
	auditCmd.Flags().String("action", "", "Filter entries by action")
}
