package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	documentsUploadKind string
	documentsListKind   string
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Work with uploaded documents on a server",
}

var documentsUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a policy or user file to the server store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(documentsUploadKind)
		if err != nil {
			return err
		}

		up, err := readUploadFile(args[0])
		if err != nil {
			return err
		}

		cli, err := getClient()
		if err != nil {
			return err
		}

		resp, correlation, err := cli.UploadDocument(cmd.Context(), kind, up)
		if err != nil {
			return logError(err, correlation, "upload failed")
		}

		fmt.Printf("%s uploaded %s as %s (%d entries, fingerprint %s)\n",
			greenCheck, up.Name, bold(resp.ID), resp.Entries, faint(truncate(resp.Fingerprint, 16)))
		return nil
	},
}

var documentsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List uploaded documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(documentsListKind)
		if err != nil {
			return err
		}

		cli, err := getClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Retrieving documents...")
		docs, err := cli.ListDocuments(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Name", "Kind", "Uploaded", "Fingerprint"})

		for _, doc := range docs {
			t.AppendRow(table.Row{
				doc.ID,
				truncate(doc.Name, 30),
				doc.Kind,
				doc.UploadedAt.Format(time.RFC3339),
				truncate(doc.Fingerprint, 16),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an uploaded document (requires admin privileges)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := getClient()
		if err != nil {
			return err
		}
		if err := cli.DeleteDocument(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("deleting document: %w", err)
		}
		fmt.Printf("%s deleted document '%s'\n", greenCheck, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	documentsCmd.AddCommand(documentsUploadCmd)
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)

	bindKindFlag(documentsUploadCmd.Flags(), &documentsUploadKind)
	bindKindFlag(documentsListCmd.Flags(), &documentsListKind)
}
