package cmd

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/darmiel/verdict/internal/decode"
	"github.com/darmiel/verdict/internal/normalize"
)

var (
	inspectKind string
	inspectDump bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show how a file would be normalized into entries",
	Long: `Parses a policy or user file and shows the entries the normalizer
extracts from it, including where each entry was found. Useful for
checking how an unfamiliar document shape will be interpreted before
running an evaluation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(inspectKind)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		payload, err := decode.ParseAuto(args[0], content)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}

		entries, contexts, err := normalize.Normalize(payload, args[0], kind, cfg.NormalizerOptions())
		if err != nil {
			return fmt.Errorf("normalizing %s: %w", args[0], err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Label", "Section", "Detected", "Keys"})

		for i, ctx := range contexts {
			label := ctx.Label
			if label == "" {
				label = faint(normalize.PositionalLabel(kind, ctx.Index))
			}
			t.AppendRow(table.Row{
				i + 1,
				truncate(label, 30),
				ctx.Section,
				ctx.Detected,
				len(entries[i]),
			})
		}

		applyTableFormat(t)
		t.Render()

		fmt.Printf("\n%s %d %s entries from %s\n", bold("Extracted"), len(entries), kind, args[0])

		if inspectDump {
			spew.Dump(entries)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	bindKindFlag(inspectCmd.Flags(), &inspectKind)
	inspectCmd.Flags().BoolVar(&inspectDump, "dump", false, "Dump the normalized entries")
}
