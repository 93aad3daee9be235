package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/verdict/internal/audit"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/internal/engine"
	"github.com/darmiel/verdict/internal/service"
	"github.com/darmiel/verdict/internal/store"
)

var (
	evalUsersPath    string
	evalPoliciesPath string
	evalWorkers      int
	evalJSON         bool
	evalShowTraces   bool
	evalPersist      bool
	evalStrict       bool
)

var evaluateCmd = &cobra.Command{
	Use:     "evaluate",
	Aliases: []string{"eval"},
	Short:   "Evaluate user records against policy documents",
	Long: `Evaluates every user record in the users file against every policy in
the policies file and prints a verdict per pair.

Runs locally by default. With --server set, the files are sent to a
remote Verdict server instead.`,
	Example: `  # evaluate a CSV of users against a YAML policy file
  verdict evaluate -u users.csv -p policies.yaml

  # show the full evaluation trace for every pair
  verdict evaluate -u users.json -p policies.json --traces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := readUploadFile(evalUsersPath)
		if err != nil {
			return err
		}
		policies, err := readUploadFile(evalPoliciesPath)
		if err != nil {
			return err
		}

		var resp *service.EvaluateResponse

		if verdictAddr != "" || viper.GetString(VerdictAddrKey) != "" {
			cli, err := getClient()
			if err != nil {
				return err
			}
			remote, correlation, err := cli.EvaluateFiles(cmd.Context(), users, policies, evalPersist)
			if err != nil {
				return logError(err, correlation, "remote evaluation failed")
			}
			resp = remote
		} else {
			resp, err = evaluateLocally(cmd, users, policies)
			if err != nil {
				return err
			}
		}

		if evalJSON {
			if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
				return err
			}
		} else {
			printResults(resp)
		}

		if evalStrict && resp.Failed > 0 {
			return fmt.Errorf("%d of %d evaluations failed", resp.Failed, resp.TotalEvaluations)
		}
		return nil
	},
}

func readUploadFile(path string) (service.Upload, error) {
	if path == "" {
		return service.Upload{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return service.Upload{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return service.Upload{Name: filepath.Base(path), Content: content}, nil
}

func evaluateLocally(cmd *cobra.Command, users, policies service.Upload) (*service.EvaluateResponse, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	workers := evalWorkers
	if workers == 0 {
		workers = cfg.Engine.Workers
	}

	// local runs keep everything in memory and skip auditing
	s := store.NewInMemoryStore()
	svc := service.NewEvalService(
		engine.New(engine.WithWorkers(workers)),
		engine.NewManager(engine.PolicySet{}),
		cfg.NormalizerOptions(),
		s,
		s,
		audit.NewNoopAuditor(),
	)

	return svc.Evaluate(cmd.Context(), service.EvaluateRequest{
		Users:    users,
		Policies: policies,
	})
}

func printResults(resp *service.EvaluateResponse) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"User", "Policy", "Verdict", "Failed Conditions"})

	for _, res := range resp.Results {
		verdict := greenCheck + " pass"
		if !res.Passed {
			verdict = redCross + " fail"
		}

		failures := ""
		for i, fc := range res.FailedConditions {
			if i > 0 {
				failures += "; "
			}
			failures += fmt.Sprintf("%s %s %v (got %v)", fc.Field, fc.Operator, fc.Expected, fc.Actual)
		}

		t.AppendRow(table.Row{
			truncate(contextLabel(res.UserContext), 30),
			truncate(contextLabel(res.PolicyContext), 30),
			verdict,
			truncate(failures, 60),
		})
	}

	applyTableFormat(t)
	t.Render()

	fmt.Printf("\n%s: %d evaluations, %s passed, %s failed\n",
		bold("Summary"),
		resp.TotalEvaluations,
		color.GreenString("%d", resp.Passed),
		color.RedString("%d", resp.Failed))

	if evalShowTraces {
		for _, res := range resp.Results {
			fmt.Printf("\n%s %s vs %s\n",
				bold("Trace:"),
				contextLabel(res.UserContext),
				contextLabel(res.PolicyContext))
			printTrace(res.Trace, 1)
		}
	}
}

func contextLabel(ctx *core.ProvenanceContext) string {
	if ctx == nil {
		return "(unknown)"
	}
	return ctx.Label
}

// printTrace renders an evaluation trace as an indented tree.
func printTrace(trace core.Trace, depth int) {
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	icon := redCross
	if trace.Passed {
		icon = greenCheck
	}

	if trace.Result != "" {
		fmt.Printf("%s%s %s\n", indent, icon, faint(trace.Result))
		return
	}

	switch trace.Type {
	case core.TraceCondition:
		if trace.Error != "" {
			fmt.Printf("%s%s %s %s %v %s\n", indent, icon,
				trace.Field, trace.Operator, trace.Expected, yellow("("+trace.Error+")"))
		} else {
			fmt.Printf("%s%s %s %s %v %s\n", indent, icon,
				trace.Field, trace.Operator, trace.Expected,
				faint(fmt.Sprintf("(actual: %v)", trace.Actual)))
		}
	default:
		fmt.Printf("%s%s %s\n", indent, icon, cyan("["+trace.Type+"]"))
	}

	for _, child := range trace.Conditions {
		printTrace(child, depth+1)
	}
	if trace.Condition != nil {
		printTrace(*trace.Condition, depth+1)
	}
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVarP(&evalUsersPath, "users", "u", "", "Users file (JSON or CSV)")
	evaluateCmd.Flags().StringVarP(&evalPoliciesPath, "policies", "p", "", "Policies file (JSON or YAML)")
	evaluateCmd.Flags().IntVarP(&evalWorkers, "workers", "w", 0, "Number of evaluation workers (local runs)")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the raw JSON response")
	evaluateCmd.Flags().BoolVar(&evalShowTraces, "traces", false, "Print the full evaluation trace per pair")
	evaluateCmd.Flags().BoolVar(&evalPersist, "persist", false, "Persist results on the server (remote runs)")
	evaluateCmd.Flags().BoolVar(&evalStrict, "strict", false, "Exit with an error when any evaluation fails")

	// --policies may stay empty against a server; the active policy
	// set on the server is used instead
	_ = evaluateCmd.MarkFlagRequired("users")
}
