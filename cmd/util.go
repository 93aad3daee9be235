package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/darmiel/verdict/internal/config"
	"github.com/darmiel/verdict/internal/core"
	"github.com/darmiel/verdict/pkg/client"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✖")
)

func getClient() (*client.Client, error) {
	server := verdictAddr // prio 1: command-line flag
	if server == "" {
		server = viper.GetString(VerdictAddrKey) // prio 2: config/env
	}
	if server == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set VERDICT_ADDR)")
	}

	var token string
	if envToken := os.Getenv("VERDICT_TOKEN"); envToken != "" {
		token = envToken
	}

	return client.New(server, client.WithAuthToken(token)), nil
}

// bindKindFlag attaches the shared -k/--kind selector to a command.
func bindKindFlag(flags *pflag.FlagSet, target *string) {
	flags.StringVarP(target, "kind", "k", string(core.KindUser), "Document kind (policy or user)")
}

func parseKind(s string) (core.Kind, error) {
	kind := core.Kind(s)
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid kind '%s' (expected %s or %s)", s, core.KindPolicy, core.KindUser)
	}
	return kind, nil
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func applyTableFormat(t table.Writer) {
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
}

func logError(err error, correlation, msg string) error {
	if correlation != "" {
		log.Error().Str("correlation_id", correlation).Msg(msg)
	}
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
