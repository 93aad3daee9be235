package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/darmiel/verdict/internal/buildinfo"
	"github.com/darmiel/verdict/internal/logging"
)

// global flags
var (
	cfgFile     string
	verdictAddr string
)

const VerdictAddrKey = "addr"

var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: fmt.Sprintf("Verdict policy evaluation engine (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `Verdict evaluates arbitrary user records against arbitrary policy
documents without knowing either schema up front. It discovers fields,
operators and logical structure at runtime and produces a full trace
for every decision.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(nil)
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Verdict configuration file (YAML)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(logging.LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(logging.LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(logging.LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().StringVar(&verdictAddr, "server", "", "Address of the remote Verdict server")
	_ = viper.BindPFlag(VerdictAddrKey, rootCmd.PersistentFlags().Lookup("server"))

	viper.SetEnvPrefix("VERDICT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}
