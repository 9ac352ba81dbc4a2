package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dshills/acra/internal/config"
	"github.com/dshills/acra/internal/logging"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

// Exit codes returned by Run.
const (
	ExitSuccess      = 0
	ExitFindings     = 1
	ExitUsageError   = 2
	ExitAuthError    = 3
	ExitRuntimeError = 4
)

// Flags shared by every command that loads configuration.
var (
	flagProvider  string
	flagFallbacks string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "acra",
	Short: "Automated code review service",
	Long: "ACRA accepts code submissions over HTTP, reviews them with an LLM provider chain " +
		"that falls back to a deterministic rule engine, and serves results and live feedback.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print acra version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "acra version %s\n", version)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagProvider, "provider", "", "Primary review provider (gemini, groq, ollama, anthropic, openai)")
	pf.StringVar(&flagFallbacks, "fallbacks", "", "Comma-separated fallback providers tried before the rule engine")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagFallbacks != "" {
		m["fallbacks"] = flagFallbacks
	}
	if flagLogLevel != "" {
		m["log.level"] = flagLogLevel
	}
	if flagLogFormat != "" {
		m["log.format"] = flagLogFormat
	}
	return m
}

// loadConfig loads the merged configuration and a logger writing to stderr.
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logging.New(cfg.Log, os.Stderr), nil
}
