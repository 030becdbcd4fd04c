package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanqian/booksum/internal/infra/config"
	"github.com/yanqian/booksum/pkg/logger"
)

var (
	// configPath overrides CONFIG_PATH.
	configPath string

	// logLevel overrides LOG_LEVEL.
	logLevel string

	// outputFormat controls output format (text, json).
	outputFormat string
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "booksum",
	Short: "Recursive book summarizer",
	Long: `booksum condenses book-length texts into summaries of a chosen token size.

Texts that do not fit the model's context window are split, summarized section
by section, and the joined summaries are summarized again until they fit.
Every model call is cached, so interrupted runs resume for free.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to a YAML config file (default: $CONFIG_PATH or configs/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default: $LOG_LEVEL or info)",
	)
	rootCmd.PersistentFlags().StringVar(
		&outputFormat, "format", "text",
		"Output format: text, json",
	)

	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(cacheCmd)
}

// loadConfig resolves the config file flag before loading.
func loadConfig(apply func(*config.Config)) (*config.Config, error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, err
		}
	}
	return config.LoadWithOverrides(apply)
}

// newLogger writes to stderr so stdout carries only results.
func newLogger() *slog.Logger {
	level := logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	return logger.NewWithWriter(os.Stderr, level)
}
