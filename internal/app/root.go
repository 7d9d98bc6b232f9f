// Package app contains the Cobra command tree for feedbackrank.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/config"
	"github.com/blackwell-systems/feedbackrank/internal/logging"
	"github.com/blackwell-systems/feedbackrank/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagDB      string
)

var rootCmd = &cobra.Command{
	Use:   "feedbackrank",
	Short: "Score and prioritize customer feedback suggestions",
	Long: `feedbackrank scores every suggestion in a feedback snapshot against a
configurable ruleset, classifies it into a priority tier, and produces
filtered, sorted views. Scoring configurations are versioned in a local
SQLite store and passes can be tracked over time.

Run 'feedbackrank' with no arguments to see the available commands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "feedbackrank", appVersion)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Use a subcommand:")
		fmt.Fprintln(out, "  rank      Run a scoring pass and print the prioritized view")
		fmt.Fprintln(out, "  explain   Show the score breakdown for one suggestion")
		fmt.Fprintln(out, "  config    Show, validate and version scoring configurations")
		fmt.Fprintln(out, "  import    Load suggestions or client profiles into the store")
		fmt.Fprintln(out, "  track     Snapshot a pass and compare with previous ones")
		fmt.Fprintln(out, "  watch     Recompute on change and alert on tier shifts")
		fmt.Fprintln(out, "  mcp       Serve the ranking tools over MCP stdio")
		fmt.Fprintln(out, "  doctor    Check whether the setup is healthy")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/feedbackrank/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (overrides db_path)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose (debug) logging")
}

// runtime is the per-invocation state shared by every command.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

// setup loads configuration, builds the logger and applies color settings.
func setup() (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}

	if flagNoColor || !cfg.Output.Color {
		output.SetNoColor(true)
	} else {
		output.AutoDetectColor(os.Stdout)
	}

	return &runtime{cfg: cfg, logger: logger}, nil
}
