package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackrank/internal/mcp"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

var mcpInput inputFlags

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP stdio server exposing the ranking tools",
	Long: `Start a Model Context Protocol stdio server so an assistant can query
the prioritized suggestion list. Every tool call re-scores the current
snapshot, so stored data and the active scoring configuration are always
fresh. The server exposes three tools:

  rank_suggestions    Filtered, sorted view of scored suggestions
  explain_suggestion  Full score breakdown for one suggestion
  tier_summary        Counts per tier plus enterprise and anomaly totals

Example MCP client configuration:
  {"mcpServers":{"feedbackrank":{"command":"feedbackrank","args":["mcp"]}}}`,
	RunE: runMCP,
}

func init() {
	addInputFlags(mcpCmd, &mcpInput)
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	srv := mcp.NewServer(rt.passFunc(mcpInput), appVersion, rt.logger)
	return srv.Run(cmd.Context(), os.Stdin, os.Stdout)
}

// passFunc adapts runPass to the server's callback. The store is opened per
// call so imports made while the server runs are picked up.
func (rt *runtime) passFunc(in inputFlags) mcp.PassFunc {
	return func(ctx context.Context) ([]prioritize.ScoredSuggestion, *scoring.Configuration, error) {
		db, closeDB, err := rt.openStoreIf(in.needsStore())
		if err != nil {
			return nil, nil, err
		}
		defer closeDB()

		p, err := rt.runPass(ctx, db, in)
		if err != nil {
			return nil, nil, err
		}
		return p.scored, p.scoring.Config, nil
	}
}
