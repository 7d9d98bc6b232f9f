package app

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load suggestions or client profiles into the store",
	Long: `Read a JSON array of suggestions or client profiles and upsert it into
the database. Suggestions are keyed by ID (missing IDs are generated) and
clients by normalized email; re-importing a file updates rows in place.`,
}

var importSuggestionsCmd = &cobra.Command{
	Use:   "suggestions <file>",
	Short: "Import a suggestion snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportSuggestions,
}

var importClientsCmd = &cobra.Command{
	Use:   "clients <file>",
	Short: "Import client profiles",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportClients,
}

func init() {
	importCmd.AddCommand(importSuggestionsCmd, importClientsCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportSuggestions(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	suggestions, err := readSuggestionsFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	stored, err := db.UpsertSuggestions(suggestions)
	if err != nil {
		return err
	}
	total, err := db.CountSuggestions()
	if err != nil {
		return err
	}
	rt.logger.Info("suggestions imported", zap.String("file", args[0]), zap.Int("count", len(stored)))

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": len(stored), "total": total})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d suggestions (%d in store)\n", len(stored), total)
	return nil
}

func runImportClients(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	profiles, err := readClientsFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := db.UpsertClients(profiles)
	if err != nil {
		return err
	}
	total, err := db.CountClients()
	if err != nil {
		return err
	}
	if skipped := len(profiles) - n; skipped > 0 {
		rt.logger.Warn("client profiles without an email were skipped", zap.Int("skipped", skipped))
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": n, "total": total})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d client profiles (%d in store)\n", n, total)
	return nil
}
