package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackrank/internal/output"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

var (
	configScoring string
	configForce   bool
	configNote    string
	configFormat  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, validate and version scoring configurations",
	Long: `Manage the scoring ruleset. Configurations are plain JSON or YAML files;
'save' stores a validated copy in the database as a new version and makes it
active, and 'history' lists every stored version.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective scoring configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default scoring configuration to a file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a scoring configuration file and list every problem",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

var configSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Store a scoring configuration file as the new active version",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigSave,
}

var configHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored scoring configuration versions",
	Args:  cobra.NoArgs,
	RunE:  runConfigHistory,
}

var configActivateCmd = &cobra.Command{
	Use:   "activate <version>",
	Short: "Make a stored scoring configuration version active",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigActivate,
}

func init() {
	configShowCmd.Flags().StringVar(&configScoring, "scoring", "", "Show this file instead of the active configuration")
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "Output format: yaml or json")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configSaveCmd.Flags().StringVar(&configNote, "note", "", "Short description stored with the version")

	configCmd.AddCommand(configShowCmd, configInitCmd, configValidateCmd, configSaveCmd, configHistoryCmd, configActivateCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}

	db, closeDB, err := rt.openStoreIf(configScoring == "")
	if err != nil {
		return err
	}
	defer closeDB()

	active, err := rt.loadScoring(db, configScoring)
	if err != nil {
		return err
	}

	format := scoring.Format(configFormat)
	if flagJSON {
		format = scoring.FormatJSON
	}
	data, err := scoring.Encode(active.Config, format)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == scoring.FormatYAML {
		fmt.Fprintf(out, "# source: %s\n", active.Origin)
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "source: %s\n", active.Origin)
	}
	_, err = out.Write(data)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}

	path := rt.cfg.ScoringFile
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := scoring.Save(path, scoring.DefaultConfiguration()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default scoring configuration to %s\n", path)
	return nil
}

// configIssue is one validation problem in JSON output.
type configIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := setup(); err != nil {
		return err
	}

	path := args[0]
	_, loadErr := scoring.Load(path)
	issues := scoring.ValidationErrors(loadErr)

	out := cmd.OutOrStdout()
	if flagJSON {
		list := make([]configIssue, 0, len(issues))
		for _, ve := range issues {
			list = append(list, configIssue{Field: ve.Field, Reason: ve.Reason})
		}
		if err := writeJSON(out, map[string]any{"file": path, "valid": loadErr == nil, "issues": list}); err != nil {
			return err
		}
	} else if loadErr == nil {
		fmt.Fprintf(out, " %s %s is valid\n", output.StyleSuccess.Render("✓"), path)
	} else if len(issues) > 0 {
		fmt.Fprintf(out, " %s %s has %d problem(s):\n", output.StyleError.Render("✗"), path, len(issues))
		for _, ve := range issues {
			fmt.Fprintf(out, "   %s %s\n", output.StyleBold.Render(ve.Field), ve.Reason)
		}
	}

	switch {
	case loadErr == nil:
		return nil
	case len(issues) > 0:
		return fmt.Errorf("%s: %d problem(s)", path, len(issues))
	default:
		return loadErr
	}
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}

	cfg, err := scoring.Load(args[0])
	if err != nil {
		return err
	}

	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	note := configNote
	if note == "" {
		note = "saved from " + args[0]
	}
	cv, err := db.SaveScoringConfig(cfg, note)
	if err != nil {
		return err
	}

	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), cv)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved scoring configuration version %d (active)\n", cv.Version)
	return nil
}

func runConfigHistory(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	versions, err := db.ListScoringConfigs()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, versions)
	}

	fmt.Fprintln(out, output.Section("Scoring configuration history"))
	fmt.Fprintln(out)
	if len(versions) == 0 {
		fmt.Fprintf(out, " %s\n\n", output.StyleMuted.Render("No stored versions. Use 'feedbackrank config save <file>'."))
		return nil
	}
	tbl := output.NewTable("Version", "Saved", "Active", "Note")
	for _, v := range versions {
		active := ""
		if v.Active {
			active = output.StyleSuccess.Render("✓")
		}
		tbl.AddRow(strconv.FormatInt(v.Version, 10), v.SavedAt.Local().Format("2006-01-02 15:04"), active, v.Note)
	}
	fmt.Fprint(out, indent(tbl.Render()))
	fmt.Fprintln(out)
	return nil
}

func runConfigActivate(cmd *cobra.Command, args []string) error {
	version, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || version < 1 {
		return errors.New("version must be a positive integer")
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.ActivateScoringConfig(version); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scoring configuration version %d is now active\n", version)
	return nil
}
