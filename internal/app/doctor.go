package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/output"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
	"github.com/blackwell-systems/feedbackrank/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the feedbackrank setup is healthy",
	Long: `Run a series of health checks against your feedbackrank configuration,
scoring ruleset and database. Prints a pass/fail line for each check and a
summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}

	var checks []doctorCheck

	// 1. Scoring file: absent is fine (defaults apply), present must be valid.
	checks = append(checks, checkScoringFile(rt.cfg.ScoringFile))

	// 2. SQLite database: exists and migrates.
	dbCheck, db := checkDatabase(rt.cfg.DBPath)
	checks = append(checks, dbCheck)
	if db != nil {
		defer func() { _ = db.Close() }()

		// 3. Active stored configuration.
		checks = append(checks, checkStoredConfig(db))

		// 4. Suggestions and clients in the store.
		checks = append(checks, checkStoreContents(db))

		// 5. Suggestions whose email has no client profile.
		checks = append(checks, checkUnresolved(db))
	}

	// 6. Watch daemon: PID file exists and process is running.
	checks = append(checks, checkWatchDaemon())

	// Count passes.
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(out, doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	// Render styled output.
	fmt.Fprintln(out, output.Section("Doctor"))
	fmt.Fprintln(out)

	for _, c := range checks {
		renderDoctorCheck(out, c)
	}

	fmt.Fprintln(out)
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Fprintf(out, " %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Fprintf(out, " %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(w io.Writer, c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Fprintf(w, "  %s  %-30s %s\n", indicator, label, detail)
}

// checkScoringFile verifies that the configured scoring file, if present,
// is a valid configuration.
func checkScoringFile(path string) doctorCheck {
	const name = "Scoring file"
	cfg, err := scoring.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return doctorCheck{
			Name:    name,
			Passed:  true,
			Message: fmt.Sprintf("not found at %s (built-in defaults apply; 'feedbackrank config init' writes one)", path),
		}
	}
	if err != nil {
		issues := scoring.ValidationErrors(err)
		msg := err.Error()
		if len(issues) > 0 {
			msg = fmt.Sprintf("%d problem(s), first: %s ('feedbackrank config validate %s' lists all)", len(issues), issues[0], path)
		}
		return doctorCheck{Name: name, Passed: false, Message: msg}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (%d tiers)", path, len(cfg.TierThresholds)),
	}
}

// checkDatabase verifies that the SQLite database exists and opens. The
// returned DB is nil unless the check passed.
func checkDatabase(dbPath string) (doctorCheck, *store.DB) {
	const name = "SQLite database"
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("not found at %s (run 'feedbackrank import' to create)", dbPath),
		}, nil
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("cannot open: %v", err)}, nil
	}
	version, err := db.SchemaVersion()
	if err != nil {
		_ = db.Close()
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("cannot read schema version: %v", err)}, nil
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (schema v%d)", dbPath, version),
	}, db
}

// checkStoredConfig reports the active stored scoring configuration.
func checkStoredConfig(db *store.DB) doctorCheck {
	const name = "Stored scoring configuration"
	cfg, cv, err := db.ActiveScoringConfig()
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("unreadable: %v", err)}
	}
	if cfg == nil {
		return doctorCheck{Name: name, Passed: true, Message: "none saved (file or defaults apply)"}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("version %d active, saved %s", cv.Version, cv.SavedAt.Local().Format("2006-01-02")),
	}
}

// checkStoreContents verifies that there is something to score.
func checkStoreContents(db *store.DB) doctorCheck {
	const name = "Store contents"
	suggestions, err := db.CountSuggestions()
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: err.Error()}
	}
	clients, err := db.CountClients()
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: err.Error()}
	}
	return doctorCheck{
		Name:    name,
		Passed:  suggestions > 0,
		Message: fmt.Sprintf("%d suggestions, %d client profiles", suggestions, clients),
	}
}

// checkUnresolved counts suggestions whose submitter has no client profile
// and is therefore scored with defaults.
func checkUnresolved(db *store.DB) doctorCheck {
	const name = "Client coverage"
	suggestions, err := db.ListSuggestions()
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: err.Error()}
	}
	dir, err := db.ClientDirectory()
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: err.Error()}
	}
	if len(suggestions) == 0 {
		return doctorCheck{Name: name, Passed: true, Message: "no suggestions to check"}
	}

	var missing []string
	for _, s := range suggestions {
		if _, ok := dir.Lookup(s.Email); !ok {
			missing = append(missing, client.NormalizeEmail(s.Email))
		}
	}
	if len(missing) == 0 {
		return doctorCheck{Name: name, Passed: true, Message: "every submitter has a client profile"}
	}
	example := missing[0]
	if example == "" {
		example = "(blank email)"
	}
	return doctorCheck{
		Name:    name,
		Passed:  false,
		Message: fmt.Sprintf("%d/%d suggestions scored with a default profile, e.g. %s", len(missing), len(suggestions), example),
	}
}

// checkWatchDaemon checks whether the watch daemon PID file exists and the process is running.
func checkWatchDaemon() doctorCheck {
	const name = "Watch daemon"
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return doctorCheck{Name: name, Passed: true, Message: "not running (no PID file)"}
	}

	pidStr := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("invalid PID in file: %q", pidStr)}
	}
	if !processExists(pid) {
		return doctorCheck{Name: name, Passed: false, Message: fmt.Sprintf("PID %d is not running (stale PID file)", pid)}
	}
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("running (PID %d)", pid)}
}
