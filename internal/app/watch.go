package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/config"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/store"
	"github.com/blackwell-systems/feedbackrank/internal/watcher"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
	watchMinLevel string
	watchInput    inputFlags
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompute on change and alert on tier shifts",
	Long: `Run a monitor that periodically re-scores the suggestion snapshot and
hot-reloads the scoring configuration file whenever it changes on disk. An
edited file is validated before it is swapped in; an invalid edit is
reported and the previous configuration stays active. When suggestions
change tier, terminal alerts and (if enabled) desktop notifications are
emitted.

Examples:
  feedbackrank watch                          # run in foreground (ctrl-c to stop)
  feedbackrank watch --scoring scoring.yaml   # watch a specific file
  feedbackrank watch --daemon                 # run in background, write PID file
  feedbackrank watch --interval 5m            # re-score every 5 minutes (default: 1m)
  feedbackrank watch --stop                   # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "1m", "Re-score interval as duration string (e.g. 30s, 5m)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	watchCmd.Flags().StringVar(&watchMinLevel, "min-level", watcher.LevelInfo, "Lowest alert level to report: info, warning or critical")
	addInputFlags(watchCmd, &watchInput)
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon(cmd.OutOrStdout(), 5*time.Second)
	}

	switch watchMinLevel {
	case watcher.LevelInfo, watcher.LevelWarning, watcher.LevelCritical:
	default:
		return fmt.Errorf("invalid --min-level %q (want info, warning or critical)", watchMinLevel)
	}

	interval, err := time.ParseDuration(watchInterval)
	if err != nil {
		return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
	}
	if interval < 5*time.Second {
		return fmt.Errorf("interval must be at least 5s, got %s", interval)
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	if watchDaemon {
		return runDaemon(rt, interval)
	}
	return runForeground(cmd.Context(), rt, interval, cmd.OutOrStdout())
}

// newWatcher builds a watcher over the store (or input files). Only a
// configuration that was read from a file is hot-reloaded; a stored
// version is fixed for the life of the watcher.
func newWatcher(rt *runtime, db *store.DB, in inputFlags, interval time.Duration, alertFn func(watcher.Alert)) (*watcher.Watcher, activeScoring, error) {
	active, err := rt.loadScoring(db, in.scoring)
	if err != nil {
		return nil, activeScoring{}, err
	}
	holder, err := watcher.NewHolder(active.Config,
		prioritize.WithLogger(rt.logger),
		prioritize.WithWorkers(rt.cfg.Workers),
	)
	if err != nil {
		return nil, activeScoring{}, err
	}

	source := func(ctx context.Context) ([]feedback.Suggestion, client.Directory, error) {
		return loadInputs(db, in)
	}

	w := watcher.New(holder, source, watcher.Options{
		ScoringFile: active.File,
		Interval:    interval,
		Debounce:    rt.cfg.Watch.Debounce,
		Logger:      rt.logger,
	}, alertFn)
	return w, active, nil
}

// runForeground runs the watcher in the foreground with live terminal output.
func runForeground(parent context.Context, rt *runtime, interval time.Duration, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	db, closeDB, err := rt.openStoreIf(watchInput.needsStore())
	if err != nil {
		return err
	}
	defer closeDB()

	alertFn := func(a watcher.Alert) {
		if !watcher.AtLeast(a, watchMinLevel) {
			return
		}
		if rt.cfg.Watch.Notify {
			if err := watcher.Notify(a); err != nil {
				rt.logger.Debug("desktop notification failed", zap.Error(err))
			}
		}
		// Print to terminal unless quiet mode.
		if !watchQuiet {
			printAlert(out, a)
		}
	}

	w, active, err := newWatcher(rt, db, watchInput, interval, alertFn)
	if err != nil {
		return err
	}

	// Take initial snapshot and display baseline.
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}
	if !watchQuiet {
		fmt.Fprintf(out, "feedbackrank watching... (re-scoring every %s, scoring: %s)\n", interval, active.Origin)
		fmt.Fprintf(out, "[%s] %s Baseline: %d suggestions, %d urgent-tier\n",
			time.Now().Format("15:04:05"),
			checkMark(),
			initial.Summary.Total,
			terminalCount(initial.Summary))
	}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		if !watchQuiet {
			fmt.Fprintln(out, "\nStopped.")
		}
		return nil
	}
	return err
}

// terminalCount returns the number of suggestions in the terminal tier,
// zero when none reached it.
func terminalCount(s prioritize.Summary) int {
	for _, tc := range s.Tiers {
		if tc.Terminal {
			return tc.Count
		}
	}
	return 0
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(rt *runtime, interval time.Duration) error {
	// Ensure config directory exists.
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	// Check for existing daemon.
	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file, remove it.
		clearPIDFile()
	}

	// Write PID file.
	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer clearPIDFile()

	// Open log file for output.
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	go func() {
		<-sigCh
		cancel()
	}()

	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	alertFn := func(a watcher.Alert) {
		if !watcher.AtLeast(a, watchMinLevel) {
			return
		}
		if rt.cfg.Watch.Notify {
			_ = watcher.Notify(a)
		}
		writeLog(logFile, "[%s] %s: %s", a.Level, a.Title, a.Message)
	}

	w, active, err := newWatcher(rt, db, watchInput, interval, alertFn)
	if err != nil {
		return err
	}
	writeLog(logFile, "feedbackrank daemon started (PID %d, interval %s, scoring %s)", pid, interval, active.Origin)

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		writeLog(logFile, "daemon stopped")
		return nil
	}
	return err
}

// stopDaemon terminates the running daemon and waits up to grace for it to
// exit before removing its PID file.
func stopDaemon(w io.Writer, grace time.Duration) error {
	pid, err := runningDaemon()
	if err != nil {
		return err
	}
	if err := terminate(pid); err != nil {
		return fmt.Errorf("stopping daemon (PID %d): %w", pid, err)
	}
	deadline := time.Now().Add(grace)
	for processExists(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon (PID %d) still running after %s", pid, grace)
		}
		time.Sleep(100 * time.Millisecond)
	}
	clearPIDFile()
	fmt.Fprintf(w, "Stopped daemon (PID %d)\n", pid)
	return nil
}

// runningDaemon returns the PID of a live daemon, cleaning up a stale PID
// file if the process is gone.
func runningDaemon() (int, error) {
	pid, err := readPID()
	if err != nil {
		return 0, fmt.Errorf("no daemon running (could not read PID file: %v)", err)
	}
	if !processExists(pid) {
		clearPIDFile()
		return 0, fmt.Errorf("no daemon running (PID %d is not active, cleaned up stale PID file)", pid)
	}
	return pid, nil
}

func clearPIDFile() {
	_ = os.Remove(pidFilePath())
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

// writeLog writes a timestamped line to the log file.
func writeLog(f *os.File, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(f, "[%s] %s\n", timestamp, msg)
}

// printAlert formats and prints an alert to the terminal.
func printAlert(w io.Writer, a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	icon := alertIcon(a.Level)
	fmt.Fprintf(w, "[%s] %s %s\n", timestamp, icon, a.Title)
	if a.Message != "" {
		fmt.Fprintf(w, "         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case watcher.LevelCritical:
		return "\xf0\x9f\x94\xb4" // red circle
	case watcher.LevelWarning:
		return "\xe2\x9a\xa0\xef\xb8\x8f" // warning sign
	case watcher.LevelInfo:
		return "\xe2\x9c\x93" // check mark
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return "\xe2\x9c\x93"
}
