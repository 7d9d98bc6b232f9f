package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notify sends a desktop notification for the given alert. On macOS it uses
// osascript, on Linux it tries notify-send. If neither is available, it falls
// back to printing to stderr.
func Notify(alert Alert) error {
	switch runtime.GOOS {
	case "darwin":
		return notifyMacOS(alert)
	case "linux":
		return notifyLinux(alert)
	default:
		return notifyFallback(os.Stderr, alert)
	}
}

// AtLeast reports whether the alert's level is min or more severe. Unknown
// levels rank below info.
func AtLeast(alert Alert, min string) bool {
	return levelRank(alert.Level) >= levelRank(min)
}

func levelRank(level string) int {
	switch level {
	case LevelInfo:
		return 1
	case LevelWarning:
		return 2
	case LevelCritical:
		return 3
	default:
		return 0
	}
}

// notifyMacOS sends a notification via osascript on macOS.
func notifyMacOS(alert Alert) error {
	script := fmt.Sprintf(
		`display notification %q with title "feedbackrank" subtitle %q`,
		alert.Message, alert.Title,
	)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyLinux sends a notification via notify-send on Linux.
func notifyLinux(alert Alert) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return notifyFallback(os.Stderr, alert)
	}

	args := []string{fmt.Sprintf("feedbackrank: %s", alert.Title), alert.Message}
	if alert.Level == LevelCritical {
		args = append([]string{"--urgency=critical"}, args...)
	}
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		return notifyFallback(os.Stderr, alert)
	}
	return nil
}

// notifyFallback prints the alert when no desktop notification system is
// available.
func notifyFallback(w io.Writer, alert Alert) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
