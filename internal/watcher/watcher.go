// Package watcher keeps a prioritized view up to date: it hot-reloads the
// scoring configuration file, recomputes passes, and emits alerts when
// suggestions change tier.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// Source loads the current suggestion snapshot and client directory.
type Source func(ctx context.Context) ([]feedback.Suggestion, client.Directory, error)

// WatchState captures one recomputed pass.
type WatchState struct {
	Timestamp     time.Time
	ConfigVersion int
	Scored        []prioritize.ScoredSuggestion
	Summary       prioritize.Summary
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Alert levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// Options configures a Watcher.
type Options struct {
	// ScoringFile is reloaded whenever it changes on disk. Empty disables
	// hot reload.
	ScoringFile string

	// Interval between recomputations of the pass.
	Interval time.Duration

	// Debounce coalesces bursts of file events into one reload.
	Debounce time.Duration

	Logger *zap.Logger
}

// Watcher recomputes passes at a regular interval and when the scoring
// configuration changes, emitting alerts for notable differences.
type Watcher struct {
	holder        *Holder
	source        Source
	opts          Options
	logger        *zap.Logger
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
	now           func() time.Time
}

// New creates a Watcher over the given configuration holder and data source.
func New(holder *Holder, source Source, opts Options, alertFn func(Alert)) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	return &Watcher{
		holder:        holder,
		source:        source,
		opts:          opts,
		logger:        logger,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
		now:           time.Now,
	}
}

// Previous returns the most recent state, or nil before the first pass.
func (w *Watcher) Previous() *WatchState {
	return w.previous
}

// Run takes an initial snapshot, then recomputes at every interval and after
// every change to the scoring file. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if w.opts.ScoringFile != "" {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating file watcher: %w", err)
		}
		defer func() { _ = fw.Close() }()

		// Watch the directory so atomic saves (write + rename) are seen.
		if err := fw.Add(filepath.Dir(w.opts.ScoringFile)); err != nil {
			return fmt.Errorf("watching %s: %w", w.opts.ScoringFile, err)
		}
		events, watchErrs = fw.Events, fw.Errors
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var reload <-chan time.Time
	target := filepath.Clean(w.opts.ScoringFile)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check(ctx))
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == target && ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				reload = time.After(w.opts.Debounce)
			}
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case <-reload:
			reload = nil
			alerts := w.ReloadConfig()
			if w.holder.Version() != w.previousVersion() {
				alerts = append(alerts, w.Check(ctx)...)
			}
			w.emit(alerts)
		}
	}
}

func (w *Watcher) previousVersion() int {
	if w.previous == nil {
		return 0
	}
	return w.previous.ConfigVersion
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// ReloadConfig reads the scoring file and swaps it in if valid. An invalid
// file produces a warning alert and the previous configuration stays active.
func (w *Watcher) ReloadConfig() []Alert {
	cfg, err := scoring.Load(w.opts.ScoringFile)
	if err == nil {
		err = w.holder.Swap(cfg)
	}
	if err != nil {
		w.logger.Warn("scoring configuration reload rejected",
			zap.String("path", w.opts.ScoringFile), zap.Error(err))
		return []Alert{{
			Level:   LevelWarning,
			Title:   "Scoring configuration rejected",
			Message: fmt.Sprintf("Keeping version %d: %v", w.holder.Version(), err),
			Time:    w.now(),
		}}
	}

	w.logger.Info("scoring configuration reloaded",
		zap.String("path", w.opts.ScoringFile), zap.Int("version", w.holder.Version()))
	return []Alert{{
		Level:   LevelInfo,
		Title:   "Scoring configuration reloaded",
		Message: fmt.Sprintf("Now using version %d from %s", w.holder.Version(), filepath.Base(w.opts.ScoringFile)),
		Time:    w.now(),
	}}
}

// Check performs a single check cycle: takes a new snapshot, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	curr, err := w.Snapshot(ctx)
	if err != nil {
		return []Alert{{
			Level:   LevelWarning,
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not recompute priorities: %v", err),
			Time:    w.now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr)
	}

	// Deduplicate: suppress alerts with the same title+message as last cycle.
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Snapshot loads the source and runs a full pass with the current engine.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	suggestions, directory, err := w.source(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading suggestions: %w", err)
	}

	now := w.now()
	version := w.holder.Version()
	scored, err := w.holder.Engine().Run(ctx, suggestions, directory, now)
	if err != nil {
		return nil, err
	}
	return &WatchState{
		Timestamp:     now,
		ConfigVersion: version,
		Scored:        scored,
		Summary:       prioritize.Summarize(scored),
	}, nil
}
