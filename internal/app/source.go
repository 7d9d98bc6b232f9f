package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
	"github.com/blackwell-systems/feedbackrank/internal/store"
)

// inputFlags are the data-source flags shared by rank, explain, track and
// watch. Empty fields fall back to the store.
type inputFlags struct {
	suggestions string
	clients     string
	scoring     string
	at          string
}

// needsStore reports whether any input has to come from the database.
func (in inputFlags) needsStore() bool {
	return in.suggestions == "" || in.clients == "" || in.scoring == ""
}

// activeScoring is a configuration together with where it came from.
type activeScoring struct {
	Config  *scoring.Configuration
	Origin  string
	Version int64  // store version, 0 if not from the store
	File    string // scoring file it was read from, empty otherwise
}

// loadScoring resolves the configuration to use, in order: an explicit file,
// the store's active version, the configured scoring file if it exists, and
// the built-in defaults.
func (rt *runtime) loadScoring(db *store.DB, path string) (activeScoring, error) {
	if path != "" {
		cfg, err := scoring.Load(path)
		if err != nil {
			return activeScoring{}, err
		}
		return activeScoring{Config: cfg, Origin: path, File: path}, nil
	}

	if db != nil {
		cfg, cv, err := db.ActiveScoringConfig()
		if err != nil {
			return activeScoring{}, fmt.Errorf("loading stored scoring configuration: %w", err)
		}
		if cfg != nil {
			return activeScoring{Config: cfg, Origin: fmt.Sprintf("store version %d", cv.Version), Version: cv.Version}, nil
		}
	}

	if rt.cfg.ScoringFile != "" {
		cfg, err := scoring.Load(rt.cfg.ScoringFile)
		switch {
		case err == nil:
			return activeScoring{Config: cfg, Origin: rt.cfg.ScoringFile, File: rt.cfg.ScoringFile}, nil
		case !errors.Is(err, os.ErrNotExist):
			return activeScoring{}, err
		}
	}

	return activeScoring{Config: scoring.DefaultConfiguration(), Origin: "built-in defaults"}, nil
}

// loadInputs reads the suggestion snapshot and client directory from files
// when given, or from the store otherwise.
func loadInputs(db *store.DB, in inputFlags) ([]feedback.Suggestion, client.Directory, error) {
	var suggestions []feedback.Suggestion
	var err error
	if in.suggestions != "" {
		suggestions, err = readSuggestionsFile(in.suggestions)
	} else {
		suggestions, err = db.ListSuggestions()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading suggestions: %w", err)
	}

	var directory client.Directory
	if in.clients != "" {
		profiles, err := readClientsFile(in.clients)
		if err != nil {
			return nil, nil, fmt.Errorf("loading clients: %w", err)
		}
		directory = client.NewStaticDirectory(profiles)
	} else {
		dir, err := db.ClientDirectory()
		if err != nil {
			return nil, nil, fmt.Errorf("loading clients: %w", err)
		}
		directory = dir
	}
	return suggestions, directory, nil
}

func readSuggestionsFile(path string) ([]feedback.Suggestion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return feedback.DecodeSuggestions(f)
}

func readClientsFile(path string) ([]client.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return client.DecodeProfiles(f)
}

// parseAt parses the --at reference time. Empty means now.
func parseAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --at %q (want RFC 3339 or YYYY-MM-DD)", s)
}

func (rt *runtime) newEngine(cfg *scoring.Configuration) (*prioritize.Engine, error) {
	return prioritize.NewEngine(cfg,
		prioritize.WithLogger(rt.logger),
		prioritize.WithWorkers(rt.cfg.Workers),
	)
}

// pass is one fully loaded and scored run.
type pass struct {
	scoring  activeScoring
	scoredAt time.Time
	scored   []prioritize.ScoredSuggestion
}

// runPass loads every input, scores the snapshot and returns the pass. db
// may be nil when every input is a file.
func (rt *runtime) runPass(ctx context.Context, db *store.DB, in inputFlags) (*pass, error) {
	at, err := parseAt(in.at)
	if err != nil {
		return nil, err
	}
	active, err := rt.loadScoring(db, in.scoring)
	if err != nil {
		return nil, err
	}
	engine, err := rt.newEngine(active.Config)
	if err != nil {
		return nil, err
	}
	suggestions, directory, err := loadInputs(db, in)
	if err != nil {
		return nil, err
	}

	p := &pass{scoring: active, scoredAt: at}
	logInputs(rt.logger, p, len(suggestions))

	p.scored, err = engine.Run(ctx, suggestions, directory, at)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// openStoreIf opens the database when needed, returning a nil DB otherwise.
func (rt *runtime) openStoreIf(needed bool) (*store.DB, func(), error) {
	if !needed {
		return nil, func() {}, nil
	}
	db, err := store.Open(rt.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	return db, func() { _ = db.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func logInputs(logger *zap.Logger, p *pass, suggestions int) {
	logger.Debug("pass inputs loaded",
		zap.String("scoring", p.scoring.Origin),
		zap.Int("suggestions", suggestions),
		zap.Time("scored_at", p.scoredAt),
	)
}
