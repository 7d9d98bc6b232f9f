// Package config provides configuration loading and defaults for feedbackrank.
package config

import "time"

// DefaultConfigDir is the default location for feedbackrank configuration.
const DefaultConfigDir = "~/.config/feedbackrank"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "feedbackrank.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// DefaultScoringFile is the filename for the scoring configuration used when
// the settings store has no active version.
const DefaultScoringFile = "scoring.yaml"

// EnvPrefix prefixes environment overrides, e.g. FEEDBACKRANK_LOG_LEVEL.
const EnvPrefix = "FEEDBACKRANK"

// DefaultWorkers of 0 lets the engine use GOMAXPROCS.
const DefaultWorkers = 0

// DefaultSort is the view ordering used when --sort is not given.
const DefaultSort = "score"

// DefaultLimit caps the rows printed by rank; 0 prints everything.
const DefaultLimit = 50

// DefaultLog holds the default logging preferences.
var DefaultLog = Log{
	Level:  "warn",
	Format: "console",
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
	Width: 100,
}

// DefaultWatch holds the default watch preferences.
var DefaultWatch = Watch{
	Debounce: 500 * time.Millisecond,
	Notify:   false,
}
