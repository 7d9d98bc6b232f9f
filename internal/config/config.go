package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level feedbackrank configuration.
type Config struct {
	DBPath       string `mapstructure:"db_path"`
	ScoringFile  string `mapstructure:"scoring_file"`
	Workers      int    `mapstructure:"workers"`
	DefaultSort  string `mapstructure:"default_sort"`
	DefaultLimit int    `mapstructure:"default_limit"`
	Log          Log    `mapstructure:"log"`
	Output       Output `mapstructure:"output"`
	Watch        Watch  `mapstructure:"watch"`
}

// Log defines logging preferences.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width"`
}

// Watch defines preferences for the watch command.
type Watch struct {
	// Debounce coalesces bursts of file events into one reload.
	Debounce time.Duration `mapstructure:"debounce"`

	// Notify sends a desktop notification on escalations.
	Notify bool `mapstructure:"notify"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location)
// and returns a Config with all defaults applied. A .env file in the working
// directory and FEEDBACKRANK_* environment variables override file values.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName(strings.TrimSuffix(DefaultConfigFile, filepath.Ext(DefaultConfigFile)))
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.DBPath = expandPath(cfg.DBPath)
	cfg.ScoringFile = expandPath(cfg.ScoringFile)
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", cfg.Workers)
	}
	if cfg.DefaultLimit < 0 {
		return nil, fmt.Errorf("default_limit must be >= 0, got %d", cfg.DefaultLimit)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", DBPath())
	v.SetDefault("scoring_file", filepath.Join(ConfigDir(), DefaultScoringFile))
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("default_sort", DefaultSort)
	v.SetDefault("default_limit", DefaultLimit)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.format", DefaultLog.Format)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
	v.SetDefault("watch.debounce", DefaultWatch.Debounce)
	v.SetDefault("watch.notify", DefaultWatch.Notify)
}

// DBPath returns the default path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
