package app

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

func TestConfigInitAndValidate(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	path := filepath.Join(dir, "scoring.yaml")

	_, err := executeCmd(t, "config", "init", path, "--config", cfgFile, "--no-color")
	require.NoError(t, err)
	cfg, err := scoring.Load(path)
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultConfiguration().PointsPerVote, cfg.PointsPerVote)

	_, err = executeCmd(t, "config", "init", path, "--config", cfgFile)
	assert.Error(t, err, "init must not overwrite without --force")

	out, err := executeCmd(t, "config", "validate", path, "--config", cfgFile, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
}

func TestConfigValidate_ReportsIssues(t *testing.T) {
	dir := t.TempDir()
	cfg := scoring.DefaultConfiguration()
	cfg.TierThresholds[0], cfg.TierThresholds[1] = cfg.TierThresholds[1], cfg.TierThresholds[0]
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := executeCmd(t, "config", "validate", path, "--json", "--config", filepath.Join(dir, "config.yaml"))
	require.Error(t, err)

	var got struct {
		Valid  bool          `json:"valid"`
		Issues []configIssue `json:"issues"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.False(t, got.Valid)
	assert.NotEmpty(t, got.Issues)
}

func TestConfigSaveHistoryActivate(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--config", filepath.Join(dir, "config.yaml"), "--db", filepath.Join(dir, "test.db"), "--no-color"}
	run := func(args ...string) (string, error) {
		return executeCmd(t, append(args, common...)...)
	}

	first := writeScoring(t, dir, "first.yaml", nil)
	second := writeScoring(t, dir, "second.yaml", func(c *scoring.Configuration) { c.PointsPerVote = 9 })

	_, err := run("config", "save", first, "--note", "baseline")
	require.NoError(t, err)
	_, err = run("config", "save", second)
	require.NoError(t, err)

	out, err := run("config", "history", "--json")
	require.NoError(t, err)
	var versions []struct {
		Version int64  `json:"version"`
		Active  bool   `json:"active"`
		Note    string `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &versions), out)
	require.Len(t, versions, 2)

	_, err = run("config", "activate", "1")
	require.NoError(t, err)

	out, err = run("config", "show", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "store version 1")

	_, err = run("config", "activate", "zero")
	assert.Error(t, err)
}
