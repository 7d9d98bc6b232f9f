package app

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// executeCmd runs the root command with args and resets the package-level
// flag state before returning.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		flagJSON, flagNoColor, flagVerbose, flagConfig, flagDB = false, false, false, "", ""
		rankInput, rankOpts = inputFlags{}, rankFlags{size: "all", enterprise: "all", limit: -1}
		configForce, configScoring, configNote, configFormat = false, "", "", "yaml"
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRankFlags_FilterSpec(t *testing.T) {
	cfg := scoring.DefaultConfiguration()

	rf := rankFlags{
		tiers:      []string{"Urgent", " 3"},
		size:       "small",
		preventive: []string{"AT_RISK"},
		enterprise: "exclude",
		nps:        "0,6",
		loyalty:    []string{"Full"},
		score:      "100-400",
	}
	spec, err := rf.filterSpec(cfg, "votes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Urgent", "3"}, spec.Tiers)
	assert.Equal(t, []client.PreventiveStatus{client.PreventiveAtRisk}, spec.PreventiveStatuses)
	assert.Equal(t, prioritize.EnterpriseExclude, spec.Enterprise)
	assert.Equal(t, &prioritize.Range{Low: 0, High: 6}, spec.NPS)
	assert.Equal(t, []client.Loyalty{client.LoyaltyFull}, spec.Loyalty)
	assert.Equal(t, &prioritize.Range{Low: 100, High: 400}, spec.Score)
	assert.Equal(t, prioritize.SortByVotes, spec.SortBy)
}

func TestRankFlags_FilterSpecRejects(t *testing.T) {
	cfg := scoring.DefaultConfiguration()
	tests := []struct {
		name string
		rf   rankFlags
	}{
		{"unknown tier", rankFlags{tiers: []string{"Someday"}}},
		{"unknown size", rankFlags{size: "gigantic"}},
		{"unknown preventive", rankFlags{preventive: []string{"doomed"}}},
		{"unknown enterprise", rankFlags{enterprise: "sometimes"}},
		{"bad nps", rankFlags{nps: "high"}},
		{"unknown loyalty", rankFlags{loyalty: []string{"fickle"}}},
		{"bad score", rankFlags{score: "100"}},
		{"bad sort", rankFlags{sort: "age"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.rf.filterSpec(cfg, "score")
			assert.Error(t, err)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "Ünïc…", truncate("Ünïcödé", 5))
}

func TestRankCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	suggestions := writeFile(t, dir, "suggestions.json", referenceSuggestions)
	clients := writeFile(t, dir, "clients.json", referenceClients)
	t.Setenv("FEEDBACKRANK_SCORING_FILE", filepath.Join(dir, "absent.yaml"))

	out, err := executeCmd(t,
		"rank", "--json", "--no-color",
		"--config", filepath.Join(dir, "config.yaml"),
		"--suggestions", suggestions, "--clients", clients, "--at", "2026-10-18",
	)
	require.NoError(t, err)

	var got struct {
		PrioritizedCount int `json:"prioritizedCount"`
		Items            []struct {
			TotalScore int64 `json:"totalScore"`
			Tier       struct {
				Label string `json:"label"`
			} `json:"tier"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, 1, got.PrioritizedCount)
	require.Len(t, got.Items, 1)
	assert.EqualValues(t, 176, got.Items[0].TotalScore)
	assert.Equal(t, "3", got.Items[0].Tier.Label)
}
