package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/config"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
	"github.com/blackwell-systems/feedbackrank/internal/store"
)

const referenceSuggestions = `[
  {"id": "s1", "title": "Dark mode", "email": "owner@smallshop.example", "votes": 10,
   "commentsCount": 0, "createdAt": "2026-10-18T00:00:00Z", "status": "pending"}
]`

const referenceClients = `[
  {"name": "Small Shop", "email": "owner@smallshop.example", "npsScore": 8,
   "loyalty": "full", "suggestionHistoryCount": 1}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeScoring(t *testing.T, dir, name string, mutate func(*scoring.Configuration)) string {
	t.Helper()
	cfg := scoring.DefaultConfiguration()
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, name)
	require.NoError(t, scoring.Save(path, cfg))
	return path
}

func testRuntime(scoringFile string) *runtime {
	return &runtime{
		cfg:    &config.Config{ScoringFile: scoringFile, Workers: 1, DefaultSort: config.DefaultSort},
		logger: zap.NewNop(),
	}
}

func TestLoadScoring_Precedence(t *testing.T) {
	dir := t.TempDir()
	explicit := writeScoring(t, dir, "explicit.yaml", func(c *scoring.Configuration) { c.PointsPerVote = 7 })
	configured := writeScoring(t, dir, "configured.json", func(c *scoring.Configuration) { c.PointsPerVote = 5 })

	db, err := store.OpenInMemory()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rt := testRuntime(configured)

	// Nothing stored yet: the configured file wins over defaults.
	active, err := rt.loadScoring(db, "")
	require.NoError(t, err)
	assert.Equal(t, configured, active.Origin)
	assert.EqualValues(t, 5, active.Config.PointsPerVote)
	assert.Zero(t, active.Version)

	stored := scoring.DefaultConfiguration()
	stored.PointsPerVote = 3
	cv, err := db.SaveScoringConfig(stored, "test")
	require.NoError(t, err)

	active, err = rt.loadScoring(db, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3, active.Config.PointsPerVote)
	assert.Equal(t, cv.Version, active.Version)

	active, err = rt.loadScoring(db, explicit)
	require.NoError(t, err)
	assert.Equal(t, explicit, active.Origin)
	assert.EqualValues(t, 7, active.Config.PointsPerVote)
}

func TestLoadScoring_MissingConfiguredFileFallsBackToDefaults(t *testing.T) {
	rt := testRuntime(filepath.Join(t.TempDir(), "absent.yaml"))
	active, err := rt.loadScoring(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "built-in defaults", active.Origin)
	assert.Equal(t, scoring.DefaultConfiguration().PointsPerVote, active.Config.PointsPerVote)
}

func TestLoadScoring_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"pointsPerVote": 1}`)

	_, err := testRuntime("").loadScoring(nil, bad)
	assert.Error(t, err)

	// A configured file that exists but is invalid is an error, not a fallback.
	_, err = testRuntime(bad).loadScoring(nil, "")
	assert.Error(t, err)
}

func TestParseAt(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-10-18", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)},
		{"2026-10-18T09:30", time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)},
		{"2026-10-18T09:30:00+02:00", time.Date(2026, 10, 18, 7, 30, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := parseAt(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.in, got)
	}

	now, err := parseAt("  ")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)

	_, err = parseAt("yesterday")
	assert.Error(t, err)
}

func TestRunPass_Files(t *testing.T) {
	dir := t.TempDir()
	in := inputFlags{
		suggestions: writeFile(t, dir, "suggestions.json", referenceSuggestions),
		clients:     writeFile(t, dir, "clients.json", referenceClients),
		at:          "2026-10-18",
	}

	p, err := testRuntime("").runPass(t.Context(), nil, in)
	require.NoError(t, err)
	require.Len(t, p.scored, 1)
	assert.EqualValues(t, 176, p.scored[0].TotalScore)
	assert.Equal(t, "3", p.scored[0].Tier.Label)
	assert.Equal(t, "built-in defaults", p.scoring.Origin)
}

func TestRunPass_Store(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	db, err := store.Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	suggestions, err := readSuggestionsFile(writeFile(t, dir, "suggestions.json", referenceSuggestions))
	require.NoError(t, err)
	_, err = db.UpsertSuggestions(suggestions)
	require.NoError(t, err)
	profiles, err := readClientsFile(writeFile(t, dir, "clients.json", referenceClients))
	require.NoError(t, err)
	_, err = db.UpsertClients(profiles)
	require.NoError(t, err)

	in := inputFlags{at: "2026-10-18"}
	require.True(t, in.needsStore())

	p, err := testRuntime("").runPass(t.Context(), db, in)
	require.NoError(t, err)
	require.Len(t, p.scored, 1)
	assert.EqualValues(t, 176, p.scored[0].TotalScore)
	assert.Equal(t, "Small Shop", p.scored[0].Client.Name)
}

func TestRunPass_BadInputs(t *testing.T) {
	dir := t.TempDir()
	_, err := testRuntime("").runPass(t.Context(), nil, inputFlags{
		suggestions: writeFile(t, dir, "s.json", `{"not": "an array"}`),
		clients:     writeFile(t, dir, "c.json", referenceClients),
	})
	assert.Error(t, err)

	_, err = testRuntime("").runPass(t.Context(), nil, inputFlags{at: "soon"})
	assert.Error(t, err)
}
