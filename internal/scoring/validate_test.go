package scoring

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfiguration()))
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}

func TestValidate_UnsortedTierTable(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.TierThresholds[2], cfg.TierThresholds[3] = cfg.TierThresholds[3], cfg.TierThresholds[2]

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tierThresholds[3]")
	assert.Contains(t, err.Error(), "sorted ascending")

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "tierThresholds[3]", ve.Field)
}

func TestValidate_ShapeErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Configuration)
		field  string
	}{
		{"empty customer tiers", func(c *Configuration) { c.CustomerTierThresholds = nil }, "customerTierThresholds"},
		{"empty age table", func(c *Configuration) { c.AgeThresholds = []AgeThreshold{} }, "ageThresholds"},
		{"duplicate count bound", func(c *Configuration) {
			c.SuggestionCountThresholds[1].MaxCount = Bound(1)
		}, "suggestionCountThresholds[1]"},
		{"unbounded middle entry", func(c *Configuration) {
			c.TenureThresholds[1].MaxYears = nil
		}, "tenureThresholds[1]"},
		{"empty tier label", func(c *Configuration) { c.TierThresholds[0].Tier = " " }, "tierThresholds[0].tier"},
		{"duplicate tier label", func(c *Configuration) { c.TierThresholds[1].Tier = "5" }, "tierThresholds[1].tier"},
		{"nps key out of range", func(c *Configuration) { c.NPSPoints[11] = 5 }, "npsPoints"},
		{"empty allowlist entry", func(c *Configuration) { c.EnterpriseAllowlist = []string{""} }, "enterpriseAllowlist[0]"},
		{"email as domain", func(c *Configuration) { c.EnterpriseDomains["a@b.example"] = "B" }, "enterpriseDomains"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfiguration()
			tc.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)

			var fields []string
			for _, ve := range ValidationErrors(err) {
				fields = append(fields, ve.Field)
			}
			assert.Contains(t, fields, tc.field)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.AgeThresholds = nil
	cfg.TierThresholds = nil
	cfg.NPSPoints[-1] = 3

	issues := ValidationErrors(Validate(cfg))
	assert.Len(t, issues, 3)
}

func TestValidationErrors_Wrapped(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.TierThresholds = nil
	err := fmt.Errorf("loading: %w", Validate(cfg))
	issues := ValidationErrors(err)
	require.Len(t, issues, 1)
	assert.Equal(t, "tierThresholds", issues[0].Field)
	assert.Nil(t, ValidationErrors(nil))
}

func TestDecode_RejectsUnsortedTiers(t *testing.T) {
	in := strings.Replace(mustEncode(t, DefaultConfiguration(), FormatJSON), `"maxScore": 100`, `"maxScore": 1000`, 1)
	_, err := Decode([]byte(in), FormatJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scoring configuration")
	assert.NotEmpty(t, ValidationErrors(err))
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	in := strings.Replace(mustEncode(t, DefaultConfiguration(), FormatJSON), `"pointsPerVote"`, `"pointsPerVotes"`, 1)
	_, err := Decode([]byte(in), FormatJSON)
	assert.Error(t, err)
}

func TestDecode_RejectsTrailingData(t *testing.T) {
	cfg := DefaultConfiguration()

	jsonIn := mustEncode(t, cfg, FormatJSON)
	_, err := Decode([]byte(jsonIn+"\n\n"), FormatJSON)
	require.NoError(t, err, "trailing whitespace is fine")
	_, err = Decode([]byte(jsonIn+`{"pointsPerVote": 9}`), FormatJSON)
	assert.ErrorContains(t, err, "trailing data")
	_, err = Decode([]byte(jsonIn+"garbage"), FormatJSON)
	assert.Error(t, err)

	yamlIn := mustEncode(t, cfg, FormatYAML)
	_, err = Decode([]byte(yamlIn+"---\npointsPerVote: 9\n"), FormatYAML)
	assert.ErrorContains(t, err, "single document")
}

func TestDecode_UnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("{}"), Format("toml"))
	assert.Error(t, err)
}

func TestCodec_JSONAndYAMLAgree(t *testing.T) {
	want := DefaultConfiguration()
	want.EnterpriseAllowlist = []string{"Acme"}
	want.EnterpriseDomains = map[string]string{"acme.example": "Acme"}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			got, err := Decode([]byte(mustEncode(t, want, format)), format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "scoring.yaml")

	cfg := DefaultConfiguration()
	cfg.PointsPerVote = 3
	require.NoError(t, Save(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pointsPerVote: 3")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Points(3), loaded.PointsPerVote)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSave_RefusesInvalid(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.TierThresholds = nil
	path := filepath.Join(t.TempDir(), "scoring.json")
	require.Error(t, Save(path, cfg))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFromPath("a/b.YML"))
	assert.Equal(t, FormatYAML, FormatFromPath("b.yaml"))
	assert.Equal(t, FormatJSON, FormatFromPath("b.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("noext"))
}

func TestClone_IsDeep(t *testing.T) {
	orig := DefaultConfiguration()
	c := orig.Clone()
	*c.TierThresholds[0].MaxScore = 1
	c.NPSPoints[0] = 99
	c.EnterpriseDomains["x.example"] = "X"

	assert.Equal(t, Points(100), *orig.TierThresholds[0].MaxScore)
	assert.Equal(t, Points(30), orig.NPSPoints[0])
	assert.Empty(t, orig.EnterpriseDomains)
	assert.Nil(t, (*Configuration)(nil).Clone())
}

func TestConfigurationHelpers(t *testing.T) {
	cfg := DefaultConfiguration()
	assert.Equal(t, []string{"5", "4", "3", "2", "1", "Urgent"}, cfg.TierLabels())

	rank, ok := cfg.TierRank("Urgent")
	assert.True(t, ok)
	assert.Equal(t, 5, rank)
	_, ok = cfg.TierRank("0")
	assert.False(t, ok)

	assert.Len(t, cfg.PreventiveStatuses(), 4)
}

func mustEncode(t *testing.T, cfg *Configuration, format Format) string {
	t.Helper()
	data, err := Encode(cfg, format)
	require.NoError(t, err)
	return string(data)
}
