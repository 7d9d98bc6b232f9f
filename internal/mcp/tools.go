package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// PassFunc runs a scoring pass over the current snapshot and returns the
// results with the configuration that produced them.
type PassFunc func(ctx context.Context) ([]prioritize.ScoredSuggestion, *scoring.Configuration, error)

// Rank limits.
const (
	defaultRankLimit = 10
	maxRankLimit     = 100
)

// RankArgs are the arguments of the rank_suggestions tool. Omitted fields
// place no restriction.
type RankArgs struct {
	Tiers           []string          `json:"tiers"`
	Size            string            `json:"size"`
	Preventive      []string          `json:"preventive"`
	Enterprise      string            `json:"enterprise"`
	NPS             *prioritize.Range `json:"nps"`
	Loyalty         []string          `json:"loyalty"`
	Score           *prioritize.Range `json:"score"`
	IncludeArchived bool              `json:"include_archived"`
	SortBy          string            `json:"sort_by"`
	Limit           int               `json:"limit"`
}

// RankedSuggestion is a compact row of the rank_suggestions result.
type RankedSuggestion struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Client     string         `json:"client"`
	Enterprise bool           `json:"enterprise"`
	Tier       string         `json:"tier"`
	Score      scoring.Points `json:"score"`
	Votes      int            `json:"votes"`
	Comments   int            `json:"comments"`
	Status     string         `json:"status"`
}

// RankResult is the result of the rank_suggestions tool.
type RankResult struct {
	PrioritizedCount int                `json:"prioritized_count"`
	FilteredCount    int                `json:"filtered_count"`
	Items            []RankedSuggestion `json:"items"`
}

var (
	noArgsSchema = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	rankSchema   = json.RawMessage(`{"type":"object","properties":{` +
		`"tiers":{"type":"array","items":{"type":"string"},"description":"Tier labels to include"},` +
		`"size":{"type":"string","description":"Client size band: all, small, medium, large, min-max or min+"},` +
		`"preventive":{"type":"array","items":{"type":"string"},"description":"Preventive statuses to include"},` +
		`"enterprise":{"type":"string","enum":["all","only","exclude"]},` +
		`"nps":{"type":"object","properties":{"low":{"type":"integer"},"high":{"type":"integer"}}},` +
		`"loyalty":{"type":"array","items":{"type":"string","enum":["full","partial","none"]}},` +
		`"score":{"type":"object","properties":{"low":{"type":"integer"},"high":{"type":"integer"}}},` +
		`"include_archived":{"type":"boolean"},` +
		`"sort_by":{"type":"string","enum":["score","votes","comments"]},` +
		`"limit":{"type":"integer","description":"Maximum rows (default 10, max 100)"}` +
		`},"additionalProperties":false}`)
	explainSchema = json.RawMessage(`{"type":"object","properties":{"id":{"type":"string","description":"Suggestion ID"}},"required":["id"],"additionalProperties":false}`)
)

// addTools registers all three MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "rank_suggestions",
		Description: "Score every suggestion, apply filters and return the top of the prioritized list.",
		InputSchema: rankSchema,
		Handler:     s.handleRank,
	})
	s.registerTool(toolDef{
		Name:        "explain_suggestion",
		Description: "Score breakdown, tier, resolved client and data anomalies for one suggestion.",
		InputSchema: explainSchema,
		Handler:     s.handleExplain,
	})
	s.registerTool(toolDef{
		Name:        "tier_summary",
		Description: "Number of suggestions per tier plus enterprise, archived and anomaly counts.",
		InputSchema: noArgsSchema,
		Handler:     s.handleSummary,
	})
}

// decodeArgs unmarshals tool arguments, treating null as empty.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// filterSpec converts tool arguments into a FilterSpec.
func (a RankArgs) filterSpec() (prioritize.FilterSpec, error) {
	spec := prioritize.FilterSpec{
		Tiers:           a.Tiers,
		NPS:             a.NPS,
		Score:           a.Score,
		IncludeArchived: a.IncludeArchived,
	}
	var err error
	if spec.Size, err = prioritize.ParseSizeBand(a.Size); err != nil {
		return spec, err
	}
	if spec.Enterprise, err = prioritize.ParseEnterpriseSelector(a.Enterprise); err != nil {
		return spec, err
	}
	if spec.SortBy, err = prioritize.ParseSortKey(a.SortBy); err != nil {
		return spec, err
	}
	for _, p := range a.Preventive {
		spec.PreventiveStatuses = append(spec.PreventiveStatuses, client.PreventiveStatus(p))
	}
	for _, l := range a.Loyalty {
		spec.Loyalty = append(spec.Loyalty, client.Loyalty(l))
	}
	return spec, nil
}

// handleRank runs a pass and returns the filtered, sorted view.
func (s *Server) handleRank(ctx context.Context, args json.RawMessage) (any, error) {
	var a RankArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	spec, err := a.filterSpec()
	if err != nil {
		return nil, err
	}

	limit := a.Limit
	if limit <= 0 {
		limit = defaultRankLimit
	}
	limit = min(limit, maxRankLimit)

	scored, _, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	view := prioritize.BuildView(scored, spec)

	items := view.Items
	if len(items) > limit {
		items = items[:limit]
	}
	result := RankResult{
		PrioritizedCount: view.PrioritizedCount,
		FilteredCount:    view.FilteredCount,
		Items:            make([]RankedSuggestion, 0, len(items)),
	}
	for _, ss := range items {
		result.Items = append(result.Items, RankedSuggestion{
			ID:         ss.Suggestion.ID,
			Title:      ss.Suggestion.Title,
			Client:     ss.Client.Name,
			Enterprise: ss.Client.IsEnterprise,
			Tier:       ss.Tier.Label,
			Score:      ss.TotalScore,
			Votes:      ss.Suggestion.Votes,
			Comments:   ss.Suggestion.CommentsCount,
			Status:     string(ss.Suggestion.Status),
		})
	}
	return result, nil
}

// handleExplain returns the full scored record for one suggestion.
func (s *Server) handleExplain(ctx context.Context, args json.RawMessage) (any, error) {
	var a struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	scored, _, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	for _, ss := range scored {
		if ss.Suggestion.ID == a.ID {
			return ss, nil
		}
	}
	return nil, fmt.Errorf("suggestion %q not found", a.ID)
}

// handleSummary returns per-tier counts for the whole snapshot.
func (s *Server) handleSummary(ctx context.Context, _ json.RawMessage) (any, error) {
	scored, _, err := s.pass(ctx)
	if err != nil {
		return nil, err
	}
	return prioritize.Summarize(scored), nil
}
