package app

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/output"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// rankFlags holds the raw filter flags before validation.
type rankFlags struct {
	tiers           []string
	size            string
	preventive      []string
	enterprise      string
	nps             string
	loyalty         []string
	score           string
	includeArchived bool
	sort            string
	limit           int
}

var (
	rankOpts  rankFlags
	rankInput inputFlags
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run a scoring pass and print the prioritized view",
	Long: `Score every suggestion against the active scoring configuration,
classify each into a tier, apply the filters and print the result sorted
descending.

Suggestions and clients are read from the store unless --suggestions or
--clients point at JSON files. The scoring configuration comes from
--scoring, then the store's active version, then the configured scoring
file, then the built-in defaults.

Examples:
  feedbackrank rank --tier Urgent --tier 1
  feedbackrank rank --size large --enterprise only --sort votes
  feedbackrank rank --score 200,400 --nps 0,6 --limit 20
  feedbackrank rank --suggestions snapshot.json --clients clients.json --at 2026-10-18`,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.StringSliceVar(&rankOpts.tiers, "tier", nil, "Only show these tier labels (repeatable)")
	f.StringVar(&rankOpts.size, "size", "all", "Client size band: all, small, medium, large, min-max or min+")
	f.StringSliceVar(&rankOpts.preventive, "preventive", nil, "Only show these preventive statuses (repeatable)")
	f.StringVar(&rankOpts.enterprise, "enterprise", "all", "Enterprise filter: all, only or exclude")
	f.StringVar(&rankOpts.nps, "nps", "", "Inclusive NPS range lo,hi")
	f.StringSliceVar(&rankOpts.loyalty, "loyalty", nil, "Only show these loyalty levels: full, partial, none")
	f.StringVar(&rankOpts.score, "score", "", "Inclusive score range lo,hi")
	f.BoolVar(&rankOpts.includeArchived, "include-archived", false, "Include archived suggestions")
	f.StringVar(&rankOpts.sort, "sort", "", "Sort key: score, votes or comments (default from config)")
	f.IntVar(&rankOpts.limit, "limit", -1, "Maximum rows to print, 0 for all (default from config)")
	addInputFlags(rankCmd, &rankInput)
	rootCmd.AddCommand(rankCmd)
}

// addInputFlags registers the data-source flags on cmd.
func addInputFlags(cmd *cobra.Command, in *inputFlags) {
	f := cmd.Flags()
	f.StringVar(&in.suggestions, "suggestions", "", "Read suggestions from a JSON file instead of the store")
	f.StringVar(&in.clients, "clients", "", "Read client profiles from a JSON file instead of the store")
	f.StringVar(&in.scoring, "scoring", "", "Scoring configuration file (JSON or YAML)")
	f.StringVar(&in.at, "at", "", "Reference time for age scoring (RFC 3339 or YYYY-MM-DD, default now)")
}

// filterSpec validates the flags against cfg and builds a FilterSpec.
func (rf rankFlags) filterSpec(cfg *scoring.Configuration, defaultSort string) (prioritize.FilterSpec, error) {
	spec := prioritize.FilterSpec{IncludeArchived: rf.includeArchived}

	labels := cfg.TierLabels()
	for _, t := range rf.tiers {
		t = strings.TrimSpace(t)
		if !slices.Contains(labels, t) {
			return spec, fmt.Errorf("unknown tier %q (have %s)", t, strings.Join(labels, ", "))
		}
		spec.Tiers = append(spec.Tiers, t)
	}

	var err error
	if spec.Size, err = prioritize.ParseSizeBand(rf.size); err != nil {
		return spec, err
	}

	known := cfg.PreventiveStatuses()
	for _, p := range rf.preventive {
		status := client.PreventiveStatus(strings.ToLower(strings.TrimSpace(p)))
		if !slices.Contains(known, status) {
			return spec, fmt.Errorf("unknown preventive status %q", p)
		}
		spec.PreventiveStatuses = append(spec.PreventiveStatuses, status)
	}

	if spec.Enterprise, err = prioritize.ParseEnterpriseSelector(rf.enterprise); err != nil {
		return spec, err
	}

	if rf.nps != "" {
		r, err := prioritize.ParseRange(rf.nps)
		if err != nil {
			return spec, fmt.Errorf("--nps: %w", err)
		}
		spec.NPS = &r
	}

	for _, l := range rf.loyalty {
		level := client.Loyalty(strings.ToLower(strings.TrimSpace(l)))
		switch level {
		case client.LoyaltyFull, client.LoyaltyPartial, client.LoyaltyNone:
			spec.Loyalty = append(spec.Loyalty, level)
		default:
			return spec, fmt.Errorf("unknown loyalty level %q (want full, partial or none)", l)
		}
	}

	if rf.score != "" {
		r, err := prioritize.ParseRange(rf.score)
		if err != nil {
			return spec, fmt.Errorf("--score: %w", err)
		}
		spec.Score = &r
	}

	sortKey := rf.sort
	if sortKey == "" {
		sortKey = defaultSort
	}
	if spec.SortBy, err = prioritize.ParseSortKey(sortKey); err != nil {
		return spec, err
	}
	return spec, nil
}

// rankOutput is the JSON shape of the rank command.
type rankOutput struct {
	ScoredAt         time.Time                     `json:"scoredAt"`
	Scoring          string                        `json:"scoring"`
	Filter           prioritize.FilterSpec         `json:"filter"`
	PrioritizedCount int                           `json:"prioritizedCount"`
	FilteredCount    int                           `json:"filteredCount"`
	Items            []prioritize.ScoredSuggestion `json:"items"`
	Summary          prioritize.Summary            `json:"summary"`
}

func runRank(cmd *cobra.Command, args []string) error {
	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	db, closeDB, err := rt.openStoreIf(rankInput.needsStore())
	if err != nil {
		return err
	}
	defer closeDB()

	p, err := rt.runPass(cmd.Context(), db, rankInput)
	if err != nil {
		return err
	}

	spec, err := rankOpts.filterSpec(p.scoring.Config, rt.cfg.DefaultSort)
	if err != nil {
		return err
	}
	view := prioritize.BuildView(p.scored, spec)

	limit := rankOpts.limit
	if limit < 0 {
		limit = rt.cfg.DefaultLimit
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		items := view.Items
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		return writeJSON(out, rankOutput{
			ScoredAt:         p.scoredAt,
			Scoring:          p.scoring.Origin,
			Filter:           spec,
			PrioritizedCount: view.PrioritizedCount,
			FilteredCount:    view.FilteredCount,
			Items:            items,
			Summary:          prioritize.Summarize(view.Items),
		})
	}

	renderRank(out, p, view, limit)
	return nil
}

func renderRank(w io.Writer, p *pass, view prioritize.View, limit int) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Prioritized suggestions (%s)", p.scoredAt.Format("2006-01-02"))))
	fmt.Fprintln(w)

	if view.FilteredCount == 0 {
		fmt.Fprintf(w, " %s\n\n", output.StyleMuted.Render("No suggestions match the current filters."))
		renderCounts(w, view, 0)
		return
	}

	scale := output.BarScale(p.scoring.Config)
	tbl := output.NewTable("#", "Tier", "Score", "", "Title", "Client", "Votes", "Comments", "Status").
		AlignRight(0, 2, 6, 7)
	shown := 0
	for i, ss := range view.Items {
		if limit > 0 && i >= limit {
			break
		}
		clientName := ss.Client.Name
		if ss.Client.IsEnterprise {
			clientName += " " + output.StyleWarning.Render("★")
		}
		tbl.AddRow(
			strconv.Itoa(i+1),
			output.TierBadge(ss.Tier),
			strconv.FormatInt(int64(ss.TotalScore), 10),
			output.ScoreBar(ss.TotalScore, scale, 10, ss.Tier),
			truncate(ss.Suggestion.Title, 40),
			truncate(clientName, 28),
			strconv.Itoa(ss.Suggestion.Votes),
			strconv.Itoa(ss.Suggestion.CommentsCount),
			string(ss.Suggestion.Status),
		)
		shown++
	}
	fmt.Fprint(w, indent(tbl.Render()))
	fmt.Fprintln(w)
	renderCounts(w, view, shown)

	summary := prioritize.Summarize(view.Items)
	var parts []string
	for _, tc := range summary.Tiers {
		parts = append(parts, fmt.Sprintf("%s %d", output.TierBadge(scoring.Tier{Label: tc.Label, Color: tc.Color}), tc.Count))
	}
	fmt.Fprintf(w, " %s\n", strings.Join(parts, "  "))
	if summary.Anomalies > 0 {
		fmt.Fprintf(w, " %s\n", output.StyleWarning.Render(
			fmt.Sprintf("%d data anomalies were scored as zero; run with --verbose for details", summary.Anomalies)))
	}
	fmt.Fprintf(w, " %s\n\n", output.StyleMuted.Render("scoring: "+p.scoring.Origin))
}

func renderCounts(w io.Writer, view prioritize.View, shown int) {
	msg := fmt.Sprintf("Showing %d of %d suggestions (%d scored)", shown, view.FilteredCount, view.PrioritizedCount)
	fmt.Fprintf(w, " %s\n", output.StyleMuted.Render(msg))
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func indent(s string) string {
	lines := strings.SplitAfter(s, "\n")
	var sb strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(l)
	}
	return sb.String()
}
