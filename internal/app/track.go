package app

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/feedbackrank/internal/output"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
	"github.com/blackwell-systems/feedbackrank/internal/store"
)

var (
	trackCompare int
	trackHistory int
	trackInput   inputFlags
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot a pass and compare with previous ones",
	Long: `Run a scoring pass, store every result and the pass summary as a new
snapshot, and compare against a previous snapshot: summary metric deltas
with trend arrows, plus every suggestion that changed tier.`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous snapshot (1 = most recent)")
	trackCmd.Flags().IntVar(&trackHistory, "history", 0, "Show metric trends across N most recent snapshots")
	addInputFlags(trackCmd, &trackInput)
	rootCmd.AddCommand(trackCmd)
}

// trackResult is the JSON shape of the track command.
type trackResult struct {
	Snapshot *store.Snapshot        `json:"snapshot"`
	Scoring  string                 `json:"scoring"`
	Summary  prioritize.Summary     `json:"summary"`
	Diff     *store.SnapshotDiff    `json:"diff,omitempty"`
	Shifts   []prioritize.TierShift `json:"shifts,omitempty"`
}

func runTrack(cmd *cobra.Command, args []string) error {
	if trackCompare < 1 {
		return fmt.Errorf("--compare must be at least 1, got %d", trackCompare)
	}

	rt, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = rt.logger.Sync() }()

	db, closeDB, err := rt.openStoreIf(true)
	if err != nil {
		return err
	}
	defer closeDB()

	out := cmd.OutOrStdout()

	// Handle --history mode: show trends across N snapshots without a new pass.
	if trackHistory > 0 {
		if flagJSON {
			return outputHistoryJSON(out, db, trackHistory)
		}
		return renderHistory(out, db, trackHistory)
	}

	p, err := rt.runPass(cmd.Context(), db, trackInput)
	if err != nil {
		return err
	}
	summary := prioritize.Summarize(p.scored)

	current, err := recordPass(db, p, summary)
	if err != nil {
		return err
	}
	rt.logger.Info("snapshot recorded",
		zap.Int64("snapshot_id", current.ID),
		zap.String("run_id", current.RunID),
		zap.Int("suggestions", len(p.scored)),
	)

	// trackCompare=1 means compare against the immediate predecessor (offset 2 from newest).
	prev, err := db.GetSnapshotN(trackCompare + 1)
	if err != nil {
		return fmt.Errorf("loading previous snapshot: %w", err)
	}

	result := trackResult{Snapshot: current, Scoring: p.scoring.Origin, Summary: summary}
	if prev != nil {
		result.Diff, result.Shifts, err = diffSnapshots(db, prev, current, p.scored)
		if err != nil {
			return err
		}
	}

	if flagJSON {
		return writeJSON(out, result)
	}
	renderTrackOutput(out, result)
	return nil
}

// recordPass stores a pass and its summary under a new snapshot.
func recordPass(db *store.DB, p *pass, summary prioritize.Summary) (*store.Snapshot, error) {
	return db.RecordPass("track", appVersion, p.scoring.Version, p.scoredAt, p.scored, summary)
}

// diffSnapshots compares the summary metrics of prev and current and the
// tiers of every suggestion.
func diffSnapshots(db *store.DB, prev, current *store.Snapshot, scored []prioritize.ScoredSuggestion) (*store.SnapshotDiff, []prioritize.TierShift, error) {
	prevMetrics, err := db.GetAggregateMetrics(prev.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading previous metrics: %w", err)
	}
	currMetrics, err := db.GetAggregateMetrics(current.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading current metrics: %w", err)
	}
	prevResults, err := db.GetPassResults(prev.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading previous results: %w", err)
	}

	diff := &store.SnapshotDiff{
		Previous: prev,
		Current:  current,
		Deltas:   store.ComputeDeltas(prevMetrics, currMetrics),
	}
	return diff, prioritize.CompareTiers(store.ScoredResults(prevResults), scored), nil
}

// metricDirection maps metric names to whether higher values are better.
// Metrics not listed are treated as higher-is-better.
var metricDirection = map[string]bool{
	"anomalies": false, // fewer data problems = better
}

func higherIsBetter(name string) bool {
	if v, ok := metricDirection[name]; ok {
		return v
	}
	return true
}

func renderTrackOutput(w io.Writer, r trackResult) {
	fmt.Fprintln(w, output.Section("Track: Snapshot Comparison"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Snapshot #%d taken at %s (%d suggestions, %s)\n\n",
		r.Snapshot.ID, r.Snapshot.TakenAt.Local().Format("2006-01-02 15:04:05"), r.Summary.Total, r.Scoring)

	if r.Diff == nil {
		fmt.Fprintln(w, " First snapshot recorded. Run 'feedbackrank track' again later to see trends.")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, " Comparing against snapshot #%d (%s)\n\n",
		r.Diff.Previous.ID, r.Diff.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"))

	tbl := output.NewTable("Metric", "Previous", "Current", "Delta", "Trend").AlignRight(1, 2, 3)
	for _, d := range r.Diff.Deltas {
		tbl.AddRow(
			metricShortName(d.Name),
			fmt.Sprintf("%.1f", d.Previous),
			fmt.Sprintf("%.1f", d.Current),
			fmt.Sprintf("%+.1f", d.Delta),
			output.TrendArrow(d.Delta, higherIsBetter(d.Name)),
		)
	}
	fmt.Fprint(w, indent(tbl.Render()))

	renderShifts(w, r.Shifts)
}

func renderShifts(w io.Writer, shifts []prioritize.TierShift) {
	fmt.Fprintln(w, output.Section("Tier changes"))
	fmt.Fprintln(w)
	if len(shifts) == 0 {
		fmt.Fprintf(w, " %s\n\n", output.StyleMuted.Render("No suggestion changed tier."))
		return
	}

	tbl := output.NewTable("Change", "Suggestion", "From", "To", "Score").AlignRight(4)
	for _, s := range shifts {
		var change, from, to, score string
		switch s.Kind {
		case prioritize.ShiftEscalated:
			change = output.StyleError.Render("▲ escalated")
		case prioritize.ShiftDeescalated:
			change = output.StyleSuccess.Render("▼ de-escalated")
		case prioritize.ShiftNew:
			change = output.StyleHeader.Render("+ new")
		case prioritize.ShiftRemoved:
			change = output.StyleMuted.Render("- removed")
		}
		if s.Kind != prioritize.ShiftNew {
			from = output.TierBadge(s.From)
		}
		if s.Kind != prioritize.ShiftRemoved {
			to = output.TierBadge(s.To)
		}
		switch s.Kind {
		case prioritize.ShiftNew:
			score = fmt.Sprintf("%d", s.ToScore)
		case prioritize.ShiftRemoved:
			score = fmt.Sprintf("%d", s.FromScore)
		default:
			score = fmt.Sprintf("%d -> %d", s.FromScore, s.ToScore)
		}
		tbl.AddRow(change, truncate(s.Title, 40), from, to, score)
	}
	fmt.Fprint(w, indent(tbl.Render()))
	fmt.Fprintln(w)
}

// metricDisplayOrder defines the order summary metrics appear in history
// output. Tier counts follow, most urgent first.
var metricDisplayOrder = []string{
	"total",
	"mean_score",
	"max_score",
	"min_score",
	"enterprise",
	"archived",
	"anomalies",
}

// metricShortName returns a compact label for display.
func metricShortName(name string) string {
	short := map[string]string{
		"total":      "Suggestions",
		"mean_score": "Mean score",
		"max_score":  "Max score",
		"min_score":  "Min score",
		"enterprise": "Enterprise",
		"archived":   "Archived",
		"anomalies":  "Anomalies",
	}
	if s, ok := short[name]; ok {
		return s
	}
	if label, ok := strings.CutPrefix(name, "tier:"); ok {
		return "Tier " + label
	}
	return name
}

type snapshotMetrics struct {
	Snapshot store.Snapshot          `json:"snapshot"`
	Metrics  []store.AggregateMetric `json:"metrics"`
}

// loadHistory returns up to n snapshots with their metrics, oldest first.
func loadHistory(db *store.DB, n int) ([]snapshotMetrics, error) {
	snapshots, err := db.ListSnapshots(n)
	if err != nil {
		return nil, fmt.Errorf("loading snapshots: %w", err)
	}
	slices.Reverse(snapshots)

	var timeline []snapshotMetrics
	for _, s := range snapshots {
		metrics, err := db.GetAggregateMetrics(s.ID)
		if err != nil {
			return nil, fmt.Errorf("loading metrics for snapshot #%d: %w", s.ID, err)
		}
		timeline = append(timeline, snapshotMetrics{Snapshot: s, Metrics: metrics})
	}
	return timeline, nil
}

// historyRows lists the metric names present in the timeline: the summary
// metrics in display order, then tier counts in first-seen order.
func historyRows(timeline []snapshotMetrics) []string {
	rows := slices.Clone(metricDisplayOrder)
	seen := make(map[string]bool)
	for _, sm := range timeline {
		for _, m := range sm.Metrics {
			if strings.HasPrefix(m.MetricName, "tier:") && !seen[m.MetricName] {
				seen[m.MetricName] = true
				rows = append(rows, m.MetricName)
			}
		}
	}
	return rows
}

// renderHistory shows a multi-snapshot timeline table.
func renderHistory(w io.Writer, db *store.DB, n int) error {
	timeline, err := loadHistory(db, n)
	if err != nil {
		return err
	}
	if len(timeline) == 0 {
		fmt.Fprintln(w, " No snapshots found. Run 'feedbackrank track' to create one.")
		return nil
	}

	fmt.Fprintln(w, output.Section("Track: Metric History"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " Showing %d most recent snapshots\n\n", len(timeline))

	// Build table: Metric | snap1 | snap2 | ... | Trend
	headers := []string{"Metric"}
	values := make([]map[string]float64, len(timeline))
	for i, sm := range timeline {
		headers = append(headers, fmt.Sprintf("#%d %s", sm.Snapshot.ID, sm.Snapshot.TakenAt.Local().Format("Jan 02")))
		values[i] = make(map[string]float64, len(sm.Metrics))
		for _, m := range sm.Metrics {
			values[i][m.MetricName] = m.MetricValue
		}
	}
	headers = append(headers, "Trend")
	tbl := output.NewTable(headers...)
	for i := range timeline {
		tbl.AlignRight(i + 1)
	}

	for _, name := range historyRows(timeline) {
		row := []string{metricShortName(name)}
		for i := range timeline {
			row = append(row, fmt.Sprintf("%.1f", values[i][name]))
		}

		// Compute trend from first to last.
		trend := ""
		if len(timeline) >= 2 {
			delta := values[len(values)-1][name] - values[0][name]
			trend = output.TrendArrow(delta, higherIsBetter(name))
		}
		row = append(row, trend)
		tbl.AddRow(row...)
	}

	fmt.Fprint(w, indent(tbl.Render()))
	fmt.Fprintln(w)
	return nil
}

// outputHistoryJSON writes the history data as JSON.
func outputHistoryJSON(w io.Writer, db *store.DB, n int) error {
	timeline, err := loadHistory(db, n)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"history": timeline})
}
