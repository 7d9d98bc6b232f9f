package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/feedbackrank/internal/client"
	"github.com/blackwell-systems/feedbackrank/internal/feedback"
	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
)

const snapshotColumns = "id, run_id, taken_at, scored_at, command, version, config_version"

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// RecordPass stores a scored pass, its results and its summary metrics under
// a new snapshot in one transaction, so a failed write leaves no partial
// snapshot behind.
func (db *DB) RecordPass(command, version string, configVersion int64, scoredAt time.Time,
	scored []prioritize.ScoredSuggestion, summary prioritize.Summary) (*Snapshot, error) {
	var snap *Snapshot
	err := db.inTx(func(tx *sql.Tx) error {
		var err error
		if snap, err = createSnapshot(tx, command, version, configVersion, scoredAt); err != nil {
			return err
		}
		if err := insertPassResults(tx, snap.ID, scored); err != nil {
			return fmt.Errorf("inserting pass results: %w", err)
		}
		if err := insertSummary(tx, snap.ID, summary); err != nil {
			return fmt.Errorf("inserting summary metrics: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// CreateSnapshot inserts a new snapshot with a fresh run ID.
func (db *DB) CreateSnapshot(command, version string, configVersion int64, scoredAt time.Time) (*Snapshot, error) {
	return createSnapshot(db.conn, command, version, configVersion, scoredAt)
}

func createSnapshot(ex execer, command, version string, configVersion int64, scoredAt time.Time) (*Snapshot, error) {
	s := &Snapshot{
		RunID:         uuid.NewString(),
		Command:       command,
		Version:       version,
		TakenAt:       time.Now().UTC().Truncate(time.Second),
		ScoredAt:      scoredAt.UTC(),
		ConfigVersion: configVersion,
	}
	var cfgVersion sql.NullInt64
	if configVersion > 0 {
		cfgVersion = sql.NullInt64{Int64: configVersion, Valid: true}
	}

	result, err := ex.Exec(
		"INSERT INTO snapshots (run_id, taken_at, scored_at, command, version, config_version) VALUES (?, ?, ?, ?, ?, ?)",
		s.RunID, s.TakenAt.Format(time.RFC3339), s.ScoredAt.Format(time.RFC3339Nano), command, version, cfgVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	if s.ID, err = result.LastInsertId(); err != nil {
		return nil, err
	}
	return s, nil
}

// GetLatestSnapshot returns the most recent snapshot, or nil if none exist.
func (db *DB) GetLatestSnapshot() (*Snapshot, error) {
	return db.GetSnapshotN(1)
}

// GetSnapshot returns a snapshot by ID, or nil if it does not exist.
func (db *DB) GetSnapshot(id int64) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id)
	return scanSnapshot(row)
}

// GetSnapshotByRunID returns the snapshot with the given run ID.
func (db *DB) GetSnapshotByRunID(runID string) (*Snapshot, error) {
	row := db.conn.QueryRow("SELECT "+snapshotColumns+" FROM snapshots WHERE run_id = ?", runID)
	return scanSnapshot(row)
}

// GetSnapshotN returns the Nth most recent snapshot (1 = latest, 2 = previous, etc.).
func (db *DB) GetSnapshotN(n int) (*Snapshot, error) {
	row := db.conn.QueryRow(
		"SELECT "+snapshotColumns+" FROM snapshots ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanSnapshot(row)
}

// ListSnapshots returns up to limit snapshots, newest first.
func (db *DB) ListSnapshots(limit int) ([]Snapshot, error) {
	rows, err := db.conn.Query("SELECT "+snapshotColumns+" FROM snapshots ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var snapshots []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *s)
	}
	return snapshots, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var s Snapshot
	var takenAt, scoredAt string
	var cfgVersion sql.NullInt64
	err := row.Scan(&s.ID, &s.RunID, &takenAt, &scoredAt, &s.Command, &s.Version, &cfgVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	s.ScoredAt, _ = time.Parse(time.RFC3339Nano, scoredAt)
	s.ConfigVersion = cfgVersion.Int64
	return &s, nil
}

// InsertPassResults stores a scored pass under snapshotID, preserving order.
func (db *DB) InsertPassResults(snapshotID int64, scored []prioritize.ScoredSuggestion) error {
	return db.inTx(func(tx *sql.Tx) error {
		return insertPassResults(tx, snapshotID, scored)
	})
}

func insertPassResults(ex execer, snapshotID int64, scored []prioritize.ScoredSuggestion) error {
	stmt, err := ex.Prepare(`INSERT INTO pass_results
		(snapshot_id, position, suggestion_id, title, email, client_name, is_enterprise,
		 archived, total_score, tier_label, tier_color, tier_rank, breakdown, anomaly_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for i, ss := range scored {
		breakdown, err := json.Marshal(ss.Breakdown)
		if err != nil {
			return fmt.Errorf("encoding breakdown for %s: %w", ss.Suggestion.ID, err)
		}
		if _, err := stmt.Exec(
			snapshotID, i, ss.Suggestion.ID, ss.Suggestion.Title, ss.Suggestion.Email,
			ss.Client.Name, ss.Client.IsEnterprise, ss.Suggestion.IsArchived(),
			int64(ss.TotalScore), ss.Tier.Label, ss.Tier.Color, ss.Tier.Rank,
			string(breakdown), len(ss.Anomalies),
		); err != nil {
			return fmt.Errorf("inserting result for %s: %w", ss.Suggestion.ID, err)
		}
	}
	return nil
}

// GetPassResults returns the results stored for a snapshot in pass order.
func (db *DB) GetPassResults(snapshotID int64) ([]PassResult, error) {
	rows, err := db.conn.Query(
		`SELECT id, snapshot_id, position, suggestion_id, title, email, client_name,
		 is_enterprise, archived, total_score, tier_label, tier_color, tier_rank,
		 breakdown, anomaly_count
		 FROM pass_results WHERE snapshot_id = ? ORDER BY position`,
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []PassResult
	for rows.Next() {
		var r PassResult
		var color sql.NullString
		var breakdown string
		if err := rows.Scan(
			&r.ID, &r.SnapshotID, &r.Position, &r.SuggestionID, &r.Title, &r.Email,
			&r.ClientName, &r.IsEnterprise, &r.Archived, &r.TotalScore,
			&r.Tier.Label, &color, &r.Tier.Rank, &breakdown, &r.AnomalyCount,
		); err != nil {
			return nil, err
		}
		r.Tier.Color = color.String
		if err := json.Unmarshal([]byte(breakdown), &r.Breakdown); err != nil {
			return nil, fmt.Errorf("decoding breakdown for %s: %w", r.SuggestionID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Scored rebuilds the parts of a ScoredSuggestion kept in a snapshot.
// Client attributes other than name and enterprise status are not stored.
func (r PassResult) Scored() prioritize.ScoredSuggestion {
	status := feedback.StatusPending
	if r.Archived {
		status = feedback.StatusArchived
	}
	return prioritize.ScoredSuggestion{
		Suggestion: feedback.Suggestion{
			ID:     r.SuggestionID,
			Title:  r.Title,
			Email:  r.Email,
			Status: status,
		},
		Client:     client.Profile{Name: r.ClientName, Email: r.Email, IsEnterprise: r.IsEnterprise},
		Breakdown:  r.Breakdown,
		TotalScore: r.TotalScore,
		Tier:       r.Tier,
	}
}

// ScoredResults converts stored results for use with prioritize.CompareTiers.
func ScoredResults(results []PassResult) []prioritize.ScoredSuggestion {
	out := make([]prioritize.ScoredSuggestion, len(results))
	for i, r := range results {
		out[i] = r.Scored()
	}
	return out
}

func insertAggregateMetric(ex execer, snapshotID int64, name string, value float64, detail string) error {
	_, err := ex.Exec(
		"INSERT INTO aggregate_metrics (snapshot_id, metric_name, metric_value, detail) VALUES (?, ?, ?, ?)",
		snapshotID, name, value, detail,
	)
	return err
}

// InsertSummary stores a pass summary as aggregate metrics.
func (db *DB) InsertSummary(snapshotID int64, s prioritize.Summary) error {
	return db.inTx(func(tx *sql.Tx) error {
		return insertSummary(tx, snapshotID, s)
	})
}

func insertSummary(ex execer, snapshotID int64, s prioritize.Summary) error {
	metrics := []struct {
		name  string
		value float64
	}{
		{"total", float64(s.Total)},
		{"enterprise", float64(s.Enterprise)},
		{"archived", float64(s.Archived)},
		{"anomalies", float64(s.Anomalies)},
		{"mean_score", s.MeanScore},
		{"max_score", float64(s.MaxScore)},
		{"min_score", float64(s.MinScore)},
	}
	for _, m := range metrics {
		if err := insertAggregateMetric(ex, snapshotID, m.name, m.value, ""); err != nil {
			return err
		}
	}
	for _, tc := range s.Tiers {
		if err := insertAggregateMetric(ex, snapshotID, TierMetricName(tc.Label), float64(tc.Count), tc.Color); err != nil {
			return err
		}
	}
	return nil
}

// TierMetricName is the aggregate metric name for a tier's count.
func TierMetricName(label string) string {
	return "tier:" + label
}

// GetAggregateMetrics returns all aggregate metrics for a snapshot.
func (db *DB) GetAggregateMetrics(snapshotID int64) ([]AggregateMetric, error) {
	rows, err := db.conn.Query(
		"SELECT id, snapshot_id, metric_name, metric_value, detail FROM aggregate_metrics WHERE snapshot_id = ? ORDER BY id",
		snapshotID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var metrics []AggregateMetric
	for rows.Next() {
		var m AggregateMetric
		var detail sql.NullString
		if err := rows.Scan(&m.ID, &m.SnapshotID, &m.MetricName, &m.MetricValue, &detail); err != nil {
			return nil, err
		}
		m.Detail = detail.String
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// ComputeDeltas compares two metric sets by name. Metrics present in only
// one set are compared against zero.
func ComputeDeltas(prev, curr []AggregateMetric) []MetricDelta {
	before := make(map[string]float64, len(prev))
	for _, m := range prev {
		before[m.MetricName] = m.MetricValue
	}

	var deltas []MetricDelta
	seen := make(map[string]bool, len(curr))
	for _, m := range curr {
		seen[m.MetricName] = true
		p := before[m.MetricName]
		deltas = append(deltas, MetricDelta{Name: m.MetricName, Previous: p, Current: m.MetricValue, Delta: m.MetricValue - p})
	}
	for _, m := range prev {
		if !seen[m.MetricName] {
			deltas = append(deltas, MetricDelta{Name: m.MetricName, Previous: m.MetricValue, Delta: -m.MetricValue})
		}
	}
	return deltas
}
