package watcher

import (
	"fmt"
	"time"

	"github.com/blackwell-systems/feedbackrank/internal/prioritize"
)

// Compare detects notable changes between two watch states and returns alerts.
// It checks for critical, warning, and info-level changes.
func Compare(prev, curr *WatchState) []Alert {
	shifts := prioritize.CompareTiers(prev.Scored, curr.Scored)

	var alerts []Alert
	alerts = append(alerts, compareCritical(shifts, curr.Timestamp)...)
	alerts = append(alerts, compareWarning(prev, curr, shifts)...)
	alerts = append(alerts, compareInfo(prev, curr, shifts)...)
	return alerts
}

// compareCritical reports suggestions that reached the terminal tier.
func compareCritical(shifts []prioritize.TierShift, now time.Time) []Alert {
	var alerts []Alert
	for _, s := range shifts {
		if !s.To.Terminal {
			continue
		}
		switch s.Kind {
		case prioritize.ShiftEscalated:
			alerts = append(alerts, Alert{
				Level:   LevelCritical,
				Title:   fmt.Sprintf("Now %s: %s", s.To.Label, s.Title),
				Message: fmt.Sprintf("Score %d -> %d (tier %s -> %s)", s.FromScore, s.ToScore, s.From.Label, s.To.Label),
				Time:    now,
			})
		case prioritize.ShiftNew:
			alerts = append(alerts, Alert{
				Level:   LevelCritical,
				Title:   fmt.Sprintf("New %s suggestion: %s", s.To.Label, s.Title),
				Message: fmt.Sprintf("Scored %d on arrival", s.ToScore),
				Time:    now,
			})
		}
	}
	return alerts
}

// compareWarning reports other escalations and growing data problems.
func compareWarning(prev, curr *WatchState, shifts []prioritize.TierShift) []Alert {
	var alerts []Alert
	now := curr.Timestamp

	for _, s := range shifts {
		if s.Kind != prioritize.ShiftEscalated || s.To.Terminal {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   LevelWarning,
			Title:   fmt.Sprintf("Escalated: %s", s.Title),
			Message: fmt.Sprintf("Tier %s -> %s (score %d -> %d)", s.From.Label, s.To.Label, s.FromScore, s.ToScore),
			Time:    now,
		})
	}

	if curr.Summary.Anomalies > prev.Summary.Anomalies {
		alerts = append(alerts, Alert{
			Level:   LevelWarning,
			Title:   "Data anomalies increased",
			Message: fmt.Sprintf("%d anomalies (was %d); run with --verbose for details", curr.Summary.Anomalies, prev.Summary.Anomalies),
			Time:    now,
		})
	}
	return alerts
}

// compareInfo reports arrivals, de-escalations and removals.
func compareInfo(prev, curr *WatchState, shifts []prioritize.TierShift) []Alert {
	var alerts []Alert
	now := curr.Timestamp

	var down, removed int
	for _, s := range shifts {
		switch s.Kind {
		case prioritize.ShiftNew:
			if !s.To.Terminal {
				alerts = append(alerts, Alert{
					Level:   LevelInfo,
					Title:   fmt.Sprintf("New suggestion: %s", s.Title),
					Message: fmt.Sprintf("Scored %d, tier %s", s.ToScore, s.To.Label),
					Time:    now,
				})
			}
		case prioritize.ShiftDeescalated:
			down++
		case prioritize.ShiftRemoved:
			removed++
		}
	}

	if down > 0 {
		alerts = append(alerts, Alert{
			Level:   LevelInfo,
			Title:   "Suggestions de-escalated",
			Message: fmt.Sprintf("%d suggestion(s) moved to a less urgent tier", down),
			Time:    now,
		})
	}
	if removed > 0 {
		alerts = append(alerts, Alert{
			Level:   LevelInfo,
			Title:   "Suggestions removed",
			Message: fmt.Sprintf("%d suggestion(s) no longer in the snapshot", removed),
			Time:    now,
		})
	}
	if curr.ConfigVersion != prev.ConfigVersion && len(shifts) == 0 {
		alerts = append(alerts, Alert{
			Level:   LevelInfo,
			Title:   "No tier changes",
			Message: fmt.Sprintf("Configuration version %d leaves every tier unchanged", curr.ConfigVersion),
			Time:    now,
		})
	}
	return alerts
}
