package output

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/feedbackrank/internal/scoring"
)

// ScoreBar renders a bar for score relative to scale, colored by tier.
// Example: "████████░░ 176"
func ScoreBar(score, scale scoring.Points, width int, tier scoring.Tier) string {
	if width <= 0 {
		width = 20
	}
	filled := 0
	if scale > 0 {
		filled = int(int64(score) * int64(width) / int64(scale))
	}
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", TierStyle(tier).UnsetBold().Render(bar), StyleMuted.Render(fmt.Sprintf("%d", score)))
}

// BarScale picks the value a full bar represents: the lower bound of the
// terminal tier, or the highest bounded tier limit, whichever the table has.
func BarScale(cfg *scoring.Configuration) scoring.Points {
	var scale scoring.Points
	for _, t := range cfg.TierThresholds {
		if t.MaxScore != nil {
			scale = max(scale, *t.MaxScore)
		}
	}
	if scale <= 0 {
		scale = 100
	}
	return scale
}

// Breakdown renders one line per contribution with its points and share of
// the total.
func Breakdown(b scoring.Breakdown) string {
	total := b.Total()
	var sb strings.Builder
	for _, e := range b {
		share := ""
		if total > 0 && e.Points > 0 {
			share = StyleMuted.Render(fmt.Sprintf(" (%d%%)", int64(e.Points)*100/int64(total)))
		}
		label := StyleLabel.Render(" " + e.Contribution.Label())
		points := fmt.Sprintf("%5d", e.Points)
		if e.Points == 0 {
			points = StyleMuted.Render(points)
		}
		fmt.Fprintf(&sb, "%s%s%s\n", label, points, share)
	}
	fmt.Fprintf(&sb, "%s%s\n", StyleLabel.Render(" Total"), StyleBold.Render(fmt.Sprintf("%5d", total)))
	return sb.String()
}

// TrendArrow returns a styled trend indicator for a delta value.
// Positive delta shows an up arrow, negative shows down, zero shows a dash.
// The improved parameter indicates whether higher values are better.
func TrendArrow(delta float64, higherIsBetter bool) string {
	if delta == 0 {
		return StyleMuted.Render("─")
	}

	isPositive := delta > 0
	isImproved := (isPositive && higherIsBetter) || (!isPositive && !higherIsBetter)

	var arrow string
	if isPositive {
		arrow = fmt.Sprintf("▲ +%.1f", delta)
	} else {
		arrow = fmt.Sprintf("▼ %.1f", delta)
	}

	if isImproved {
		return StyleSuccess.Render(arrow)
	}
	return StyleError.Render(arrow)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
