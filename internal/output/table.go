package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// columnGap separates adjacent columns.
const columnGap = "  "

// Table renders aligned columns. Cells may already carry ANSI styling;
// widths are measured on the visible text only.
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
	right   []bool
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	t := &Table{
		headers: headers,
		widths:  make([]int, len(headers)),
		right:   make([]bool, len(headers)),
	}
	for i, h := range headers {
		t.widths[i] = visualLen(h)
	}
	return t
}

// AlignRight right-aligns the given column indexes, typically numeric
// columns such as scores and vote counts. Out-of-range indexes are ignored.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		if c >= 0 && c < len(t.right) {
			t.right[c] = true
		}
	}
	return t
}

// AddRow appends a row. Missing trailing cells are blank and extra cells
// are dropped.
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	for i, cell := range row {
		t.widths[i] = max(t.widths[i], visualLen(cell))
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render returns the header, a separator rule and every row, each line
// terminated by a newline.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	if IsNoColor() {
		headerStyle = lipgloss.NewStyle()
	}

	var sb strings.Builder
	t.writeLine(&sb, t.headers, func(s string) string { return headerStyle.Render(s) })

	rule := make([]string, len(t.widths))
	for i, w := range t.widths {
		rule[i] = strings.Repeat("─", w)
	}
	t.writeLine(&sb, rule, func(s string) string { return StyleMuted.Render(s) })

	for _, row := range t.rows {
		t.writeLine(&sb, row, nil)
	}
	return sb.String()
}

func (t *Table) String() string {
	return t.Render()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string, style func(string) string) {
	for i, cell := range cells {
		if i > 0 {
			sb.WriteString(columnGap)
		}
		var padded string
		if t.right[i] {
			padded = padLeft(cell, t.widths[i])
		} else {
			padded = pad(cell, t.widths[i])
		}
		if style != nil {
			padded = style(padded)
		}
		sb.WriteString(padded)
	}
	sb.WriteString("\n")
}

// visualLen is the printed width of s, ignoring ANSI escape sequences.
func visualLen(s string) int {
	return lipgloss.Width(s)
}

// pad right-pads s to the given visible width.
func pad(s string, width int) string {
	if n := visualLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// padLeft left-pads s to the given visible width.
func padLeft(s string, width int) string {
	if n := visualLen(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
