package ui

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

const (
	columnGap = 2
	ellipsis  = "…"
)

// Column configures one column of a Table.
type Column struct {
	Header     string
	AlignRight bool
	// MaxWidth cuts longer cells in the middle; 0 means unlimited.
	MaxWidth int
}

// Table renders rows as aligned plain-text columns. The header is styled
// only when Styled is set.
type Table struct {
	columns []Column
	rows    [][]string

	Styled bool
}

func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	for i, c := range t.columns {
		row[i] = truncateMiddle(row[i], c.MaxWidth)
	}
	t.rows = append(t.rows, row)
}

// Len is the number of rows added so far.
func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Render(w io.Writer) error {
	if len(t.columns) == 0 {
		return nil
	}

	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = utf8.RuneCountInString(c.Header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}

	headers := make([]string, len(t.columns))
	rules := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Header
		rules[i] = strings.Repeat("-", widths[i])
	}

	header := t.line(headers, widths)
	if t.Styled {
		header = lipgloss.NewStyle().Bold(true).Render(header)
	}
	if _, err := io.WriteString(w, header+"\n"+t.line(rules, widths)+"\n"); err != nil {
		return err
	}
	for _, row := range t.rows {
		if _, err := io.WriteString(w, t.line(row, widths)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		pad := strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		if t.columns[i].AlignRight {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", columnGap))
		}
	}
	return b.String()
}

// truncateMiddle keeps both ends of s, which is where image references
// differ (registry and name).
func truncateMiddle(s string, maxWidth int) string {
	n := utf8.RuneCountInString(s)
	if maxWidth <= 0 || n <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return string([]rune(s)[:maxWidth])
	}

	r := []rune(s)
	avail := maxWidth - 1
	left := avail / 2
	right := avail - left
	return string(r[:left]) + ellipsis + string(r[n-right:])
}
