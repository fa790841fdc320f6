package models

import (
	"fmt"
	"strings"
)

// ColumnStatistics holds per-column aggregates computed for bare table scans.
// A nil member means the aggregate does not apply to the column.
type ColumnStatistics struct {
	Min *Value `json:"min,omitempty"`
	Max *Value `json:"max,omitempty"`
	Avg *Value `json:"avg,omitempty"`
	Sum *Value `json:"sum,omitempty"`
}

// ResultSet is the tabular result of one executed statement.
// Every row has exactly len(Columns) values.
type ResultSet struct {
	Columns    []string                    `json:"columns"`
	Rows       [][]Value                   `json:"rows"`
	Markdown   string                      `json:"markdown"`
	Statistics map[string]ColumnStatistics `json:"statistics,omitempty"`
}

// NewResultSet creates an empty result with the given column order.
func NewResultSet(columns []string) *ResultSet {
	return &ResultSet{
		Columns: columns,
		Rows:    make([][]Value, 0),
	}
}

// AddRow appends a row, rejecting rows whose width differs from the column list.
func (r *ResultSet) AddRow(values []Value) error {
	if len(values) != len(r.Columns) {
		return fmt.Errorf("row has %d values, expected %d", len(values), len(r.Columns))
	}
	r.Rows = append(r.Rows, values)
	return nil
}

// SetStatistics records statistics for a column. Unknown columns are ignored so
// that statistics keys stay a subset of Columns.
func (r *ResultSet) SetStatistics(column string, stats ColumnStatistics) {
	if !r.hasColumn(column) {
		return
	}
	if r.Statistics == nil {
		r.Statistics = make(map[string]ColumnStatistics)
	}
	r.Statistics[column] = stats
}

func (r *ResultSet) hasColumn(name string) bool {
	for _, c := range r.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// StringRows renders every cell as text.
func (r *ResultSet) StringRows() [][]string {
	out := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		out[i] = cells
	}
	return out
}

// Records returns the rows keyed by column name.
func (r *ResultSet) Records() []map[string]Value {
	out := make([]map[string]Value, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]Value, len(r.Columns))
		for j, col := range r.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

// RenderMarkdown builds a GitHub-flavoured markdown table of the result.
func (r *ResultSet) RenderMarkdown() string {
	if len(r.Columns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("|")
	for _, c := range r.Columns {
		b.WriteString(" " + escapeMarkdownCell(c) + " |")
	}
	b.WriteString("\n|")
	for range r.Columns {
		b.WriteString(" --- |")
	}
	for _, row := range r.Rows {
		b.WriteString("\n|")
		for _, v := range row {
			b.WriteString(" " + escapeMarkdownCell(v.String()) + " |")
		}
	}
	return b.String()
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
