package mdgrammar

import (
	"regexp"
	"strings"
)

var delimiterRowPattern = regexp.MustCompile(`^\s*\|?\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|?\s*$`)

// Row is one body row of a pipe table.
type Row struct {
	Cells []string
	Line  int
}

// Table is a pipe table: a header row, a delimiter row and body rows.
type Table struct {
	Header []string
	Rows   []Row
	Line   int
}

// Column returns the index of the header cell named name (case-insensitive),
// or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// HasColumns reports whether every named column is present.
func (t Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if t.Column(n) < 0 {
			return false
		}
	}
	return true
}

// Cell returns row's cell in column col, or "" when the row is short.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// SplitRow splits a pipe-table line into trimmed cells. Escaped pipes stay in
// the cell.
func SplitRow(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "|")
	if strings.HasSuffix(text, "|") && !strings.HasSuffix(text, `\|`) {
		text = text[:len(text)-1]
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '\\' && i+1 < len(text) && text[i+1] == '|':
			cur.WriteByte('|')
			i++
		case text[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(text[i])
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

func isTableLine(text string) bool {
	return strings.Contains(text, "|") && strings.TrimSpace(text) != ""
}

// Tables returns the pipe tables outside fenced code.
func Tables(content string) []Table {
	lines := Prose(content)
	var out []Table
	for i := 0; i+1 < len(lines); i++ {
		head, delim := lines[i], lines[i+1]
		if !isTableLine(head.Text) || delim.Number != head.Number+1 || !delimiterRowPattern.MatchString(delim.Text) {
			continue
		}
		table := Table{Header: SplitRow(head.Text), Line: head.Number}
		j := i + 2
		for ; j < len(lines); j++ {
			if lines[j].Number != lines[j-1].Number+1 || !isTableLine(lines[j].Text) {
				break
			}
			table.Rows = append(table.Rows, Row{Cells: SplitRow(lines[j].Text), Line: lines[j].Number})
		}
		out = append(out, table)
		i = j - 1
	}
	return out
}
