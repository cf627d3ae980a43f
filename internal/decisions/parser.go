package decisions

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"docaudit/internal/mdgrammar"
)

var (
	// adr-001-title.md, 0001-title.md, ADR_12.md
	filenamePattern = regexp.MustCompile(`^(?:adr[-_]?)?(\d+)(?:[-_.]|$)`)
	titleIDPattern  = regexp.MustCompile(`(?i)^ADR[-\s_]?(\d+)\s*[:.-]?\s*`)
	supersedPattern = regexp.MustCompile(`(?i)superseded\s+by:?\s*(.+)`)
	numberPattern   = regexp.MustCompile(`\d+`)
)

// Number extracts the record number from a file name. Records numbered 0 are
// templates and report false.
func Number(p string) (int, bool) {
	m := filenamePattern.FindStringSubmatch(strings.ToLower(path.Base(p)))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// Parse reads a decision record. The status comes from a "**Status:**" label
// or, failing that, from the first line of a "Status" section.
func Parse(p string, content string) *Record {
	rec := &Record{File: p}
	if n, ok := Number(p); ok {
		rec.Number = n
		rec.ID = FormatID(n)
	}

	if title, ok := mdgrammar.Title(content); ok {
		if m := titleIDPattern.FindStringSubmatch(title); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && rec.ID == "" {
				rec.Number = n
				rec.ID = FormatID(n)
			}
			title = title[len(m[0]):]
		}
		rec.Title = strings.TrimSpace(title)
	}

	labels := mdgrammar.IndexLabels(content)
	if lb, ok := labels.Get("status"); ok {
		rec.setStatus(lb.Value, lb.Line)
	} else if value, line, ok := sectionStatus(content); ok {
		rec.setStatus(value, line)
	}

	if lb, ok := labels.Get("superseded by"); ok && rec.SupersededBy == "" {
		rec.setSuccessor(lb.Value)
	}
	if lb, ok := labels.Get("date"); ok {
		if t, err := parseDate(lb.Value); err == nil {
			rec.Date = t
		}
	}
	return rec
}

func (r *Record) setStatus(value string, line int) {
	value = strings.TrimSpace(value)
	r.StatusLine = line
	if m := supersedPattern.FindStringSubmatch(value); m != nil {
		r.setSuccessor(m[1])
	}
	fields := strings.FieldsFunc(strings.ToLower(value), func(c rune) bool {
		return c == ' ' || c == ',' || c == ';' || c == '(' || c == '.' || c == ':'
	})
	if len(fields) > 0 {
		r.Status = fields[0]
	}
}

func (r *Record) setSuccessor(value string) {
	r.SupersededBy = strings.Trim(strings.TrimSpace(value), "*")
	if link := mdgrammar.LinksIn(r.SupersededBy); len(link) > 0 {
		if n, ok := Number(mdgrammar.PathOf(link[0].Target)); ok {
			r.SupersededNumber = n
			return
		}
	}
	if num := numberPattern.FindString(r.SupersededBy); num != "" {
		r.SupersededNumber, _ = strconv.Atoi(num)
	}
}

// sectionStatus returns the first prose line under a "Status" heading.
func sectionStatus(content string) (string, int, bool) {
	inSection := false
	for _, l := range mdgrammar.Prose(content) {
		if h, ok := mdgrammar.ParseHeading(l.Text); ok {
			if inSection {
				return "", 0, false
			}
			inSection = strings.EqualFold(h.Text, "status")
			continue
		}
		if inSection && strings.TrimSpace(l.Text) != "" {
			return strings.TrimSpace(l.Text), l.Number, true
		}
	}
	return "", 0, false
}

// FormatID normalizes an ADR number to "ADR-NNN" format
func FormatID(n int) string {
	return fmt.Sprintf("ADR-%03d", n)
}

// parseDate attempts to parse various date formats
func parseDate(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006/01/02",
		"02-01-2006",
		"02/01/2006",
	}

	s = strings.TrimSpace(s)
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}
