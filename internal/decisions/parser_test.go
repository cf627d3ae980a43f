package decisions

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	content := `# ADR-001: Use PostgreSQL for persistence

**Status:** accepted

**Date:** 2024-01-15

**Author:** John Doe

## Context

We need a database for storing user data.

` + "```md\n**Status:** rejected\n```" + `

## Decision

We will use PostgreSQL.
`

	rec := Parse("docs/decisions/adr-001-use-postgresql.md", content)

	if rec.ID != "ADR-001" || rec.Number != 1 {
		t.Errorf("Expected ADR-001 / 1, got %q / %d", rec.ID, rec.Number)
	}
	if rec.Title != "Use PostgreSQL for persistence" {
		t.Errorf("Expected title 'Use PostgreSQL for persistence', got '%s'", rec.Title)
	}
	if rec.Status != "accepted" {
		t.Errorf("Expected status 'accepted', got '%s'", rec.Status)
	}
	if rec.StatusLine != 3 {
		t.Errorf("Expected status on line 3, got %d", rec.StatusLine)
	}
	expectedDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !rec.Date.Equal(expectedDate) {
		t.Errorf("Expected date %v, got %v", expectedDate, rec.Date)
	}
}

func TestParse_StatusSection(t *testing.T) {
	content := "# Record logging format\n\n## Status\n\nDeprecated (2024-06-01)\n\n## Context\n\nText.\n"

	rec := Parse("docs/adr/0007-logging.md", content)
	if rec.Status != "deprecated" {
		t.Errorf("Expected status 'deprecated', got %q", rec.Status)
	}
	if rec.StatusLine != 5 {
		t.Errorf("Expected status on line 5, got %d", rec.StatusLine)
	}
	if rec.Title != "Record logging format" {
		t.Errorf("Unexpected title %q", rec.Title)
	}
}

func TestParse_EmptyStatusSection(t *testing.T) {
	rec := Parse("docs/adr/0002-x.md", "# X\n\n## Status\n\n## Context\n\nText\n")
	if rec.Status != "" {
		t.Errorf("Expected no status, got %q", rec.Status)
	}
}

func TestParse_Superseded(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"inline id", "# A\n\n**Status:** Superseded by ADR-0005\n", 5},
		{"inline link", "# A\n\n**Status:** Superseded by [the new one](0012-new-store.md)\n", 12},
		{"separate label", "# A\n\n**Status:** superseded\n**Superseded by:** ADR 3\n", 3},
		{"no successor", "# A\n\n**Status:** superseded\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Parse("docs/adr/0001-a.md", tt.content)
			if rec.Status != string(StatusSuperseded) {
				t.Errorf("Expected superseded, got %q", rec.Status)
			}
			if rec.SupersededNumber != tt.want {
				t.Errorf("SupersededNumber = %d, want %d (%q)", rec.SupersededNumber, tt.want, rec.SupersededBy)
			}
		})
	}
}

func TestParse_IDFromTitle(t *testing.T) {
	rec := Parse("docs/adr/record.md", "# ADR 14 - Adopt zstd\n")
	if rec.ID != "ADR-014" || rec.Number != 14 {
		t.Errorf("Expected ADR-014 from the title, got %q / %d", rec.ID, rec.Number)
	}
	if rec.Title != "Adopt zstd" {
		t.Errorf("Unexpected title %q", rec.Title)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		filename string
		want     int
		ok       bool
	}{
		{"adr-001-test.md", 1, true},
		{"docs/adr/ADR-001-test.md", 1, true},
		{"adr001-test.md", 1, true},
		{"0012-test.md", 12, true},
		{"ADR_7.md", 7, true},
		{"0000-template.md", 0, false},
		{"readme.md", 0, false},
		{"test.md", 0, false},
	}

	for _, tt := range tests {
		got, ok := Number(tt.filename)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Number(%q) = %d, %v; want %d, %v", tt.filename, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFormatID(t *testing.T) {
	if got := FormatID(1); got != "ADR-001" {
		t.Errorf("FormatID(1) = %q", got)
	}
	if got := FormatID(1234); got != "ADR-1234" {
		t.Errorf("FormatID(1234) = %q", got)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range Statuses {
		if !IsValidStatus(string(s)) {
			t.Errorf("%s should be valid", s)
		}
	}
	if IsValidStatus("draft") {
		t.Error("draft should not be valid")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		hasError bool
	}{
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"January 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"Jan 15, 2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"2024/01/15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), false},
		{"invalid", time.Time{}, true},
	}

	for _, tt := range tests {
		result, err := parseDate(tt.input)
		if tt.hasError {
			if err == nil {
				t.Errorf("parseDate(%q) expected error, got nil", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("parseDate(%q) unexpected error: %v", tt.input, err)
			}
			if !result.Equal(tt.expected) {
				t.Errorf("parseDate(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		}
	}
}
