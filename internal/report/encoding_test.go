package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"docaudit/internal/checks"
)

func TestDeterministicEncode(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		wantJSON string
	}{
		{
			name: "struct keys sorted, floats rounded",
			input: struct {
				Name  string  `json:"name"`
				Score float64 `json:"score"`
				Count int     `json:"count"`
			}{Name: "test", Score: 0.123456789, Count: 42},
			wantJSON: `{"count":42,"name":"test","score":0.123457}`,
		},
		{
			name: "omitempty and nil pointers dropped",
			input: struct {
				Name  string   `json:"name"`
				Line  int      `json:"line,omitempty"`
				Score *float64 `json:"score,omitempty"`
			}{Name: "test"},
			wantJSON: `{"name":"test"}`,
		},
		{
			name: "map with sorted keys",
			input: map[string]interface{}{
				"zebra": "last",
				"alpha": "first",
			},
			wantJSON: `{"alpha":"first","zebra":"last"}`,
		},
		{
			name: "embedded struct flattened",
			input: checks.CheckResult{
				ID:       3,
				Category: "readme",
				Result:   checks.Skip("dependency check 1 failed"),
			},
			wantJSON: `{"category":"readme","description":"","id":3,"reason":"dependency check 1 failed","severity":"","status":"skip","type":""}`,
		},
		{
			name:     "empty slice returns null",
			input:    []string{},
			wantJSON: `null`,
		},
		{
			name:     "nil value",
			input:    nil,
			wantJSON: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DeterministicEncode(tt.input)
			if err != nil {
				t.Fatalf("DeterministicEncode() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("DeterministicEncode() = %s, want %s", got, tt.wantJSON)
			}
		})
	}
}

func TestDeterministicEncode_KeepsTimestamps(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got, err := DeterministicEncode(struct {
		StartedAt time.Time `json:"startedAt"`
	}{at})
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}
	if string(got) != `{"startedAt":"2024-03-01T12:00:00Z"}` {
		t.Errorf("got %s", got)
	}
}

func TestDeterministicEncodeConsistency(t *testing.T) {
	data := map[string]interface{}{
		"checks": []checks.CheckResult{
			{ID: 2, Result: checks.Fail(checks.Violation{CheckID: 2, File: "b.md", Message: "x"})},
			{ID: 1, Result: checks.Pass()},
		},
		"meta": map[string]interface{}{"version": "1", "ratio": 0.123456789},
	}

	first, err := DeterministicEncode(data)
	if err != nil {
		t.Fatalf("DeterministicEncode() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := DeterministicEncode(data)
		if !bytes.Equal(first, again) {
			t.Fatalf("encoding is not deterministic:\n%s\n%s", first, again)
		}
	}
}

func TestDeterministicEncodeIndented(t *testing.T) {
	got, err := DeterministicEncodeIndented(map[string]interface{}{"name": "test", "value": 0.5}, "  ")
	if err != nil {
		t.Fatalf("DeterministicEncodeIndented() error = %v", err)
	}
	if !strings.Contains(string(got), "\n  \"name\": \"test\"") {
		t.Errorf("expected indented output, got %s", got)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(got, &parsed); err != nil {
		t.Errorf("indented output is not valid JSON: %v", err)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		input, want float64
	}{
		{0.123456789, 0.123457},
		{0.123456, 0.123456},
		{0.1234564, 0.123456},
		{0, 0},
		{-0.123456789, -0.123457},
	}
	for _, tt := range tests {
		if got := roundFloat(tt.input); got != tt.want {
			t.Errorf("roundFloat(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
