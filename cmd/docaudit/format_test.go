package main

import (
	"strings"
	"testing"
	"time"

	"docaudit/internal/audit"
	"docaudit/internal/checks"
	"docaudit/internal/crossref"
	"docaudit/internal/project"
	"docaudit/internal/rules"
	"docaudit/internal/specs"
	"docaudit/internal/storage"
)

func TestFormatResponse_JSON(t *testing.T) {
	resp := map[string]interface{}{
		"key": "value",
		"num": 42,
	}

	result, err := FormatResponse(resp, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result, `"key": "value"`) {
		t.Error("JSON output missing expected key")
	}
	if !strings.Contains(result, `"num": 42`) {
		t.Error("JSON output missing expected number")
	}
	if strings.HasSuffix(result, "\n") {
		t.Error("JSON output should not end in a newline")
	}
}

func TestFormatResponse_UnsupportedFormat(t *testing.T) {
	_, err := FormatResponse(map[string]string{"key": "value"}, "xml")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported format") {
		t.Errorf("error should mention unsupported format, got: %v", err)
	}
}

func TestFormatJSON_Deterministic(t *testing.T) {
	resp := map[string]interface{}{"b": 1, "a": []string{"x"}, "c": map[string]int{"z": 1, "y": 2}}

	first, err := formatJSON(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := formatJSON(resp)
		if again != first {
			t.Fatalf("output changed between runs:\n%s\n%s", first, again)
		}
	}
	if strings.Index(first, `"a"`) > strings.Index(first, `"b"`) {
		t.Errorf("keys should be sorted: %s", first)
	}
}

func sampleReport() *audit.Report {
	return &audit.Report{
		Root:    "/work/demo",
		Rules:   rules.DefaultSource,
		Project: project.Detection{Class: project.Rust, Manifest: "Cargo.toml"},
		Files:   4,
		Checks: []checks.CheckResult{
			{ID: 1, Category: "readme", Description: "README.md exists", Result: checks.Pass()},
			{ID: 2, Category: "changelog", Description: "Changelog is well formed", Result: checks.Fail(
				checks.Violation{CheckID: 2, File: "CHANGELOG.md", Line: 1, Message: `missing "# Changelog" title`, Severity: rules.SeverityError},
			)},
			{ID: 3, Category: "changelog", Description: "Changelog links resolve", Result: checks.Skip("dependency check 2 failed")},
		},
		Summary:    checks.Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1},
		Categories: []audit.CategorySummary{{Category: "changelog", Failed: 1, Skipped: 1, Violations: 1}},
		Duration:   12 * time.Millisecond,
	}
}

func TestFormatReportHuman(t *testing.T) {
	out, err := FormatResponse(sampleReport(), FormatHuman)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Documentation audit: /work/demo",
		"Project: Rust (Cargo.toml)",
		"✓ [ 1] readme",
		"✗ [ 2] changelog",
		`error: CHANGELOG.md:1: missing "# Changelog" title`,
		"(skipped: dependency check 2 failed)",
		"changelog: 0 passed, 1 failed, 1 skipped",
		"3 checks: 1 passed, 1 failed, 1 skipped (12ms)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatReportJSON_KeepsCheckOrder(t *testing.T) {
	out, err := FormatResponse(sampleReport(), FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := strings.Index(out, `"description": "README.md exists"`)
	last := strings.Index(out, `"description": "Changelog links resolve"`)
	if first < 0 || last < 0 || first > last {
		t.Errorf("checks should appear in execution order:\n%s", out)
	}
	if strings.Contains(out, "Duration") {
		t.Errorf("durations are not part of the JSON report:\n%s", out)
	}
}

func TestFormatValidationHuman(t *testing.T) {
	r := &specs.ValidationReport{
		Specs:  2,
		Passed: 1,
		Failed: 1,
		Diagnostics: []specs.Diagnostic{
			{File: "specs/auth/login.spec.yaml", Line: 3, Kind: specs.SchemaError, Message: "missing field priority"},
		},
		Duplicates: []specs.Duplicate{{ID: "AUTH-001", Files: []string{"a.spec", "b.spec"}}},
	}

	out, _ := FormatResponse(r, FormatHuman)
	for _, want := range []string{
		"2 documents, 1 passed, 1 failed",
		"[schema_error] specs/auth/login.spec.yaml:3: missing field priority",
		"AUTH-001: a.spec, b.spec",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestFormatCrossRefHuman(t *testing.T) {
	r := &crossref.Report{
		Passed: 1,
		Failed: 1,
		Groups: []crossref.Group{
			{Category: crossref.SDLCChain, Passed: 1, Failed: 1, Results: []crossref.Result{
				{Category: crossref.SDLCChain, Status: crossref.Pass, Description: "login has architecture"},
				{Category: crossref.SDLCChain, Status: crossref.Fail, Description: "login has no test plan", File: "specs/auth/login.spec", Details: []string{"expected specs/auth/login.test"}},
			}},
			{Category: crossref.Inventory},
		},
	}

	out, _ := FormatResponse(r, FormatHuman)
	if !strings.Contains(out, "sdlc_chain (1 passed, 1 failed)") {
		t.Errorf("missing group header:\n%s", out)
	}
	if !strings.Contains(out, "✗ specs/auth/login.spec: login has no test plan") {
		t.Errorf("missing failure line:\n%s", out)
	}
	if !strings.Contains(out, "expected specs/auth/login.test") {
		t.Errorf("missing failure details:\n%s", out)
	}
	if strings.Contains(out, "inventory") {
		t.Errorf("empty groups should be omitted:\n%s", out)
	}
}

func TestFormatRulesHuman(t *testing.T) {
	set, err := rules.Default()
	if err != nil {
		t.Fatalf("default rules: %v", err)
	}

	out, _ := FormatResponse(&RuleListing{Source: set.Source, Ordered: true, Rules: set.Ordered()}, FormatHuman)
	if !strings.HasPrefix(out, "Execution order ("+rules.DefaultSource) {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "depends on:") {
		t.Errorf("default rules declare dependencies:\n%s", out)
	}
	if !strings.Contains(out, "applies to: rust") {
		t.Errorf("rust-only rules should list their tag:\n%s", out)
	}
}

func TestFormatRunsHuman(t *testing.T) {
	if out := formatRunsHuman(&RunList{}); !strings.Contains(out, "No recorded scans") {
		t.Errorf("unexpected empty output: %s", out)
	}

	out := formatRunsHuman(&RunList{Runs: []storage.Run{{
		ScanID:    "4f1c2d9e-aaaa-bbbb-cccc-000000000000",
		Project:   "go",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Passed:    10,
		Failed:    2,
	}}})
	if !strings.Contains(out, "4f1c2d9e ") {
		t.Errorf("scan IDs should be shortened:\n%s", out)
	}
	if strings.Contains(out, "aaaa") {
		t.Errorf("full scan ID leaked:\n%s", out)
	}
}

func TestStatusChanges(t *testing.T) {
	a := []byte(`{"checks":[{"id":1,"status":"pass"},{"id":2,"status":"fail"},{"id":4,"status":"pass"}]}`)
	b := []byte(`{"checks":[{"id":1,"status":"pass"},{"id":2,"status":"pass"},{"id":3,"status":"skip"}]}`)

	changes, err := statusChanges(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []StatusChange{
		{CheckID: 2, Before: "fail", After: "pass"},
		{CheckID: 3, Before: "absent", After: "skip"},
		{CheckID: 4, Before: "pass", After: "absent"},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], want[i])
		}
	}

	if _, err := statusChanges([]byte("not json"), b); err == nil {
		t.Error("expected error for invalid report")
	}
}
