package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/checks"
	auditerrors "docaudit/internal/errors"
	"docaudit/internal/project"
	"docaudit/internal/rules"
	"docaudit/internal/testutil"
)

func compliantProject() map[string]string {
	return map[string]string{
		"README.md":                        "# Demo\n\nSee the [guide](docs/guide.md).\n",
		"CHANGELOG.md":                     "# Changelog\n\n## [0.1.0] - 2024-01-01\n",
		"docs/guide.md":                    "# Guide\n\n## Usage\n",
		"docs/adr/0001-use-markdown.md":    "# Use markdown\n\n**Status:** Accepted\n",
		"target/debug/ignored/Bad Name.md": "TODO\n",
	}
}

func TestAnalyze_DefaultRulesCompliantProject(t *testing.T) {
	root := testutil.WriteTree(t, compliantProject())

	report, err := NewAnalyzer(nil).Analyze(context.Background(), Options{Root: root, SpecsEnabled: true})
	require.NoError(t, err)

	assert.Equal(t, checks.Summary{Total: 17, Passed: 15, Skipped: 2}, report.Summary)
	assert.False(t, report.HasFailures())
	assert.Equal(t, project.Generic, report.Project.Class)
	assert.Equal(t, 4, report.Files)
	assert.Equal(t, rules.DefaultSource, report.Rules)

	_, err = uuid.Parse(report.ScanID)
	assert.NoError(t, err)
	assert.Len(t, report.Fingerprint, 64)

	require.NotNil(t, report.Specs)
	require.NotNil(t, report.CrossRef)
	assert.Equal(t, 0, report.Specs.Failed)
}

func TestAnalyze_RustManifestRules(t *testing.T) {
	files := compliantProject()
	files["Cargo.toml"] = "[package]\nname = \"demo\"\ndescription = \"demo crate\"\n"
	root := testutil.WriteTree(t, files)

	report, err := NewAnalyzer(nil).Analyze(context.Background(), Options{Root: root, SpecsEnabled: true})
	require.NoError(t, err)

	assert.Equal(t, project.Rust, report.Project.Class)
	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 17, failures[0].ID)
	assert.True(t, report.HasFailures())

	require.NotEmpty(t, report.Categories)
	assert.Equal(t, "manifest", report.Categories[0].Category, "most failures first")
	assert.Equal(t, 1, report.Categories[0].Failed)
}

func TestAnalyze_ProjectTypeOverride(t *testing.T) {
	root := testutil.WriteTree(t, compliantProject())

	report, err := NewAnalyzer(nil).Analyze(context.Background(), Options{Root: root, ProjectType: "rust"})
	require.NoError(t, err)

	assert.True(t, report.Project.Overridden)
	res, ok := findCheck(report, 16)
	require.True(t, ok)
	assert.Equal(t, checks.StatusFail, res.Status, "manifest rule runs and finds no Cargo.toml")
	assert.Nil(t, report.Specs, "spec pipeline disabled")
}

func TestAnalyze_MissingReadme(t *testing.T) {
	set, err := rules.Parse([]byte(`
[[rules]]
id = 1
description = "README exists"
type = "file_exists"
path = "README.md"

[[rules]]
id = 2
description = "README names its audience"
type = "file_content_matches"
path = "README.md"
pattern = "Audience"
depends_on = [1]
`), rules.FormatTOML, "inline")
	require.NoError(t, err)
	root := testutil.WriteTree(t, map[string]string{"docs/": ""})

	report, err := NewAnalyzer(nil).Analyze(context.Background(), Options{Root: root, Rules: set})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Skipped)
	second, _ := findCheck(report, 2)
	assert.Equal(t, "dependency check 1 failed", second.Reason)
}

func TestAnalyze_FingerprintStableScanIDUnique(t *testing.T) {
	root := testutil.WriteTree(t, compliantProject())
	a := NewAnalyzer(nil)

	first, err := a.Analyze(context.Background(), Options{Root: root})
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.NotEqual(t, first.ScanID, second.ScanID)

	testutil.WriteFiles(t, root, map[string]string{"docs/new.md": "# New\n"})
	third, err := a.Analyze(context.Background(), Options{Root: root})
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint)
}

func TestAnalyze_LoadErrors(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"cycle.toml": `
[[rules]]
id = 1
description = "a"
type = "file_exists"
path = "a"
depends_on = [2]

[[rules]]
id = 2
description = "b"
type = "file_exists"
path = "b"
depends_on = [1]
`,
		"handler.yaml": "rules:\n  - id: 1\n    description: x\n    type: builtin\n    handler: nope\n",
	})

	tests := []struct {
		name string
		opts Options
		code auditerrors.ErrorCode
	}{
		{"cycle", Options{Root: root, RulesPath: filepath.Join(root, "cycle.toml")}, auditerrors.DependencyCycle},
		{"unknown handler", Options{Root: root, RulesPath: filepath.Join(root, "handler.yaml")}, auditerrors.UnknownHandler},
		{"missing rules", Options{Root: root, RulesPath: filepath.Join(root, "absent.toml")}, auditerrors.RulesUnreadable},
		{"missing root", Options{Root: filepath.Join(root, "nowhere")}, auditerrors.RootInaccessible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := NewAnalyzer(nil).Analyze(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.code, auditerrors.CodeOf(err))
		})
	}
}

func TestSummarizeCategories(t *testing.T) {
	results := []checks.CheckResult{
		{Category: "readme", Result: checks.Pass()},
		{Category: "links", Result: checks.Fail(checks.Violation{Message: "a"}, checks.Violation{Message: "b"})},
		{Category: "readme", Result: checks.Skip("x")},
		{Category: "adr", Result: checks.Fail(checks.Violation{Message: "c"})},
	}

	got := summarizeCategories(results)
	require.Len(t, got, 3)
	assert.Equal(t, CategorySummary{Category: "adr", Failed: 1, Violations: 1}, got[0])
	assert.Equal(t, CategorySummary{Category: "links", Failed: 1, Violations: 2}, got[1])
	assert.Equal(t, CategorySummary{Category: "readme", Passed: 1, Skipped: 1}, got[2])
	assert.Equal(t, "readme: 1 passed, 0 failed, 1 skipped", got[2].String())
}

func findCheck(r *Report, id int) (checks.CheckResult, bool) {
	for _, c := range r.Checks {
		if c.ID == id {
			return c, true
		}
	}
	return checks.CheckResult{}, false
}
