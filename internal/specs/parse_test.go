package specs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discovered(t *testing.T, p string) Discovered {
	t.Helper()
	d, ok := Classify(p)
	require.True(t, ok, p)
	return d
}

func TestParseYAMLFeatureRequest(t *testing.T) {
	doc, diags := ParseYAML(discovered(t, "specs/auth/login.spec.yaml"), []byte(`
kind: feature_request
schema_version: "1.0"
title: Login
id: AUTH-001
status: draft
priority: high
dependencies:
  - ref: CORE-001
    file: ../core/session.spec.yaml
relatedDocuments:
  - docs/auth.md
requirements:
  - id: AUTH-001.1
    description: users sign in with email
`))
	require.Empty(t, diags)

	fr, ok := doc.(*FeatureRequestSpec)
	require.True(t, ok)
	assert.Equal(t, "AUTH-001", fr.DeclaredID())
	assert.Equal(t, "high", fr.Priority)
	assert.Equal(t, []string{"AUTH-001", "AUTH-001.1"}, fr.RequirementIDs())
	assert.Equal(t, []string{"docs/auth.md"}, fr.RelatedDocuments)

	deps := fr.Dependencies()
	require.Len(t, deps, 1)
	assert.Equal(t, Dependency{Ref: "CORE-001", File: "../core/session.spec.yaml", Line: 9}, deps[0])
	assert.Equal(t, "specs/auth/login.spec.yaml", fr.Source().Path)
}

func TestParseYAMLTestPlanLines(t *testing.T) {
	doc, diags := ParseYAML(discovered(t, "specs/auth/login.test.yaml"), []byte(`kind: test_plan
schema_version: "1.0"
title: Login tests
spec: login.spec.yaml
test_cases:
  - id: TC-001
    description: happy path
    verifies: AUTH-001.1
  - id: TC-002
    description: both
    verifies: AUTH-001.1, AUTH-001.2
`))
	require.Empty(t, diags)

	tp := doc.(*TestSpec)
	require.Len(t, tp.TestCases, 2)
	assert.Equal(t, 6, tp.TestCases[0].Line)
	assert.Equal(t, 9, tp.TestCases[1].Line)
	assert.Equal(t, []string{"AUTH-001.1", "AUTH-001.2"}, tp.TestCases[1].VerifiedIDs())
}

func TestParseYAMLBrd(t *testing.T) {
	doc, diags := ParseYAML(discovered(t, "specs/brd.spec.yaml"), []byte(`kind: brd
schema_version: "1.0"
title: Platform
domains:
  - name: auth
    spec_count: 3
    specs:
      - id: AUTH-001
        file: auth/login.spec.yaml
`))
	require.Empty(t, diags)

	brd := doc.(*BrdSpec)
	require.Len(t, brd.Domains, 1)
	require.NotNil(t, brd.Domains[0].SpecCount)
	assert.Equal(t, 3, *brd.Domains[0].SpecCount)
	assert.Equal(t, 5, brd.Domains[0].Line)
	assert.Equal(t, 8, brd.Domains[0].Specs[0].Line)
}

func TestParseYAMLEnvelopeKindSelectsSchema(t *testing.T) {
	doc, diags := ParseYAML(discovered(t, "specs/odd.spec.yaml"), []byte("kind: deployment\nspec: x.spec.yaml\nenvironments:\n  - name: prod\n"))
	require.Empty(t, diags)
	deploy, ok := doc.(*DeploySpec)
	require.True(t, ok)
	assert.Equal(t, KindFeatureRequest, deploy.Source().Kind)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		line int
	}{
		{"syntax", "kind: test_plan\n  title: nested\n", 2},
		{"not a mapping", "- a\n- b\n", 1},
		{"empty", "", 0},
		{"type mismatch", "kind: test_plan\ntest_cases: nope\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, diags := ParseYAML(discovered(t, "specs/x.test.yaml"), []byte(tt.data))
			assert.Nil(t, doc)
			require.Len(t, diags, 1)
			assert.Equal(t, ParseError, diags[0].Kind)
			assert.Equal(t, "specs/x.test.yaml", diags[0].File)
			if tt.line > 0 {
				assert.Equal(t, tt.line, diags[0].Line)
			}
		})
	}
}

func TestParseMarkdownTestPlan(t *testing.T) {
	content := "# Compiler Design Tests\n" +
		"\n" +
		"**Version:** 0.3\n" +
		"**Status:** Draft\n" +
		"**Spec:** [compiler_design.spec](../requirements/compiler_design.spec)\n" +
		"**Arch:** `../design/compiler_design.arch`\n" +
		"\n" +
		"| ID | Description | Verifies |\n" +
		"|----|-------------|----------|\n" +
		"| TC-001 | lexes tokens | CMP-001 |\n" +
		"| | missing id | CMP-002 |\n" +
		"| TC-003 | no target | |\n" +
		"| TC-004 | parses | CMP-002 |\n"

	m := ParseMarkdown(discovered(t, "docs/testing/compiler_design.test"), content)
	assert.Equal(t, "Compiler Design Tests", m.Title)
	assert.Equal(t, "0.3", m.Version)
	assert.Equal(t, "Draft", m.Status)
	assert.Equal(t, "../requirements/compiler_design.spec", m.SpecLink)
	assert.Equal(t, "../design/compiler_design.arch", m.ArchLink)
	require.Len(t, m.TestCases, 2)
	assert.Equal(t, TestCase{ID: "TC-001", Description: "lexes tokens", Verifies: "CMP-001", Line: 10}, m.TestCases[0])
	assert.Equal(t, "TC-004", m.TestCases[1].ID)
	assert.Equal(t, "", m.DeclaredID(), "only requirement documents declare IDs")
}

func TestParseMarkdownTestTableWithoutIDColumn(t *testing.T) {
	content := "# Compiler Design Tests\n" +
		"\n" +
		"| Description | Verifies |\n" +
		"|-------------|----------|\n" +
		"| lexes input | CMP-001 |\n"

	m := ParseMarkdown(discovered(t, "docs/testing/compiler_design.test"), content)
	assert.Empty(t, m.TestCases)
}

func TestVerifiedIDsReadLinkText(t *testing.T) {
	tc := TestCase{ID: "TC-1", Verifies: "[CMP-001](../requirements/x.spec#cmp-001), CMP-002"}
	assert.Equal(t, []string{"CMP-001", "CMP-002"}, tc.VerifiedIDs())
}

func TestParseMarkdownRequirement(t *testing.T) {
	content := "# Compiler Design\n\n" +
		"**Version:** 1.0\n" +
		"**Status:** Approved\n" +
		"**Related:** CMP-000 ([brd](../BRD.spec))\n" +
		"**Requirements:** CMP-001, CMP-002\n\n" +
		"### CMP-003 Error recovery\n"

	m := ParseMarkdown(discovered(t, "docs/requirements/compiler_design.spec"), content)
	assert.Equal(t, "CMP-000", m.RelatedID)
	assert.Equal(t, "../BRD.spec", m.RelatedLink)
	assert.Equal(t, "CMP-000", m.DeclaredID())
	assert.Equal(t, []string{"CMP-001", "CMP-002"}, m.Requirements)
	assert.True(t, m.HasID("CMP-003"))
	assert.Equal(t, []Dependency{{Ref: "CMP-000", File: "../BRD.spec", Line: 5}}, m.Dependencies())
}

func TestParseMarkdownMissingMetadataStillParses(t *testing.T) {
	m := ParseMarkdown(discovered(t, "docs/requirements/empty.spec"), "just prose\n")
	require.NotNil(t, m)
	assert.Empty(t, m.Title)
	assert.Empty(t, m.Version)
	assert.Empty(t, m.Status)
}

func TestParseMarkdownBrdInventory(t *testing.T) {
	content := "# BRD\n\n| Domain | Count | Path |\n|---|---|---|\n| auth | 3 | [auth](auth/) |\n| billing | two | billing |\n"
	m := ParseMarkdown(discovered(t, "docs/BRD.spec"), content)
	require.Len(t, m.Inventory, 2)
	assert.Equal(t, InventoryRow{Domain: "auth", Count: 3, CountText: "3", Path: "auth/", Line: 5}, m.Inventory[0])
	assert.Equal(t, -1, m.Inventory[1].Count)
}
