package crossref

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docaudit/internal/scanner"
	"docaudit/internal/specs"
)

func run(files map[string]string) *Report {
	set := scanner.NewMemory(files)
	return Run(set, specs.Load(set, nil), nil)
}

func featureYAML(id string) string {
	return fmt.Sprintf("kind: feature_request\nschema_version: '1'\ntitle: %[1]s\nid: %[1]s\nstatus: draft\npriority: low\nrequirements:\n  - id: %[1]s.1\n    description: d\n", id)
}

func mdDoc(title string, extra string) string {
	return "# " + title + "\n\n**Version:** 1.0\n**Status:** Draft\n" + extra
}

func TestChainMarkdownMissingTestIsNotSatisfiedByYAML(t *testing.T) {
	report := run(map[string]string{
		"docs/requirements/compiler_design.spec": mdDoc("Compiler", "**Related:** CMP-001\n"),
		"docs/design/compiler_design.arch":       mdDoc("Compiler arch", "**Spec:** [spec](../requirements/compiler_design.spec)\n"),
		"docs/ops/compiler_design.deploy":        mdDoc("Compiler deploy", ""),
		"specs/compiler_design.test.yaml":        "kind: test_plan\nschema_version: '1'\ntitle: T\nspec: compiler_design.spec.yaml\ntest_cases: []\n",
	})

	chain := report.Group(SDLCChain)
	require.NotNil(t, chain)
	require.Len(t, chain.Results, 1, "one result per feature per format")

	res := chain.Results[0]
	assert.Equal(t, Fail, res.Status)
	assert.Equal(t, "docs/requirements/compiler_design.spec", res.File)
	assert.Contains(t, res.Description, "compiler_design")
	assert.Equal(t, []string{"missing test document compiler_design.test"}, res.Details)
}

func TestChainCompletePerFormat(t *testing.T) {
	report := run(map[string]string{
		"specs/login.spec.yaml":   featureYAML("AUTH-001"),
		"specs/login.arch.yaml":   "kind: architecture\n",
		"specs/login.test.yaml":   "kind: test_plan\n",
		"specs/login.deploy.yaml": "kind: deployment\n",
		"docs/login.spec":         mdDoc("Login", ""),
		"docs/login.arch":         mdDoc("Login arch", ""),
	})

	chain := report.Group(SDLCChain)
	require.Len(t, chain.Results, 2)
	assert.Equal(t, 1, chain.Passed)
	assert.Equal(t, 1, chain.Failed)

	for _, res := range chain.Results {
		if res.File == "docs/login.spec" {
			assert.Equal(t, Fail, res.Status)
			assert.Len(t, res.Details, 2)
		} else {
			assert.Equal(t, Pass, res.Status)
		}
	}
}

func brd(count int) string {
	return fmt.Sprintf("kind: brd\nschema_version: '1'\ntitle: Platform\ndomains:\n  - name: auth\n    spec_count: %d\n    specs: []\n", count)
}

func inventoryFiles(count int, extra int) map[string]string {
	files := map[string]string{"specs/brd.spec.yaml": brd(count)}
	for i := 1; i <= 3+extra; i++ {
		files[fmt.Sprintf("specs/auth/f%d.spec.yaml", i)] = featureYAML(fmt.Sprintf("AUTH-%03d", i))
	}
	// Other kinds and formats in the directory do not count.
	files["specs/auth/f1.arch.yaml"] = "kind: architecture\n"
	files["specs/auth/f1.spec"] = mdDoc("F1", "")
	return files
}

func TestInventoryRoundTrip(t *testing.T) {
	ok := run(inventoryFiles(3, 0)).Group(Inventory)
	require.Len(t, ok.Results, 1)
	assert.Equal(t, Pass, ok.Results[0].Status)

	lowered := run(inventoryFiles(2, 0)).Group(Inventory)
	assert.Equal(t, 1, lowered.Failed)
	assert.Equal(t, 0, lowered.Passed)

	extraFile := run(inventoryFiles(3, 1)).Group(Inventory)
	assert.Equal(t, 1, extraFile.Failed)
	assert.Contains(t, extraFile.Results[0].Details[0], "declared 3, found 4")
}

func TestInventoryListedFiles(t *testing.T) {
	report := run(map[string]string{
		"specs/brd.spec.yaml": "kind: brd\nschema_version: '1'\ntitle: P\ndomains:\n  - name: auth\n    spec_count: 1\n    specs:\n" +
			"      - id: AUTH-001\n        file: auth/login.spec.yaml\n" +
			"      - id: AUTH-002\n        file: auth/gone.spec.yaml\n" +
			"      - id: AUTH-009\n        file: login.spec.yaml\n",
		"specs/auth/login.spec.yaml": featureYAML("AUTH-001"),
	})

	inv := report.Group(Inventory)
	require.Len(t, inv.Results, 4)
	assert.Equal(t, Pass, inv.Results[0].Status, "count")
	assert.Equal(t, Pass, inv.Results[1].Status, "relative to the BRD")
	assert.Equal(t, Fail, inv.Results[2].Status, "missing file")
	assert.Equal(t, Fail, inv.Results[3].Status, "resolves via domain dir but id differs")
	assert.Equal(t, 10, inv.Results[2].Line)
}

func TestMarkdownInventory(t *testing.T) {
	report := run(map[string]string{
		"docs/BRD.spec":             "# BRD\n\n**Version:** 1\n**Status:** Draft\n\n| Domain | Count |\n|---|---|\n| compiler | 2 |\n",
		"docs/compiler/lexer.spec":  mdDoc("Lexer", ""),
		"docs/compiler/parser.spec": mdDoc("Parser", ""),
		"docs/compiler/parser.arch": mdDoc("Parser arch", ""),
	})

	inv := report.Group(Inventory)
	require.Len(t, inv.Results, 1)
	assert.Equal(t, Pass, inv.Results[0].Status)
}

func TestDependencies(t *testing.T) {
	report := run(map[string]string{
		"specs/core/session.spec.yaml": featureYAML("CORE-001"),
		"specs/auth/login.spec.yaml": featureYAML("AUTH-001") +
			"dependencies:\n" +
			"  - ref: CORE-001\n    file: ../core/session.spec.yaml\n" +
			"  - ref: CORE-002\n    file: ../core/session.spec.yaml\n" +
			"  - ref: CORE-003\n    file: ../core/missing.spec.yaml\n",
		"docs/requirements/lexer.spec": mdDoc("Lexer", "**Related:** CORE-001 ([session](../../specs/core/session.spec.yaml))\n"),
	})

	deps := report.Group(Dependencies)
	require.Len(t, deps.Results, 4)
	assert.Equal(t, 2, deps.Passed)
	assert.Equal(t, 2, deps.Failed)

	failures := report.Failures()
	var depFailures []Result
	for _, f := range failures {
		if f.Category == Dependencies {
			depFailures = append(depFailures, f)
		}
	}
	require.Len(t, depFailures, 2)
	assert.Contains(t, depFailures[0].Description, "CORE-002")
	assert.Contains(t, depFailures[1].Description, "CORE-003")
	assert.Greater(t, depFailures[1].Line, 0)
}

func TestRequirementTraceability(t *testing.T) {
	report := run(map[string]string{
		"specs/login.spec.yaml": featureYAML("AUTH-001"),
		"specs/login.test.yaml": "kind: test_plan\nschema_version: '1'\ntitle: T\nspec: login.spec.yaml\ntest_cases:\n" +
			"  - id: TC-1\n    verifies: AUTH-001.1\n" +
			"  - id: TC-2\n    verifies: AUTH-001.1, AUTH-001.7\n",
		"docs/requirements/compiler.spec": mdDoc("Compiler", "**Requirements:** CMP-001, CMP-002\n"),
		"docs/testing/compiler.test": mdDoc("Compiler tests", "**Spec:** [spec](../requirements/compiler.spec)\n\n"+
			"| ID | Description | Verifies |\n|---|---|---|\n| TC-10 | lex | CMP-001 |\n| TC-11 | bogus | CMP-404 |\n"),
	})

	trace := report.Group(RequirementTraceability)
	require.Len(t, trace.Results, 4)
	assert.Equal(t, 2, trace.Passed)
	assert.Equal(t, 2, trace.Failed)

	for _, res := range trace.Results {
		if res.Status == Fail {
			assert.NotEmpty(t, res.Details)
			assert.Greater(t, res.Line, 0)
		}
	}
}

func TestRequirementTraceabilityLinkedVerifies(t *testing.T) {
	report := run(map[string]string{
		"docs/requirements/compiler.spec": mdDoc("Compiler", "**Requirements:** CMP-001, CMP-002\n"),
		"docs/testing/compiler.test": mdDoc("Compiler tests", "**Spec:** [spec](../requirements/compiler.spec)\n\n"+
			"| ID | Description | Verifies |\n|---|---|---|\n| TC-10 | lex | [CMP-001](../requirements/compiler.spec#cmp-001) |\n"),
	})

	trace := report.Group(RequirementTraceability)
	require.Len(t, trace.Results, 1)
	assert.Equal(t, Pass, trace.Results[0].Status, trace.Results[0].String())
}

func TestArchitectureTraceability(t *testing.T) {
	report := run(map[string]string{
		"specs/login.spec.yaml": featureYAML("AUTH-001"),
		"specs/login.arch.yaml": "kind: architecture\nschema_version: '1'\ntitle: A\nspec: login.spec.yaml\ncomponents:\n" +
			"  - name: api\n    requirements: [AUTH-001.1]\n" +
			"  - name: worker\n    requirements: [AUTH-002.1]\n",
		"specs/orphan.arch.yaml":    "kind: architecture\nschema_version: '1'\ntitle: O\nspec: nowhere.spec.yaml\ncomponents:\n  - name: x\n",
		"docs/design/compiler.arch": mdDoc("Compiler arch", ""),
	})

	arch := report.Group(ArchitectureTraceability)
	// login: spec resolves + api pass + worker fail; orphan: fail; compiler: fail
	require.Len(t, arch.Results, 5)
	assert.Equal(t, 2, arch.Passed)
	assert.Equal(t, 3, arch.Failed)
}

func TestRelatedDocuments(t *testing.T) {
	report := run(map[string]string{
		"docs/guide.md":            "guide",
		"specs/login.spec.yaml":    featureYAML("AUTH-001") + "relatedDocuments:\n  - docs/guide.md\n  - docs/missing.md\n  - docs\n",
		"docs/design/x.arch":       mdDoc("X", "**Spec:** [x](../requirements/x.spec)\n"),
		"docs/requirements/x.spec": mdDoc("X", ""),
	})

	rel := report.Group(RelatedDocuments)
	require.Len(t, rel.Results, 4)
	assert.Equal(t, 3, rel.Passed)
	assert.Equal(t, 1, rel.Failed)
	assert.True(t, report.HasFailures())
}

func TestEmptyCorpusHasAllGroups(t *testing.T) {
	report := run(map[string]string{"README.md": "# x"})
	assert.Len(t, report.Groups, len(Categories))
	assert.False(t, report.HasFailures())
	assert.Equal(t, 0, report.Passed)
}
