package specs

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Duplicate is an identifier declared by more than one file.
type Duplicate struct {
	ID    string   `json:"id"`
	Files []string `json:"files"`
}

// ValidationReport is the outcome of validating a corpus.
type ValidationReport struct {
	Specs       int          `json:"specs"`
	Passed      int          `json:"passed"`
	Failed      int          `json:"failed"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Duplicates  []Duplicate  `json:"duplicates,omitempty"`
}

// HasFailures reports whether any diagnostic was raised.
func (r *ValidationReport) HasFailures() bool {
	return r != nil && len(r.Diagnostics) > 0
}

// Validate checks every spec against its schema and looks for duplicate IDs.
// Parse diagnostics collected by Load are included.
func Validate(c *Corpus) *ValidationReport {
	report := &ValidationReport{Specs: len(c.Specs)}
	report.Diagnostics = append(report.Diagnostics, c.Diagnostics...)

	for _, d := range c.Specs {
		doc, ok := c.docs[d.Path]
		if !ok {
			continue
		}
		report.Diagnostics = append(report.Diagnostics, CheckSchema(doc)...)
	}

	report.Duplicates = FindDuplicates(c)
	for _, dup := range report.Duplicates {
		report.Diagnostics = append(report.Diagnostics, Diagnostic{
			File:    dup.Files[0],
			Kind:    CrossRefError,
			Message: fmt.Sprintf("duplicate id %s declared in %s", dup.ID, strings.Join(dup.Files, ", ")),
		})
	}

	sort.SliceStable(report.Diagnostics, func(i, j int) bool {
		a, b := report.Diagnostics[i], report.Diagnostics[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})

	bad := map[string]bool{}
	for _, diag := range report.Diagnostics {
		bad[diag.File] = true
	}
	for _, dup := range report.Duplicates {
		for _, f := range dup.Files {
			bad[f] = true
		}
	}
	for _, d := range c.Specs {
		if bad[d.Path] {
			report.Failed++
		} else {
			report.Passed++
		}
	}
	return report
}

// FindDuplicates maps every declared ID to its owning files and returns the
// IDs owned by more than one file, sorted by ID. Each ID appears once.
func FindDuplicates(c *Corpus) []Duplicate {
	owners := map[string][]string{}
	for _, doc := range c.Documents() {
		id := doc.DeclaredID()
		if id == "" {
			continue
		}
		p := doc.Source().Path
		if files := owners[id]; len(files) > 0 && files[len(files)-1] == p {
			continue
		}
		owners[id] = append(owners[id], p)
	}

	var out []Duplicate
	for id, files := range owners {
		if len(files) > 1 {
			out = append(out, Duplicate{ID: id, Files: files})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CheckSchema returns one SchemaError per missing or malformed field.
func CheckSchema(doc Document) []Diagnostic {
	if md, ok := doc.(*MarkdownSpec); ok {
		return checkMarkdown(md)
	}

	file := doc.Source()
	v := &schemaCheck{file: file.Path}
	var node *yaml.Node
	var header *Header
	switch s := doc.(type) {
	case *BrdSpec:
		node, header = s.node, &s.Header
	case *FeatureRequestSpec:
		node, header = s.node, &s.Header
	case *ArchSpec:
		node, header = s.node, &s.Header
	case *TestSpec:
		node, header = s.node, &s.Header
	case *DeploySpec:
		node, header = s.node, &s.Header
	default:
		return nil
	}

	v.scalar(node, "kind")
	v.scalar(node, "schema_version")
	v.scalar(node, "title")
	if header.Kind != "" {
		keyNode, _ := lookup(node, "kind")
		line := lineOf(keyNode, node)
		if k, ok := ParseKind(header.Kind); !ok {
			v.add(line, "unknown kind %q", header.Kind)
		} else if k != file.Kind {
			v.add(line, "kind %q does not match file suffix, which implies %q", header.Kind, file.Kind)
		}
	}

	switch s := doc.(type) {
	case *BrdSpec:
		for _, item := range v.sequence(node, "domains") {
			v.scalar(item, "name")
			v.scalar(item, "spec_count")
			for _, ref := range v.present(item, "specs") {
				v.scalar(ref, "file")
			}
		}
		for _, dom := range s.Domains {
			if dom.SpecCount != nil && *dom.SpecCount < 0 {
				v.add(dom.Line, "domain %q has negative spec_count", dom.Name)
			}
		}
	case *FeatureRequestSpec:
		if v.scalar(node, "id") && !FeatureIDPattern.MatchString(s.ID) {
			keyNode, _ := lookup(node, "id")
			v.add(lineOf(keyNode, node), "id %q does not match %s", s.ID, FeatureIDPattern.String())
		}
		v.scalar(node, "status")
		v.scalar(node, "priority")
		for _, item := range v.sequence(node, "requirements") {
			v.scalar(item, "id")
			v.scalar(item, "description")
		}
	case *ArchSpec:
		v.scalar(node, "spec")
		for _, item := range v.sequence(node, "components") {
			v.scalar(item, "name")
		}
	case *TestSpec:
		v.scalar(node, "spec")
		for _, item := range v.sequence(node, "test_cases") {
			v.scalar(item, "id")
			v.scalar(item, "verifies")
		}
	case *DeploySpec:
		v.scalar(node, "spec")
		for _, item := range v.sequence(node, "environments") {
			v.scalar(item, "name")
		}
	}
	return v.diags
}

func checkMarkdown(m *MarkdownSpec) []Diagnostic {
	v := &schemaCheck{file: m.file.Path}
	if m.Title == "" {
		v.add(1, "missing top-level heading")
	}
	if m.Version == "" {
		v.add(0, "missing **Version:** label")
	}
	if m.Status == "" {
		v.add(0, "missing **Status:** label")
	}
	for _, row := range m.Inventory {
		if row.Count < 0 {
			v.add(row.Line, "domain %q has non-numeric count %q", row.Domain, row.CountText)
		}
	}
	return v.diags
}

type schemaCheck struct {
	file  string
	diags []Diagnostic
}

func (v *schemaCheck) add(line int, format string, args ...interface{}) {
	v.diags = append(v.diags, Diagnostic{File: v.file, Line: line, Kind: SchemaError, Message: fmt.Sprintf(format, args...)})
}

// scalar requires key to hold a non-empty scalar.
func (v *schemaCheck) scalar(node *yaml.Node, key string) bool {
	_, val := lookup(node, key)
	if val == nil || isNull(val) {
		v.add(lineOf(nil, node), "missing required field %q", key)
		return false
	}
	if val.Kind != yaml.ScalarNode {
		v.add(val.Line, "field %q must be a scalar", key)
		return false
	}
	return true
}

// sequence requires key to hold a non-empty sequence and returns its items.
func (v *schemaCheck) sequence(node *yaml.Node, key string) []*yaml.Node {
	items := v.present(node, key)
	if items != nil && len(items) == 0 {
		_, val := lookup(node, key)
		v.add(val.Line, "field %q must not be empty", key)
	}
	return items
}

// present requires key to hold a sequence, possibly empty. It returns nil
// when the key is missing or malformed.
func (v *schemaCheck) present(node *yaml.Node, key string) []*yaml.Node {
	_, val := lookup(node, key)
	if val == nil || isNull(val) {
		v.add(lineOf(nil, node), "missing required field %q", key)
		return nil
	}
	if val.Kind != yaml.SequenceNode {
		v.add(val.Line, "field %q must be a list", key)
		return nil
	}
	if val.Content == nil {
		return []*yaml.Node{}
	}
	return val.Content
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && (n.Tag == "!!null" || strings.TrimSpace(n.Value) == "")
}

func lineOf(key, parent *yaml.Node) int {
	if key != nil {
		return key.Line
	}
	if parent != nil {
		return parent.Line
	}
	return 0
}
