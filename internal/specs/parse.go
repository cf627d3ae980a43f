package specs

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"docaudit/internal/mdgrammar"
)

// DiagnosticKind classifies a spec problem.
type DiagnosticKind string

const (
	ParseError    DiagnosticKind = "parse_error"
	SchemaError   DiagnosticKind = "schema_error"
	CrossRefError DiagnosticKind = "crossref_error"
)

// Diagnostic is one problem found in a spec file. Line is 0 when unknown.
type Diagnostic struct {
	File    string         `json:"file"`
	Line    int            `json:"line,omitempty"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.File, d.Message)
}

// Reader is the part of the project listing the parser needs.
type Reader interface {
	ReadString(path string) (string, error)
}

// Parse reads and parses one discovered spec. A nil Document comes with at
// least one ParseError diagnostic.
func Parse(r Reader, d Discovered) (Document, []Diagnostic) {
	content, err := r.ReadString(d.Path)
	if err != nil {
		return nil, []Diagnostic{{File: d.Path, Kind: ParseError, Message: "cannot read file: " + err.Error()}}
	}
	if d.Format == FormatYAML {
		return ParseYAML(d, []byte(content))
	}
	return ParseMarkdown(d, content), nil
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseYAML decodes a YAML spec. The envelope is read first; its kind selects
// the schema, falling back to the kind implied by the file suffix when the
// envelope kind is missing or unknown.
func ParseYAML(d Discovered, data []byte) (Document, []Diagnostic) {
	fail := func(err error, fallback string) (Document, []Diagnostic) {
		line := 0
		if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
			line, _ = strconv.Atoi(m[1])
		}
		return nil, []Diagnostic{{File: d.Path, Line: line, Kind: ParseError, Message: fallback + ": " + err.Error()}}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &root); err != nil {
		return fail(err, "invalid YAML")
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, []Diagnostic{{File: d.Path, Kind: ParseError, Message: "empty document"}}
	}
	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return nil, []Diagnostic{{File: d.Path, Line: node.Line, Kind: ParseError, Message: "document root must be a mapping"}}
	}

	var header Header
	if err := node.Decode(&header); err != nil {
		return fail(err, "invalid envelope")
	}

	kind := d.Kind
	if k, ok := ParseKind(header.Kind); ok {
		kind = k
	}
	base := yamlDoc{file: d, node: node}

	var doc Document
	var err error
	switch kind {
	case KindBrd:
		s := &BrdSpec{}
		if err = node.Decode(s); err == nil {
			for i, item := range seqItems(node, "domains") {
				if i < len(s.Domains) {
					s.Domains[i].Line = item.Line
					for j, ref := range seqItems(item, "specs") {
						if j < len(s.Domains[i].Specs) {
							s.Domains[i].Specs[j].Line = ref.Line
						}
					}
				}
			}
		}
		doc = s
	case KindFeatureRequest:
		s := &FeatureRequestSpec{}
		err = node.Decode(s)
		doc = s
	case KindArchitecture:
		s := &ArchSpec{}
		err = node.Decode(s)
		doc = s
	case KindTestPlan:
		s := &TestSpec{}
		if err = node.Decode(s); err == nil {
			for i, item := range seqItems(node, "test_cases") {
				if i < len(s.TestCases) {
					s.TestCases[i].Line = item.Line
				}
			}
		}
		doc = s
	default:
		s := &DeploySpec{}
		err = node.Decode(s)
		doc = s
	}
	if err != nil {
		return fail(err, "invalid "+string(kind)+" document")
	}
	setSource(doc, base)

	deps := doc.Dependencies()
	for i, item := range seqItems(node, "dependencies") {
		if i < len(deps) {
			deps[i].Line = item.Line
		}
	}
	return doc, nil
}

func setSource(doc Document, base yamlDoc) {
	switch s := doc.(type) {
	case *BrdSpec:
		s.yamlDoc = base
	case *FeatureRequestSpec:
		s.yamlDoc = base
	case *ArchSpec:
		s.yamlDoc = base
	case *TestSpec:
		s.yamlDoc = base
	case *DeploySpec:
		s.yamlDoc = base
	}
}

// lookup returns the value node for key in a mapping node.
func lookup(node *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i], node.Content[i+1]
		}
	}
	return nil, nil
}

func seqItems(node *yaml.Node, key string) []*yaml.Node {
	_, v := lookup(node, key)
	if v == nil || v.Kind != yaml.SequenceNode {
		return nil
	}
	return v.Content
}

var (
	bareRefPattern = regexp.MustCompile("`?([^\\s`()\\[\\]]+\\.(?:spec|arch|test|deploy)(?:\\.yaml)?)`?")
)

// ParseMarkdown extracts the labelled metadata and tables of a markdown spec.
// It never fails: absent labels stay empty for the validator to report.
func ParseMarkdown(d Discovered, content string) *MarkdownSpec {
	m := &MarkdownSpec{file: d}
	m.Title, _ = mdgrammar.Title(content)

	labels := mdgrammar.IndexLabels(content)
	m.Version = labels.Value("Version")
	m.Status = labels.Value("Status")
	if related, ok := labels.Get("Related"); ok {
		m.Related = related.Value
		m.RelatedLine = related.Line
		if ids := IDTokens(mdgrammar.StripCodeSpans(related.Value)); len(ids) > 0 {
			m.RelatedID = ids[0]
		}
		m.RelatedLink = labelTarget(related.Value)
	}
	m.SpecLink = labelTarget(labels.Value("Spec"))
	m.ArchLink = labelTarget(labels.Value("Arch"))
	if reqs, ok := labels.Get("Requirements"); ok {
		m.Requirements = IDTokens(reqs.Value)
	}

	for _, t := range mdgrammar.Tables(content) {
		switch {
		case d.Kind == KindTestPlan && t.Column("Verifies") >= 0:
			m.TestCases = append(m.TestCases, testRows(t)...)
		case d.Kind == KindBrd && t.HasColumns("Domain", "Count"):
			m.Inventory = append(m.Inventory, inventoryRows(t)...)
		}
	}

	seen := map[string]bool{}
	for _, l := range mdgrammar.Prose(content) {
		for _, id := range IDTokens(l.Text) {
			if !seen[id] {
				seen[id] = true
				m.IDs = append(m.IDs, id)
			}
		}
	}
	return m
}

// labelTarget returns the first link target in a label value, or a bare spec
// path written without link syntax.
func labelTarget(value string) string {
	if links := mdgrammar.LinksIn(value); len(links) > 0 {
		return mdgrammar.PathOf(links[0].Target)
	}
	if m := bareRefPattern.FindStringSubmatch(value); m != nil {
		return m[1]
	}
	return ""
}

// testRows keeps rows that carry an ID and a Verifies value; other rows of a
// malformed table are skipped individually. A table without an ID column has
// no test cases.
func testRows(t mdgrammar.Table) []TestCase {
	idCol, descCol, verCol := t.Column("ID"), t.Column("Description"), t.Column("Verifies")
	if idCol < 0 || verCol < 0 {
		return nil
	}
	var out []TestCase
	for _, r := range t.Rows {
		tc := TestCase{
			ID:          stripMarkup(r.Cell(idCol)),
			Description: r.Cell(descCol),
			Verifies:    stripMarkup(r.Cell(verCol)),
			Line:        r.Line,
		}
		if tc.ID == "" || tc.Verifies == "" {
			continue
		}
		out = append(out, tc)
	}
	return out
}

func inventoryRows(t mdgrammar.Table) []InventoryRow {
	domainCol, countCol, pathCol := t.Column("Domain"), t.Column("Count"), t.Column("Path")
	var out []InventoryRow
	for _, r := range t.Rows {
		row := InventoryRow{
			Domain:    stripMarkup(r.Cell(domainCol)),
			CountText: stripMarkup(r.Cell(countCol)),
			Path:      labelTargetOrText(r.Cell(pathCol)),
			Line:      r.Line,
			Count:     -1,
		}
		if row.Domain == "" {
			continue
		}
		if n, err := strconv.Atoi(row.CountText); err == nil {
			row.Count = n
		}
		out = append(out, row)
	}
	return out
}

func labelTargetOrText(cell string) string {
	if links := mdgrammar.LinksIn(cell); len(links) > 0 {
		return mdgrammar.PathOf(links[0].Target)
	}
	return stripMarkup(cell)
}

func stripMarkup(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "`*_"))
}
