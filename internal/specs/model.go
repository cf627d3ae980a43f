package specs

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"docaudit/internal/mdgrammar"
)

// FeatureIDPattern is the required shape of a feature request ID.
var FeatureIDPattern = regexp.MustCompile(`^[A-Z]{2,6}-\d{3}$`)

// idTokenPattern finds requirement-style identifiers inside prose and lists.
var idTokenPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]{1,9}(?:-[A-Z0-9]+)*-\d+(?:\.\d+)*\b`)

// IDTokens returns the identifier-like tokens in s, in order of appearance.
func IDTokens(s string) []string {
	return idTokenPattern.FindAllString(s, -1)
}

// Document is a parsed spec: one of *BrdSpec, *FeatureRequestSpec, *ArchSpec,
// *TestSpec, *DeploySpec (YAML) or *MarkdownSpec.
type Document interface {
	// Source identifies the file the document was parsed from.
	Source() Discovered
	// DeclaredID is the identifier the document claims for duplicate
	// detection, or "".
	DeclaredID() string
	// Dependencies are the {ref, file} references the document declares.
	Dependencies() []Dependency
}

// Dependency is a reference to an ID declared in another file.
type Dependency struct {
	Ref  string `yaml:"ref" json:"ref"`
	File string `yaml:"file" json:"file"`
	Line int    `yaml:"-" json:"line,omitempty"`
}

// Header holds the fields shared by every YAML spec.
type Header struct {
	Kind             string       `yaml:"kind"`
	SchemaVersion    string       `yaml:"schema_version"`
	Title            string       `yaml:"title"`
	ID               string       `yaml:"id"`
	Deps             []Dependency `yaml:"dependencies"`
	RelatedDocuments []string     `yaml:"relatedDocuments"`
}

// yamlDoc carries what every YAML variant needs beyond its schema.
type yamlDoc struct {
	file Discovered
	node *yaml.Node // document mapping, for key presence and line lookups
}

func (d *yamlDoc) Source() Discovered { return d.file }

// BrdSpec is the business requirements document: the inventory of domains.
type BrdSpec struct {
	yamlDoc `yaml:"-"`
	Header  `yaml:",inline"`
	Domains []Domain `yaml:"domains"`
}

// Domain is one inventory entry of a BRD.
type Domain struct {
	Name      string    `yaml:"name"`
	SpecCount *int      `yaml:"spec_count"`
	Path      string    `yaml:"path"`
	Specs     []SpecRef `yaml:"specs"`
	Line      int       `yaml:"-"`
}

// SpecRef is a listed spec file of a domain.
type SpecRef struct {
	ID   string `yaml:"id"`
	File string `yaml:"file"`
	Line int    `yaml:"-"`
}

// FeatureRequestSpec is a requirement document for one feature.
type FeatureRequestSpec struct {
	yamlDoc      `yaml:"-"`
	Header       `yaml:",inline"`
	Status       string        `yaml:"status"`
	Priority     string        `yaml:"priority"`
	Requirements []Requirement `yaml:"requirements"`
}

// Requirement is one numbered requirement of a feature request.
type Requirement struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// ArchSpec is the architecture document for one feature.
type ArchSpec struct {
	yamlDoc    `yaml:"-"`
	Header     `yaml:",inline"`
	Spec       string      `yaml:"spec"`
	Components []Component `yaml:"components"`
}

// Component is an architectural component and the requirements it serves.
type Component struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Requirements []string `yaml:"requirements"`
}

// TestSpec is the test plan for one feature.
type TestSpec struct {
	yamlDoc   `yaml:"-"`
	Header    `yaml:",inline"`
	Spec      string     `yaml:"spec"`
	Arch      string     `yaml:"arch"`
	TestCases []TestCase `yaml:"test_cases"`
}

// TestCase is a test plan entry. Verifies may list several IDs.
type TestCase struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
	Verifies    string `yaml:"verifies" json:"verifies"`
	Line        int    `yaml:"-" json:"line,omitempty"`
}

// VerifiedIDs splits Verifies into individual identifiers. A linked ID counts
// by its link text.
func (tc TestCase) VerifiedIDs() []string {
	return splitList(mdgrammar.ReplaceLinks(tc.Verifies))
}

// DeploySpec is the deployment document for one feature.
type DeploySpec struct {
	yamlDoc      `yaml:"-"`
	Header       `yaml:",inline"`
	Spec         string        `yaml:"spec"`
	Environments []Environment `yaml:"environments"`
}

// Environment is a deployment target.
type Environment struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func (h *Header) DeclaredID() string         { return strings.TrimSpace(h.ID) }
func (h *Header) Dependencies() []Dependency { return h.Deps }

// RequirementIDs returns the IDs a feature request declares: its own ID and
// those of its requirements.
func (s *FeatureRequestSpec) RequirementIDs() []string {
	var ids []string
	if s.ID != "" {
		ids = append(ids, s.ID)
	}
	for _, r := range s.Requirements {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// MarkdownSpec is any markdown spec. The kind comes from the file suffix;
// absent labels leave their fields empty.
type MarkdownSpec struct {
	file Discovered

	Title   string
	Version string
	Status  string

	// Related is the raw **Related:** value; RelatedID and RelatedLink are
	// the identifier and link target found in it.
	Related     string
	RelatedID   string
	RelatedLink string
	RelatedLine int

	// SpecLink and ArchLink are the targets of **Spec:** and **Arch:**.
	SpecLink string
	ArchLink string

	// Requirements are the IDs listed by **Requirements:**.
	Requirements []string

	// TestCases are the rows of tables with a Verifies column (.test files).
	TestCases []TestCase
	// Inventory holds the rows of tables with Domain and Count columns (BRD).
	Inventory []InventoryRow

	// IDs are every identifier-like token outside code fences.
	IDs []string
}

// InventoryRow is one row of a markdown BRD domain table.
type InventoryRow struct {
	Domain    string
	Count     int
	CountText string
	Path      string
	Line      int
}

func (m *MarkdownSpec) Source() Discovered { return m.file }

// DeclaredID is the **Related:** identifier of requirement documents only.
func (m *MarkdownSpec) DeclaredID() string {
	if m.file.Kind == KindFeatureRequest || m.file.Kind == KindBrd {
		return m.RelatedID
	}
	return ""
}

// Dependencies turns the **Related:** label into a reference when it carries
// both an ID and a link.
func (m *MarkdownSpec) Dependencies() []Dependency {
	if m.RelatedID == "" || m.RelatedLink == "" {
		return nil
	}
	return []Dependency{{Ref: m.RelatedID, File: m.RelatedLink, Line: m.RelatedLine}}
}

// HasID reports whether id appears in the document.
func (m *MarkdownSpec) HasID(id string) bool {
	for _, v := range m.IDs {
		if v == id {
			return true
		}
	}
	return false
}

var listSeparator = regexp.MustCompile(`[,;\s]+`)

func splitList(s string) []string {
	var out []string
	for _, part := range listSeparator.Split(strings.TrimSpace(s), -1) {
		part = strings.Trim(part, "`*[]()")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
