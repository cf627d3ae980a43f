package rules

import (
	_ "embed"
	"os"

	auditerrors "docaudit/internal/errors"
)

//go:embed default_rules.toml
var defaultDocument []byte

// DefaultSource names the embedded rule document in errors and reports.
const DefaultSource = "<embedded default rules>"

// RuleSet is an ordered, validated collection of rules.
type RuleSet struct {
	// Source names the document the rules were loaded from.
	Source string

	rules []*Rule // document order
	byID  map[int]*Rule
	graph *Graph
	order []int
}

// Default parses the embedded default rule document. Each call returns a new
// RuleSet, so callers may hold and substitute sets freely.
func Default() (*RuleSet, error) {
	return Parse(defaultDocument, FormatTOML, DefaultSource)
}

// DefaultDocument returns a copy of the embedded default rule document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)
	return out
}

// LoadFile reads a rule document from disk, choosing the format by extension.
func LoadFile(path string) (*RuleSet, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, auditerrors.Newf(auditerrors.RulesUnreadable,
			"rule document %s must end in .toml, .yaml or .yml", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, auditerrors.New(auditerrors.RulesUnreadable, "cannot read rule document "+path, err)
	}
	return Parse(data, format, path)
}

// Load returns the rule set at path, or the embedded default when path is empty.
func Load(path string) (*RuleSet, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns the rules in document order.
func (s *RuleSet) Rules() []*Rule {
	return s.rules
}

// Get returns the rule with the given ID.
func (s *RuleSet) Get(id int) (*Rule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// Ordered returns the rules in execution order: every rule after its
// prerequisites, ties broken by ascending ID.
func (s *RuleSet) Ordered() []*Rule {
	out := make([]*Rule, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

// Order returns the execution order as rule IDs.
func (s *RuleSet) Order() []int {
	return append([]int(nil), s.order...)
}

// Graph returns the dependency graph over the rule IDs.
func (s *RuleSet) Graph() *Graph {
	return s.graph
}
