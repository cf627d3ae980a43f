// Package crossref checks that spec documents agree with each other: declared
// dependencies resolve, every feature has its full lifecycle chain, inventory
// counts match the tree, and tests and architecture trace back to requirements.
package crossref

import "fmt"

// Category groups related assertions.
type Category string

const (
	Dependencies             Category = "dependencies"
	SDLCChain                Category = "sdlc_chain"
	Inventory                Category = "inventory"
	RequirementTraceability  Category = "requirement_traceability"
	ArchitectureTraceability Category = "architecture_traceability"
	RelatedDocuments         Category = "related_documents"
)

// Categories lists every category in report order.
var Categories = []Category{
	Dependencies, SDLCChain, Inventory,
	RequirementTraceability, ArchitectureTraceability, RelatedDocuments,
}

// Status is the outcome of one assertion.
type Status string

const (
	Pass Status = "pass"
	Fail Status = "fail"
)

// Result is the outcome of a single cross-reference assertion.
type Result struct {
	Category    Category `json:"category"`
	Status      Status   `json:"status"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
	File        string   `json:"file,omitempty"`
	Line        int      `json:"line,omitempty"`
}

func (r Result) String() string {
	loc := r.File
	if r.Line > 0 {
		loc = fmt.Sprintf("%s:%d", r.File, r.Line)
	}
	if loc == "" {
		return r.Description
	}
	return loc + ": " + r.Description
}

// Group holds the results of one category with running totals.
type Group struct {
	Category Category `json:"category"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Results  []Result `json:"results"`
}

// Report is every cross-reference result grouped by category.
type Report struct {
	Passed int     `json:"passed"`
	Failed int     `json:"failed"`
	Groups []Group `json:"groups"`
}

// HasFailures reports whether any assertion failed.
func (r *Report) HasFailures() bool {
	return r != nil && r.Failed > 0
}

// Group returns the group for c.
func (r *Report) Group(c Category) *Group {
	for i := range r.Groups {
		if r.Groups[i].Category == c {
			return &r.Groups[i]
		}
	}
	return nil
}

// Failures returns the failed results in report order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, g := range r.Groups {
		for _, res := range g.Results {
			if res.Status == Fail {
				out = append(out, res)
			}
		}
	}
	return out
}

func newReport() *Report {
	r := &Report{Groups: make([]Group, len(Categories))}
	for i, c := range Categories {
		r.Groups[i] = Group{Category: c, Results: []Result{}}
	}
	return r
}

func (r *Report) add(res Result) {
	g := r.Group(res.Category)
	g.Results = append(g.Results, res)
	if res.Status == Pass {
		g.Passed++
		r.Passed++
	} else {
		g.Failed++
		r.Failed++
	}
}
