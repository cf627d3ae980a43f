// Package rules loads rule documents into an immutable RuleSet and orders the
// rules by their declared prerequisites.
package rules

import (
	"fmt"
	"regexp"
	"strings"
)

// Severity is the weight of a rule's violations.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity normalises a severity name. Empty means error.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return SeverityError, true
	case "warning", "warn":
		return SeverityWarning, true
	case "info":
		return SeverityInfo, true
	}
	return "", false
}

// Shape is the rule type: one of the declarative variants or Builtin.
type Shape string

const (
	FileExists            Shape = "file_exists"
	DirExists             Shape = "dir_exists"
	DirNotExists          Shape = "dir_not_exists"
	FileContentMatches    Shape = "file_content_matches"
	FileContentNotMatches Shape = "file_content_not_matches"
	GlobContentMatches    Shape = "glob_content_matches"
	GlobContentNotMatches Shape = "glob_content_not_matches"
	GlobNamingMatches     Shape = "glob_naming_matches"
	GlobNamingNotMatches  Shape = "glob_naming_not_matches"
	CargoKeyExists        Shape = "cargo_key_exists"
	CargoKeyMatches       Shape = "cargo_key_matches"
	Builtin               Shape = "builtin"
)

// Shapes lists every known rule type in documentation order.
var Shapes = []Shape{
	FileExists, DirExists, DirNotExists,
	FileContentMatches, FileContentNotMatches,
	GlobContentMatches, GlobContentNotMatches,
	GlobNamingMatches, GlobNamingNotMatches,
	CargoKeyExists, CargoKeyMatches,
	Builtin,
}

// DefaultManifest is the manifest read by the cargo_key shapes when no path is given.
const DefaultManifest = "Cargo.toml"

// DefaultCategory is assigned to rules that do not name one.
const DefaultCategory = "general"

// fieldSet names the fields a shape cannot do without.
type fieldSet struct {
	path, pattern, glob, key, handler bool
}

var requiredFields = map[Shape]fieldSet{
	FileExists:            {path: true},
	DirExists:             {path: true},
	DirNotExists:          {path: true},
	FileContentMatches:    {path: true, pattern: true},
	FileContentNotMatches: {path: true, pattern: true},
	GlobContentMatches:    {glob: true, pattern: true},
	GlobContentNotMatches: {glob: true, pattern: true},
	GlobNamingMatches:     {glob: true, pattern: true},
	GlobNamingNotMatches:  {glob: true, pattern: true},
	CargoKeyExists:        {key: true},
	CargoKeyMatches:       {key: true, pattern: true},
	Builtin:               {handler: true},
}

// Rule is one loaded rule definition. Rules are immutable once loaded.
type Rule struct {
	ID          int      `json:"id"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Type        Shape    `json:"type"`

	Path           string   `json:"path,omitempty"`
	Pattern        string   `json:"pattern,omitempty"`
	Glob           string   `json:"glob,omitempty"`
	ExcludePattern string   `json:"excludePattern,omitempty"`
	ExcludePaths   []string `json:"excludePaths,omitempty"`
	Key            string   `json:"key,omitempty"`
	Handler        string   `json:"handler,omitempty"`

	// AppliesTo holds project classification tags; empty means every project.
	AppliesTo []string `json:"appliesTo,omitempty"`
	// DependsOn holds prerequisite rule IDs, sorted and de-duplicated.
	DependsOn []int `json:"dependsOn,omitempty"`

	pattern        *regexp.Regexp
	excludePattern *regexp.Regexp
}

// Regexp returns the compiled pattern, or nil when the rule has none.
func (r *Rule) Regexp() *regexp.Regexp {
	return r.pattern
}

// ExcludeRegexp returns the compiled exclude_pattern, or nil.
func (r *Rule) ExcludeRegexp() *regexp.Regexp {
	return r.excludePattern
}

// Manifest returns the manifest path for the cargo_key shapes.
func (r *Rule) Manifest() string {
	if r.Path != "" {
		return r.Path
	}
	return DefaultManifest
}

// AppliesToAll reports whether the rule runs regardless of project
// classification: no tags, or any tag of any or all.
func (r *Rule) AppliesToAll() bool {
	if len(r.AppliesTo) == 0 {
		return true
	}
	for _, tag := range r.AppliesTo {
		if strings.EqualFold(tag, "any") || strings.EqualFold(tag, "all") {
			return true
		}
	}
	return false
}

// Applies reports whether the rule runs for a project of the given classification.
func (r *Rule) Applies(classification string) bool {
	if r.AppliesToAll() {
		return true
	}
	for _, tag := range r.AppliesTo {
		if strings.EqualFold(tag, classification) {
			return true
		}
	}
	return false
}

// Target returns the path, glob or key the rule inspects, for listings.
func (r *Rule) Target() string {
	switch {
	case r.Type == Builtin:
		if r.Glob != "" {
			return r.Handler + " " + r.Glob
		}
		if r.Path != "" {
			return r.Handler + " " + r.Path
		}
		return r.Handler
	case r.Key != "":
		return fmt.Sprintf("%s:%s", r.Manifest(), r.Key)
	case r.Glob != "":
		return r.Glob
	default:
		return r.Path
	}
}
