// Package specs discovers, parses and validates the structured spec documents
// of a project. Every spec exists in one of two formats, typed YAML or
// label-annotated markdown, and plays one of five roles.
package specs

import (
	"path"
	"sort"
	"strings"
)

// Format is the serialization of a spec document.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Kind is the role a spec document plays.
type Kind string

const (
	KindBrd            Kind = "brd"
	KindFeatureRequest Kind = "feature_request"
	KindArchitecture   Kind = "architecture"
	KindTestPlan       Kind = "test_plan"
	KindDeployment     Kind = "deployment"
)

// Kinds lists every kind in lifecycle order.
var Kinds = []Kind{KindBrd, KindFeatureRequest, KindArchitecture, KindTestPlan, KindDeployment}

// ParseKind maps a YAML kind value onto a Kind.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// Phase is the lifecycle phase a kind belongs to. The BRD and feature
// requests share the requirements phase.
func (k Kind) Phase() string {
	switch k {
	case KindBrd, KindFeatureRequest:
		return "requirements"
	case KindArchitecture:
		return "design"
	case KindTestPlan:
		return "test"
	case KindDeployment:
		return "deployment"
	}
	return ""
}

// brdStem marks the business requirements document among requirement files.
const brdStem = "brd"

type suffix struct {
	text string
	kind Kind
}

var (
	yamlSuffixes = []suffix{
		{".spec.yaml", KindFeatureRequest},
		{".arch.yaml", KindArchitecture},
		{".test.yaml", KindTestPlan},
		{".deploy.yaml", KindDeployment},
	}
	markdownSuffixes = []suffix{
		{".spec", KindFeatureRequest},
		{".arch", KindArchitecture},
		{".test", KindTestPlan},
		{".deploy", KindDeployment},
	}
)

// Suffix returns the file suffix used for kind in format.
func Suffix(kind Kind, format Format) string {
	if kind == KindBrd {
		kind = KindFeatureRequest
	}
	list := markdownSuffixes
	if format == FormatYAML {
		list = yamlSuffixes
	}
	for _, s := range list {
		if s.kind == kind {
			return s.text
		}
	}
	return ""
}

// Discovered is a spec file found in the project listing.
type Discovered struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	Kind   Kind   `json:"kind"`
	// Stem is the file name without its domain and serialization suffixes;
	// the join key across phases and formats.
	Stem string `json:"stem"`
}

// Dir returns the directory holding the spec, "" at the project root.
func (d Discovered) Dir() string {
	dir := path.Dir(d.Path)
	if dir == "." {
		return ""
	}
	return dir
}

// Classify recognises a spec file by its suffix. Suffix matching is
// case-sensitive; the stem "brd" is matched case-insensitively.
func Classify(p string) (Discovered, bool) {
	name := path.Base(p)
	try := func(list []suffix, format Format) (Discovered, bool) {
		for _, s := range list {
			if !strings.HasSuffix(name, s.text) || len(name) == len(s.text) {
				continue
			}
			d := Discovered{
				Path:   p,
				Format: format,
				Kind:   s.kind,
				Stem:   strings.TrimSuffix(name, s.text),
			}
			if d.Kind == KindFeatureRequest && strings.EqualFold(d.Stem, brdStem) {
				d.Kind = KindBrd
			}
			return d, true
		}
		return Discovered{}, false
	}
	if d, ok := try(yamlSuffixes, FormatYAML); ok {
		return d, true
	}
	return try(markdownSuffixes, FormatMarkdown)
}

// Stem returns the feature stem of a spec path, or "" if p is not a spec.
func Stem(p string) string {
	d, ok := Classify(p)
	if !ok {
		return ""
	}
	return d.Stem
}

// Lister is the part of the project listing discovery needs.
type Lister interface {
	Files() []string
}

// Discover returns every spec in the listing, ordered by path.
func Discover(files Lister) []Discovered {
	var out []Discovered
	for _, p := range files.Files() {
		if d, ok := Classify(p); ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
