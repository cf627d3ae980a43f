package mdgrammar

import (
	"regexp"
	"strings"
)

// **Name:** value, also accepted as **Name**: value, optionally list-prefixed
var labelPattern = regexp.MustCompile(`^\s*(?:[-*]\s+)?\*\*([A-Za-z][A-Za-z0-9 _-]*?)(?::\*\*|\*\*:)\s*(.*?)\s*$`)

// Label is a bold metadata label and the rest of its line.
type Label struct {
	Name  string
	Value string
	Line  int
}

// ParseLabel parses a single line as a bold label.
func ParseLabel(text string) (Label, bool) {
	m := labelPattern.FindStringSubmatch(text)
	if m == nil {
		return Label{}, false
	}
	return Label{Name: strings.TrimSpace(m[1]), Value: m[2]}, true
}

// Labels returns every bold label outside fenced code.
func Labels(content string) []Label {
	var out []Label
	for _, l := range Prose(content) {
		if lb, ok := ParseLabel(l.Text); ok {
			lb.Line = l.Number
			out = append(out, lb)
		}
	}
	return out
}

// LabelSet indexes labels by case-insensitive name; the first occurrence wins.
type LabelSet map[string]Label

// IndexLabels builds a LabelSet from content.
func IndexLabels(content string) LabelSet {
	set := LabelSet{}
	for _, lb := range Labels(content) {
		key := strings.ToLower(lb.Name)
		if _, ok := set[key]; !ok {
			set[key] = lb
		}
	}
	return set
}

// Get returns the label named name.
func (s LabelSet) Get(name string) (Label, bool) {
	lb, ok := s[strings.ToLower(name)]
	return lb, ok
}

// Value returns the label's value, or "" when absent.
func (s LabelSet) Value(name string) string {
	return s[strings.ToLower(name)].Value
}
