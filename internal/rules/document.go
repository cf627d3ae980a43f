package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	auditerrors "docaudit/internal/errors"
)

// Format is the serialization of a rule document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the document format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Record is one rule as written in a rule document.
type Record struct {
	ID             int      `toml:"id" yaml:"id"`
	Category       string   `toml:"category" yaml:"category"`
	Description    string   `toml:"description" yaml:"description"`
	Severity       string   `toml:"severity" yaml:"severity"`
	Type           string   `toml:"type" yaml:"type"`
	Path           string   `toml:"path" yaml:"path"`
	Pattern        string   `toml:"pattern" yaml:"pattern"`
	Glob           string   `toml:"glob" yaml:"glob"`
	ExcludePattern string   `toml:"exclude_pattern" yaml:"exclude_pattern"`
	ExcludePaths   []string `toml:"exclude_paths" yaml:"exclude_paths"`
	Key            string   `toml:"key" yaml:"key"`
	Handler        string   `toml:"handler" yaml:"handler"`
	AppliesTo      string   `toml:"applies_to" yaml:"applies_to"`
	DependsOn      []int    `toml:"depends_on" yaml:"depends_on"`
}

// Document is the root of a rule document.
type Document struct {
	Rules []Record `toml:"rules" yaml:"rules"`
}

// Parse decodes a rule document and builds a RuleSet from it. source names the
// document in errors.
func Parse(data []byte, format Format, source string) (*RuleSet, error) {
	doc, err := decode(data, format, source)
	if err != nil {
		return nil, err
	}
	return Build(doc.Rules, source)
}

func decode(data []byte, format Format, source string) (*Document, error) {
	var doc Document
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &doc)
		if err != nil {
			return nil, auditerrors.New(auditerrors.RulesInvalid, "cannot parse rule document "+source, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, auditerrors.Newf(auditerrors.RulesInvalid,
				"rule document %s has unknown keys: %s", source, strings.Join(keys, ", ")).WithDetails(keys)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, auditerrors.New(auditerrors.RulesInvalid, "cannot parse rule document "+source, err)
		}
	default:
		return nil, auditerrors.Newf(auditerrors.RulesInvalid, "unsupported rule document format %q", format)
	}
	return &doc, nil
}

// Build validates records and assembles them into a RuleSet ordered by the
// dependency graph. Every failure is an *errors.AuditError.
func Build(records []Record, source string) (*RuleSet, error) {
	set := &RuleSet{
		Source: source,
		byID:   make(map[int]*Rule, len(records)),
	}
	for i := range records {
		rule, err := compile(&records[i], i)
		if err != nil {
			return nil, err
		}
		if _, dup := set.byID[rule.ID]; dup {
			return nil, auditerrors.Newf(auditerrors.DuplicateRuleID,
				"rule id %d is defined more than once in %s", rule.ID, source).WithDetails(rule.ID)
		}
		set.byID[rule.ID] = rule
		set.rules = append(set.rules, rule)
	}

	graph, err := NewGraph(set.rules)
	if err != nil {
		return nil, err
	}
	order, err := graph.Sort()
	if err != nil {
		return nil, err
	}
	set.graph = graph
	set.order = order
	return set, nil
}

func compile(rec *Record, index int) (*Rule, error) {
	where := fmt.Sprintf("rule #%d", index+1)
	if rec.ID != 0 {
		where = fmt.Sprintf("rule %d", rec.ID)
	}
	invalid := func(format string, args ...interface{}) error {
		return auditerrors.Newf(auditerrors.RulesInvalid, where+": "+format, args...)
	}

	if rec.ID <= 0 {
		return nil, invalid("id must be a positive integer")
	}
	if strings.TrimSpace(rec.Description) == "" {
		return nil, invalid("description is required")
	}
	shape := Shape(strings.ToLower(strings.TrimSpace(rec.Type)))
	need, known := requiredFields[shape]
	if !known {
		if rec.Type == "" {
			return nil, invalid("type is required")
		}
		return nil, invalid("unknown type %q", rec.Type)
	}
	severity, ok := ParseSeverity(rec.Severity)
	if !ok {
		return nil, invalid("unknown severity %q", rec.Severity)
	}

	missing := func(name string, has bool, value string) error {
		if has && strings.TrimSpace(value) == "" {
			return invalid("type %s requires %s", shape, name)
		}
		return nil
	}
	for _, f := range []struct {
		name  string
		need  bool
		value string
	}{
		{"path", need.path, rec.Path},
		{"pattern", need.pattern, rec.Pattern},
		{"glob", need.glob, rec.Glob},
		{"key", need.key, rec.Key},
		{"handler", need.handler, rec.Handler},
	} {
		if err := missing(f.name, f.need, f.value); err != nil {
			return nil, err
		}
	}

	rule := &Rule{
		ID:             rec.ID,
		Category:       strings.TrimSpace(rec.Category),
		Description:    strings.TrimSpace(rec.Description),
		Severity:       severity,
		Type:           shape,
		Path:           strings.TrimSpace(rec.Path),
		Pattern:        rec.Pattern,
		Glob:           strings.TrimSpace(rec.Glob),
		ExcludePattern: rec.ExcludePattern,
		ExcludePaths:   rec.ExcludePaths,
		Key:            strings.TrimSpace(rec.Key),
		Handler:        strings.TrimSpace(rec.Handler),
		AppliesTo:      splitTags(rec.AppliesTo),
		DependsOn:      dedupeIDs(rec.DependsOn),
	}
	if rule.Category == "" {
		rule.Category = DefaultCategory
	}

	var err error
	if rule.Pattern != "" {
		if rule.pattern, err = regexp.Compile(rule.Pattern); err != nil {
			return nil, auditerrors.New(auditerrors.InvalidPattern,
				fmt.Sprintf("%s: invalid pattern %q", where, rule.Pattern), err)
		}
	}
	if rule.ExcludePattern != "" {
		if rule.excludePattern, err = regexp.Compile(rule.ExcludePattern); err != nil {
			return nil, auditerrors.New(auditerrors.InvalidPattern,
				fmt.Sprintf("%s: invalid exclude_pattern %q", where, rule.ExcludePattern), err)
		}
	}
	if rule.Glob != "" && !doublestar.ValidatePattern(rule.Glob) {
		return nil, auditerrors.Newf(auditerrors.InvalidPattern, "%s: invalid glob %q", where, rule.Glob)
	}
	return rule, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func dedupeIDs(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
