package checks

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"strings"

	"docaudit/internal/rules"
)

// evaluate runs one declarative rule shape.
func evaluate(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	files := ctx.Files

	switch rule.Type {
	case rules.FileExists:
		if !files.HasFile(rule.Path) {
			c.add(rule.Path, 0, "file not found")
		}
	case rules.DirExists:
		if !files.HasDir(rule.Path) {
			c.add(rule.Path, 0, "directory not found")
		}
	case rules.DirNotExists:
		if files.HasDir(rule.Path) {
			c.add(rule.Path, 0, "directory must not exist")
		}
	case rules.FileContentMatches:
		if data, ok := readFor(c, files, rule.Path); ok && !rule.Regexp().Match(data) {
			c.add(rule.Path, 0, "content does not match %q", rule.Pattern)
		}
	case rules.FileContentNotMatches:
		if data, ok := readFor(c, files, rule.Path); ok {
			forbidden(c, rule, rule.Path, data)
		}
	case rules.GlobContentMatches:
		for _, p := range files.Glob(rule.Glob) {
			if data, ok := readFor(c, files, p); ok && !rule.Regexp().Match(data) {
				c.add(p, 0, "content does not match %q", rule.Pattern)
			}
		}
	case rules.GlobContentNotMatches:
		for _, p := range files.Glob(rule.Glob) {
			if data, ok := readFor(c, files, p); ok {
				forbidden(c, rule, p, data)
			}
		}
	case rules.GlobNamingMatches:
		for _, p := range withoutExcluded(files.Glob(rule.Glob), rule.ExcludePaths) {
			if !rule.Regexp().MatchString(path.Base(p)) {
				c.add(p, 0, "file name does not match %q", rule.Pattern)
			}
		}
	case rules.GlobNamingNotMatches:
		for _, p := range withoutExcluded(files.Glob(rule.Glob), rule.ExcludePaths) {
			if rule.Regexp().MatchString(path.Base(p)) {
				c.add(p, 0, "file name matches forbidden %q", rule.Pattern)
			}
		}
	case rules.CargoKeyExists, rules.CargoKeyMatches:
		checkManifestKey(c, files, rule)
	default:
		c.add("", 0, "rule type %s cannot be evaluated declaratively", rule.Type)
	}
	return c.result()
}

// readFor reads p, recording a violation when it cannot.
func readFor(c *collector, files Files, p string) ([]byte, bool) {
	data, err := files.Read(p)
	if err == nil {
		return data, true
	}
	if errors.Is(err, fs.ErrNotExist) {
		c.add(p, 0, "file not found")
	} else {
		c.add(p, 0, "cannot read file: %v", err)
	}
	return nil, false
}

// forbidden records every occurrence of the rule pattern in data. With an
// exclude_pattern the content is evaluated line by line and lines matching the
// exclusion are ignored.
func forbidden(c *collector, rule *rules.Rule, p string, data []byte) {
	re, exclude := rule.Regexp(), rule.ExcludeRegexp()
	if exclude == nil {
		for _, loc := range re.FindAllIndex(data, -1) {
			c.add(p, lineAt(data, loc[0]), "content matches forbidden %q", rule.Pattern)
		}
		return
	}
	for i, line := range bytes.Split(data, []byte("\n")) {
		if re.Match(line) && !exclude.Match(line) {
			c.add(p, i+1, "content matches forbidden %q", rule.Pattern)
		}
	}
}

func lineAt(data []byte, offset int) int {
	return bytes.Count(data[:offset], []byte("\n")) + 1
}

// withoutExcluded drops paths under any of the listed prefixes.
func withoutExcluded(paths, prefixes []string) []string {
	if len(prefixes) == 0 {
		return paths
	}
	var out []string
	for _, p := range paths {
		if !underAny(p, prefixes) {
			out = append(out, p)
		}
	}
	return out
}

func underAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimPrefix(prefix, "./")
		if prefix == "" {
			continue
		}
		if strings.HasSuffix(prefix, "/") {
			if strings.HasPrefix(p, prefix) {
				return true
			}
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
