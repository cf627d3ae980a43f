package checks

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"docaudit/internal/decisions"
	"docaudit/internal/mdgrammar"
	"docaudit/internal/rules"
)

const (
	defaultADRGlob      = "docs/{adr,decisions}/**/*.md"
	defaultMarkdownGlob = "**/*.md"
	defaultChangelog    = "CHANGELOG.md"
)

func globOr(rule *rules.Rule, fallback string) string {
	if rule.Glob != "" {
		return rule.Glob
	}
	return fallback
}

func specsDisabled(ctx *Context) (Result, bool) {
	if ctx.SpecsDisabled {
		return Skip("spec checks are disabled by configuration"), true
	}
	return Result{}, false
}

// specSchema fails with one violation per spec diagnostic.
func specSchema(ctx *Context, rule *rules.Rule) Result {
	if res, off := specsDisabled(ctx); off {
		return res
	}
	c := newCollector(rule)
	for _, d := range ctx.Specs().Validation.Diagnostics {
		c.add(d.File, d.Line, "%s: %s", d.Kind, d.Message)
	}
	return c.result()
}

// specCrossref fails with one violation per failed cross-reference.
func specCrossref(ctx *Context, rule *rules.Rule) Result {
	if res, off := specsDisabled(ctx); off {
		return res
	}
	c := newCollector(rule)
	for _, r := range ctx.Specs().CrossRef.Failures() {
		msg := fmt.Sprintf("[%s] %s", r.Category, r.Description)
		if len(r.Details) > 0 {
			msg += " (" + strings.Join(r.Details, "; ") + ")"
		}
		c.add(r.File, r.Line, "%s", msg)
	}
	return c.result()
}

// adrSequence requires decision records to be numbered 1..N. A record
// numbered 0 is a template and ignored.
func adrSequence(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	owners := map[int][]string{}
	for _, p := range ctx.Files.Glob(globOr(rule, defaultADRGlob)) {
		if n, ok := decisions.Number(p); ok {
			owners[n] = append(owners[n], p)
		}
	}
	if len(owners) == 0 {
		return Pass()
	}

	numbers := make([]int, 0, len(owners))
	for n := range owners {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	for _, n := range numbers {
		if files := owners[n]; len(files) > 1 {
			c.add(files[0], 0, "decision number %d is used by %s", n, strings.Join(files, ", "))
		}
	}
	next := 1
	for _, n := range numbers {
		for ; next < n; next++ {
			c.add(owners[n][0], 0, "decision number %d is missing before %d", next, n)
		}
		next = n + 1
	}
	return c.result()
}

// adrStatus requires every numbered decision record to declare a known
// status, and a superseded record to name an existing successor.
func adrStatus(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	var records []*decisions.Record
	numbers := map[int]bool{}
	for _, p := range ctx.Files.Glob(globOr(rule, defaultADRGlob)) {
		n, ok := decisions.Number(p)
		if !ok {
			continue
		}
		content, err := ctx.Files.ReadString(p)
		if err != nil {
			ctx.Logger.Warn("Cannot read decision record", "file", p, "error", err.Error())
			c.add(p, 0, "cannot read file: %v", err)
			continue
		}
		records = append(records, decisions.Parse(p, content))
		numbers[n] = true
	}

	for _, rec := range records {
		switch {
		case rec.Status == "":
			c.add(rec.File, 0, "no status declared")
		case !decisions.IsValidStatus(rec.Status):
			c.add(rec.File, rec.StatusLine, "unknown status %q", rec.Status)
		case rec.Status == string(decisions.StatusSuperseded) && rec.SupersededNumber == 0:
			c.add(rec.File, rec.StatusLine, "superseded without naming its successor")
		case rec.Status == string(decisions.StatusSuperseded) && !numbers[rec.SupersededNumber]:
			c.add(rec.File, rec.StatusLine, "superseded by decision %d, which does not exist", rec.SupersededNumber)
		}
	}
	return c.result()
}

// markdownLinks requires relative link targets to exist in the listing.
func markdownLinks(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	for _, p := range ctx.Files.Glob(globOr(rule, defaultMarkdownGlob)) {
		content, err := ctx.Files.ReadString(p)
		if err != nil {
			ctx.Logger.Warn("Cannot read markdown file", "file", p, "error", err.Error())
			c.add(p, 0, "cannot read file: %v", err)
			continue
		}
		for _, link := range mdgrammar.Links(content) {
			if mdgrammar.IsExternal(link.Target) {
				continue
			}
			target := mdgrammar.PathOf(link.Target)
			if target == "" {
				continue
			}
			if unescaped, err := url.PathUnescape(target); err == nil {
				target = unescaped
			}
			resolved := resolveLink(p, target)
			if resolved == "" || !(ctx.Files.HasFile(resolved) || ctx.Files.HasDir(resolved)) {
				c.add(p, link.Line, "broken link to %s", link.Target)
			}
		}
	}
	return c.result()
}

// resolveLink returns the project-relative path of a link target, or "" when
// it escapes the project.
func resolveLink(from, target string) string {
	var p string
	if strings.HasPrefix(target, "/") {
		p = path.Clean(strings.TrimLeft(target, "/"))
	} else {
		p = path.Clean(path.Join(path.Dir(from), target))
	}
	if p == ".." || strings.HasPrefix(p, "../") {
		return ""
	}
	if p == "." {
		return ""
	}
	return p
}

var releaseHeadingPattern = regexp.MustCompile(`^\[[^\]]+\]`)

// changelogFormat follows the Keep a Changelog layout: a "Changelog" title and
// "## [version]" release sections.
func changelogFormat(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	file := defaultChangelog
	if rule.Path != "" {
		file = rule.Path
	}
	content, ok := readFor(c, ctx.Files, file)
	if !ok {
		return c.result()
	}

	headings := mdgrammar.Headings(string(content))
	title, hasTitle := mdgrammar.Title(string(content))
	if !hasTitle || !strings.Contains(strings.ToLower(title), "changelog") {
		c.add(file, 1, "missing \"# Changelog\" title")
	}

	releases := 0
	for _, h := range headings {
		if h.Level != 2 {
			continue
		}
		if releaseHeadingPattern.MatchString(h.Text) {
			releases++
			continue
		}
		c.add(file, h.Line, "release heading %q is not of the form \"## [version]\"", h.Text)
	}
	if releases == 0 {
		c.add(file, 0, "no release entries")
	}
	return c.result()
}

// headingHierarchy flags headings that go more than one level deeper than
// the heading before them.
func headingHierarchy(ctx *Context, rule *rules.Rule) Result {
	c := newCollector(rule)
	for _, p := range ctx.Files.Glob(globOr(rule, defaultMarkdownGlob)) {
		content, err := ctx.Files.ReadString(p)
		if err != nil {
			c.add(p, 0, "cannot read file: %v", err)
			continue
		}
		prev := 0
		for _, h := range mdgrammar.Headings(content) {
			if prev > 0 && h.Level > prev+1 {
				c.add(p, h.Line, "heading level %d follows level %d", h.Level, prev)
			}
			prev = h.Level
		}
	}
	return c.result()
}
