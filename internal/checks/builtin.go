package checks

import (
	"sort"
	"strings"

	"docaudit/internal/rules"
)

// HandlerID identifies a builtin handler. The set is closed: rule documents
// can only name handlers listed here.
type HandlerID int

const (
	HandlerSpecSchema HandlerID = iota + 1
	HandlerSpecCrossref
	HandlerADRSequence
	HandlerMarkdownLinks
	HandlerChangelogFormat
	HandlerHeadingHierarchy
	HandlerADRStatus
)

var handlerNames = map[HandlerID]string{
	HandlerSpecSchema:       "spec_schema",
	HandlerSpecCrossref:     "spec_crossref",
	HandlerADRSequence:      "adr_sequence",
	HandlerMarkdownLinks:    "markdown_links",
	HandlerChangelogFormat:  "changelog_format",
	HandlerHeadingHierarchy: "heading_hierarchy",
	HandlerADRStatus:        "adr_status",
}

var handlerDescriptions = map[HandlerID]string{
	HandlerSpecSchema:       "spec documents satisfy their per-kind schema; duplicate IDs fail",
	HandlerSpecCrossref:     "spec cross-references, lifecycle chains and inventories resolve",
	HandlerADRSequence:      "decision records under glob are numbered 1..N without gaps or duplicates",
	HandlerMarkdownLinks:    "relative links in markdown files under glob point at existing paths",
	HandlerChangelogFormat:  "changelog at path has a Changelog title and at least one release entry",
	HandlerHeadingHierarchy: "markdown headings under glob never skip a level",
	HandlerADRStatus:        "decision records under glob declare a known status; superseded ones name an existing successor",
}

type handlerFunc func(ctx *Context, rule *rules.Rule) Result

var handlerTable = map[HandlerID]handlerFunc{
	HandlerSpecSchema:       specSchema,
	HandlerSpecCrossref:     specCrossref,
	HandlerADRSequence:      adrSequence,
	HandlerMarkdownLinks:    markdownLinks,
	HandlerChangelogFormat:  changelogFormat,
	HandlerHeadingHierarchy: headingHierarchy,
	HandlerADRStatus:        adrStatus,
}

// String returns the name rule documents use for the handler.
func (h HandlerID) String() string {
	if name, ok := handlerNames[h]; ok {
		return name
	}
	return "unknown"
}

// Description explains what the handler checks.
func (h HandlerID) Description() string {
	return handlerDescriptions[h]
}

// ParseHandler resolves a handler name by exact match.
func ParseHandler(name string) (HandlerID, bool) {
	for id, n := range handlerNames {
		if n == strings.TrimSpace(name) {
			return id, true
		}
	}
	return 0, false
}

// Handlers lists every handler in declaration order.
func Handlers() []HandlerID {
	ids := make([]HandlerID, 0, len(handlerNames))
	for id := range handlerNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// HandlerNames lists every handler name in declaration order.
func HandlerNames() []string {
	var names []string
	for _, id := range Handlers() {
		names = append(names, id.String())
	}
	return names
}
