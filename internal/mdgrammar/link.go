package mdgrammar

import (
	"regexp"
	"strings"
)

// [text](target "title") and ![alt](target)
var linkPattern = regexp.MustCompile(`(!?)\[([^\]]*)\]\(\s*<?([^)\s>]*)>?(?:\s+"[^"]*")?\s*\)`)

var schemePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*:`)

// Link is an inline link or image.
type Link struct {
	Text   string
	Target string
	Image  bool
	Line   int
}

// LinksIn returns the inline links on one line of text, ignoring code spans.
func LinksIn(text string) []Link {
	var out []Link
	for _, m := range linkPattern.FindAllStringSubmatch(StripCodeSpans(text), -1) {
		out = append(out, Link{Image: m[1] == "!", Text: m[2], Target: m[3]})
	}
	return out
}

// ReplaceLinks replaces each inline link in text with its link text.
func ReplaceLinks(text string) string {
	return linkPattern.ReplaceAllString(text, "$2")
}

// Links returns the inline links outside fenced code.
func Links(content string) []Link {
	var out []Link
	for _, l := range Prose(content) {
		for _, link := range LinksIn(l.Text) {
			link.Line = l.Number
			out = append(out, link)
		}
	}
	return out
}

// IsExternal reports whether target points outside the project: a URL scheme,
// a mail link or a pure in-page anchor.
func IsExternal(target string) bool {
	return target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "//") || schemePattern.MatchString(target)
}

// PathOf strips the anchor and query from a link target.
func PathOf(target string) string {
	if i := strings.IndexAny(target, "#?"); i >= 0 {
		target = target[:i]
	}
	return target
}
