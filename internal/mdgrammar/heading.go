package mdgrammar

import (
	"regexp"
	"strings"
)

var (
	headingPattern = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	closingHashes  = regexp.MustCompile(`(?:^|[ \t]+)#+$`)
)

// Heading is an ATX heading.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// ParseHeading parses a single line as an ATX heading. "#tag" is not a heading.
func ParseHeading(text string) (Heading, bool) {
	m := headingPattern.FindStringSubmatch(text)
	if m == nil {
		return Heading{}, false
	}
	title := closingHashes.ReplaceAllString(strings.TrimSpace(m[2]), "")
	return Heading{Level: len(m[1]), Text: strings.TrimSpace(title)}, true
}

// Headings returns the ATX headings outside fenced code, in document order.
func Headings(content string) []Heading {
	var out []Heading
	for _, l := range Prose(content) {
		if h, ok := ParseHeading(l.Text); ok {
			h.Line = l.Number
			out = append(out, h)
		}
	}
	return out
}

// Title returns the text of the first level-1 heading.
func Title(content string) (string, bool) {
	for _, h := range Headings(content) {
		if h.Level == 1 && h.Text != "" {
			return h.Text, true
		}
	}
	return "", false
}
