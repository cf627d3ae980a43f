// Package mdgrammar is the small markdown grammar the audit relies on: ATX
// headings, bold metadata labels, inline links and pipe tables, all evaluated
// with fenced code blocks masked out.
package mdgrammar

import (
	"bufio"
	"regexp"
	"strings"
)

// Fence start/end: allow leading whitespace, support ``` and ~~~
var (
	fenceStartPattern = regexp.MustCompile(`^\s*(` + "```" + `|~~~)[\w+-]*\s*$`)
	fenceEndPattern   = regexp.MustCompile(`^\s*(` + "```" + `|~~~)\s*$`)
)

// Line is one source line with its 1-based number.
type Line struct {
	Number int
	Text   string
	// InFence is true for fence delimiters and everything between them.
	InFence bool
}

// Lines splits content into lines and marks fenced code. A fence only closes
// on the delimiter that opened it; an unclosed fence runs to the end.
func Lines(content string) []Line {
	var out []Line
	sc := bufio.NewScanner(strings.NewReader(content))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inFence := false
	delimiter := ""
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSuffix(sc.Text(), "\r")
		line := Line{Number: n, Text: text}

		if !inFence {
			if m := fenceStartPattern.FindStringSubmatch(text); m != nil {
				inFence = true
				delimiter = m[1]
				line.InFence = true
			}
		} else {
			line.InFence = true
			if m := fenceEndPattern.FindStringSubmatch(text); m != nil && m[1] == delimiter {
				inFence = false
				delimiter = ""
			}
		}
		out = append(out, line)
	}
	return out
}

// Prose returns the lines outside fenced code.
func Prose(content string) []Line {
	var out []Line
	for _, l := range Lines(content) {
		if !l.InFence {
			out = append(out, l)
		}
	}
	return out
}

var codeSpanPattern = regexp.MustCompile("`+[^`]*`+")

// StripCodeSpans blanks inline code so its contents are not read as markup.
func StripCodeSpans(s string) string {
	return codeSpanPattern.ReplaceAllStringFunc(s, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
}
