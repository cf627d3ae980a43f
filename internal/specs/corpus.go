package specs

import (
	"log/slog"
	"path"
	"strings"

	"docaudit/internal/slogutil"
)

// Source is the project listing as the spec pipeline sees it. The scanner's
// FileSet satisfies it; no component walks the file system again.
type Source interface {
	Lister
	Reader
	HasFile(path string) bool
	Under(dir string) []string
}

// Corpus is every discovered spec plus the documents that parsed. A spec that
// failed to parse is still listed in Specs, once.
type Corpus struct {
	Specs       []Discovered
	Diagnostics []Diagnostic

	docs map[string]Document
}

// Load discovers and parses every spec in src.
func Load(src Source, logger *slog.Logger) *Corpus {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	c := &Corpus{docs: map[string]Document{}}
	c.Specs = Discover(src)
	for _, d := range c.Specs {
		doc, diags := Parse(src, d)
		if doc != nil {
			c.docs[d.Path] = doc
		}
		for _, diag := range diags {
			logger.Debug("Spec parse problem", "file", diag.File, "line", diag.Line, "message", diag.Message)
		}
		c.Diagnostics = append(c.Diagnostics, diags...)
	}
	logger.Debug("Loaded specs", "discovered", len(c.Specs), "parsed", len(c.docs))
	return c
}

// Document returns the parsed document at path.
func (c *Corpus) Document(p string) (Document, bool) {
	doc, ok := c.docs[p]
	return doc, ok
}

// Documents returns the parsed documents in discovery order.
func (c *Corpus) Documents() []Document {
	out := make([]Document, 0, len(c.docs))
	for _, d := range c.Specs {
		if doc, ok := c.docs[d.Path]; ok {
			out = append(out, doc)
		}
	}
	return out
}

// OfKind returns the discovered specs of kind in format, in discovery order.
func (c *Corpus) OfKind(kind Kind, format Format) []Discovered {
	var out []Discovered
	for _, d := range c.Specs {
		if d.Kind == kind && d.Format == format {
			out = append(out, d)
		}
	}
	return out
}

// Find returns the spec of the given stem, kind and format.
func (c *Corpus) Find(stem string, kind Kind, format Format) (Discovered, bool) {
	for _, d := range c.Specs {
		if d.Stem == stem && d.Kind == kind && d.Format == format {
			return d, true
		}
	}
	return Discovered{}, false
}

// Resolve locates a referenced path. References resolve against the declaring
// document's directory first and the project root second; rootFirst swaps the
// order. A leading "/" anchors the reference at the root. The first candidate
// is returned with false when nothing exists.
func Resolve(files interface{ HasFile(string) bool }, from Discovered, ref string, rootFirst bool) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}

	var candidates []string
	if strings.HasPrefix(ref, "/") {
		candidates = []string{path.Clean(strings.TrimLeft(ref, "/"))}
	} else {
		local := path.Clean(path.Join(from.Dir(), ref))
		root := path.Clean(ref)
		if rootFirst {
			candidates = []string{root, local}
		} else {
			candidates = []string{local, root}
		}
	}

	for _, c := range candidates {
		if c == ".." || strings.HasPrefix(c, "../") {
			continue
		}
		if files.HasFile(c) {
			return c, true
		}
	}
	return candidates[0], false
}
