package checks

import (
	"log/slog"
	"sync"

	"docaudit/internal/crossref"
	"docaudit/internal/project"
	"docaudit/internal/slogutil"
	"docaudit/internal/specs"
)

// Files is the project listing checks read from. *scanner.FileSet
// implements it.
type Files interface {
	specs.Source
	HasDir(path string) bool
	Glob(pattern string) []string
	Read(path string) ([]byte, error)
}

// SpecAnalysis is the spec pipeline's output for one scan.
type SpecAnalysis struct {
	Corpus     *specs.Corpus
	Validation *specs.ValidationReport
	CrossRef   *crossref.Report
}

// Context is shared by every check of one scan.
type Context struct {
	Files   Files
	Project project.Detection
	Logger  *slog.Logger
	// SpecsDisabled turns the spec builtins into skips.
	SpecsDisabled bool

	specsOnce sync.Once
	analysis  *SpecAnalysis
}

// NewContext creates a check context over files.
func NewContext(files Files, detection project.Detection, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Context{Files: files, Project: detection, Logger: logger}
}

// Specs runs the spec pipeline on first use and returns the cached result.
func (c *Context) Specs() *SpecAnalysis {
	c.specsOnce.Do(func() {
		corpus := specs.Load(c.Files, c.Logger)
		c.analysis = &SpecAnalysis{
			Corpus:     corpus,
			Validation: specs.Validate(corpus),
			CrossRef:   crossref.Run(c.Files, corpus, c.Logger),
		}
	})
	return c.analysis
}

// SpecsLoaded reports whether the spec pipeline has already run.
func (c *Context) SpecsLoaded() bool {
	return c.analysis != nil
}
