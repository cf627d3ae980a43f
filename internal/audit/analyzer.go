package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"docaudit/internal/checks"
	"docaudit/internal/project"
	"docaudit/internal/rules"
	"docaudit/internal/scanner"
	"docaudit/internal/slogutil"
)

// Analyzer runs documentation audits.
type Analyzer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer. A nil logger discards output.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Analyzer{logger: logger, now: time.Now}
}

// Prepare loads the rule set and builds its registry. Every load-time error
// surfaces here, before the project is touched.
func (a *Analyzer) Prepare(opts Options) (*checks.Registry, error) {
	set := opts.Rules
	if set == nil {
		var err error
		if set, err = rules.Load(opts.RulesPath); err != nil {
			return nil, err
		}
	}
	registry, err := checks.NewRegistry(set)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("Loaded rules", "source", set.Source, "rules", set.Len())
	return registry, nil
}

// Analyze performs a full scan of opts.Root. The returned error is always a
// load-time problem; check failures are reported in the Report.
func (a *Analyzer) Analyze(ctx context.Context, opts Options) (*Report, error) {
	registry, err := a.Prepare(opts)
	if err != nil {
		return nil, err
	}

	started := a.now()
	scanID := uuid.NewString()
	base := a.logger
	if opts.Logger != nil {
		base = opts.Logger
	}
	logger := base.With("scan", scanID)

	files, err := scanner.Walk(opts.Root, scanner.Options{
		Exclude:      opts.Exclude,
		MaxFileBytes: opts.MaxFileBytes,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	detection := project.Classify(files, opts.ProjectType)
	logger.Info("Starting audit",
		"root", files.Root(),
		"files", files.Len(),
		"project", string(detection.Class),
		"checks", registry.Len(),
	)

	cc := checks.NewContext(files, detection, logger)
	cc.SpecsDisabled = !opts.SpecsEnabled
	outcome := checks.NewRunner(registry, logger).Run(ctx, cc)

	report := &Report{
		ScanID:      scanID,
		Root:        files.Root(),
		Rules:       registry.Rules().Source,
		Project:     detection,
		Fingerprint: files.Fingerprint(),
		Files:       files.Len(),
		StartedAt:   started.UTC(),
		Checks:      outcome.Results,
		Summary:     outcome.Summary,
		Categories:  summarizeCategories(outcome.Results),
	}
	if opts.SpecsEnabled {
		analysis := cc.Specs()
		report.Specs = analysis.Validation
		report.CrossRef = analysis.CrossRef
	}
	report.Duration = a.now().Sub(started)

	logger.Info("Audit finished",
		"passed", report.Summary.Passed,
		"failed", report.Summary.Failed,
		"skipped", report.Summary.Skipped,
		"duration", report.Duration,
	)
	return report, nil
}

// summarizeCategories groups results by category, most failures first.
func summarizeCategories(results []checks.CheckResult) []CategorySummary {
	index := map[string]*CategorySummary{}
	var order []string
	for _, r := range results {
		s, ok := index[r.Category]
		if !ok {
			s = &CategorySummary{Category: r.Category}
			index[r.Category] = s
			order = append(order, r.Category)
		}
		switch r.Status {
		case checks.StatusPass:
			s.Passed++
		case checks.StatusFail:
			s.Failed++
			s.Violations += len(r.Violations)
		case checks.StatusSkip:
			s.Skipped++
		}
	}

	out := make([]CategorySummary, 0, len(order))
	for _, c := range order {
		out = append(out, *index[c])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Failed != out[j].Failed {
			return out[i].Failed > out[j].Failed
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// String is a one-line summary for logs and terminals.
func (s CategorySummary) String() string {
	return fmt.Sprintf("%s: %d passed, %d failed, %d skipped", s.Category, s.Passed, s.Failed, s.Skipped)
}
