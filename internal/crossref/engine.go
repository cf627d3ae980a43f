package crossref

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"docaudit/internal/slogutil"
	"docaudit/internal/specs"
)

// engine holds one cross-reference pass over a corpus.
type engine struct {
	src    specs.Source
	corpus *specs.Corpus
	logger *slog.Logger
	report *Report
}

// Run evaluates every assertion family against corpus. Files are looked up
// and read through src only.
func Run(src specs.Source, corpus *specs.Corpus, logger *slog.Logger) *Report {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	e := &engine{src: src, corpus: corpus, logger: logger, report: newReport()}

	e.checkDependencies()
	e.checkChains()
	e.checkInventory()
	e.checkRequirementTrace()
	e.checkArchitectureTrace()
	e.checkRelatedDocuments()

	logger.Debug("Cross-reference pass finished", "passed", e.report.Passed, "failed", e.report.Failed)
	return e.report
}

func (e *engine) pass(c Category, file string, line int, format string, args ...interface{}) {
	e.report.add(Result{Category: c, Status: Pass, File: file, Line: line, Description: fmt.Sprintf(format, args...)})
}

func (e *engine) fail(c Category, file string, line int, details []string, format string, args ...interface{}) {
	e.report.add(Result{Category: c, Status: Fail, File: file, Line: line, Details: details, Description: fmt.Sprintf(format, args...)})
}

// checkDependencies: each {ref, file} names an existing file containing ref.
func (e *engine) checkDependencies() {
	for _, doc := range e.corpus.Documents() {
		from := doc.Source()
		deps := doc.Dependencies()
		if md, ok := doc.(*specs.MarkdownSpec); ok && md.RelatedLink != "" && md.RelatedID == "" {
			deps = []specs.Dependency{{File: md.RelatedLink, Line: md.RelatedLine}}
		}

		for _, dep := range deps {
			if strings.TrimSpace(dep.File) == "" {
				e.fail(Dependencies, from.Path, dep.Line, nil, "dependency %s names no file", dep.Ref)
				continue
			}
			target, ok := specs.Resolve(e.src, from, dep.File, false)
			if !ok {
				e.fail(Dependencies, from.Path, dep.Line, []string{"file not found: " + target},
					"dependency %s -> %s does not resolve", dep.Ref, dep.File)
				continue
			}
			if dep.Ref == "" {
				e.pass(Dependencies, from.Path, dep.Line, "related document %s exists", target)
				continue
			}
			content, err := e.src.ReadString(target)
			if err != nil {
				e.fail(Dependencies, from.Path, dep.Line, []string{err.Error()}, "dependency %s -> %s is unreadable", dep.Ref, target)
				continue
			}
			if !strings.Contains(content, dep.Ref) {
				e.fail(Dependencies, from.Path, dep.Line, []string{target + " does not mention " + dep.Ref},
					"dependency %s -> %s is not declared by the target", dep.Ref, target)
				continue
			}
			e.pass(Dependencies, from.Path, dep.Line, "dependency %s -> %s resolves", dep.Ref, target)
		}
	}
}

// checkChains: each feature request has architecture, test and deployment
// documents of the same stem, in the same format.
func (e *engine) checkChains() {
	phases := []specs.Kind{specs.KindArchitecture, specs.KindTestPlan, specs.KindDeployment}
	for _, format := range []specs.Format{specs.FormatYAML, specs.FormatMarkdown} {
		for _, fr := range e.corpus.OfKind(specs.KindFeatureRequest, format) {
			var missing []string
			for _, kind := range phases {
				if _, ok := e.corpus.Find(fr.Stem, kind, format); !ok {
					missing = append(missing, fmt.Sprintf("missing %s document %s", kind.Phase(), fr.Stem+specs.Suffix(kind, format)))
				}
			}
			if len(missing) > 0 {
				e.fail(SDLCChain, fr.Path, 0, missing, "%s chain for %s is incomplete", format, fr.Stem)
				continue
			}
			e.pass(SDLCChain, fr.Path, 0, "%s chain for %s is complete", format, fr.Stem)
		}
	}
}

// checkInventory: a BRD's per-domain count equals the feature requests found
// in the domain directory, and every listed file resolves.
func (e *engine) checkInventory() {
	for _, doc := range e.corpus.Documents() {
		from := doc.Source()
		if from.Kind != specs.KindBrd {
			continue
		}
		switch brd := doc.(type) {
		case *specs.BrdSpec:
			for _, dom := range brd.Domains {
				dir := e.domainDir(from, dom.Name, dom.Path)
				if dom.SpecCount != nil {
					e.compareCount(from, dom.Line, dom.Name, dir, *dom.SpecCount)
				}
				for _, ref := range dom.Specs {
					e.checkListedSpec(from, dir, ref)
				}
			}
		case *specs.MarkdownSpec:
			for _, row := range brd.Inventory {
				if row.Count < 0 {
					continue
				}
				e.compareCount(from, row.Line, row.Domain, e.domainDir(from, row.Domain, row.Path), row.Count)
			}
		}
	}
}

func (e *engine) compareCount(brd specs.Discovered, line int, domain, dir string, declared int) {
	found := e.countSpecs(dir, brd.Format)
	if found != declared {
		e.fail(Inventory, brd.Path, line,
			[]string{fmt.Sprintf("declared %d, found %d under %s/", declared, found, dir)},
			"domain %s spec count does not match", domain)
		return
	}
	e.pass(Inventory, brd.Path, line, "domain %s lists %d specs", domain, declared)
}

func (e *engine) checkListedSpec(brd specs.Discovered, dir string, ref specs.SpecRef) {
	if strings.TrimSpace(ref.File) == "" {
		return
	}
	target, ok := specs.Resolve(e.src, brd, ref.File, false)
	if !ok {
		if alt := path.Clean(path.Join(dir, ref.File)); e.src.HasFile(alt) {
			target, ok = alt, true
		}
	}
	if !ok {
		e.fail(Inventory, brd.Path, ref.Line, []string{"file not found: " + ref.File}, "listed spec %s does not resolve", ref.File)
		return
	}
	if ref.ID != "" {
		if content, err := e.src.ReadString(target); err != nil || !strings.Contains(content, ref.ID) {
			e.fail(Inventory, brd.Path, ref.Line, []string{target + " does not declare " + ref.ID}, "listed spec %s does not match its id", ref.File)
			return
		}
	}
	e.pass(Inventory, brd.Path, ref.Line, "listed spec %s resolves", target)
}

// domainDir picks the directory holding a domain's specs: the declared path
// or the domain name, relative to the BRD first and the project root second.
func (e *engine) domainDir(brd specs.Discovered, name, declared string) string {
	rel := strings.TrimSuffix(strings.TrimSpace(declared), "/")
	if rel == "" {
		rel = name
	}
	if strings.HasPrefix(rel, "/") {
		return path.Clean(strings.TrimLeft(rel, "/"))
	}
	local := path.Clean(path.Join(brd.Dir(), rel))
	if len(e.src.Under(local)) > 0 {
		return local
	}
	if root := path.Clean(rel); len(e.src.Under(root)) > 0 {
		return root
	}
	return local
}

func (e *engine) countSpecs(dir string, format specs.Format) int {
	prefix := dir + "/"
	n := 0
	for _, d := range e.corpus.OfKind(specs.KindFeatureRequest, format) {
		if strings.HasPrefix(d.Path, prefix) {
			n++
		}
	}
	return n
}

// requirementFor finds the requirement document a test plan or architecture
// document points at, falling back to the same stem in the same format.
func (e *engine) requirementFor(from specs.Discovered, link string) (specs.Discovered, specs.Document, string) {
	if link != "" {
		target, ok := specs.Resolve(e.src, from, link, false)
		if !ok {
			return specs.Discovered{}, nil, "linked spec not found: " + target
		}
		d, isSpec := specs.Classify(target)
		if !isSpec || (d.Kind != specs.KindFeatureRequest && d.Kind != specs.KindBrd) {
			return specs.Discovered{}, nil, target + " is not a requirement spec"
		}
		doc, parsed := e.corpus.Document(target)
		if !parsed {
			return d, nil, target + " could not be parsed"
		}
		return d, doc, ""
	}
	d, ok := e.corpus.Find(from.Stem, specs.KindFeatureRequest, from.Format)
	if !ok {
		return specs.Discovered{}, nil, "no spec reference and no requirement spec with stem " + from.Stem
	}
	doc, parsed := e.corpus.Document(d.Path)
	if !parsed {
		return d, nil, d.Path + " could not be parsed"
	}
	return d, doc, ""
}

func declaredIDs(doc specs.Document) map[string]bool {
	ids := map[string]bool{}
	switch s := doc.(type) {
	case *specs.FeatureRequestSpec:
		for _, id := range s.RequirementIDs() {
			ids[id] = true
		}
	case *specs.MarkdownSpec:
		for _, id := range s.IDs {
			ids[id] = true
		}
		for _, id := range s.Requirements {
			ids[id] = true
		}
	}
	return ids
}

// checkRequirementTrace: every test case verifies IDs declared in the linked
// requirement spec.
func (e *engine) checkRequirementTrace() {
	for _, doc := range e.corpus.Documents() {
		from := doc.Source()
		var link string
		var cases []specs.TestCase
		switch s := doc.(type) {
		case *specs.TestSpec:
			link, cases = s.Spec, s.TestCases
		case *specs.MarkdownSpec:
			if from.Kind != specs.KindTestPlan {
				continue
			}
			link, cases = s.SpecLink, s.TestCases
		default:
			continue
		}
		if len(cases) == 0 {
			continue
		}

		req, reqDoc, problem := e.requirementFor(from, link)
		if reqDoc == nil {
			e.fail(RequirementTraceability, from.Path, 0, []string{problem}, "test plan cannot be traced to a requirement spec")
			continue
		}
		declared := declaredIDs(reqDoc)
		for _, tc := range cases {
			var unknown []string
			for _, id := range tc.VerifiedIDs() {
				if !declared[id] {
					unknown = append(unknown, fmt.Sprintf("%s is not declared in %s", id, req.Path))
				}
			}
			if len(unknown) > 0 {
				e.fail(RequirementTraceability, from.Path, tc.Line, unknown, "test case %s verifies unknown requirements", tc.ID)
				continue
			}
			e.pass(RequirementTraceability, from.Path, tc.Line, "test case %s verifies %s", tc.ID, tc.Verifies)
		}
	}
}

// checkArchitectureTrace: every architecture document points at an existing
// requirement spec, and its components cite requirements declared there.
func (e *engine) checkArchitectureTrace() {
	for _, doc := range e.corpus.Documents() {
		from := doc.Source()
		var link string
		var components []specs.Component
		switch s := doc.(type) {
		case *specs.ArchSpec:
			link, components = s.Spec, s.Components
		case *specs.MarkdownSpec:
			if from.Kind != specs.KindArchitecture {
				continue
			}
			link = s.SpecLink
		default:
			continue
		}

		if link == "" {
			e.fail(ArchitectureTraceability, from.Path, 0, []string{"no spec reference"}, "architecture document names no requirement spec")
			continue
		}
		req, reqDoc, problem := e.requirementFor(from, link)
		if req.Path == "" {
			e.fail(ArchitectureTraceability, from.Path, 0, []string{problem}, "spec reference %s does not resolve", link)
			continue
		}
		e.pass(ArchitectureTraceability, from.Path, 0, "spec reference resolves to %s", req.Path)

		if reqDoc == nil {
			continue
		}
		declared := declaredIDs(reqDoc)
		for _, c := range components {
			var unknown []string
			for _, id := range c.Requirements {
				if !declared[id] {
					unknown = append(unknown, fmt.Sprintf("%s is not declared in %s", id, req.Path))
				}
			}
			if len(c.Requirements) == 0 {
				continue
			}
			if len(unknown) > 0 {
				e.fail(ArchitectureTraceability, from.Path, 0, unknown, "component %s cites unknown requirements", c.Name)
				continue
			}
			e.pass(ArchitectureTraceability, from.Path, 0, "component %s traces to %s", c.Name, req.Path)
		}
	}
}

// checkRelatedDocuments: relatedDocuments entries and markdown Spec/Arch
// links resolve, trying the project root first.
func (e *engine) checkRelatedDocuments() {
	for _, doc := range e.corpus.Documents() {
		from := doc.Source()
		var refs []string
		switch s := doc.(type) {
		case *specs.MarkdownSpec:
			for _, l := range []string{s.SpecLink, s.ArchLink} {
				if l != "" {
					refs = append(refs, l)
				}
			}
		case *specs.TestSpec:
			refs = append(refs, s.RelatedDocuments...)
			if s.Arch != "" {
				refs = append(refs, s.Arch)
			}
		default:
			if h := header(doc); h != nil {
				refs = append(refs, h.RelatedDocuments...)
			}
		}

		for _, ref := range refs {
			target, ok := specs.Resolve(e.src, from, ref, true)
			if !ok && !e.isDir(from, ref) {
				e.fail(RelatedDocuments, from.Path, 0, []string{"file not found: " + target}, "related document %s does not resolve", ref)
				continue
			}
			e.pass(RelatedDocuments, from.Path, 0, "related document %s resolves", ref)
		}
	}
}

// isDir accepts related documents that name a directory of the listing.
func (e *engine) isDir(from specs.Discovered, ref string) bool {
	ref = strings.TrimSuffix(strings.TrimSpace(ref), "/")
	for _, c := range []string{path.Clean(strings.TrimLeft(ref, "/")), path.Clean(path.Join(from.Dir(), ref))} {
		if c != "." && !strings.HasPrefix(c, "..") && len(e.src.Under(c)) > 0 {
			return true
		}
	}
	return false
}

func header(doc specs.Document) *specs.Header {
	switch s := doc.(type) {
	case *specs.BrdSpec:
		return &s.Header
	case *specs.FeatureRequestSpec:
		return &s.Header
	case *specs.ArchSpec:
		return &s.Header
	case *specs.TestSpec:
		return &s.Header
	case *specs.DeploySpec:
		return &s.Header
	}
	return nil
}
