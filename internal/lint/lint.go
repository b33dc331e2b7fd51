// Package lint validates documentation pages against the front-matter schema
// and content-integrity rules: the front-matter block must decode, titles and
// descriptions must be present and sane, keywords must be a non-empty
// sequence of strings, and link targets inside the corpus must exist.
package lint

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/docsentry/docsentry/internal/errors"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/types"
)

// Rule identifiers, stable for config overrides and report output.
const (
	RuleFrontmatterMissing   = "frontmatter-missing"
	RuleFrontmatterMalformed = "frontmatter-malformed"
	RuleTitleRequired        = "title-required"
	RuleTitleLength          = "title-length"
	RuleDescriptionRequired  = "description-required"
	RuleDescriptionLength    = "description-length"
	RuleKeywordsRequired     = "keywords-required"
	RuleKeywordsEmptyEntry   = "keywords-empty-entry"
	RuleKeywordsDuplicate    = "keywords-duplicate"
	RuleLinkEmpty            = "link-empty"
	RuleLinkSpace            = "link-space"
	RuleLinkRelativeMissing  = "link-relative-missing"
	RuleAnchorMissing        = "anchor-missing"
	RuleHeadingDuplicate     = "heading-duplicate"
)

// defaultSeverities maps each rule to its out-of-the-box severity.
var defaultSeverities = map[string]errors.Severity{
	RuleFrontmatterMissing:   errors.SeverityError,
	RuleFrontmatterMalformed: errors.SeverityError,
	RuleTitleRequired:        errors.SeverityError,
	RuleTitleLength:          errors.SeverityWarning,
	RuleDescriptionRequired:  errors.SeverityError,
	RuleDescriptionLength:    errors.SeverityWarning,
	RuleKeywordsRequired:     errors.SeverityError,
	RuleKeywordsEmptyEntry:   errors.SeverityError,
	RuleKeywordsDuplicate:    errors.SeverityWarning,
	RuleLinkEmpty:            errors.SeverityError,
	RuleLinkSpace:            errors.SeverityWarning,
	RuleLinkRelativeMissing:  errors.SeverityError,
	RuleAnchorMissing:        errors.SeverityError,
	RuleHeadingDuplicate:     errors.SeverityWarning,
}

// Problem is a single rule violation in a document.
type Problem struct {
	Rule     string          `json:"rule" yaml:"rule"`
	Severity errors.Severity `json:"-" yaml:"-"`
	Level    string          `json:"severity" yaml:"severity"`
	Message  string          `json:"message" yaml:"message"`
	Line     int             `json:"line,omitempty" yaml:"line,omitempty"`
}

// Result holds all problems found in one document.
type Result struct {
	Path     string    `json:"path" yaml:"path"`
	Valid    bool      `json:"valid" yaml:"valid"`
	Problems []Problem `json:"problems" yaml:"problems"`
}

// Summary aggregates lint results across a corpus.
type Summary struct {
	Total    int      `json:"total" yaml:"total"`
	Valid    int      `json:"valid" yaml:"valid"`
	Invalid  int      `json:"invalid" yaml:"invalid"`
	Warnings int      `json:"warnings" yaml:"warnings"`
	Errors   int      `json:"errors" yaml:"errors"`
	Results  []Result `json:"results" yaml:"results"`
}

// Options configures the linter.
type Options struct {
	// MaxTitleLength caps title length; 0 uses the default of 70
	MaxTitleLength int
	// MaxDescriptionLength caps description length; 0 uses the default of 160
	MaxDescriptionLength int
	// DisabledRules lists rule IDs to skip entirely
	DisabledRules []string
	// SeverityOverrides remaps rule IDs to "error" or "warning"
	SeverityOverrides map[string]string
	// Strict promotes warnings to errors
	Strict bool
}

// Linter evaluates documents against the rule set. Internal link existence
// is resolved against the registry, so the whole corpus should be scanned
// before linting.
type Linter struct {
	opts     Options
	disabled map[string]bool
}

// New creates a Linter with the given options.
func New(opts Options) *Linter {
	if opts.MaxTitleLength <= 0 {
		opts.MaxTitleLength = 70
	}
	if opts.MaxDescriptionLength <= 0 {
		opts.MaxDescriptionLength = 160
	}

	disabled := make(map[string]bool, len(opts.DisabledRules))
	for _, rule := range opts.DisabledRules {
		disabled[rule] = true
	}

	return &Linter{opts: opts, disabled: disabled}
}

// LintCorpus lints every document in the registry, returning a deterministic
// summary sorted by path.
func (l *Linter) LintCorpus(reg *registry.DocumentRegistry) Summary {
	docs := reg.GetAll()

	summary := Summary{
		Total:   len(docs),
		Results: make([]Result, 0, len(docs)),
	}

	for _, doc := range docs {
		result := l.LintDocument(doc, reg)
		summary.Results = append(summary.Results, result)

		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
		for _, p := range result.Problems {
			switch p.Severity {
			case errors.SeverityWarning:
				summary.Warnings++
			case errors.SeverityError, errors.SeverityFatal:
				summary.Errors++
			}
		}
	}

	return summary
}

// LintDocument evaluates one document. reg may be nil, disabling
// cross-document link checks.
func (l *Linter) LintDocument(doc *types.DocumentInfo, reg *registry.DocumentRegistry) Result {
	result := Result{Path: doc.Path, Valid: true}

	l.checkFrontmatter(doc, &result)
	l.checkLinks(doc, reg, &result)
	l.checkHeadings(doc, &result)

	sort.SliceStable(result.Problems, func(i, j int) bool {
		return result.Problems[i].Line < result.Problems[j].Line
	})

	for _, p := range result.Problems {
		if p.Severity >= errors.SeverityError {
			result.Valid = false
			break
		}
	}

	return result
}

func (l *Linter) checkFrontmatter(doc *types.DocumentInfo, result *Result) {
	if !doc.HasFrontmatter {
		l.report(result, RuleFrontmatterMissing, 1, "page has no front-matter block")
		return
	}
	if doc.FrontmatterErr != "" {
		l.report(result, RuleFrontmatterMalformed, 1, "front-matter does not parse: "+doc.FrontmatterErr)
		return
	}

	if strings.TrimSpace(doc.Title) == "" {
		l.report(result, RuleTitleRequired, 1, "front-matter is missing a title")
	} else if len(doc.Title) > l.opts.MaxTitleLength {
		l.report(result, RuleTitleLength, 1,
			fmt.Sprintf("title is %d characters, limit is %d", len(doc.Title), l.opts.MaxTitleLength))
	}

	if strings.TrimSpace(doc.Description) == "" {
		l.report(result, RuleDescriptionRequired, 1, "front-matter is missing a description")
	} else if len(doc.Description) > l.opts.MaxDescriptionLength {
		l.report(result, RuleDescriptionLength, 1,
			fmt.Sprintf("description is %d characters, limit is %d", len(doc.Description), l.opts.MaxDescriptionLength))
	}

	if len(doc.Keywords) == 0 {
		l.report(result, RuleKeywordsRequired, 1, "keywords must be a non-empty sequence of strings")
	} else {
		seen := make(map[string]bool, len(doc.Keywords))
		for _, kw := range doc.Keywords {
			if strings.TrimSpace(kw) == "" {
				l.report(result, RuleKeywordsEmptyEntry, 1, "keywords contains an empty entry")
				continue
			}
			lower := strings.ToLower(kw)
			if seen[lower] {
				l.report(result, RuleKeywordsDuplicate, 1, fmt.Sprintf("duplicate keyword %q", kw))
			}
			seen[lower] = true
		}
	}
}

func (l *Linter) checkLinks(doc *types.DocumentInfo, reg *registry.DocumentRegistry, result *Result) {
	anchors := anchorSet(doc.Headings)

	for _, link := range doc.Links {
		if strings.TrimSpace(link.Target) == "" {
			l.report(result, RuleLinkEmpty, link.Line, "link has an empty target")
			continue
		}
		if strings.Contains(link.Target, " ") {
			l.report(result, RuleLinkSpace, link.Line,
				fmt.Sprintf("link target %q contains unescaped spaces", link.Target))
		}

		switch link.Kind {
		case types.LinkAnchor:
			fragment := strings.TrimPrefix(link.Target, "#")
			if !anchors[fragment] {
				l.report(result, RuleAnchorMissing, link.Line,
					fmt.Sprintf("no heading matches anchor %q", link.Target))
			}
		case types.LinkInternal:
			l.checkInternalLink(doc, reg, link, result)
		}
	}
}

// checkInternalLink resolves a relative target against the document's
// directory and verifies the destination (and fragment, if any) exists in
// the registry.
func (l *Linter) checkInternalLink(doc *types.DocumentInfo, reg *registry.DocumentRegistry, link types.LinkInfo, result *Result) {
	if reg == nil {
		return
	}

	target := link.Target
	fragment := ""
	if idx := strings.Index(target, "#"); idx >= 0 {
		fragment = target[idx+1:]
		target = target[:idx]
	}
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	if target == "" {
		return
	}

	// Non-markdown assets (images, downloads) are out of registry scope.
	if !strings.HasSuffix(target, ".md") && !strings.HasSuffix(target, ".markdown") {
		return
	}

	resolved := path.Clean(path.Join(path.Dir(doc.Path), target))
	if strings.HasPrefix(target, "/") {
		resolved = strings.TrimPrefix(path.Clean(target), "/")
	}

	dest, exists := reg.Get(resolved)
	if !exists {
		l.report(result, RuleLinkRelativeMissing, link.Line,
			fmt.Sprintf("link target %q resolves to %q, which is not in the corpus", link.Target, resolved))
		return
	}

	if fragment != "" && !anchorSet(dest.Headings)[fragment] {
		l.report(result, RuleAnchorMissing, link.Line,
			fmt.Sprintf("document %q has no heading matching anchor %q", resolved, "#"+fragment))
	}
}

func (l *Linter) checkHeadings(doc *types.DocumentInfo, result *Result) {
	seen := make(map[string]int, len(doc.Headings))
	for _, h := range doc.Headings {
		if h.Anchor == "" {
			continue
		}
		if line, dup := seen[h.Anchor]; dup {
			l.report(result, RuleHeadingDuplicate, h.Line,
				fmt.Sprintf("heading anchor %q duplicates the heading on line %d", h.Anchor, line))
			continue
		}
		seen[h.Anchor] = h.Line
	}
}

func anchorSet(headings []types.HeadingInfo) map[string]bool {
	set := make(map[string]bool, len(headings))
	for _, h := range headings {
		set[h.Anchor] = true
	}
	return set
}

// report appends a problem unless its rule is disabled, applying severity
// overrides and strict promotion.
func (l *Linter) report(result *Result, rule string, line int, message string) {
	if l.disabled[rule] {
		return
	}

	severity := defaultSeverities[rule]
	if override, ok := l.opts.SeverityOverrides[rule]; ok {
		switch override {
		case "error":
			severity = errors.SeverityError
		case "warning":
			severity = errors.SeverityWarning
		case "info":
			severity = errors.SeverityInfo
		}
	}
	if l.opts.Strict && severity == errors.SeverityWarning {
		severity = errors.SeverityError
	}

	result.Problems = append(result.Problems, Problem{
		Rule:     rule,
		Severity: severity,
		Level:    severity.String(),
		Message:  message,
		Line:     line,
	})
}
