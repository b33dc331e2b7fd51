package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsentry/docsentry/internal/errors"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/types"
)

func validDoc(path string) *types.DocumentInfo {
	return &types.DocumentInfo{
		Path:           path,
		Title:          "Build an LLM App",
		Description:    "Learn how to assemble a RAG pipeline over live data.",
		Aside:          true,
		Keywords:       []string{"LLM", "RAG"},
		HasFrontmatter: true,
		Headings: []types.HeadingInfo{
			{Level: 1, Text: "Build an LLM App", Anchor: "build-an-llm-app", Line: 1},
			{Level: 2, Text: "Setup", Anchor: "setup", Line: 10},
		},
	}
}

func ruleIDs(result Result) []string {
	ids := make([]string, 0, len(result.Problems))
	for _, p := range result.Problems {
		ids = append(ids, p.Rule)
	}
	return ids
}

func TestLintDocument_ValidPage(t *testing.T) {
	linter := New(Options{})

	result := linter.LintDocument(validDoc("a.md"), nil)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestLintDocument_MissingFrontmatter(t *testing.T) {
	linter := New(Options{})
	doc := &types.DocumentInfo{Path: "a.md"}

	result := linter.LintDocument(doc, nil)

	assert.False(t, result.Valid)
	assert.Equal(t, []string{RuleFrontmatterMissing}, ruleIDs(result))
}

func TestLintDocument_MalformedFrontmatterShortCircuits(t *testing.T) {
	linter := New(Options{})
	doc := &types.DocumentInfo{
		Path:           "a.md",
		HasFrontmatter: true,
		FrontmatterErr: "yaml: line 2: mapping values are not allowed",
	}

	result := linter.LintDocument(doc, nil)

	// The schema rules are pointless on a block that never decoded.
	assert.Equal(t, []string{RuleFrontmatterMalformed}, ruleIDs(result))
}

func TestLintDocument_MissingTitleDescriptionKeywords(t *testing.T) {
	linter := New(Options{})
	doc := &types.DocumentInfo{Path: "a.md", HasFrontmatter: true}

	result := linter.LintDocument(doc, nil)

	assert.ElementsMatch(t,
		[]string{RuleTitleRequired, RuleDescriptionRequired, RuleKeywordsRequired},
		ruleIDs(result))
	assert.False(t, result.Valid)
}

func TestLintDocument_KeywordProblems(t *testing.T) {
	linter := New(Options{})
	doc := validDoc("a.md")
	doc.Keywords = []string{"LLM", "", "llm"}

	result := linter.LintDocument(doc, nil)

	assert.ElementsMatch(t,
		[]string{RuleKeywordsEmptyEntry, RuleKeywordsDuplicate},
		ruleIDs(result))
}

func TestLintDocument_TitleAndDescriptionLength(t *testing.T) {
	linter := New(Options{MaxTitleLength: 10, MaxDescriptionLength: 20})
	doc := validDoc("a.md")
	doc.Title = "A title that is clearly too long"
	doc.Description = "A description that also exceeds the limit"

	result := linter.LintDocument(doc, nil)

	assert.ElementsMatch(t, []string{RuleTitleLength, RuleDescriptionLength}, ruleIDs(result))
	// Length problems are warnings, the page remains valid.
	assert.True(t, result.Valid)
}

func TestLintDocument_AnchorMissing(t *testing.T) {
	linter := New(Options{})
	doc := validDoc("a.md")
	doc.Links = []types.LinkInfo{
		{Target: "#setup", Kind: types.LinkAnchor, Line: 3},
		{Target: "#nowhere", Kind: types.LinkAnchor, Line: 4},
	}

	result := linter.LintDocument(doc, nil)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, RuleAnchorMissing, result.Problems[0].Rule)
	assert.Equal(t, 4, result.Problems[0].Line)
}

func TestLintDocument_InternalLinkResolution(t *testing.T) {
	reg := registry.NewDocumentRegistry()
	reg.Register(validDoc("guides/llm-app.md"))
	reg.Register(validDoc("guides/templates.md"))

	linter := New(Options{})
	doc := validDoc("guides/llm-app.md")
	doc.Links = []types.LinkInfo{
		{Target: "./templates.md", Kind: types.LinkInternal, Line: 5},
		{Target: "../guides/templates.md", Kind: types.LinkInternal, Line: 6},
		{Target: "./missing.md", Kind: types.LinkInternal, Line: 7},
		{Target: "./templates.md#setup", Kind: types.LinkInternal, Line: 8},
		{Target: "./templates.md#ghost", Kind: types.LinkInternal, Line: 9},
		{Target: "./diagram.png", Kind: types.LinkInternal, Line: 10},
	}

	result := linter.LintDocument(doc, reg)

	require.Len(t, result.Problems, 2)
	assert.Equal(t, RuleLinkRelativeMissing, result.Problems[0].Rule)
	assert.Equal(t, 7, result.Problems[0].Line)
	assert.Equal(t, RuleAnchorMissing, result.Problems[1].Rule)
	assert.Equal(t, 9, result.Problems[1].Line)
}

func TestLintDocument_RootRelativeLink(t *testing.T) {
	reg := registry.NewDocumentRegistry()
	reg.Register(validDoc("index.md"))

	linter := New(Options{})
	doc := validDoc("guides/deep/page.md")
	doc.Links = []types.LinkInfo{
		{Target: "/index.md", Kind: types.LinkInternal, Line: 2},
	}

	result := linter.LintDocument(doc, reg)

	assert.Empty(t, result.Problems)
}

func TestLintDocument_EmptyAndSpacedLinks(t *testing.T) {
	linter := New(Options{})
	doc := validDoc("a.md")
	doc.Links = []types.LinkInfo{
		{Target: "", Kind: types.LinkInternal, Line: 2},
		{Target: "https://example.com/a b", Kind: types.LinkExternal, Line: 3},
	}

	result := linter.LintDocument(doc, nil)

	assert.ElementsMatch(t, []string{RuleLinkEmpty, RuleLinkSpace}, ruleIDs(result))
}

func TestLintDocument_DuplicateHeadings(t *testing.T) {
	linter := New(Options{})
	doc := validDoc("a.md")
	doc.Headings = append(doc.Headings,
		types.HeadingInfo{Level: 2, Text: "Setup", Anchor: "setup", Line: 20})

	result := linter.LintDocument(doc, nil)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, RuleHeadingDuplicate, result.Problems[0].Rule)
	assert.Equal(t, 20, result.Problems[0].Line)
}

func TestLintDocument_DisabledRules(t *testing.T) {
	linter := New(Options{DisabledRules: []string{RuleKeywordsRequired}})
	doc := validDoc("a.md")
	doc.Keywords = nil

	result := linter.LintDocument(doc, nil)

	assert.Empty(t, result.Problems)
	assert.True(t, result.Valid)
}

func TestLintDocument_SeverityOverride(t *testing.T) {
	linter := New(Options{SeverityOverrides: map[string]string{RuleKeywordsRequired: "warning"}})
	doc := validDoc("a.md")
	doc.Keywords = nil

	result := linter.LintDocument(doc, nil)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, errors.SeverityWarning, result.Problems[0].Severity)
	assert.True(t, result.Valid)
}

func TestLintDocument_StrictPromotesWarnings(t *testing.T) {
	linter := New(Options{Strict: true})
	doc := validDoc("a.md")
	doc.Keywords = []string{"LLM", "llm"}

	result := linter.LintDocument(doc, nil)

	require.Len(t, result.Problems, 1)
	assert.Equal(t, errors.SeverityError, result.Problems[0].Severity)
	assert.False(t, result.Valid)
}

func TestLintCorpus_Summary(t *testing.T) {
	reg := registry.NewDocumentRegistry()
	reg.Register(validDoc("good.md"))
	bad := &types.DocumentInfo{Path: "bad.md", HasFrontmatter: true}
	reg.Register(bad)

	linter := New(Options{})
	summary := linter.LintCorpus(reg)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Valid)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 3, summary.Errors)
	assert.Equal(t, 0, summary.Warnings)
	// Deterministic order: sorted by path.
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "bad.md", summary.Results[0].Path)
	assert.Equal(t, "good.md", summary.Results[1].Path)
}
