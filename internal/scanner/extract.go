package scanner

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/docsentry/docsentry/internal/types"
)

var (
	// inlineLinkRe matches [text](target) and [text](target "title").
	// Images ![alt](src) are matched by allowing a leading bang which is
	// stripped during classification.
	inlineLinkRe = regexp.MustCompile(`!?\[([^\]]*)\]\(([^)\s]*)(?:\s+"[^"]*")?\)`)
	// refDefRe matches reference-style definitions: [label]: target
	refDefRe = regexp.MustCompile(`^\s*\[([^\]]+)\]:\s+(\S+)`)
	// autolinkRe matches <https://example.com> style autolinks.
	autolinkRe = regexp.MustCompile(`<(https?://[^>\s]+)>`)
	// codeSpanRe matches inline code spans so links inside them are ignored.
	codeSpanRe = regexp.MustCompile("`[^`]*`")
	// headingRe matches ATX headings.
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.*?)\s*#*\s*$`)
	// htmlTagRe is a cheap pre-filter for lines that may carry raw HTML links.
	htmlTagRe = regexp.MustCompile(`<[aA][\s>]`)
)

// ExtractLinks finds outbound hyperlinks in a markdown body. lineOffset is
// added to reported line numbers so they refer to the full file.
func ExtractLinks(body string, lineOffset int) []types.LinkInfo {
	var links []types.LinkInfo

	inFence := false
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		lineNo := lineOffset + i + 1
		scrubbed := codeSpanRe.ReplaceAllString(line, "")

		for _, m := range inlineLinkRe.FindAllStringSubmatch(scrubbed, -1) {
			links = append(links, types.LinkInfo{
				Target: m[2],
				Text:   m[1],
				Kind:   ClassifyTarget(m[2]),
				Line:   lineNo,
			})
		}

		if m := refDefRe.FindStringSubmatch(scrubbed); m != nil {
			links = append(links, types.LinkInfo{
				Target: m[2],
				Kind:   ClassifyTarget(m[2]),
				Line:   lineNo,
			})
		}

		for _, m := range autolinkRe.FindAllStringSubmatch(scrubbed, -1) {
			links = append(links, types.LinkInfo{
				Target: m[1],
				Text:   m[1],
				Kind:   ClassifyTarget(m[1]),
				Line:   lineNo,
			})
		}

		if htmlTagRe.MatchString(scrubbed) {
			for _, href := range htmlHrefs(scrubbed) {
				links = append(links, types.LinkInfo{
					Target: href,
					Kind:   ClassifyTarget(href),
					Line:   lineNo,
				})
			}
		}
	}

	return links
}

// htmlHrefs extracts href attributes from raw HTML fragments embedded in a
// markdown line.
func htmlHrefs(fragment string) []string {
	var hrefs []string

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return hrefs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		token := tokenizer.Token()
		if token.Data != "a" {
			continue
		}
		for _, attr := range token.Attr {
			if attr.Key == "href" && attr.Val != "" {
				hrefs = append(hrefs, attr.Val)
			}
		}
	}
}

// ClassifyTarget determines what kind of destination a link target points at.
func ClassifyTarget(target string) types.LinkKind {
	switch {
	case target == "":
		return types.LinkInternal
	case strings.HasPrefix(target, "#"):
		return types.LinkAnchor
	case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"):
		return types.LinkExternal
	case strings.HasPrefix(target, "mailto:"):
		return types.LinkMailto
	case strings.Contains(target, "://"), strings.HasPrefix(target, "tel:"):
		return types.LinkOther
	default:
		return types.LinkInternal
	}
}

// ExtractHeadings finds ATX headings in a markdown body and derives their
// anchors. lineOffset is added to reported line numbers.
func ExtractHeadings(body string, lineOffset int) []types.HeadingInfo {
	var headings []types.HeadingInfo

	inFence := false
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		text := stripInlineMarkup(m[2])
		headings = append(headings, types.HeadingInfo{
			Level:  len(m[1]),
			Text:   text,
			Anchor: Slugify(text),
			Line:   lineOffset + i + 1,
		})
	}

	return headings
}

// stripInlineMarkup removes link targets, emphasis markers, and code ticks
// from heading text.
func stripInlineMarkup(text string) string {
	text = inlineLinkRe.ReplaceAllString(text, "$1")
	text = strings.NewReplacer("**", "", "__", "", "*", "", "_", "", "`", "").Replace(text)
	return strings.TrimSpace(text)
}

// Slugify derives the GitHub-style anchor for a heading: decomposed
// accents are stripped, letters lowercased, punctuation removed, and
// whitespace collapsed to single dashes.
func Slugify(text string) string {
	decomposed := norm.NFKD.String(text)

	var sb strings.Builder
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			// Combining marks from decomposition are dropped.
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '-':
			sb.WriteRune('-')
		}
	}

	slug := sb.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}
