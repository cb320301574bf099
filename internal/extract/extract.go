package extract

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/chapterlint/internal/scanner"
)

// Facts is the derived, read-only structural view of one chapter.
// It is always computed fresh from a ChapterDocument and never mutated.
type Facts struct {
	DetailsOpenCount  int
	DetailsCloseCount int
	CodeFenceCount    int
	DiagramCount      int
	RetrievalCount    int
	MistakeCount      int
	Headings          []Heading
	WarStoryPresent   bool // a war-story heading with a quantified impact figure
	WarStoryHeading   bool // a war-story heading, regardless of figures
}

// Heading is one extracted heading with its position in the source file.
type Heading struct {
	Text  string
	Line  int // 1-based, relative to the raw file including frontmatter
	Depth int // number of leading '#'
}

var (
	retrievalRe = regexp.MustCompile(`(?i)\b(quick recall|knowledge check|cumulative review)\b`)
	mistakeRe   = regexp.MustCompile(`(?i)^\W*mistake\b`)
	warStoryRe  = regexp.MustCompile(`(?i)\bwar story\b`)

	// Impact figures: currency ("$2.3 million", "$40K") or large counts
	// ("50,000 users", "2M requests", "3 million").
	currencyRe = regexp.MustCompile(`\$\s?\d`)
	bigNumRe   = regexp.MustCompile(`(?i)\b\d[\d,.]*\s*(k|m|b|thousand|million|billion|users?)\b`)
)

// Derive computes Facts for a document. Pure and deterministic: the same
// document bytes always yield identical facts. Empty input yields the zero
// Facts value, never an error.
func Derive(doc *scanner.ChapterDocument) Facts {
	var f Facts
	if len(doc.Raw) == 0 {
		return f
	}

	// Literal scans run over the body only: a YAML value inside the
	// frontmatter block must never register as a tag or a fence.
	body := string(doc.Body)

	// Paired collapsible tags. "<details" does not match "</details", so
	// two literal counts give open vs close directly. Equality of the two
	// counts is the invariant; no positional pairing is attempted.
	f.DetailsOpenCount = strings.Count(body, "<details")
	f.DetailsCloseCount = strings.Count(body, "</details")

	// Code fences are counted literally, line by line. A Markdown parser
	// would auto-close a dangling fence and hide the imbalance; an odd
	// count here must surface as its own violation.
	for _, line := range doc.BodyLines() {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			f.CodeFenceCount++
		}
	}

	f.Headings = extractHeadings(doc)
	for _, h := range f.Headings {
		if retrievalRe.MatchString(h.Text) {
			f.RetrievalCount++
		}
		if mistakeRe.MatchString(h.Text) {
			f.MistakeCount++
		}
	}

	f.DiagramCount = countDiagrams(doc.Body)
	f.WarStoryHeading, f.WarStoryPresent = detectWarStory(doc, f.Headings)

	return f
}

// extractHeadings walks the goldmark AST of the body so that '#' lines
// inside code fences are not mistaken for headings. Byte offsets from the
// AST are shifted by BodyStart to produce line numbers in the raw file.
func extractHeadings(doc *scanner.ChapterDocument) []Heading {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(doc.Body))

	var headings []Heading
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		line := 1
		if h.Lines().Len() > 0 {
			line = doc.LineAt(doc.BodyStart + h.Lines().At(0).Start)
		}
		headings = append(headings, Heading{
			Text:  string(h.Text(doc.Body)),
			Line:  line,
			Depth: h.Level,
		})
	}
	return headings
}

// countDiagrams counts fenced code blocks whose info string is "mermaid".
func countDiagrams(body []byte) int {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	count := 0
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fc, ok := n.(*ast.FencedCodeBlock); ok {
			if string(fc.Language(body)) == "mermaid" {
				count++
			}
		}
		return ast.WalkContinue, nil
	})
	return count
}

// detectWarStory looks for a heading containing "War Story" and scans its
// section body — up to the next heading of the same or higher level — for a
// quantified impact figure.
func detectWarStory(doc *scanner.ChapterDocument, headings []Heading) (headingFound, impactFound bool) {
	lines := doc.Lines()

	for i, h := range headings {
		if !warStoryRe.MatchString(h.Text) {
			continue
		}
		headingFound = true

		endLine := len(lines)
		for _, next := range headings[i+1:] {
			if next.Depth <= h.Depth {
				endLine = next.Line - 1
				break
			}
		}

		start := h.Line // first line after the heading, 0-based index == h.Line
		if start > len(lines) {
			start = len(lines)
		}
		if endLine > len(lines) {
			endLine = len(lines)
		}
		section := strings.Join(lines[start:endLine], "\n")
		if currencyRe.MatchString(section) || bigNumRe.MatchString(section) {
			return true, true
		}
	}
	return headingFound, false
}
