// Package outline recovers a heading hierarchy from markup that cannot be
// trusted to use heading tags consistently. Sources mix native h1-h6
// elements, divs carrying heading class tokens, and styled paragraphs, and
// frequently skip levels; the builder absorbs all of that into an ordered
// forest of sections.
package outline

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunobiangulo/acadgraph/markup"
)

// Section is one recovered heading with its nested children. Children
// always carry a strictly greater heading level than their parent.
type Section struct {
	Title    string
	Level    int
	AnchorID string
	TagName  string
	Children []*Section
}

// ChildCount returns the number of direct children.
func (s *Section) ChildCount() int { return len(s.Children) }

// Walk visits s and every descendant in document order.
func (s *Section) Walk(fn func(*Section)) {
	fn(s)
	for _, c := range s.Children {
		c.Walk(fn)
	}
}

var (
	nativeHeadingRe = regexp.MustCompile(`^h[1-6]$`)
	headingClassRe  = regexp.MustCompile(`\bh([1-6])\b`)
	anchorSectionRe = regexp.MustCompile(`^AC\d+`)

	noLetterRe = regexp.MustCompile(`[A-Za-z]`)
	// Pure currency/number/dash/star strings are decoration, not titles.
	decorationRe = regexp.MustCompile(`^[₹$€\d\s,\-–—*]+$`)
	// Metric phrases like "32 credits", "₹1,000 - 2,000", "4 years*".
	metricRe = regexp.MustCompile(`(?i)^\s*(?:[₹$€]?[\d,]+(?:\s*[-–—]\s*[₹$€]?[\d,]+)?)(?:\s*(?:credits?|courses?|projects?|years?))?(?:\s*\*?)\s*$`)
)

// HeadingLevel reports the heading level of an element, applying the
// layered heuristic: native heading tags first, then heading class
// tokens, then styled paragraph/div/span pseudo-headings, which are
// pinned at level 2.
func HeadingLevel(sel *goquery.Selection) (int, bool) {
	name := goquery.NodeName(sel)
	if nativeHeadingRe.MatchString(name) {
		return int(name[1] - '0'), true
	}
	classes := markup.Classes(sel)
	if m := headingClassRe.FindStringSubmatch(classes); m != nil {
		return int(m[1][0] - '0'), true
	}
	if name == "p" || name == "div" || name == "span" {
		emphasized := strings.Contains(classes, "font-weight-600") &&
			(strings.Contains(classes, "text-dark") || strings.Contains(classes, "text-secondary"))
		if emphasized || anchorSectionRe.MatchString(markup.Attr(sel, "id")) {
			return 2, true
		}
	}
	return 0, false
}

// validTitle rejects heading candidates whose text cannot be a real
// section title: empty strings, strings with no letters, bare
// numeric/currency/measurement phrases, and short single tokens.
func validTitle(title string) bool {
	t := strings.TrimSpace(title)
	if t == "" {
		return false
	}
	if !noLetterRe.MatchString(t) {
		return false
	}
	if decorationRe.MatchString(t) {
		return false
	}
	if metricRe.MatchString(t) {
		return false
	}
	if len(t) < 4 && !strings.Contains(t, " ") {
		return false
	}
	return true
}

// Build scans every element of the document in order and assembles the
// section forest. Nesting uses a level-ordered stack: a new heading pops
// everything at its level or deeper, so inconsistent level jumps in the
// source still produce a forest where parents have strictly lower levels
// than their children.
func Build(doc *goquery.Document) []*Section {
	var roots []*Section
	var stack []*Section
	lastTitleByLevel := make(map[int]string)

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		level, ok := HeadingLevel(sel)
		if !ok {
			return
		}
		title := markup.Text(sel)
		if !validTitle(title) {
			return
		}
		// Repeated decorative headers at the same level collapse to the
		// first occurrence.
		if lastTitleByLevel[level] == title {
			return
		}
		lastTitleByLevel[level] = title

		node := &Section{
			Title:    title,
			Level:    level,
			AnchorID: markup.Attr(sel, "id"),
			TagName:  goquery.NodeName(sel),
		}
		for len(stack) > 0 && stack[len(stack)-1].Level >= level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, node)
		}
		stack = append(stack, node)
	})

	return roots
}
