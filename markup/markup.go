// Package markup parses noisy HTML documents and provides the text
// normalization helpers shared by every extraction component. Parsing is
// tolerant: malformed or partial markup yields a best-effort tree rather
// than an error.
package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugRe       = regexp.MustCompile(`[^a-z0-9]+`)
)

// NormalizeWhitespace collapses all whitespace runs to single spaces and
// trims the result.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Slugify lowercases text and replaces non-alphanumeric runs with
// underscores, producing a stable identifier fragment.
func Slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// Parse builds a document tree from raw markup. The underlying tokenizer
// repairs unclosed tags and ignores garbage, so the only hard failure is
// input that cannot be read at all.
func Parse(raw string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing markup: %w", err)
	}
	return doc, nil
}

// Text returns the normalized visible text of a selection. Text nodes are
// joined with spaces so that adjacent elements do not run together, the
// way rendered HTML separates them.
func Text(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range sel.Nodes {
		collectText(n, &b)
	}
	return NormalizeWhitespace(b.String())
}

// NodeText returns the normalized visible text of a raw tree node.
func NodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	collectText(n, &b)
	return NormalizeWhitespace(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// Attr returns the value of the named attribute on the first node of the
// selection, or "" when absent.
func Attr(sel *goquery.Selection, name string) string {
	v, _ := sel.Attr(name)
	return v
}

// Classes returns the space-joined class attribute of the first node of
// the selection.
func Classes(sel *goquery.Selection) string {
	return Attr(sel, "class")
}
