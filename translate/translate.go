// Package translate converts parsed documents into partial property
// graphs. Three translators share the outline builder, the fuzzy
// classifier, and the identifier extractor, and diverge only in what they
// extract: program listings, course detail pages, and generic pages.
package translate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/markup"
	"github.com/brunobiangulo/acadgraph/outline"
)

// Translator turns one parsed document into a partial graph. Translators
// are pure over their inputs and safe for concurrent use on distinct
// documents.
type Translator interface {
	Translate(doc *goquery.Document, source string) (graph.Graph, error)
}

var nativeHeadingRe = regexp.MustCompile(`^h[1-6]$`)

// headingRank returns the native heading rank of an element name, with 7
// for anything that is not h1-h6. Pseudo-headings rank below every native
// heading for the purpose of section content collection.
func headingRank(name string) int {
	if nativeHeadingRe.MatchString(name) {
		return int(name[1] - '0')
	}
	return 7
}

// collectHeadings returns every heading-like element in document order,
// native or pseudo, without title validation. Fuzzy section location
// wants all candidates, including ones the outline builder would reject.
func collectHeadings(doc *goquery.Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := outline.HeadingLevel(sel); ok {
			out = append(out, sel)
		}
	})
	return out
}

func headingTexts(headings []*goquery.Selection) []string {
	texts := make([]string, len(headings))
	for i, h := range headings {
		texts[i] = markup.Text(h)
	}
	return texts
}

// sectionContent collects the sibling elements following a heading until
// the next native heading of equal or lower rank. Pseudo-headings do not
// terminate a section; in practice they label content inside it.
func sectionContent(doc *goquery.Document, header *goquery.Selection) *goquery.Selection {
	if header == nil || len(header.Nodes) == 0 {
		return doc.FindNodes()
	}
	rank := headingRank(goquery.NodeName(header))
	var nodes []*html.Node
	for n := header.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if n.Type != html.ElementNode {
			continue
		}
		if r := headingRank(n.Data); r <= 6 && r <= rank {
			break
		}
		nodes = append(nodes, n)
	}
	return doc.FindNodes(nodes...)
}

func extractBullets(content *goquery.Selection) []string {
	var items []string
	content.Find("li").Each(func(_ int, li *goquery.Selection) {
		if t := markup.Text(li); t != "" {
			items = append(items, t)
		}
	})
	return items
}

func extractParagraphs(content *goquery.Selection) []string {
	var paras []string
	content.Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "p" {
			if t := markup.Text(sel); t != "" {
				paras = append(paras, t)
			}
		}
		sel.Find("p").Each(func(_ int, p *goquery.Selection) {
			if t := markup.Text(p); t != "" {
				paras = append(paras, t)
			}
		})
	})
	return paras
}

// parseLabeledFields recovers label:value pairs from definition lists and
// from bold run-in labels ("<strong>Credits:</strong> 4"). Definition
// lists win on label collision.
func parseLabeledFields(content *goquery.Selection) map[string]string {
	fields := make(map[string]string)
	content.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			key := markup.Text(dt)
			dd := dt.NextAllFiltered("dd").First()
			if key != "" && dd.Length() > 0 {
				fields[key] = markup.Text(dd)
			}
		})
	})
	content.Find("strong, b").Each(func(_ int, label *goquery.Selection) {
		key := strings.TrimSpace(strings.TrimRight(markup.Text(label), ":"))
		if key == "" || len(label.Nodes) == 0 {
			return
		}
		var parts []string
		for n := label.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode && headingRank(n.Data) <= 6 {
				break
			}
			if t := markup.NodeText(n); t != "" {
				parts = append(parts, t)
			}
		}
		value := markup.NormalizeWhitespace(strings.Join(parts, " "))
		if value == "" {
			return
		}
		if _, ok := fields[key]; !ok {
			fields[key] = value
		}
	})
	return fields
}

// extractTables returns every table in the content as rows of cell text,
// skipping all-empty rows and empty tables.
func extractTables(content *goquery.Selection) [][][]string {
	var tables [][][]string
	content.Find("table").Each(func(_ int, table *goquery.Selection) {
		scope := table
		if body := table.Find("tbody").First(); body.Length() > 0 {
			scope = body
		}
		var rows [][]string
		scope.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var row []string
			any := false
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				t := markup.Text(cell)
				row = append(row, t)
				if t != "" {
					any = true
				}
			})
			if any {
				rows = append(rows, row)
			}
		})
		if len(rows) > 0 {
			tables = append(tables, rows)
		}
	})
	return tables
}

func sectionID(s *outline.Section) string {
	if slug := markup.Slugify(s.Title); slug != "" {
		return "section:" + slug
	}
	if s.AnchorID != "" {
		return "section:" + s.AnchorID
	}
	return "section:untitled"
}

// registerSection records one outline node as a Section hanging off
// parentID and returns the section's node id.
func registerSection(b *graph.Builder, parentID string, s *outline.Section, depth int) string {
	id := sectionID(s)
	props := map[string]any{
		"title":      s.Title,
		"level":      s.Level,
		"childCount": s.ChildCount(),
		"depth":      depth,
		"isParent":   s.ChildCount() > 0,
	}
	if s.AnchorID != "" {
		props["anchorId"] = s.AnchorID
	}
	b.Ensure(id, graph.NodeSection, props)
	b.AddEdge(parentID, id, graph.EdgeHasSection, map[string]any{"hierarchical": true})
	return id
}

// registerOutline records the outline forest as Section nodes wired by
// hierarchical HAS_SECTION edges, roots hanging off rootID.
func registerOutline(b *graph.Builder, rootID string, roots []*outline.Section) {
	var register func(s *outline.Section, parentID string, depth int)
	register = func(s *outline.Section, parentID string, depth int) {
		id := registerSection(b, parentID, s, depth)
		for _, c := range s.Children {
			register(c, id, depth+1)
		}
	}
	for _, r := range roots {
		register(r, rootID, 0)
	}
}

// outlineSummary packs the parent sections of the outline forest into
// metadata entries, in document order.
func outlineSummary(roots []*outline.Section) []any {
	var summary []any
	pack := func(s *outline.Section) map[string]any {
		return map[string]any{
			"title":     s.Title,
			"level":     s.Level,
			"anchorId":  s.AnchorID,
			"sectionId": sectionID(s),
		}
	}
	for _, r := range roots {
		r.Walk(func(s *outline.Section) {
			if s.ChildCount() == 0 {
				return
			}
			children := make([]any, 0, s.ChildCount())
			for _, c := range s.Children {
				children = append(children, pack(c))
			}
			summary = append(summary, map[string]any{"parent": pack(s), "children": children})
		})
	}
	return summary
}

// attachTables finds each anchored section's position in the document and
// stores any tables in its trailing content on the section node.
func attachTables(b *graph.Builder, doc *goquery.Document, roots []*outline.Section) {
	for _, r := range roots {
		r.Walk(func(s *outline.Section) {
			if s.AnchorID == "" {
				return
			}
			n := b.Node(sectionID(s))
			if n == nil {
				return
			}
			start := doc.Find(fmt.Sprintf("[id=%q]", s.AnchorID)).First()
			if start.Length() == 0 {
				return
			}
			if tables := extractTables(sectionContent(doc, start)); len(tables) > 0 {
				n.Properties["tables"] = tables
			}
		})
	}
}
