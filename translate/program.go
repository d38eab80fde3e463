package translate

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunobiangulo/acadgraph/classify"
	"github.com/brunobiangulo/acadgraph/courseid"
	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/markup"
	"github.com/brunobiangulo/acadgraph/outline"
)

// ProgramTranslator converts a program-listing page into a partial graph:
// a Program root, the outline as Section nodes, fuzzy-located target
// sections with their extracted content, and per-level course link
// collections.
type ProgramTranslator struct {
	classifier  *classify.Classifier
	programID   string
	programName string
	targets     []string
}

func NewProgramTranslator(c *classify.Classifier, programID, programName string, targets []string) *ProgramTranslator {
	return &ProgramTranslator{
		classifier:  c,
		programID:   programID,
		programName: programName,
		targets:     targets,
	}
}

type courseLink struct {
	levelID string
	item    map[string]any
}

func (t *ProgramTranslator) Translate(doc *goquery.Document, source string) (graph.Graph, error) {
	b := graph.NewBuilder()
	b.Ensure(t.programID, graph.NodeProgram, map[string]any{"name": t.programName})
	if source != "" {
		b.SetMeta("source", source)
	}

	roots := outline.Build(doc)
	t.registerOutline(b, roots)
	attachTables(b, doc, roots)
	b.SetMeta("outlineSummary", outlineSummary(roots))

	headings := collectHeadings(doc)
	texts := headingTexts(headings)

	// A heading's level context is the level in effect BEFORE the heading
	// itself is classified, so that a "Foundation Level" heading's own
	// section does not hang off the level it introduces.
	contexts := make([]string, len(headings))
	current := ""
	for i, text := range texts {
		contexts[i] = current
		if id, ok := t.classifier.Level(text); ok {
			current = id
		}
	}

	matched := t.classifier.LocateSections(texts, t.targets)
	for _, label := range t.targets {
		idx, ok := matched[label]
		if !ok {
			continue
		}
		// Headings that name a level are Level nodes, never Sections,
		// even when the target list mentions them.
		if _, isLevel := t.classifier.Level(texts[idx]); isLevel {
			continue
		}
		content := sectionContent(doc, headings[idx])
		secID := "section:" + markup.Slugify(label)
		b.Ensure(secID, graph.NodeSection, map[string]any{
			"title":      label,
			"bullets":    extractBullets(content),
			"paragraphs": extractParagraphs(content),
			"fields":     parseLabeledFields(content),
		})
		parent := contexts[idx]
		if parent == "" {
			parent = t.programID
		}
		b.AddEdge(parent, secID, graph.EdgeHasSection, nil)
	}

	t.collectCourseLinks(b, doc)
	return b.Graph(), nil
}

// registerOutline records the outline forest, representing any heading
// that classifies to a known level as a Level node instead of a
// Section. Levels attach to the program root regardless of nesting
// depth; their child sections hang off the level.
func (t *ProgramTranslator) registerOutline(b *graph.Builder, roots []*outline.Section) {
	var register func(s *outline.Section, parentID string, depth int)
	register = func(s *outline.Section, parentID string, depth int) {
		var id string
		if levelID, ok := t.classifier.Level(s.Title); ok {
			b.Ensure(levelID, graph.NodeLevel, map[string]any{
				"title": strings.ToUpper(levelTitleSuffix(levelID)),
			})
			b.AddEdge(t.programID, levelID, graph.EdgeHasLevel, nil)
			id = levelID
		} else {
			id = registerSection(b, parentID, s, depth)
		}
		for _, c := range s.Children {
			register(c, id, depth+1)
		}
	}
	for _, r := range roots {
		register(r, t.programID, 0)
	}
}

// collectCourseLinks walks the document linearly, tracking which level
// heading was seen last, and groups every course-like link under that
// level. This is independent of outline nesting on purpose: the visual
// level a link sits under and the heading tree do not always coincide.
func (t *ProgramTranslator) collectCourseLinks(b *graph.Builder, doc *goquery.Document) {
	byLevel := make(map[string][]any)
	var levelOrder []string
	current := ""

	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		if _, ok := outline.HeadingLevel(sel); ok {
			if id, ok := t.classifier.Level(markup.Text(sel)); ok {
				current = id
			}
			return
		}
		if goquery.NodeName(sel) != "a" {
			return
		}
		href, hasHref := sel.Attr("href")
		if !hasHref {
			return
		}
		label := markup.Text(sel)
		cid, ok := courseid.FromText(label)
		if !ok {
			cid, ok = courseid.FromHref(href)
		}
		if !ok {
			return
		}
		key := current
		if _, seen := byLevel[key]; !seen {
			levelOrder = append(levelOrder, key)
		}
		byLevel[key] = append(byLevel[key], map[string]any{
			"courseId": cid,
			"label":    label,
			"href":     href,
		})
	})

	for _, levelID := range levelOrder {
		items := byLevel[levelID]
		if levelID == "" {
			listID := "list:courses"
			b.Ensure(listID, graph.NodeCollection, map[string]any{
				"title": "Courses",
				"items": items,
			})
			b.AddEdge(t.programID, listID, graph.EdgeHas, map[string]any{"what": "courses"})
			continue
		}
		title := strings.ToUpper(levelTitleSuffix(levelID))
		b.Ensure(levelID, graph.NodeLevel, map[string]any{"title": title})
		b.AddEdge(t.programID, levelID, graph.EdgeHasLevel, nil)

		listID := "list:courses:" + levelID
		b.Ensure(listID, graph.NodeCollection, map[string]any{
			"title": "Courses - " + title,
			"items": items,
		})
		b.AddEdge(levelID, listID, graph.EdgeHas, map[string]any{"what": "courses"})
	}
}

func levelTitleSuffix(levelID string) string {
	if i := strings.IndexByte(levelID, ':'); i >= 0 {
		return levelID[i+1:]
	}
	return levelID
}
