package translate

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunobiangulo/acadgraph/classify"
	"github.com/brunobiangulo/acadgraph/courseid"
	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/markup"
)

// CourseTranslator converts a course-detail page into a partial graph
// holding exactly one Course node. Labeled content is folded into the
// node's attributes map; prerequisite codes become REQUIRES edges that
// may point at courses defined by other documents.
type CourseTranslator struct {
	classifier  *classify.Classifier
	fieldLabels []string
}

func NewCourseTranslator(c *classify.Classifier, fieldLabels []string) *CourseTranslator {
	return &CourseTranslator{classifier: c, fieldLabels: fieldLabels}
}

// codeFields are the labeled fields consulted for a course code when the
// title carries none, each with its own acceptance threshold. The more
// generic the label, the stricter the match must be.
var codeFields = []struct {
	label     string
	threshold int
}{
	{"Code", 80},
	{"Course Code", 75},
	{"ID", 70},
}

var briefSplitRe = regexp.MustCompile(`Course [A-Z][a-z]+:|Credits:|Type:|Pre-requisites:`)

// metaContainerSelectors lists the metadata wrappers some course
// templates use instead of a briefDetails strip.
var metaContainerSelectors = []string{
	"div.course-info",
	"div.course-meta",
	"div.course-details",
	"div.course-header",
	"div.course-summary",
	"div.course-overview",
	"section.course-info",
	"section.course-meta",
	"section.course-details",
}

func (t *CourseTranslator) Translate(doc *goquery.Document, source string) (graph.Graph, error) {
	title := markup.Text(doc.Find("h1, .course-title").First())
	if title == "" {
		title = markup.Text(doc.Find("title").First())
	}
	if title == "" && source != "" {
		base := filepath.Base(source)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		title = strings.ReplaceAll(base, "_", " ")
	}

	headings := collectHeadings(doc)
	texts := headingTexts(headings)

	code, ok := courseid.FromText(title)
	if !ok {
		code = t.codeFromLabeledFields(doc, headings, texts)
	}

	attrs := make(map[string]any)

	if brief := doc.Find("div.briefDetails").First(); brief.Length() > 0 {
		if fields := parseBriefDetails(markup.Text(brief)); len(fields) > 0 {
			attrs["Course Details"] = map[string]any{"fields": fields}
		}
	}

	t.metaContainerFields(doc, attrs)

	matched := t.classifier.LocateSections(texts, t.fieldLabels)
	for _, label := range t.fieldLabels {
		idx, ok := matched[label]
		if !ok {
			continue
		}
		if composite := compositeContent(sectionContent(doc, headings[idx])); len(composite) > 0 {
			attrs[label] = composite
		}
	}

	// Sub-headings not covered by the field catalog still carry content
	// worth keeping (weekly topics, instructor notes).
	doc.Find("h2, h3, h4").Each(func(_ int, h *goquery.Selection) {
		label := markup.Text(h)
		if label == "" {
			return
		}
		if _, taken := attrs[label]; taken {
			return
		}
		if composite := compositeContent(sectionContent(doc, h)); len(composite) > 0 {
			attrs[label] = composite
		}
	})

	t.mergeTableFields(doc, attrs)

	courseID := code
	if courseID == "" {
		courseID = courseid.Fallback(title)
	}

	b := graph.NewBuilder()
	nodeID := "course:" + courseID
	props := map[string]any{
		"courseId":   courseID,
		"title":      title,
		"attributes": attrs,
	}
	if source != "" {
		props["source"] = source
	}
	b.Ensure(nodeID, graph.NodeCourse, props)

	for _, code := range prerequisiteCodes(attrs) {
		b.AddEdge(nodeID, "course:"+code, graph.EdgeRequires, nil)
	}

	b.SetMeta("course_id", courseID)
	b.SetMeta("status", "success")
	if source != "" {
		b.SetMeta("source", source)
	}
	return b.Graph(), nil
}

// metaContainerFields scans the known metadata wrappers for colon
// fields, one per block element, and files each container's harvest
// under its title-cased name ("div.course-info" -> "Course Info").
func (t *CourseTranslator) metaContainerFields(doc *goquery.Document, attrs map[string]any) {
	for _, selector := range metaContainerSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		fields := make(map[string]string)
		container.Find("p, li, div, span, dt, dd, td").Each(func(_ int, el *goquery.Selection) {
			parseColonField(markup.Text(el), fields)
		})
		if len(fields) == 0 {
			continue
		}
		label := metaContainerLabel(selector)
		if _, taken := attrs[label]; taken {
			continue
		}
		attrs[label] = map[string]any{"fields": fields}
	}
}

func metaContainerLabel(selector string) string {
	name := selector[strings.IndexByte(selector, '.')+1:]
	words := strings.Split(name, "-")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// codeFromLabeledFields tries the code-bearing field labels in order of
// decreasing specificity and extracts the first identifier found in any
// matched field's label or value.
func (t *CourseTranslator) codeFromLabeledFields(doc *goquery.Document, headings []*goquery.Selection, texts []string) string {
	for _, cand := range codeFields {
		idx, ok := t.classifier.LocateSection(texts, cand.label, cand.threshold)
		if !ok {
			continue
		}
		fields := parseLabeledFields(sectionContent(doc, headings[idx]))
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if code, ok := courseid.FromText(k + " " + fields[k]); ok {
				return code
			}
		}
	}
	return ""
}

// compositeContent extracts the three sub-shapes of a section's trailing
// content, keeping only the non-empty ones.
func compositeContent(content *goquery.Selection) map[string]any {
	composite := make(map[string]any)
	if fields := parseLabeledFields(content); len(fields) > 0 {
		composite["fields"] = fields
	}
	if bullets := extractBullets(content); len(bullets) > 0 {
		composite["bullets"] = bullets
	}
	if paras := extractParagraphs(content); len(paras) > 0 {
		composite["paragraphs"] = paras
	}
	return composite
}

// parseBriefDetails splits the flattened text of a summary strip into
// label:value pairs, cutting before each recognized label so that
// "Course ID: BSCS3001 Credits: 4" yields two fields.
func parseBriefDetails(text string) map[string]string {
	fields := make(map[string]string)
	starts := briefSplitRe.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		parseColonField(text, fields)
		return fields
	}
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		parseColonField(text[loc[0]:end], fields)
	}
	return fields
}

func parseColonField(part string, fields map[string]string) {
	part = strings.TrimSpace(part)
	if strings.Count(part, ":") != 1 {
		return
	}
	key, value, _ := strings.Cut(part, ":")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if key != "" && value != "" {
		fields[key] = value
	}
}

// mergeTableFields folds every two-column table row in the document into
// attributes.Details.fields, never overwriting a field discovered by the
// fuzzy section pass.
func (t *CourseTranslator) mergeTableFields(doc *goquery.Document, attrs map[string]any) {
	tableFields := make(map[string]string)
	var order []string
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		scope := table
		if body := table.Find("tbody").First(); body.Length() > 0 {
			scope = body
		}
		scope.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("th, td")
			if cells.Length() != 2 {
				return
			}
			k := markup.Text(cells.Eq(0))
			v := markup.Text(cells.Eq(1))
			if k == "" || v == "" {
				return
			}
			if _, seen := tableFields[k]; !seen {
				tableFields[k] = v
				order = append(order, k)
			}
		})
	})
	if len(tableFields) == 0 {
		return
	}

	details, ok := attrs["Details"].(map[string]any)
	if !ok {
		details = make(map[string]any)
		attrs["Details"] = details
	}
	existing, ok := details["fields"].(map[string]string)
	if !ok {
		existing = make(map[string]string)
		details["fields"] = existing
	}
	for _, k := range order {
		if _, taken := existing[k]; !taken {
			existing[k] = tableFields[k]
		}
	}
}

// prerequisiteCodes pulls course codes from any prerequisites attribute,
// whatever sub-shape the content landed in. The result is sorted and
// deduplicated so edge emission is deterministic.
func prerequisiteCodes(attrs map[string]any) []string {
	var texts []string
	for _, label := range []string{"Prerequisites", "Pre-requisites"} {
		composite, ok := attrs[label].(map[string]any)
		if !ok {
			continue
		}
		if bullets, ok := composite["bullets"].([]string); ok {
			texts = append(texts, bullets...)
		}
		if fields, ok := composite["fields"].(map[string]string); ok {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				texts = append(texts, fields[k])
			}
		}
		if paras, ok := composite["paragraphs"].([]string); ok {
			texts = append(texts, paras...)
		}
	}

	seen := make(map[string]bool)
	var codes []string
	for _, t := range texts {
		for _, code := range courseid.AllFromText(t) {
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	sort.Strings(codes)
	return codes
}
