package translate

import (
	"strings"
	"testing"

	"github.com/brunobiangulo/acadgraph/graph"
)

var courseFieldLabels = []string{
	"Credits", "Prerequisites", "Pre-requisites", "Description", "Syllabus", "Assessment",
}

func newTestCourseTranslator() *CourseTranslator {
	return NewCourseTranslator(testClassifier(), courseFieldLabels)
}

const coursePage = `<html><head><title>Statistics I</title></head><body>
<h1>Statistics for Data Science I (bsma1002)</h1>
<div class="briefDetails">Credits: 4 Type: Core</div>
<h2>Description</h2>
<p>Descriptive statistics and probability foundations.</p>
<h2>Prerequisites</h2>
<p>BSMA1001 is required before enrolling.</p>
<h2>Syllabus</h2>
<ul><li>Week 1: Data types</li><li>Week 2: Distributions</li></ul>
<table><tbody>
<tr><td>Duration</td><td>12 weeks</td></tr>
<tr><td>Credits</td><td>4</td></tr>
</tbody></table>
</body></html>`

func TestCourseTranslatorExtractsCourse(t *testing.T) {
	g, err := newTestCourseTranslator().Translate(mustParse(t, coursePage), "course_pages/BSMA1002.html")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Nodes) != 1 {
		t.Fatalf("nodes = %d, want exactly one Course", len(g.Nodes))
	}
	c := g.Nodes[0]
	if c.ID != "course:BSMA1002" || c.Type != graph.NodeCourse {
		t.Fatalf("course node = %s/%s", c.ID, c.Type)
	}
	if c.Properties["courseId"] != "BSMA1002" {
		t.Errorf("lowercase code in title must normalize, got %v", c.Properties["courseId"])
	}
	if c.Properties["source"] != "course_pages/BSMA1002.html" {
		t.Errorf("source = %v", c.Properties["source"])
	}

	attrs := c.Properties["attributes"].(map[string]any)
	details := attrs["Course Details"].(map[string]any)["fields"].(map[string]string)
	if details["Credits"] != "4" || details["Type"] != "Core" {
		t.Errorf("brief details = %v", details)
	}
	desc := attrs["Description"].(map[string]any)
	paras := desc["paragraphs"].([]string)
	if len(paras) != 1 || !strings.HasPrefix(paras[0], "Descriptive statistics") {
		t.Errorf("description paragraphs = %v", paras)
	}
	syllabus := attrs["Syllabus"].(map[string]any)
	if bullets := syllabus["bullets"].([]string); len(bullets) != 2 {
		t.Errorf("syllabus bullets = %v", bullets)
	}
}

func TestCourseTranslatorPrerequisiteEdges(t *testing.T) {
	g, err := newTestCourseTranslator().Translate(mustParse(t, coursePage), "")
	if err != nil {
		t.Fatal(err)
	}
	if !hasEdge(g, "course:BSMA1002", "course:BSMA1001", graph.EdgeRequires) {
		t.Error("missing REQUIRES edge to prerequisite")
	}
	if n := countEdges(g, graph.EdgeRequires); n != 1 {
		t.Errorf("REQUIRES edges = %d, want 1", n)
	}
}

func TestCourseTranslatorNoPrerequisites(t *testing.T) {
	page := `<html><body>
<h1>Mathematics for Data Science I (BSMA1001)</h1>
<h2>Prerequisites</h2>
<p>None</p>
</body></html>`
	g, err := newTestCourseTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	if n := countEdges(g, graph.EdgeRequires); n != 0 {
		t.Errorf("REQUIRES edges = %d, want 0 for 'None'", n)
	}
}

func TestCourseTranslatorTableFieldsDoNotOverwrite(t *testing.T) {
	g, err := newTestCourseTranslator().Translate(mustParse(t, coursePage), "")
	if err != nil {
		t.Fatal(err)
	}
	attrs := g.Nodes[0].Properties["attributes"].(map[string]any)
	details := attrs["Details"].(map[string]any)
	fields := details["fields"].(map[string]string)
	if fields["Duration"] != "12 weeks" {
		t.Errorf("table field Duration = %q", fields["Duration"])
	}
	if fields["Credits"] != "4" {
		t.Errorf("table field Credits = %q", fields["Credits"])
	}
}

func TestCourseTranslatorMetaContainer(t *testing.T) {
	page := `<html><body>
<h1>Programming in Python (BSCS1002)</h1>
<div class="course-info">
<p>Credits: 4</p>
<p>Mode: Online</p>
<p>An introduction to programming.</p>
</div>
</body></html>`
	g, err := newTestCourseTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	attrs := g.Nodes[0].Properties["attributes"].(map[string]any)
	info, ok := attrs["Course Info"].(map[string]any)
	if !ok {
		t.Fatalf("Course Info attribute missing, attrs = %v", attrs)
	}
	fields := info["fields"].(map[string]string)
	if fields["Credits"] != "4" || fields["Mode"] != "Online" {
		t.Errorf("container fields = %v", fields)
	}
	if _, stray := fields["An introduction to programming."]; stray || len(fields) != 2 {
		t.Errorf("colonless lines leaked into fields: %v", fields)
	}
}

func TestCourseTranslatorFallbackIdentifier(t *testing.T) {
	page := `<html><body><h1>Design Thinking for Creating Impact</h1></body></html>`
	g, err := newTestCourseTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	c := g.Nodes[0]
	if !strings.HasPrefix(c.ID, "course:COURSE-") {
		t.Errorf("fallback id = %s", c.ID)
	}

	again, err := newTestCourseTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	if again.Nodes[0].ID != c.ID {
		t.Error("fallback id must be stable across runs")
	}
}

func TestCourseTranslatorTitleFallsBackToDocumentTitle(t *testing.T) {
	page := `<html><head><title>Computational Thinking (BSCS1001)</title></head><body><p>x</p></body></html>`
	g, err := newTestCourseTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	c := g.Nodes[0]
	if c.Properties["title"] != "Computational Thinking (BSCS1001)" {
		t.Errorf("title = %v", c.Properties["title"])
	}
	if c.Properties["courseId"] != "BSCS1001" {
		t.Errorf("courseId = %v", c.Properties["courseId"])
	}
}

func TestCourseTranslatorMeta(t *testing.T) {
	g, err := newTestCourseTranslator().Translate(mustParse(t, coursePage), "course_pages/BSMA1002.html")
	if err != nil {
		t.Fatal(err)
	}
	if g.Meta["course_id"] != "BSMA1002" {
		t.Errorf("meta course_id = %v", g.Meta["course_id"])
	}
	if g.Meta["status"] != "success" {
		t.Errorf("meta status = %v", g.Meta["status"])
	}
}
