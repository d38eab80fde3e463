package translate

import (
	"testing"

	"github.com/brunobiangulo/acadgraph/graph"
)

const listingPage = `<html><body>
<h1>IIT Madras Online Programs</h1>
<h2>Academic Structure</h2>
<h3>Foundation Level</h3>
<p><a href="/course_pages/BSMA1001.html">Mathematics for Data Science I (BSMA1001)</a></p>
<p><a href="/course_pages/course?id=BSCS1001">Computational Thinking</a></p>
<h2>Fee Structure</h2>
<ul><li>Foundation level fee per course</li></ul>
</body></html>`

func newTestProgramTranslator(targets []string) *ProgramTranslator {
	return NewProgramTranslator(testClassifier(), "program:IITM_BS", "IIT Madras BS Degree Program", targets)
}

func TestProgramTranslatorBuildsRootAndOutline(t *testing.T) {
	tr := newTestProgramTranslator(nil)
	g, err := tr.Translate(mustParse(t, listingPage), "academics.html")
	if err != nil {
		t.Fatal(err)
	}

	root := findNode(g, "program:IITM_BS")
	if root == nil || root.Type != graph.NodeProgram {
		t.Fatalf("program root missing: %+v", root)
	}
	if root.Properties["name"] != "IIT Madras BS Degree Program" {
		t.Errorf("program name = %v", root.Properties["name"])
	}

	sec := findNode(g, "section:academic_structure")
	if sec == nil || sec.Type != graph.NodeSection {
		t.Fatal("outline section not registered")
	}
	if !hasEdge(g, "section:iit_madras_online_programs", "section:academic_structure", graph.EdgeHasSection) {
		t.Error("outline nesting not preserved as HAS_SECTION edges")
	}
	// The Foundation Level heading classifies to a level, so it must
	// surface as a Level node rather than a Section.
	if findNode(g, "section:foundation_level") != nil {
		t.Error("level heading registered as a Section")
	}
}

func TestProgramTranslatorGroupsCourseLinksByLevel(t *testing.T) {
	tr := newTestProgramTranslator(nil)
	g, err := tr.Translate(mustParse(t, listingPage), "")
	if err != nil {
		t.Fatal(err)
	}

	lv := findNode(g, "level:foundation")
	if lv == nil || lv.Type != graph.NodeLevel {
		t.Fatal("foundation level not created from heading context")
	}
	if lv.Properties["title"] != "FOUNDATION" {
		t.Errorf("level title = %v", lv.Properties["title"])
	}
	if !hasEdge(g, "program:IITM_BS", "level:foundation", graph.EdgeHasLevel) {
		t.Error("missing program -> level edge")
	}

	list := findNode(g, "list:courses:level:foundation")
	if list == nil || list.Type != graph.NodeCollection {
		t.Fatal("course collection not created")
	}
	items, ok := list.Properties["items"].([]any)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v", list.Properties["items"])
	}
	first := items[0].(map[string]any)
	if first["courseId"] != "BSMA1001" {
		t.Errorf("text-derived course id = %v", first["courseId"])
	}
	second := items[1].(map[string]any)
	if second["courseId"] != "BSCS1001" {
		t.Errorf("href-derived course id = %v", second["courseId"])
	}
	if !hasEdge(g, "level:foundation", "list:courses:level:foundation", graph.EdgeHas) {
		t.Error("missing level -> collection edge")
	}
}

func TestProgramTranslatorLinksWithoutLevelContext(t *testing.T) {
	page := `<html><body>
<p><a href="/course_pages/BSMA1001.html">BSMA1001</a></p>
</body></html>`
	tr := newTestProgramTranslator(nil)
	g, err := tr.Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	list := findNode(g, "list:courses")
	if list == nil {
		t.Fatal("unleveled links must land in the default collection")
	}
	if !hasEdge(g, "program:IITM_BS", "list:courses", graph.EdgeHas) {
		t.Error("default collection must hang off the program root")
	}
}

func TestProgramTranslatorLocatesTargetSections(t *testing.T) {
	tr := newTestProgramTranslator([]string{"Fee Structure", "Foundation Level"})
	g, err := tr.Translate(mustParse(t, listingPage), "")
	if err != nil {
		t.Fatal(err)
	}

	// A target label that names a level never yields a Section node.
	if findNode(g, "section:foundation_level") != nil {
		t.Error("level-named target registered as a Section")
	}

	sec := findNode(g, "section:fee_structure")
	if sec == nil {
		t.Fatal("target section not located")
	}
	bullets, ok := sec.Properties["bullets"].([]string)
	if !ok || len(bullets) != 1 {
		t.Errorf("bullets = %v", sec.Properties["bullets"])
	}
	// The Fee Structure heading sits after the Foundation Level heading,
	// so its section hangs off that level context.
	if !hasEdge(g, "level:foundation", "section:fee_structure", graph.EdgeHasSection) {
		t.Error("target section not attached to its level context")
	}
}

func TestProgramTranslatorOutlineSummaryMeta(t *testing.T) {
	tr := newTestProgramTranslator(nil)
	g, err := tr.Translate(mustParse(t, listingPage), "")
	if err != nil {
		t.Fatal(err)
	}
	summary, ok := g.Meta["outlineSummary"].([]any)
	if !ok || len(summary) == 0 {
		t.Fatalf("outlineSummary = %v", g.Meta["outlineSummary"])
	}
	entry := summary[0].(map[string]any)
	if _, ok := entry["parent"]; !ok {
		t.Error("summary entry missing parent")
	}
	if _, ok := entry["children"]; !ok {
		t.Error("summary entry missing children")
	}
}
