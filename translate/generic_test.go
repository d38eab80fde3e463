package translate

import (
	"testing"

	"github.com/brunobiangulo/acadgraph/graph"
)

func TestGenericTranslatorOutlineOnly(t *testing.T) {
	page := `<html><body>
<h1>Contact and Support</h1>
<h2>Email Support</h2>
<p>Write to support for admission queries.</p>
<h2>Office Address</h2>
<p>Chennai, India.</p>
</body></html>`

	g, err := NewGenericTranslator().Translate(mustParse(t, page), "contact.html")
	if err != nil {
		t.Fatal(err)
	}

	root := findNode(g, "doc:ROOT")
	if root == nil || root.Type != graph.NodeDocument {
		t.Fatalf("document root = %+v", root)
	}
	if !hasEdge(g, "doc:ROOT", "section:contact_and_support", graph.EdgeHasSection) {
		t.Error("root section not attached to document root")
	}
	if !hasEdge(g, "section:contact_and_support", "section:email_support", graph.EdgeHasSection) {
		t.Error("nested section not attached to parent")
	}

	for _, n := range g.Nodes {
		if n.Type != graph.NodeDocument && n.Type != graph.NodeSection {
			t.Errorf("generic translation produced a %s node", n.Type)
		}
	}
	if n := countEdges(g, graph.EdgeRequires); n != 0 {
		t.Errorf("generic translation produced REQUIRES edges")
	}
}

func TestGenericTranslatorAttachesAnchoredTables(t *testing.T) {
	page := `<html><body>
<div id="AC7" class="font-weight-600 text-dark">Exam Cities List</div>
<table><tr><td>Chennai</td><td>Open</td></tr></table>
</body></html>`

	g, err := NewGenericTranslator().Translate(mustParse(t, page), "")
	if err != nil {
		t.Fatal(err)
	}
	sec := findNode(g, "section:exam_cities_list")
	if sec == nil {
		t.Fatal("pseudo-heading section missing")
	}
	tables, ok := sec.Properties["tables"].([][][]string)
	if !ok || len(tables) != 1 {
		t.Fatalf("tables = %v", sec.Properties["tables"])
	}
	if tables[0][0][0] != "Chennai" {
		t.Errorf("table cell = %q", tables[0][0][0])
	}
}
