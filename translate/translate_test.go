package translate

import (
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/brunobiangulo/acadgraph/classify"
	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/markup"
)

func testClassifier() *classify.Classifier {
	levels := []classify.LevelDef{
		{ID: "level:foundation", Title: "Foundation", Match: []string{"Foundation Level", "Foundation"}},
		{ID: "level:diploma_programming", Title: "Diploma - Programming", Match: []string{"Diploma in Programming", "Programming Diploma"}},
		{ID: "level:diploma_ds", Title: "Diploma - Data Science", Match: []string{"Diploma in Data Science", "Data Science Diploma"}},
		{ID: "level:diploma", Title: "Diploma", Match: []string{"Diploma Level", "Diploma"}},
		{ID: "level:bsc", Title: "BSc Degree", Match: []string{"BSc Degree Level", "BSc Level", "BSc Degree"}},
		{ID: "level:bs", Title: "BS Degree", Match: []string{"BS Degree Level", "BS Level", "BS Degree"}},
		{ID: "level:degree", Title: "Degree", Match: []string{"Degree Level", "Degree"}},
	}
	return classify.New(levels, 70, 65)
}

func mustParse(t *testing.T, raw string) *goquery.Document {
	t.Helper()
	doc, err := markup.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func findNode(g graph.Graph, id string) *graph.Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

func hasEdge(g graph.Graph, source, target, typ string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.Type == typ {
			return true
		}
	}
	return false
}

func countEdges(g graph.Graph, typ string) int {
	n := 0
	for _, e := range g.Edges {
		if e.Type == typ {
			n++
		}
	}
	return n
}
