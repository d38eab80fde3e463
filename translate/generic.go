package translate

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/outline"
)

// GenericTranslator handles pages with no recognizable academic
// structure: it emits the outline as Section nodes under a Document root
// and nothing else.
type GenericTranslator struct {
	RootID    string
	RootTitle string
}

func NewGenericTranslator() *GenericTranslator {
	return &GenericTranslator{RootID: "doc:ROOT", RootTitle: "Document"}
}

func (t *GenericTranslator) Translate(doc *goquery.Document, source string) (graph.Graph, error) {
	rootID := t.RootID
	if rootID == "" {
		rootID = "doc:ROOT"
	}
	rootTitle := t.RootTitle
	if rootTitle == "" {
		rootTitle = "Document"
	}

	b := graph.NewBuilder()
	b.Ensure(rootID, graph.NodeDocument, map[string]any{"title": rootTitle})

	roots := outline.Build(doc)
	registerOutline(b, rootID, roots)
	attachTables(b, doc, roots)

	b.SetMeta("outlineSummary", outlineSummary(roots))
	if source != "" {
		b.SetMeta("source", source)
	}
	return b.Graph(), nil
}
