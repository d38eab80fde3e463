package outline

import (
	"testing"

	"github.com/brunobiangulo/acadgraph/markup"
)

func build(t *testing.T, html string) []*Section {
	t.Helper()
	doc, err := markup.Parse(html)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return Build(doc)
}

func TestHeadingLevelHeuristics(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		sel   string
		level int
		ok    bool
	}{
		{"native h3", `<h3>Assessments</h3>`, "h3", 3, true},
		{"class token", `<div class="h2 mt-4">Fee Structure</div>`, "div", 2, true},
		{"styled paragraph", `<p class="font-weight-600 text-dark">Foundation Level</p>`, "p", 2, true},
		{"styled secondary span", `<span class="font-weight-600 text-secondary">Diploma Level</span>`, "span", 2, true},
		{"anchor id scheme", `<div id="AC12">Academics</div>`, "div", 2, true},
		{"emphasis without dark marker", `<p class="font-weight-600">Not a heading</p>`, "p", 0, false},
		{"plain div", `<div>Just text</div>`, "div", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := markup.Parse(tt.html)
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			level, ok := HeadingLevel(doc.Find(tt.sel).First())
			if ok != tt.ok || level != tt.level {
				t.Errorf("HeadingLevel = (%d, %v), want (%d, %v)", level, ok, tt.level, tt.ok)
			}
		})
	}
}

func TestBuildRejectsInvalidTitles(t *testing.T) {
	roots := build(t, `
		<h2></h2>
		<h2>32 credits</h2>
		<h2>₹1,000 - 2,000</h2>
		<h2>ML</h2>
		<h2>***</h2>
		<h2>Real Section</h2>`)
	if len(roots) != 1 {
		t.Fatalf("expected 1 valid heading, got %d", len(roots))
	}
	if roots[0].Title != "Real Section" {
		t.Errorf("kept title %q, want %q", roots[0].Title, "Real Section")
	}
}

func TestBuildCollapsesDuplicateTitles(t *testing.T) {
	roots := build(t, `<h2>Overview</h2><h2>Overview</h2><h2>Details</h2>`)
	if len(roots) != 2 {
		t.Fatalf("expected duplicate collapsed to 2 roots, got %d", len(roots))
	}
}

func TestBuildNesting(t *testing.T) {
	roots := build(t, `
		<h1>Program Guide</h1>
		<h2>Foundation Level</h2>
		<h5>Mathematics Stream</h5>
		<h2>Diploma Level</h2>
		<h3>Programming Track</h3>`)

	if len(roots) != 1 {
		t.Fatalf("expected single root, got %d", len(roots))
	}
	root := roots[0]
	if root.ChildCount() != 2 {
		t.Fatalf("root children = %d, want 2", root.ChildCount())
	}
	// The jump from h2 to h5 still nests under the h2.
	foundation := root.Children[0]
	if foundation.Title != "Foundation Level" || foundation.ChildCount() != 1 {
		t.Errorf("foundation = %q with %d children, want Foundation Level with 1", foundation.Title, foundation.ChildCount())
	}
	if foundation.Children[0].Level != 5 {
		t.Errorf("nested level = %d, want 5", foundation.Children[0].Level)
	}
	// A later h2 pops back to the root.
	if root.Children[1].Title != "Diploma Level" {
		t.Errorf("second child = %q, want Diploma Level", root.Children[1].Title)
	}
}

func TestBuildParentLevelInvariant(t *testing.T) {
	roots := build(t, `
		<h3>Start Deep</h3>
		<h1>Top of Document</h1>
		<div class="h4">Styled Sub</div>
		<h2>Middle Section</h2>
		<h6>Leaf Entry</h6>`)

	var check func(s *Section)
	check = func(s *Section) {
		for _, c := range s.Children {
			if c.Level <= s.Level {
				t.Errorf("child %q level %d not greater than parent %q level %d", c.Title, c.Level, s.Title, s.Level)
			}
			check(c)
		}
	}
	for _, r := range roots {
		check(r)
	}
}

func TestBuildAnchorID(t *testing.T) {
	roots := build(t, `<div id="AC3" class="font-weight-600 text-dark">Admission Process</div>`)
	if len(roots) != 1 {
		t.Fatalf("expected 1 root, got %d", len(roots))
	}
	if roots[0].AnchorID != "AC3" {
		t.Errorf("AnchorID = %q, want AC3", roots[0].AnchorID)
	}
	if roots[0].Level != 2 {
		t.Errorf("pseudo-heading level = %d, want 2", roots[0].Level)
	}
}
