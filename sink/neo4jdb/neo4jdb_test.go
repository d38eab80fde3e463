package neo4jdb

import (
	"reflect"
	"testing"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HAS_SECTION", "HAS_SECTION"},
		{"NodeType_Course", "NodeType_Course"},
		{"HAS SECTION", "HAS_SECTION"},
		{"weird-type!", "weird_type_"},
		{"3rd", "X3rd"},
		{"", "X"},
	}
	for _, tt := range tests {
		if got := sanitizeIdentifier(tt.in); got != tt.want {
			t.Errorf("sanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlattenPropertiesScalarsPassThrough(t *testing.T) {
	props := map[string]any{
		"title":   "Mathematics I",
		"credits": 4,
		"active":  true,
		"score":   0.5,
	}
	flat := flattenProperties(props)
	if !reflect.DeepEqual(flat, props) {
		t.Errorf("scalars changed: %v", flat)
	}
}

func TestFlattenPropertiesStringSlices(t *testing.T) {
	flat := flattenProperties(map[string]any{
		"bullets": []string{"a", "b"},
		"mixed":   []any{"a", "b"},
	})
	if !reflect.DeepEqual(flat["bullets"], []string{"a", "b"}) {
		t.Errorf("bullets = %v", flat["bullets"])
	}
	if !reflect.DeepEqual(flat["mixed"], []string{"a", "b"}) {
		t.Errorf("string-only []any should stay a list, got %v", flat["mixed"])
	}
}

func TestFlattenPropertiesNestedBecomesJSON(t *testing.T) {
	flat := flattenProperties(map[string]any{
		"attributes": map[string]any{
			"Description": map[string]any{"paragraphs": []string{"x"}},
		},
		"items": []any{map[string]any{"courseId": "BSMA1001"}},
	})
	if flat["attributes"] != `{"Description":{"paragraphs":["x"]}}` {
		t.Errorf("attributes = %v", flat["attributes"])
	}
	if flat["items"] != `[{"courseId":"BSMA1001"}]` {
		t.Errorf("items = %v", flat["items"])
	}
}
