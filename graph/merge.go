package graph

import (
	"log/slog"
	"sort"
	"strings"
)

// LevelRef names a canonical level node the merged graph must contain.
type LevelRef struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// PrefixRule maps course-code prefixes to a level name. Rules are
// evaluated in order; the first prefix match wins.
type PrefixRule struct {
	Prefixes []string `json:"prefixes" yaml:"prefixes"`
	Level    string   `json:"level" yaml:"level"`
}

// MergeConfig drives the consolidation steps that go beyond plain
// union: level synthesis and course-level inference.
type MergeConfig struct {
	// ProgramID is the root node synthesized levels attach to.
	ProgramID string
	// MandatoryLevels are synthesized when no input graph produced them.
	MandatoryLevels []LevelRef
	// PrefixRules infer a level for courses with no declared one.
	PrefixRules []PrefixRule
}

// Merge consolidates an ordered list of partial graphs into one
// canonical graph. Input order matters: later graphs overwrite earlier
// ones per property key, and edge deduplication keeps the first
// occurrence. The input graphs are not modified. Empty partial graphs
// (failed translations) contribute only their metadata.
func Merge(graphs []Graph, cfg MergeConfig) Graph {
	nodeMap := make(map[string]*Node)
	var order []string
	var edges []Edge
	meta := make(map[string]any)

	ensure := func(id, typ string, props map[string]any) *Node {
		n, ok := nodeMap[id]
		if !ok {
			n = &Node{ID: id, Type: typ, Properties: make(map[string]any, len(props))}
			nodeMap[id] = n
			order = append(order, id)
		}
		for k, v := range props {
			n.Properties[k] = v
		}
		return n
	}

	for _, g := range graphs {
		for _, n := range g.Nodes {
			ensure(n.ID, n.Type, n.Properties)
		}
		edges = append(edges, g.Edges...)
		mergeMeta(meta, g.Meta)
	}

	// Mandatory levels exist even when no document mentioned them.
	for _, lv := range cfg.MandatoryLevels {
		if _, ok := nodeMap[lv.ID]; ok {
			continue
		}
		ensure(lv.ID, NodeLevel, map[string]any{"title": strings.ToUpper(lv.Title)})
		if cfg.ProgramID != "" {
			edges = append(edges, Edge{
				Source:     cfg.ProgramID,
				Target:     lv.ID,
				Type:       EdgeHasLevel,
				Properties: map[string]any{},
			})
		}
	}

	// Level inference: every course gets a CONTAINS edge from its level
	// when a level can be determined from batch metadata or from the
	// code-prefix table.
	var levelIDs []string
	for _, id := range order {
		if nodeMap[id].Type == NodeLevel {
			levelIDs = append(levelIDs, id)
		}
	}
	for _, id := range order {
		course := nodeMap[id]
		if course.Type != NodeCourse {
			continue
		}
		code, _ := course.Properties["courseId"].(string)
		levelName := declaredLevel(graphs, code)
		if levelName == "" {
			levelName = inferLevelFromCode(code, cfg.PrefixRules)
		}
		if levelName == "" {
			continue
		}
		// Declared level strings vary in casing and suffixing ("Degree"
		// vs "Degree Level"), so matching is substring containment in
		// either direction, not equality.
		for _, lid := range levelIDs {
			title, _ := nodeMap[lid].Properties["title"].(string)
			if levelMatches(levelName, title) {
				edges = append(edges, Edge{
					Source:     lid,
					Target:     id,
					Type:       EdgeContains,
					Properties: map[string]any{"what": "course"},
				})
				break
			}
		}
	}

	// Prune course attribute blocks whose leading content duplicates a
	// block already kept under another label.
	for _, id := range order {
		n := nodeMap[id]
		if n.Type == NodeCourse {
			if pruned, changed := pruneDuplicateAttributes(n.Properties["attributes"]); changed {
				n.Properties["attributes"] = pruned
			}
		}
	}

	// First occurrence wins across the concatenated edge list, the
	// synthesized level links, and the inferred CONTAINS edges.
	seen := make(map[string]bool, len(edges))
	unique := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := e.Key()
		if !seen[k] {
			seen[k] = true
			unique = append(unique, e)
		}
	}

	dangling := 0
	for _, e := range unique {
		if nodeMap[e.Source] == nil || nodeMap[e.Target] == nil {
			dangling++
		}
	}
	if dangling > 0 {
		slog.Debug("merge: dangling edge references retained", "count", dangling)
	}

	out := Graph{
		Nodes: make([]Node, 0, len(order)),
		Edges: unique,
	}
	for _, id := range order {
		out.Nodes = append(out.Nodes, *nodeMap[id])
	}
	if len(meta) > 0 {
		out.Meta = meta
	}
	return out
}

// mergeMeta folds one partial graph's metadata into the accumulated
// batch metadata: outline summaries concatenate, per-course status
// entries accumulate under "courses", counters overwrite, and the first
// graph to define any other key wins.
func mergeMeta(meta map[string]any, gm map[string]any) {
	if len(gm) == 0 {
		return
	}

	if summary, ok := gm["outlineSummary"].([]any); ok {
		existing, _ := meta["outlineSummary"].([]any)
		meta["outlineSummary"] = append(existing, summary...)
	}

	if hasAny(gm, "level", "course_id", "status") {
		entry := map[string]any{
			"level":     gm["level"],
			"course_id": gm["course_id"],
			"status":    gm["status"],
			"error":     gm["error"],
		}
		courses, _ := meta["courses"].([]any)
		meta["courses"] = append(courses, entry)
	}

	for _, counter := range []string{"courses_parsed", "courses_successful", "courses_failed", "total_courses_found"} {
		if v, ok := gm[counter]; ok {
			meta[counter] = v
		}
	}

	for k, v := range gm {
		switch k {
		case "outlineSummary", "level", "course_id", "status", "error",
			"courses_parsed", "courses_successful", "courses_failed", "total_courses_found":
			continue
		}
		if _, ok := meta[k]; !ok {
			meta[k] = v
		}
	}
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// declaredLevel finds the level carried in batch metadata for a course,
// either directly on a course-detail graph or in an accumulated courses
// entry.
func declaredLevel(graphs []Graph, courseID string) string {
	if courseID == "" {
		return ""
	}
	for _, g := range graphs {
		if g.Meta == nil {
			continue
		}
		if g.Meta["course_id"] == courseID {
			if lvl, ok := g.Meta["level"].(string); ok && lvl != "" {
				return lvl
			}
		}
		if entries, ok := g.Meta["courses"].([]any); ok {
			for _, raw := range entries {
				entry, ok := raw.(map[string]any)
				if !ok {
					continue
				}
				if entry["course_id"] == courseID {
					if lvl, ok := entry["level"].(string); ok && lvl != "" {
						return lvl
					}
				}
			}
		}
	}
	return ""
}

func inferLevelFromCode(code string, rules []PrefixRule) string {
	if code == "" {
		return ""
	}
	for _, rule := range rules {
		for _, p := range rule.Prefixes {
			if strings.HasPrefix(code, p) {
				return rule.Level
			}
		}
	}
	return ""
}

func levelMatches(levelName, nodeTitle string) bool {
	a := strings.ToUpper(strings.TrimSpace(levelName))
	b := strings.ToUpper(strings.TrimSpace(nodeTitle))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// pruneDuplicateAttributes removes attribute blocks whose leading
// content (first paragraph, first bullet, or first field value) is
// byte-identical to a block already kept under another label. Labels are
// visited in sorted order so the pass is deterministic. The input value
// is never modified; a rebuilt map is returned when anything changes.
func pruneDuplicateAttributes(raw any) (any, bool) {
	attrs, ok := raw.(map[string]any)
	if !ok || len(attrs) == 0 {
		return raw, false
	}

	labels := make([]string, 0, len(attrs))
	for label := range attrs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	sigOwner := make(map[string]string)
	drop := make(map[string]bool)
	for _, label := range labels {
		sig := leadingContent(attrs[label])
		if sig == "" {
			continue
		}
		if owner, dup := sigOwner[sig]; dup && owner != label {
			drop[label] = true
			continue
		}
		sigOwner[sig] = label
	}
	if len(drop) == 0 {
		return raw, false
	}

	kept := make(map[string]any, len(attrs)-len(drop))
	for label, v := range attrs {
		if !drop[label] {
			kept[label] = v
		}
	}
	return kept, true
}

// leadingContent extracts the duplicate-detection signature of one
// attribute block, tolerating both freshly built values and values that
// went through a JSON round trip.
func leadingContent(raw any) string {
	block, ok := raw.(map[string]any)
	if !ok {
		return ""
	}
	if s := firstString(block["paragraphs"]); s != "" {
		return s
	}
	if s := firstString(block["bullets"]); s != "" {
		return s
	}
	switch fields := block["fields"].(type) {
	case map[string]string:
		return firstFieldValue(stringKeys(fields), func(k string) string { return fields[k] })
	case map[string]any:
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		return firstFieldValue(keys, func(k string) string {
			s, _ := fields[k].(string)
			return s
		})
	}
	return ""
}

func firstString(raw any) string {
	switch list := raw.(type) {
	case []string:
		if len(list) > 0 {
			return strings.TrimSpace(list[0])
		}
	case []any:
		if len(list) > 0 {
			if s, ok := list[0].(string); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstFieldValue(keys []string, value func(string) string) string {
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return strings.TrimSpace(value(keys[0]))
}

func stringKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
