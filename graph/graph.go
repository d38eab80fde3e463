// Package graph holds the property-graph model shared by the translators
// and the merge engine. Nodes live in an arena keyed by id and edges hold
// id references rather than pointers, so cyclic prerequisite chains in
// pathological source data are representable without ownership concerns.
package graph

import (
	"encoding/json"
	"fmt"
)

// Node types.
const (
	NodeProgram    = "Program"
	NodeLevel      = "Level"
	NodeSection    = "Section"
	NodeCourse     = "Course"
	NodeCollection = "Collection"
	NodeDocument   = "Document"
)

// Edge types.
const (
	EdgeHasSection      = "HAS_SECTION"
	EdgeHasLevel        = "HAS_LEVEL"
	EdgeHas             = "HAS"
	EdgeContains        = "CONTAINS"
	EdgeRequires        = "REQUIRES"
	EdgeHasCourse       = "HAS_COURSE"
	EdgeHasPrerequisite = "HAS_PREREQUISITE"
	EdgeHasCorequisite  = "HAS_COREQUISITE"
	EdgeProgressTo      = "PROGRESS_TO"
)

// Node is one graph node. The serialized field names are a compatibility
// contract with the sink adapters and must not change.
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Edge is one typed, directed edge. Source and Target are node ids that
// need not exist in the same partial graph; dangling references are
// legitimate pre-merge and resolved (or logged) after merge.
type Edge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Graph is a node/edge set with free-form metadata. A partial graph is
// the output of translating one document; the canonical graph is the
// result of merging a batch.
type Graph struct {
	Nodes []Node         `json:"nodes"`
	Edges []Edge         `json:"edges"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// Key returns the identity tuple used for edge deduplication. Properties
// are canonicalized through JSON, which sorts map keys.
func (e Edge) Key() string {
	props, err := json.Marshal(e.Properties)
	if err != nil {
		props = []byte("{}")
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%s", e.Source, e.Target, e.Type, props)
}

// Builder accumulates nodes and edges for one document translation.
// Nodes are arena-allocated by id: re-registering an id merges the new
// properties into the existing node instead of replacing it.
type Builder struct {
	order []string
	nodes map[string]*Node
	edges []Edge
	meta  map[string]any
}

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*Node)}
}

// Ensure returns the node with the given id, creating it when absent and
// folding props into its property map either way.
func (b *Builder) Ensure(id, typ string, props map[string]any) *Node {
	n, ok := b.nodes[id]
	if !ok {
		n = &Node{ID: id, Type: typ, Properties: make(map[string]any, len(props))}
		b.nodes[id] = n
		b.order = append(b.order, id)
	}
	for k, v := range props {
		n.Properties[k] = v
	}
	return n
}

// Node returns the node registered under id, or nil.
func (b *Builder) Node(id string) *Node {
	return b.nodes[id]
}

// AddEdge appends an edge. Duplicates are allowed here; the merge engine
// owns deduplication.
func (b *Builder) AddEdge(source, target, typ string, props map[string]any) {
	if props == nil {
		props = map[string]any{}
	}
	b.edges = append(b.edges, Edge{Source: source, Target: target, Type: typ, Properties: props})
}

// SetMeta records a metadata entry on the resulting graph.
func (b *Builder) SetMeta(key string, value any) {
	if b.meta == nil {
		b.meta = make(map[string]any)
	}
	b.meta[key] = value
}

// Graph materializes the accumulated state with nodes in registration
// order.
func (b *Builder) Graph() Graph {
	g := Graph{
		Nodes: make([]Node, 0, len(b.order)),
		Edges: b.edges,
		Meta:  b.meta,
	}
	for _, id := range b.order {
		g.Nodes = append(g.Nodes, *b.nodes[id])
	}
	return g
}

// Placeholder builds the empty graph recorded for a document whose
// translation failed. The batch continues; the error survives only as
// metadata.
func Placeholder(source string, err error) Graph {
	meta := map[string]any{
		"source": source,
		"status": "failed",
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	return Graph{Meta: meta}
}
