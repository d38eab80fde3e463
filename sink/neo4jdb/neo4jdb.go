// Package neo4jdb uploads canonical graphs into a Neo4j database using
// node-id-based upsert semantics, so re-uploading a batch converges to
// the same state the merge engine would produce.
package neo4jdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/brunobiangulo/acadgraph/graph"
)

// Config holds the Neo4j connection settings.
type Config struct {
	URI      string `json:"uri" yaml:"uri"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`

	// ClearFirst wipes the database before every upload.
	ClearFirst bool `json:"clear_first" yaml:"clear_first"`

	// Timeout bounds connection establishment (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// Sink writes graphs to Neo4j.
type Sink struct {
	driver neo4j.DriverWithContext
	cfg    Config
	log    *slog.Logger
}

// New connects to Neo4j and verifies connectivity before returning.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Sink, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4jdb: missing URI")
	}
	if cfg.Username == "" {
		cfg.Username = "neo4j"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4j.Config) {
			c.SocketConnectTimeout = timeout
		})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity: %w", err)
	}

	return &Sink{driver: driver, cfg: cfg, log: log.With("sink", "neo4j")}, nil
}

// Close releases the driver.
func (s *Sink) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// Clear removes every node and relationship from the database.
func (s *Sink) Clear(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, "MATCH ()-[r]->() DELETE r", nil); err != nil {
			return nil, err
		}
		_, err := tx.Run(ctx, "MATCH (n) DELETE n", nil)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("neo4jdb: clearing database: %w", err)
	}
	return nil
}

// Upload merges the graph into the database: nodes upsert by id, edges
// merge by endpoint pair and type. Nested property values are flattened
// to JSON strings since Neo4j stores only primitives and their arrays.
func (s *Sink) Upload(ctx context.Context, g graph.Graph) error {
	if s.cfg.ClearFirst {
		if err := s.Clear(ctx); err != nil {
			return err
		}
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: s.cfg.Database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, n := range g.Nodes {
			query := fmt.Sprintf(`
				MERGE (n:Node {id: $id})
				SET n:%s
				SET n += $props
			`, sanitizeIdentifier("NodeType_"+n.Type))
			params := map[string]any{
				"id":    n.ID,
				"props": flattenProperties(n.Properties),
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("upserting node %s: %w", n.ID, err)
			}
		}
		for _, e := range g.Edges {
			query := fmt.Sprintf(`
				MATCH (source:Node {id: $source_id})
				MATCH (target:Node {id: $target_id})
				MERGE (source)-[r:%s]->(target)
				SET r += $props
			`, sanitizeIdentifier(e.Type))
			params := map[string]any{
				"source_id": e.Source,
				"target_id": e.Target,
				"props":     flattenProperties(e.Properties),
			}
			if _, err := tx.Run(ctx, query, params); err != nil {
				return nil, fmt.Errorf("merging edge %s-[%s]->%s: %w", e.Source, e.Type, e.Target, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4jdb: uploading graph: %w", err)
	}

	s.log.Info("graph uploaded", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

var identifierRe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// sanitizeIdentifier restricts a label or relationship type to the safe
// character set, since these cannot be parameterized in Cypher.
func sanitizeIdentifier(s string) string {
	clean := identifierRe.ReplaceAllString(s, "_")
	if clean == "" || (clean[0] >= '0' && clean[0] <= '9') {
		clean = "X" + clean
	}
	return clean
}

// flattenProperties converts a property map to Neo4j-storable values:
// scalars pass through, homogeneous string slices pass through, and
// everything nested becomes a JSON string.
func flattenProperties(props map[string]any) map[string]any {
	flat := make(map[string]any, len(props))
	for k, v := range props {
		flat[k] = flattenValue(v)
	}
	return flat
}

func flattenValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return val
	case []string:
		return val
	case []any:
		strs := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return jsonString(val)
			}
			strs = append(strs, s)
		}
		return strs
	default:
		return jsonString(val)
	}
}

func jsonString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
