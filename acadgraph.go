// Package acadgraph turns noisy academic-program markup into a
// normalized property graph. Documents are translated independently
// into partial graphs, then consolidated by the merge engine into one
// canonical graph ready for the graph-database and vector-store sinks.
package acadgraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/brunobiangulo/acadgraph/classify"
	"github.com/brunobiangulo/acadgraph/graph"
	"github.com/brunobiangulo/acadgraph/markup"
	"github.com/brunobiangulo/acadgraph/store"
	"github.com/brunobiangulo/acadgraph/translate"
)

// Kind identifies which translator handles a document.
type Kind string

const (
	KindProgram Kind = "program"
	KindCourse  Kind = "course"
	KindGeneric Kind = "generic"
)

// DetectKind guesses a document's kind from the shape of its source
// identifier: listing pages carry the academics marker, detail pages
// live under a course directory, everything else is generic.
func DetectKind(source string) Kind {
	s := strings.ToLower(source)
	switch {
	case strings.Contains(s, "academics"):
		return KindProgram
	case strings.Contains(s, "course_pages") || strings.Contains(s, "course"):
		return KindCourse
	default:
		return KindGeneric
	}
}

// Document is one unit of input: raw markup plus where it came from.
// Kind may be left empty to auto-detect from Source.
type Document struct {
	Source string `json:"source"`
	HTML   string `json:"html"`
	Kind   Kind   `json:"kind,omitempty"`
}

// Engine is the main entry point for the extraction pipeline.
type Engine interface {
	// Translate converts a single document into a partial graph.
	Translate(ctx context.Context, doc Document) (graph.Graph, error)

	// TranslateAll translates a batch concurrently, returning partial
	// graphs in submission order. Failed documents yield placeholder
	// graphs; the batch itself never fails.
	TranslateAll(ctx context.Context, docs []Document) []graph.Graph

	// Merge consolidates partial graphs into one canonical graph.
	Merge(graphs []graph.Graph) graph.Graph

	// Extract runs the full pipeline: translate all documents, merge,
	// stamp batch metadata, and record resolved courses in the cache.
	Extract(ctx context.Context, docs []Document) (graph.Graph, error)

	// Cache returns the course cache, or nil when none is configured.
	Cache() *store.Store

	// Close releases the engine's resources.
	Close() error
}

// Option configures the engine.
type Option func(*engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *engine) { e.log = log }
}

type engine struct {
	cfg         Config
	classifier  *classify.Classifier
	translators map[Kind]translate.Translator
	cache       *store.Store
	log         *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New creates an engine from the given configuration. Configuration is
// the only fatal input: everything past this point degrades per
// document instead of failing the batch.
func New(cfg Config, opts ...Option) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	classifier := classify.New(cfg.Levels, cfg.LevelThreshold, cfg.SectionThreshold)
	e := &engine{
		cfg:        cfg,
		classifier: classifier,
		translators: map[Kind]translate.Translator{
			KindProgram: translate.NewProgramTranslator(classifier, cfg.ProgramID, cfg.ProgramName, cfg.TargetSections),
			KindCourse:  translate.NewCourseTranslator(classifier, cfg.CourseFieldLabels),
			KindGeneric: translate.NewGenericTranslator(),
		},
		log: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}

	if cfg.CachePath != "" {
		cache, err := store.New(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("opening course cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

func (e *engine) Translate(ctx context.Context, doc Document) (graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return graph.Graph{}, err
	}
	if strings.TrimSpace(doc.HTML) == "" {
		return graph.Graph{}, fmt.Errorf("%w: %s: empty input", ErrUnparseableDocument, doc.Source)
	}

	kind := doc.Kind
	if kind == "" {
		kind = DetectKind(doc.Source)
	}
	tr, ok := e.translators[kind]
	if !ok {
		return graph.Graph{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	parsed, err := markup.Parse(doc.HTML)
	if err != nil {
		return graph.Graph{}, fmt.Errorf("%w: %s: %v", ErrUnparseableDocument, doc.Source, err)
	}
	return tr.Translate(parsed, doc.Source)
}

// TranslateAll fans documents out over a bounded worker set and
// reassembles results by input position. Submission order, not arrival
// order, determines merge precedence.
func (e *engine) TranslateAll(ctx context.Context, docs []Document) []graph.Graph {
	results := make([]graph.Graph, len(docs))

	limit := e.cfg.TranslateConcurrency
	if limit <= 0 {
		limit = 8
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc Document) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			g, err := e.Translate(ctx, doc)
			if err != nil {
				e.log.Warn("document translation failed",
					"source", doc.Source, "error", err)
				g = graph.Placeholder(doc.Source, err)
			}
			results[i] = g
		}(i, doc)
	}
	wg.Wait()
	return results
}

func (e *engine) Merge(graphs []graph.Graph) graph.Graph {
	return graph.Merge(graphs, graph.MergeConfig{
		ProgramID:       e.cfg.ProgramID,
		MandatoryLevels: e.cfg.MandatoryLevels,
		PrefixRules:     e.cfg.PrefixRules,
	})
}

func (e *engine) Extract(ctx context.Context, docs []Document) (graph.Graph, error) {
	if e.isClosed() {
		return graph.Graph{}, ErrEngineClosed
	}
	if len(docs) == 0 {
		return graph.Graph{}, ErrEmptyBatch
	}

	partials := e.TranslateAll(ctx, docs)
	merged := e.Merge(partials)

	batchID := uuid.NewString()
	if merged.Meta == nil {
		merged.Meta = make(map[string]any)
	}
	merged.Meta["batchId"] = batchID
	merged.Meta["documents"] = len(docs)

	e.log.Info("batch extracted",
		"batch_id", batchID,
		"documents", len(docs),
		"nodes", len(merged.Nodes),
		"edges", len(merged.Edges))

	if e.cache != nil {
		e.recordBatch(ctx, batchID, docs, partials, merged)
	}
	return merged, nil
}

// recordBatch persists resolved course codes and the batch record. Cache
// failures are logged, never fatal: the cache is an optimization.
func (e *engine) recordBatch(ctx context.Context, batchID string, docs []Document, partials []graph.Graph, merged graph.Graph) {
	for i, g := range partials {
		code, ok := g.Meta["course_id"].(string)
		if !ok || code == "" || docs[i].Source == "" {
			continue
		}
		sum := sha256.Sum256([]byte(docs[i].HTML))
		err := e.cache.Upsert(ctx, store.Entry{
			Source:      docs[i].Source,
			CourseCode:  code,
			ContentHash: hex.EncodeToString(sum[:]),
		})
		if err != nil {
			e.log.Warn("course cache upsert failed", "source", docs[i].Source, "error", err)
		}
	}
	if err := e.cache.RecordBatch(ctx, store.Batch{
		ID:        batchID,
		Documents: len(docs),
		Nodes:     len(merged.Nodes),
		Edges:     len(merged.Edges),
	}); err != nil {
		e.log.Warn("batch record failed", "batch_id", batchID, "error", err)
	}
}

func (e *engine) Cache() *store.Store { return e.cache }

func (e *engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.cache != nil {
		return e.cache.Close()
	}
	return nil
}
