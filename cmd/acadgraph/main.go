// Command acadgraph extracts a knowledge graph from academic-program
// markup files and writes it as JSON, optionally uploading it to Neo4j
// and indexing it into a local vector store.
//
// Basic usage:
//
//	go run ./cmd/acadgraph \
//	  --config ./acadgraph.yaml \
//	  --out graph.json \
//	  pages/academics.html pages/course_pages/*.html pages/contact.html
//
// Neo4j upload:
//
//	go run ./cmd/acadgraph \
//	  --neo4j-uri bolt://localhost:7687 \
//	  --neo4j-user neo4j --neo4j-clear \
//	  pages/academics.html
//
// Vector indexing (requires a running Ollama instance):
//
//	go run ./cmd/acadgraph \
//	  --vector-db ./vectors.db --embed-model nomic-embed-text \
//	  pages/academics.html pages/course_pages/*.html
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brunobiangulo/acadgraph"
	"github.com/brunobiangulo/acadgraph/sink/neo4jdb"
	"github.com/brunobiangulo/acadgraph/sink/vectorstore"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: built-in configuration)")
		outputFile = flag.String("out", "", "Path to write the merged graph JSON (default: stdout)")
		cachePath  = flag.String("cache", "", "Path to the SQLite course cache (overrides config)")
		kindFlag   = flag.String("kind", "", "Force document kind for all inputs: program, course, generic (default: detect from path)")
		verbose    = flag.Bool("v", false, "Enable debug logging")

		neo4jURI      = flag.String("neo4j-uri", "", "Neo4j bolt URI (enables upload; e.g. bolt://localhost:7687)")
		neo4jUser     = flag.String("neo4j-user", "neo4j", "Neo4j username")
		neo4jPassword = flag.String("neo4j-password", "", "Neo4j password (default: $ACADGRAPH_NEO4J_PASSWORD)")
		neo4jDatabase = flag.String("neo4j-database", "", "Neo4j database name (default: server default)")
		neo4jClear    = flag.Bool("neo4j-clear", false, "Clear the Neo4j database before uploading")

		vectorDB   = flag.String("vector-db", "", "Path to the SQLite vector store (enables indexing)")
		vectorDim  = flag.Int("vector-dim", 768, "Embedding dimension")
		ollamaURL  = flag.String("ollama-url", "", "Ollama base URL (default: $ACADGRAPH_OLLAMA_URL or http://localhost:11434)")
		embedModel = flag.String("embed-model", "nomic-embed-text", "Ollama embedding model name")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("at least one input file is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := acadgraph.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = acadgraph.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}
	if *cachePath != "" {
		cfg.CachePath = *cachePath
	}

	var kind acadgraph.Kind
	switch strings.ToLower(*kindFlag) {
	case "":
	case "program":
		kind = acadgraph.KindProgram
	case "course":
		kind = acadgraph.KindCourse
	case "generic":
		kind = acadgraph.KindGeneric
	default:
		log.Fatalf("unknown --kind: %s (use: program, course, generic)", *kindFlag)
	}

	docs := make([]acadgraph.Document, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("reading %s: %v", path, err)
		}
		docs = append(docs, acadgraph.Document{
			Source: filepath.ToSlash(path),
			HTML:   string(data),
			Kind:   kind,
		})
	}

	engine, err := acadgraph.New(cfg, acadgraph.WithLogger(logger))
	if err != nil {
		log.Fatalf("creating engine: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	start := time.Now()

	merged, err := engine.Extract(ctx, docs)
	if err != nil {
		log.Fatalf("extracting graph: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Extracted %d nodes and %d edges from %d documents in %s\n",
		len(merged.Nodes), len(merged.Edges), len(docs), time.Since(start).Round(time.Millisecond))

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		log.Fatalf("marshaling graph: %v", err)
	}
	if *outputFile == "" {
		fmt.Println(string(out))
	} else {
		if err := os.WriteFile(*outputFile, out, 0644); err != nil {
			log.Fatalf("writing %s: %v", *outputFile, err)
		}
		fmt.Fprintf(os.Stderr, "Graph written to: %s\n", *outputFile)
	}

	if *neo4jURI != "" {
		password := *neo4jPassword
		if password == "" {
			password = os.Getenv("ACADGRAPH_NEO4J_PASSWORD")
		}
		sink, err := neo4jdb.New(ctx, neo4jdb.Config{
			URI:        *neo4jURI,
			Username:   *neo4jUser,
			Password:   password,
			Database:   *neo4jDatabase,
			ClearFirst: *neo4jClear,
		}, logger)
		if err != nil {
			log.Fatalf("connecting to Neo4j: %v", err)
		}
		defer sink.Close(ctx)

		if err := sink.Upload(ctx, merged); err != nil {
			log.Fatalf("uploading to Neo4j: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Graph uploaded to: %s\n", *neo4jURI)
	}

	if *vectorDB != "" {
		baseURL := *ollamaURL
		if baseURL == "" {
			baseURL = os.Getenv("ACADGRAPH_OLLAMA_URL")
		}
		vs, err := vectorstore.New(*vectorDB, *vectorDim)
		if err != nil {
			log.Fatalf("opening vector store: %v", err)
		}
		defer vs.Close()

		embedder := vectorstore.NewOllamaEmbedder(baseURL, *embedModel)
		indexed, err := vs.Index(ctx, merged, embedder)
		if err != nil {
			log.Fatalf("indexing graph: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Indexed %d nodes into: %s\n", indexed, *vectorDB)
	}
}
