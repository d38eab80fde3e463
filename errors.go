package acadgraph

import "errors"

var (
	// ErrInvalidConfig is returned for invalid configuration values,
	// notably a missing canonical level table.
	ErrInvalidConfig = errors.New("acadgraph: invalid configuration")

	// ErrUnparseableDocument is returned when a document's markup cannot
	// be read at all. Inside a batch this never escapes; it is recorded
	// in the document's placeholder metadata instead.
	ErrUnparseableDocument = errors.New("acadgraph: unparseable document")

	// ErrUnknownKind is returned for a document kind hint the engine has
	// no translator for.
	ErrUnknownKind = errors.New("acadgraph: unknown document kind")

	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = errors.New("acadgraph: engine is closed")

	// ErrEmptyBatch is returned when Extract is called with no documents.
	ErrEmptyBatch = errors.New("acadgraph: empty document batch")
)
