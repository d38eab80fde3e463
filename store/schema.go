package store

// schemaSQL is the DDL for the course cache. The cache maps a source
// document identifier to its last resolved course code and content hash,
// and keeps a record per extraction batch.
const schemaSQL = `
-- Source-to-course resolution with hash-based change detection
CREATE TABLE IF NOT EXISTS course_cache (
    source TEXT PRIMARY KEY,
    course_code TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_course_cache_code ON course_cache(course_code);

-- One row per extraction batch
CREATE TABLE IF NOT EXISTS batch_runs (
    id TEXT PRIMARY KEY,
    documents INTEGER NOT NULL,
    nodes INTEGER NOT NULL,
    edges INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
