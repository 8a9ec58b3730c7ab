package docstore

// schema is the document store layout. Sentences and annotations
// cascade on document delete so a failed pipeline run can be swept
// with a single statement.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id           TEXT PRIMARY KEY,
    filename     TEXT NOT NULL,
    uploader     TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_uploader ON documents(uploader, created_at DESC);

CREATE TABLE IF NOT EXISTS sentences (
    document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    original    TEXT NOT NULL,
    anonymized  TEXT NOT NULL,
    PRIMARY KEY (document_id, position)
);

CREATE TABLE IF NOT EXISTS annotations (
    document_id TEXT NOT NULL,
    position    INTEGER NOT NULL,
    span_start  INTEGER NOT NULL,
    span_end    INTEGER NOT NULL,
    entity_type TEXT NOT NULL,
    confidence  REAL NOT NULL,
    redacted    INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (document_id, position) REFERENCES sentences(document_id, position) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_annotations_document ON annotations(document_id, position);
`
