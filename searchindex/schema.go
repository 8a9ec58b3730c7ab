package searchindex

// schema is the search index layout. The FTS5 table is external
// content over ordinances, kept in sync by triggers, with the same
// tokenizer the rest of the corpus uses for Italian text.
const schema = `
CREATE TABLE IF NOT EXISTS ordinances (
    id               TEXT PRIMARY KEY,
    filename         TEXT NOT NULL,
    uploader         TEXT NOT NULL DEFAULT '',
    institution      TEXT NOT NULL,
    court            TEXT NOT NULL,
    content          TEXT NOT NULL,
    publication_date TEXT,
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ordinances_uploader ON ordinances(uploader, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_ordinances_court ON ordinances(institution, court);
CREATE INDEX IF NOT EXISTS idx_ordinances_date ON ordinances(publication_date);

CREATE TABLE IF NOT EXISTS measures (
    ordinance_id TEXT NOT NULL REFERENCES ordinances(id) ON DELETE CASCADE,
    measure      TEXT NOT NULL,
    outcome      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measures_ordinance ON measures(ordinance_id);

CREATE TABLE IF NOT EXISTS ordinance_keywords (
    ordinance_id TEXT NOT NULL REFERENCES ordinances(id) ON DELETE CASCADE,
    keyword      TEXT NOT NULL,
    PRIMARY KEY (ordinance_id, keyword)
);
CREATE INDEX IF NOT EXISTS idx_keywords_keyword ON ordinance_keywords(keyword);

CREATE VIRTUAL TABLE IF NOT EXISTS ordinances_fts USING fts5(
    content, content='ordinances', content_rowid='rowid',
    tokenize='unicode61 remove_diacritics 2'
);

CREATE TRIGGER IF NOT EXISTS ordinances_ai AFTER INSERT ON ordinances BEGIN
    INSERT INTO ordinances_fts(rowid, content) VALUES (new.rowid, new.content);
END;
CREATE TRIGGER IF NOT EXISTS ordinances_ad AFTER DELETE ON ordinances BEGIN
    INSERT INTO ordinances_fts(ordinances_fts, rowid, content) VALUES('delete', old.rowid, old.content);
END;
CREATE TRIGGER IF NOT EXISTS ordinances_au AFTER UPDATE ON ordinances BEGIN
    INSERT INTO ordinances_fts(ordinances_fts, rowid, content) VALUES('delete', old.rowid, old.content);
    INSERT INTO ordinances_fts(rowid, content) VALUES (new.rowid, new.content);
END;
`
