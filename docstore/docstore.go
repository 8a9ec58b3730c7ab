// Package docstore is the first of the two indices: the authoritative
// record of every processed ordinance. It keeps the original and
// anonymized text of each sentence plus the entity annotations, so an
// authorized operator can audit what was redacted and why. Documents
// are write-once: re-processing a source file commits a fresh document
// under a fresh ID, never an update in place.
package docstore

import (
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/karjudev/dbgm/ner"
)

var (
	// ErrNotFound is returned when no document has the given ID.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrAlreadyExists is returned by Commit for a duplicate ID.
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Sentence is one unit of a committed document. Position is the
// zero-based index within the document.
type Sentence struct {
	Position    int              `json:"position"`
	Original    string           `json:"original"`
	Anonymized  string           `json:"anonymized"`
	Annotations []ner.Annotation `json:"annotations"`
}

// Document is a fully processed ordinance.
type Document struct {
	ID          string     `json:"id"`
	Filename    string     `json:"filename"`
	Uploader    string     `json:"uploader"`
	ContentHash string     `json:"content_hash"`
	CreatedAt   int64      `json:"created_at"` // unix millis
	Sentences   []Sentence `json:"sentences"`
}

// Summary is the listing view of a document, without sentence bodies.
type Summary struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt int64  `json:"created_at"`
	Sentences int    `json:"sentences"`
}

// Store wraps the document database. Open the *sql.DB with dbopen and
// pass it in; the schema is applied by New.
type Store struct {
	db *sql.DB
}

// New creates a Store on an already-opened database and applies the
// schema.
func New(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// HashContent returns the hex sha-512 of the extracted text. Stored
// with the document for audit; never used as an identifier.
func HashContent(text string) string {
	sum := sha512.Sum512([]byte(text))
	return hex.EncodeToString(sum[:])
}
