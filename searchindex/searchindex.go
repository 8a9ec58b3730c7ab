// Package searchindex is the second of the two indices: the public,
// queryable face of the corpus. It holds only anonymized content.
// Publishing is guarded by a commit check against the document store,
// so an ordinance can never be searchable before its authoritative
// record exists.
package searchindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrNotFound is returned when no ordinance has the given ID.
	ErrNotFound = errors.New("searchindex: ordinance not found")

	// ErrAlreadyExists is returned by Publish for a duplicate ID.
	ErrAlreadyExists = errors.New("searchindex: ordinance already published")

	// ErrNotCommitted is returned by Publish when the document store has
	// no committed record for the ID.
	ErrNotCommitted = errors.New("searchindex: document not committed")

	// ErrInvalidInstitution is returned for institutions outside the
	// closed set.
	ErrInvalidInstitution = errors.New("searchindex: invalid institution")

	// ErrInvalidDate is returned for publication dates that are not
	// YYYY-MM-DD.
	ErrInvalidDate = errors.New("searchindex: invalid publication date")
)

// Institution is the kind of judicial body that delivered an ordinance.
type Institution string

const (
	InstitutionCourt  Institution = "Tribunale di Sorveglianza"
	InstitutionOffice Institution = "Ufficio di Sorveglianza"
)

func (i Institution) validate() error {
	switch i {
	case InstitutionCourt, InstitutionOffice:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidInstitution, i)
}

// Measure is one requested measure and its outcome (granted or not).
type Measure struct {
	Measure string `json:"measure"`
	Outcome bool   `json:"outcome"`
}

// Ordinance is a published, anonymized ordinance.
type Ordinance struct {
	ID              string      `json:"id"`
	Filename        string      `json:"filename"`
	Uploader        string      `json:"uploader"`
	Institution     Institution `json:"institution"`
	Court           string      `json:"court"`
	Content         string      `json:"content"`
	Measures        []Measure   `json:"measures"`
	Keywords        []string    `json:"keywords"`
	PublicationDate string      `json:"publication_date,omitempty"` // YYYY-MM-DD, optional
	CreatedAt       int64       `json:"created_at"`                 // unix millis
}

// CommitChecker reports whether a document is committed to the
// document store. Publish refuses IDs the checker does not confirm.
type CommitChecker func(ctx context.Context, id string) (bool, error)

// Index wraps the search database.
type Index struct {
	db          *sql.DB
	commitCheck CommitChecker
	logger      *slog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithCommitCheck installs the document-store gate on Publish.
func WithCommitCheck(check CommitChecker) Option {
	return func(ix *Index) { ix.commitCheck = check }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) { ix.logger = logger }
}

// New creates an Index on an already-opened database and applies the
// schema.
func New(db *sql.DB, opts ...Option) (*Index, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	ix := &Index{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// ParseDate validates a publication date in YYYY-MM-DD form.
func ParseDate(s string) (string, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format("2006-01-02"), nil
}
