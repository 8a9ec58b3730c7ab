package docstore

import (
	"context"
	"fmt"
	"strings"
)

// Commit writes a document with all its sentences and annotations in
// one transaction. Either the whole document becomes visible or none
// of it does; a reader can never observe a half-committed ordinance.
// Committing an ID that already exists fails with ErrAlreadyExists and
// leaves the stored document untouched.
func (s *Store) Commit(ctx context.Context, doc *Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, uploader, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Filename, doc.Uploader, doc.ContentHash, doc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, doc.ID)
		}
		return fmt.Errorf("insert document: %w", err)
	}

	for _, sent := range doc.Sentences {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sentences (document_id, position, original, anonymized)
			VALUES (?, ?, ?, ?)`,
			doc.ID, sent.Position, sent.Original, sent.Anonymized)
		if err != nil {
			return fmt.Errorf("insert sentence %d: %w", sent.Position, err)
		}
		for _, a := range sent.Annotations {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO annotations (document_id, position, span_start, span_end, entity_type, confidence, redacted)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				doc.ID, sent.Position, a.Start, a.End, string(a.Type), a.Confidence, a.Redacted)
			if err != nil {
				return fmt.Errorf("insert annotation: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Exists reports whether a document with the given ID is committed.
// The search index consults this before accepting a publish.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("document exists: %w", err)
	}
	return count > 0, nil
}

// Delete removes a document and, via cascade, its sentences and
// annotations. Deleting an absent ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// isUniqueViolation matches the modernc sqlite unique constraint error
// without depending on driver error codes.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
