package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/karjudev/dbgm/ner"
)

// Get retrieves a full document with sentences and annotations in
// position order, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, uploader, content_hash, created_at
		FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Filename, &doc.Uploader, &doc.ContentHash, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, original, anonymized
		FROM sentences WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query sentences: %w", err)
	}
	defer rows.Close()

	byPosition := make(map[int]int)
	for rows.Next() {
		var sent Sentence
		if err := rows.Scan(&sent.Position, &sent.Original, &sent.Anonymized); err != nil {
			return nil, fmt.Errorf("scan sentence: %w", err)
		}
		byPosition[sent.Position] = len(doc.Sentences)
		doc.Sentences = append(doc.Sentences, sent)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	annRows, err := s.db.QueryContext(ctx,
		`SELECT position, span_start, span_end, entity_type, confidence, redacted
		FROM annotations WHERE document_id = ? ORDER BY position, span_start`, id)
	if err != nil {
		return nil, fmt.Errorf("query annotations: %w", err)
	}
	defer annRows.Close()

	for annRows.Next() {
		var pos int
		var a ner.Annotation
		var typ string
		if err := annRows.Scan(&pos, &a.Start, &a.End, &typ, &a.Confidence, &a.Redacted); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.Type = ner.EntityType(typ)
		if i, ok := byPosition[pos]; ok {
			doc.Sentences[i].Annotations = append(doc.Sentences[i].Annotations, a)
		}
	}
	return &doc, annRows.Err()
}

// ListByUploader returns summaries of the documents a user committed,
// newest first.
func (s *Store) ListByUploader(ctx context.Context, uploader string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.filename, d.created_at,
			(SELECT COUNT(*) FROM sentences s WHERE s.document_id = d.id)
		FROM documents d WHERE d.uploader = ?
		ORDER BY d.created_at DESC LIMIT ?`, uploader, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Filename, &sum.CreatedAt, &sum.Sentences); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ListIDs returns every committed document ID. Used by the reconcile
// sweep to cross-check the search index.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	return s.listIDs(ctx, `SELECT id FROM documents ORDER BY created_at`)
}

// ListCommittedBefore returns IDs of documents committed before the
// cutoff (unix millis). The reconcile sweep uses the cutoff as a grace
// period so in-flight pipeline runs are not swept mid-publish.
func (s *Store) ListCommittedBefore(ctx context.Context, cutoff int64) ([]string, error) {
	return s.listIDs(ctx,
		`SELECT id FROM documents WHERE created_at < ? ORDER BY created_at`, cutoff)
}

func (s *Store) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
