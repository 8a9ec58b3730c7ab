package searchindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Publish makes an anonymized ordinance searchable. The ordinance,
// its measures and its keyword rows go in as one transaction. When a
// commit checker is installed, an ID the document store does not
// confirm fails with ErrNotCommitted before anything is written.
func (ix *Index) Publish(ctx context.Context, ord *Ordinance) error {
	if err := ord.Institution.validate(); err != nil {
		return err
	}
	if ord.PublicationDate != "" {
		normalized, err := ParseDate(ord.PublicationDate)
		if err != nil {
			return err
		}
		ord.PublicationDate = normalized
	}

	if ix.commitCheck != nil {
		committed, err := ix.commitCheck(ctx, ord.ID)
		if err != nil {
			return fmt.Errorf("commit check: %w", err)
		}
		if !committed {
			return fmt.Errorf("%w: %s", ErrNotCommitted, ord.ID)
		}
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var pubDate any
	if ord.PublicationDate != "" {
		pubDate = ord.PublicationDate
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ordinances (id, filename, uploader, institution, court, content, publication_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ord.ID, ord.Filename, ord.Uploader, string(ord.Institution), ord.Court,
		ord.Content, pubDate, ord.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, ord.ID)
		}
		return fmt.Errorf("insert ordinance: %w", err)
	}

	for _, m := range ord.Measures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO measures (ordinance_id, measure, outcome) VALUES (?, ?, ?)`,
			ord.ID, m.Measure, m.Outcome); err != nil {
			return fmt.Errorf("insert measure: %w", err)
		}
	}
	for _, kw := range ord.Keywords {
		// Stored lowercase so the keyword filter in Search always matches.
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO ordinance_keywords (ordinance_id, keyword) VALUES (?, ?)`,
			ord.ID, kw); err != nil {
			return fmt.Errorf("insert keyword: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ix.logger.Info("ordinance published", "id", ord.ID, "court", ord.Court, "keywords", len(ord.Keywords))
	return nil
}

// Get retrieves a published ordinance with measures and keywords, or
// ErrNotFound.
func (ix *Index) Get(ctx context.Context, id string) (*Ordinance, error) {
	var ord Ordinance
	var institution string
	var pubDate sql.NullString
	err := ix.db.QueryRowContext(ctx,
		`SELECT id, filename, uploader, institution, court, content, publication_date, created_at
		FROM ordinances WHERE id = ?`, id).
		Scan(&ord.ID, &ord.Filename, &ord.Uploader, &institution, &ord.Court,
			&ord.Content, &pubDate, &ord.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scan ordinance: %w", err)
	}
	ord.Institution = Institution(institution)
	ord.PublicationDate = pubDate.String

	if ord.Measures, err = ix.measuresFor(ctx, id); err != nil {
		return nil, err
	}
	if ord.Keywords, err = ix.keywordsFor(ctx, id); err != nil {
		return nil, err
	}
	return &ord, nil
}

func (ix *Index) measuresFor(ctx context.Context, id string) ([]Measure, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT measure, outcome FROM measures WHERE ordinance_id = ? ORDER BY rowid`, id)
	if err != nil {
		return nil, fmt.Errorf("query measures: %w", err)
	}
	defer rows.Close()

	var out []Measure
	for rows.Next() {
		var m Measure
		if err := rows.Scan(&m.Measure, &m.Outcome); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (ix *Index) keywordsFor(ctx context.Context, id string) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT keyword FROM ordinance_keywords WHERE ordinance_id = ? ORDER BY keyword`, id)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, err
		}
		out = append(out, kw)
	}
	return out, rows.Err()
}

// Delete removes an ordinance from the index. Measures and keywords
// cascade. Deleting an absent ID returns ErrNotFound.
func (ix *Index) Delete(ctx context.Context, id string) error {
	res, err := ix.db.ExecContext(ctx, `DELETE FROM ordinances WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ordinance: %w", err)
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

// UpdatePublicationDate sets the publication date of a published
// ordinance. The only mutation the index allows after publish.
func (ix *Index) UpdatePublicationDate(ctx context.Context, id, date string) error {
	normalized, err := ParseDate(date)
	if err != nil {
		return err
	}
	res, err := ix.db.ExecContext(ctx,
		`UPDATE ordinances SET publication_date = ? WHERE id = ?`, normalized, id)
	if err != nil {
		return fmt.Errorf("update publication date: %w", err)
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

// ListIDs returns every published ordinance ID. Used by the reconcile
// sweep.
func (ix *Index) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT id FROM ordinances ORDER BY created_at`)
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
