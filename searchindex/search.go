package searchindex

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// Query describes one search over the index. All fields are optional;
// the zero Query lists the newest ordinances.
type Query struct {
	// Text is matched full-text against the anonymized content.
	Text string `json:"text"`

	// Institution filters on the exact institution kind.
	Institution string `json:"institution"`

	// Courts filters on any of the given court names.
	Courts []string `json:"courts"`

	// Measures filters on ordinances carrying any of the given measures.
	Measures []string `json:"measures"`

	// Outcome, when set, additionally requires the measure outcome.
	Outcome *bool `json:"outcome,omitempty"`

	// Keywords requires every listed keyword to be present (AND).
	Keywords []string `json:"keywords"`

	// DateFrom and DateTo bound the publication date, inclusive,
	// YYYY-MM-DD.
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Result is one search hit.
type Result struct {
	ID              string      `json:"id"`
	Highlight       string      `json:"highlight"`
	Institution     Institution `json:"institution"`
	Court           string      `json:"court"`
	Measures        []Measure   `json:"measures"`
	Keywords        []string    `json:"keywords"`
	PublicationDate string      `json:"publication_date,omitempty"`
	Rank            float64     `json:"rank"`
}

// Search runs a query. Full-text hits are ranked by bm25; without
// query text, results come newest first.
func (ix *Index) Search(ctx context.Context, q Query) ([]Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		sb   strings.Builder
		args []any
	)

	match := buildMatchQuery(q.Text)
	if match != "" {
		sb.WriteString(`SELECT o.id, snippet(ordinances_fts, 0, '<b>', '</b>', '…', 20),
			o.institution, o.court, o.publication_date, rank
			FROM ordinances_fts f
			JOIN ordinances o ON o.rowid = f.rowid
			WHERE ordinances_fts MATCH ?`)
		args = append(args, match)
	} else {
		sb.WriteString(`SELECT o.id, substr(o.content, 1, 250),
			o.institution, o.court, o.publication_date, 0.0
			FROM ordinances o
			WHERE 1=1`)
	}

	if q.Institution != "" {
		if err := Institution(q.Institution).validate(); err != nil {
			return nil, err
		}
		sb.WriteString(` AND o.institution = ?`)
		args = append(args, q.Institution)
	}
	if len(q.Courts) > 0 {
		sb.WriteString(` AND o.court IN (` + placeholders(len(q.Courts)) + `)`)
		for _, c := range q.Courts {
			args = append(args, c)
		}
	}
	if q.DateFrom != "" {
		from, err := ParseDate(q.DateFrom)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND o.publication_date >= ?`)
		args = append(args, from)
	}
	if q.DateTo != "" {
		to, err := ParseDate(q.DateTo)
		if err != nil {
			return nil, err
		}
		sb.WriteString(` AND o.publication_date <= ?`)
		args = append(args, to)
	}
	for _, kw := range q.Keywords {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM ordinance_keywords k
			WHERE k.ordinance_id = o.id AND k.keyword = ?)`)
		args = append(args, strings.ToLower(strings.TrimSpace(kw)))
	}
	if len(q.Measures) > 0 || q.Outcome != nil {
		sb.WriteString(` AND EXISTS (SELECT 1 FROM measures m WHERE m.ordinance_id = o.id`)
		if len(q.Measures) > 0 {
			sb.WriteString(` AND m.measure IN (` + placeholders(len(q.Measures)) + `)`)
			for _, m := range q.Measures {
				args = append(args, m)
			}
		}
		if q.Outcome != nil {
			sb.WriteString(` AND m.outcome = ?`)
			args = append(args, *q.Outcome)
		}
		sb.WriteString(`)`)
	}

	if match != "" {
		sb.WriteString(` ORDER BY rank`)
	} else {
		sb.WriteString(` ORDER BY o.created_at DESC`)
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, q.Offset)

	rows, err := ix.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var institution string
		var pubDate sql.NullString
		if err := rows.Scan(&r.ID, &r.Highlight, &institution, &r.Court, &pubDate, &r.Rank); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Institution = Institution(institution)
		r.PublicationDate = pubDate.String
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range results {
		if results[i].Measures, err = ix.measuresFor(ctx, results[i].ID); err != nil {
			return nil, err
		}
		if results[i].Keywords, err = ix.keywordsFor(ctx, results[i].ID); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// Stats summarizes the published corpus.
type Stats struct {
	Ordinances int `json:"ordinances"`
	Courts     int `json:"courts"`
}

// Count returns the number of published ordinances and distinct courts.
func (ix *Index) Count(ctx context.Context) (Stats, error) {
	var s Stats
	err := ix.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT court) FROM ordinances`).
		Scan(&s.Ordinances, &s.Courts)
	if err != nil {
		return Stats{}, fmt.Errorf("count: %w", err)
	}
	return s, nil
}

// ListKeywords returns every distinct keyword across published
// ordinances, sorted. Feeds the keyword filter choices of the search
// surface.
func (ix *Index) ListKeywords(ctx context.Context) ([]string, error) {
	rows, err := ix.db.QueryContext(ctx,
		`SELECT DISTINCT keyword FROM ordinance_keywords ORDER BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
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

// buildMatchQuery turns free user text into a safe FTS5 query: bare
// alphanumeric tokens, implicit AND. Operators and quotes in user
// input are stripped rather than interpreted.
func buildMatchQuery(text string) string {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, tok := range tokens {
		tokens[i] = `"` + tok + `"`
	}
	return strings.Join(tokens, " ")
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
