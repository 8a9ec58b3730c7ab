package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/karjudev/dbgm/anonymize"
	"github.com/karjudev/dbgm/docstore"
	"github.com/karjudev/dbgm/searchindex"
)

// Request is one upload to process.
type Request struct {
	Filename        string
	Data            []byte
	Uploader        string
	Institution     searchindex.Institution
	Court           string
	Measures        []searchindex.Measure
	PublicationDate string // YYYY-MM-DD, optional
}

// Result reports a completed pipeline run.
type Result struct {
	ID               string   `json:"id"`
	Sentences        int      `json:"sentences"`
	SkippedSentences int      `json:"skipped_sentences"`
	Keywords         []string `json:"keywords"`
}

// Process runs the whole pipeline for one upload. A fresh document ID
// is allocated per run: re-uploading the same file produces a new
// document, never an overwrite.
//
// Sentences whose recognition fails are skipped and logged; they do
// not appear in the committed document or the published content. An
// anonymization invariant violation aborts the whole document.
func (s *Service) Process(ctx context.Context, req Request) (*Result, error) {
	doc, err := s.extractor.Extract(ctx, req.Filename, req.Data)
	if err != nil {
		return nil, stageErr(StageExtract, err)
	}

	id := s.newID()
	log := s.logger.With("id", id, "filename", req.Filename)

	registry := anonymize.NewRegistry()
	var (
		sentences []docstore.Sentence
		published strings.Builder
		skipped   int
	)
	for _, sentence := range doc.Sentences {
		anns, err := s.recognizer.Recognize(ctx, sentence)
		if err != nil {
			if ctx.Err() != nil {
				return nil, stageErr(StageRecognize, ctx.Err())
			}
			log.Warn("sentence recognition failed, skipping", "error", err)
			skipped++
			continue
		}

		rewritten, annotated, err := anonymize.Sentence(sentence, anns, s.policy, registry)
		if err != nil {
			return nil, stageErr(StageAnonymize, err)
		}

		sentences = append(sentences, docstore.Sentence{
			Position:    len(sentences),
			Original:    sentence,
			Anonymized:  rewritten,
			Annotations: annotated,
		})
		if published.Len() > 0 {
			published.WriteByte('\n')
		}
		published.WriteString(rewritten)
	}
	if len(sentences) == 0 {
		return nil, stageErr(StageRecognize, ErrAllSentencesFailed)
	}

	if err := s.docs.Commit(ctx, &docstore.Document{
		ID:          id,
		Filename:    req.Filename,
		Uploader:    req.Uploader,
		ContentHash: docstore.HashContent(doc.Text),
		CreatedAt:   s.nowMillis(),
		Sentences:   sentences,
	}); err != nil {
		return nil, stageErr(StageCommit, err)
	}

	content := published.String()
	kws := s.dictionary.Extract(content, s.kwOpts)

	if err := s.index.Publish(ctx, &searchindex.Ordinance{
		ID:              id,
		Filename:        req.Filename,
		Uploader:        req.Uploader,
		Institution:     req.Institution,
		Court:           req.Court,
		Content:         content,
		Measures:        req.Measures,
		Keywords:        kws,
		PublicationDate: req.PublicationDate,
		CreatedAt:       s.nowMillis(),
	}); err != nil {
		// The commit stands; the reconcile sweep will remove it if the
		// publish is never retried.
		return nil, stageErr(StagePublish, err)
	}

	log.Info("ordinance processed",
		"sentences", len(sentences), "skipped", skipped, "keywords", len(kws))
	return &Result{
		ID:               id,
		Sentences:        len(sentences),
		SkippedSentences: skipped,
		Keywords:         kws,
	}, nil
}

// Delete removes an ordinance from both indices. Absence in one index
// is tolerated so a half-deleted document can be cleaned up by
// retrying; any other failure on either side is reported.
func (s *Service) Delete(ctx context.Context, id string) error {
	idxErr := s.index.Delete(ctx, id)
	if idxErr != nil && !errors.Is(idxErr, searchindex.ErrNotFound) {
		return idxErr
	}
	docErr := s.docs.Delete(ctx, id)
	if docErr != nil && !errors.Is(docErr, docstore.ErrNotFound) {
		return docErr
	}
	if idxErr != nil && docErr != nil {
		// Absent on both sides.
		return docErr
	}
	return nil
}
