package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/karjudev/dbgm/dbopen"
	"github.com/karjudev/dbgm/docpipe"
	"github.com/karjudev/dbgm/docstore"
	"github.com/karjudev/dbgm/keywords"
	"github.com/karjudev/dbgm/ner"
	"github.com/karjudev/dbgm/searchindex"
)

// fakeRecognizer serves canned annotations per sentence and can be
// told to fail specific sentences.
type fakeRecognizer struct {
	anns map[string][]ner.Annotation
	fail map[string]bool
}

func (f *fakeRecognizer) Recognize(_ context.Context, sentence string) ([]ner.Annotation, error) {
	if f.fail[sentence] {
		return nil, errors.New("model unavailable")
	}
	return f.anns[sentence], nil
}

type testHarness struct {
	svc   *Service
	docs  *docstore.Store
	index *searchindex.Index
}

func newHarness(t *testing.T, rec ner.Recognizer, opts ...Option) *testHarness {
	t.Helper()

	docs, err := docstore.New(dbopen.OpenMemory(t))
	if err != nil {
		t.Fatalf("docstore: %v", err)
	}
	index, err := searchindex.New(dbopen.OpenMemory(t),
		searchindex.WithCommitCheck(docs.Exists))
	if err != nil {
		t.Fatalf("searchindex: %v", err)
	}

	dict := keywords.New([]string{"affidamento in prova", "reclamo"})

	seq := 0
	defaults := []Option{
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("ord_%d", seq)
		}),
		WithClock(func() int64 { return 1700000000000 }),
	}
	svc := New(docpipe.New(docpipe.Config{}), rec, dict, docs, index,
		append(defaults, opts...)...)
	return &testHarness{svc: svc, docs: docs, index: index}
}

func uploadRequest(content string) Request {
	return Request{
		Filename:    "ordinanza.txt",
		Data:        []byte(content),
		Uploader:    "operatore@tribunale.it",
		Institution: searchindex.InstitutionCourt,
		Court:       "Firenze",
		Measures:    []searchindex.Measure{{Measure: "CRT_AFF_PRO", Outcome: true}},
	}
}

func TestProcessEndToEnd(t *testing.T) {
	// WHAT: A full run commits originals to the document store and
	// publishes only anonymized content with keywords to the index.
	rec := &fakeRecognizer{anns: map[string][]ner.Annotation{
		"Mario Rossi abita a Pisa.": {
			{Start: 0, End: 11, Type: ner.EntityPerson, Confidence: 0.95},
			{Start: 20, End: 24, Type: ner.EntityLocation, Confidence: 0.9},
		},
	}}
	h := newHarness(t, rec)
	ctx := context.Background()

	res, err := h.svc.Process(ctx, uploadRequest(
		"Mario Rossi abita a Pisa.\nChiede l'affidamento in prova."))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Sentences != 2 || res.SkippedSentences != 0 {
		t.Errorf("result: %+v", res)
	}
	if len(res.Keywords) != 1 || res.Keywords[0] != "affidamento in prova" {
		t.Errorf("keywords: %q", res.Keywords)
	}

	doc, err := h.docs.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("docstore get: %v", err)
	}
	if doc.Sentences[0].Original != "Mario Rossi abita a Pisa." {
		t.Errorf("original: %q", doc.Sentences[0].Original)
	}
	if doc.Sentences[0].Anonymized != "PERSON_1 abita a LOCATION_1." {
		t.Errorf("anonymized: %q", doc.Sentences[0].Anonymized)
	}

	ord, err := h.index.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("index get: %v", err)
	}
	if strings.Contains(ord.Content, "Mario") || strings.Contains(ord.Content, "Pisa") {
		t.Errorf("published content leaks names: %q", ord.Content)
	}
	if !strings.Contains(ord.Content, "PERSON_1") {
		t.Errorf("published content: %q", ord.Content)
	}
}

func TestProcessSkipsFailedSentences(t *testing.T) {
	// WHAT: A sentence whose recognition fails is skipped entirely; it
	// reaches neither the document store nor the index.
	// WHY: An unannotated sentence may carry un-redacted names.
	rec := &fakeRecognizer{fail: map[string]bool{"Mario Rossi ricorre.": true}}
	h := newHarness(t, rec)
	ctx := context.Background()

	res, err := h.svc.Process(ctx, uploadRequest(
		"Mario Rossi ricorre.\nIl reclamo è fondato."))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if res.Sentences != 1 || res.SkippedSentences != 1 {
		t.Fatalf("result: %+v", res)
	}

	ord, err := h.index.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("index get: %v", err)
	}
	if strings.Contains(ord.Content, "Mario") {
		t.Errorf("skipped sentence was published: %q", ord.Content)
	}
}

func TestProcessAllSentencesFailed(t *testing.T) {
	// WHAT: When every sentence fails recognition, nothing is committed.
	rec := &fakeRecognizer{fail: map[string]bool{"Mario Rossi ricorre.": true}}
	h := newHarness(t, rec)
	ctx := context.Background()

	_, err := h.svc.Process(ctx, uploadRequest("Mario Rossi ricorre."))
	if !errors.Is(err, ErrAllSentencesFailed) {
		t.Fatalf("error: %v", err)
	}
	if StageOf(err) != StageRecognize {
		t.Errorf("stage: %q", StageOf(err))
	}
	if ids, _ := h.docs.ListIDs(ctx); len(ids) != 0 {
		t.Errorf("committed documents: %q", ids)
	}
}

func TestProcessAbortsOnLeak(t *testing.T) {
	// WHAT: A redacted name resurfacing unannotated in a later sentence
	// aborts the document before anything is stored.
	rec := &fakeRecognizer{anns: map[string][]ner.Annotation{
		"Mario Rossi ricorre.": {
			{Start: 0, End: 11, Type: ner.EntityPerson, Confidence: 0.95},
		},
		// Second sentence: the model misses the mention.
	}}
	h := newHarness(t, rec)
	ctx := context.Background()

	_, err := h.svc.Process(ctx, uploadRequest(
		"Mario Rossi ricorre.\nLa difesa di Mario Rossi insiste."))
	if StageOf(err) != StageAnonymize {
		t.Fatalf("error: %v (stage %q)", err, StageOf(err))
	}
	if ids, _ := h.docs.ListIDs(ctx); len(ids) != 0 {
		t.Errorf("committed documents after abort: %q", ids)
	}
}

func TestProcessAllocatesFreshIDs(t *testing.T) {
	// WHAT: Re-processing the same file yields a new document, never an
	// overwrite.
	rec := &fakeRecognizer{}
	h := newHarness(t, rec)
	ctx := context.Background()

	first, err := h.svc.Process(ctx, uploadRequest("Il reclamo è fondato."))
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := h.svc.Process(ctx, uploadRequest("Il reclamo è fondato."))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID == second.ID {
		t.Errorf("IDs collide: %s", first.ID)
	}
}

func TestReconcileSweepsOrphanedCommits(t *testing.T) {
	// WHAT: A document committed but never published is removed once it
	// is older than the grace period; fresh commits are left alone.
	rec := &fakeRecognizer{}
	h := newHarness(t, rec, WithReconcileGrace(0))
	ctx := context.Background()

	orphan := &docstore.Document{
		ID: "ord_orphan", Filename: "ordinanza.pdf",
		ContentHash: docstore.HashContent("x"),
		CreatedAt:   1600000000000,
		Sentences:   []docstore.Sentence{{Position: 0, Original: "x", Anonymized: "x"}},
	}
	if err := h.docs.Commit(ctx, orphan); err != nil {
		t.Fatalf("commit orphan: %v", err)
	}

	report, err := h.svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.OrphanedCommits) != 1 || report.OrphanedCommits[0] != "ord_orphan" {
		t.Fatalf("report: %+v", report)
	}
	if _, err := h.docs.Get(ctx, "ord_orphan"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("orphan still present: %v", err)
	}
}

func TestReconcileKeepsConsistentPairs(t *testing.T) {
	// WHAT: A properly processed document survives the sweep.
	rec := &fakeRecognizer{}
	h := newHarness(t, rec, WithReconcileGrace(0))
	ctx := context.Background()

	res, err := h.svc.Process(ctx, uploadRequest("Il reclamo è fondato."))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	report, err := h.svc.Reconcile(ctx)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(report.OrphanedCommits) != 0 || len(report.StrayPublishes) != 0 {
		t.Errorf("report: %+v", report)
	}
	if _, err := h.docs.Get(ctx, res.ID); err != nil {
		t.Errorf("document swept: %v", err)
	}
}

func TestDelete(t *testing.T) {
	// WHAT: Delete removes the ordinance from both indices.
	rec := &fakeRecognizer{}
	h := newHarness(t, rec)
	ctx := context.Background()

	res, err := h.svc.Process(ctx, uploadRequest("Il reclamo è fondato."))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := h.svc.Delete(ctx, res.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := h.docs.Get(ctx, res.ID); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("docstore: %v", err)
	}
	if _, err := h.index.Get(ctx, res.ID); !errors.Is(err, searchindex.ErrNotFound) {
		t.Errorf("index: %v", err)
	}
}

func TestDeletePropagatesStoreFailure(t *testing.T) {
	// WHAT: A delete failing on one side for any reason other than
	// absence is reported, never swallowed.
	// WHY: Reporting success while the audit record survives would leave
	// the two stores silently diverged.
	docsDB := dbopen.OpenMemory(t)
	docs, err := docstore.New(docsDB)
	if err != nil {
		t.Fatalf("docstore: %v", err)
	}
	index, err := searchindex.New(dbopen.OpenMemory(t),
		searchindex.WithCommitCheck(docs.Exists))
	if err != nil {
		t.Fatalf("searchindex: %v", err)
	}
	svc := New(docpipe.New(docpipe.Config{}), &fakeRecognizer{},
		keywords.New(nil), docs, index)
	ctx := context.Background()

	res, err := svc.Process(ctx, uploadRequest("Il reclamo è fondato."))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	docsDB.Close()
	if err := svc.Delete(ctx, res.ID); err == nil {
		t.Fatal("expected error when the document store is unreachable")
	}
}
