// Package pipeline orchestrates the full processing of an uploaded
// ordinance: extract → recognize → anonymize → commit → publish.
//
// Ordering is load-bearing: the document store commit always precedes
// the search index publish, and the index itself re-checks the commit,
// so a crash between the two stages can only ever leave a committed
// but unsearchable document. The reconcile sweep finds and removes
// those leftovers.
package pipeline

import (
	"log/slog"
	"time"

	"github.com/karjudev/dbgm/anonymize"
	"github.com/karjudev/dbgm/docpipe"
	"github.com/karjudev/dbgm/docstore"
	"github.com/karjudev/dbgm/idgen"
	"github.com/karjudev/dbgm/keywords"
	"github.com/karjudev/dbgm/ner"
	"github.com/karjudev/dbgm/searchindex"
)

// Service runs the ordinance pipeline.
type Service struct {
	extractor  *docpipe.Pipeline
	recognizer ner.Recognizer
	dictionary *keywords.Dictionary
	docs       *docstore.Store
	index      *searchindex.Index

	policy    anonymize.Policy
	kwOpts    keywords.Options
	grace     time.Duration
	logger    *slog.Logger
	newID     idgen.Generator
	nowMillis func() int64
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPolicy overrides the default redaction policy (everything
// redacted).
func WithPolicy(p anonymize.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithKeywordOptions sets MinFrequency and TopK for keyword extraction.
func WithKeywordOptions(o keywords.Options) Option {
	return func(s *Service) { s.kwOpts = o }
}

// WithReconcileGrace sets how old a committed document must be before
// the sweep treats a missing publish as an orphan (default 10m).
func WithReconcileGrace(d time.Duration) Option {
	return func(s *Service) { s.grace = d }
}

// WithIDGenerator replaces the document ID generator. Tests use this
// for stable IDs.
func WithIDGenerator(g idgen.Generator) Option {
	return func(s *Service) { s.newID = g }
}

// WithClock replaces the timestamp source. Tests use this.
func WithClock(now func() int64) Option {
	return func(s *Service) { s.nowMillis = now }
}

// New creates a pipeline Service.
func New(extractor *docpipe.Pipeline, recognizer ner.Recognizer, dictionary *keywords.Dictionary,
	docs *docstore.Store, index *searchindex.Index, opts ...Option) *Service {
	s := &Service{
		extractor:  extractor,
		recognizer: recognizer,
		dictionary: dictionary,
		docs:       docs,
		index:      index,
		policy:     anonymize.DefaultPolicy(),
		grace:      10 * time.Minute,
		logger:     slog.Default(),
		newID:      idgen.Document,
		nowMillis:  func() int64 { return time.Now().UnixMilli() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
