// Package ner provides a transport-agnostic client for the named-entity
// recognition model that locates personally-identifying spans in
// ordinance sentences.
//
// The model itself is a black box served by a remote annotation process
// (POST /predictions returning Prodigy-style character spans). The
// client validates every span at the boundary: offsets must fall inside
// the sentence, confidence must be in [0,1], and the model's wire
// labels are mapped onto the closed EntityType set. A sentence whose
// payload fails validation is a per-sentence error, never a silently
// emptied result.
//
// Usage:
//
//	rec := ner.New(ner.Config{Endpoint: "http://localhost:8001"})
//	if err := rec.Check(ctx); err != nil { ... } // fatal at startup
//	anns, err := rec.Recognize(ctx, sentence)
package ner

import (
	"context"
	"log/slog"
	"time"
)

// Recognizer locates entity spans in a single sentence.
type Recognizer interface {
	// Recognize returns the annotations for one sentence, ordered by
	// start offset. An empty or all-whitespace sentence yields an empty
	// sequence and no error; the model is not called.
	Recognize(ctx context.Context, sentence string) ([]Annotation, error)
}

// Config configures the remote recognizer client.
type Config struct {
	// Endpoint is the base URL of the annotation service
	// (e.g. "http://localhost:8001").
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Timeout per recognition call. A timeout is reported as a
	// per-sentence error; the caller decides whether to skip. Default: 30s.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Logger for debug/error messages. Defaults to slog.Default().
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a Recognizer backed by the remote annotation service.
func New(cfg Config) *Client {
	cfg.defaults()
	return newClient(cfg)
}
