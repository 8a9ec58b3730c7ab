package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step a failure belongs to. The HTTP layer
// maps stages onto status codes.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageRecognize Stage = "recognize"
	StageAnonymize Stage = "anonymize"
	StageCommit    Stage = "commit"
	StagePublish   Stage = "publish"
)

// StageError wraps a failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// StageOf extracts the failing stage from a pipeline error, or "".
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// ErrAllSentencesFailed is returned when no sentence of a document
// could be annotated. A document with zero usable sentences must not
// be committed.
var ErrAllSentencesFailed = errors.New("pipeline: recognition failed for every sentence")
