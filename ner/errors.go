package ner

import "errors"

// ErrInvalidSpan is returned when the model emits a span that fails
// boundary validation (offsets, confidence, or label).
var ErrInvalidSpan = errors.New("ner: invalid span from model")

// ErrUnavailable is returned by Check when the annotation service
// cannot be reached. Fatal at startup.
var ErrUnavailable = errors.New("ner: annotation service unavailable")
