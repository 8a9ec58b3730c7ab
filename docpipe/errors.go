package docpipe

import "errors"

// ErrUnsupportedFormat is returned by Detect for unknown extensions.
var ErrUnsupportedFormat = errors.New("docpipe: unsupported format")

// ErrNoText is returned when extraction yields no usable text, for
// example a scanned PDF with image-only pages.
var ErrNoText = errors.New("docpipe: no text content")
