package ir

import "errors"

var (
	// ErrMetadataCorrupted indicates an unparsable preamble or a missing
	// required metadata field.
	ErrMetadataCorrupted = errors.New("ir: metadata corrupted")

	// ErrUnsupportedEncoding indicates a stream with the wrong variable
	// encoding width or an unrecognized format version.
	ErrUnsupportedEncoding = errors.New("ir: unsupported encoding")

	// ErrDecoding indicates a malformed record or unit payload.
	ErrDecoding = errors.New("ir: decoding error")

	// ErrIncompleteStream indicates the stream was truncated mid-record.
	// Events decoded before the truncation point remain valid.
	ErrIncompleteStream = errors.New("ir: incomplete stream")

	// ErrEndOfStream is returned when the terminal marker is reached.
	// It signals clean termination, not a failure.
	ErrEndOfStream = errors.New("ir: end of stream")
)
