// Package reader exposes the decoding session surface: open a compressed IR
// stream, drain it into a random-access event store, then answer filter and
// range-decode queries against the buffered events.
package reader

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/source"
)

// Storage reserved before the drain loop to keep the hot decode path free of
// reallocation.
const defaultReservedEvents = 500_000

// DecodedEvent is one element of a DecodeRange result.
type DecodedEvent struct {
	Message        string
	Timestamp      int64 // epoch milliseconds
	LogLevel       int   // index into ir.LevelNames
	SequenceNumber int   // 1-based position in the stream
}

// Reader is a single-session decoding engine. Implementations are not safe
// for concurrent use; a session has exactly one logical owner.
type Reader interface {
	// NumEventsBuffered returns the number of events decoded so far.
	NumEventsBuffered() int

	// FilteredLogEventMap returns the ordered indices of events matching
	// the active level filter, or nil when no filter is active.
	FilteredLogEventMap() []int

	// FilterLogEvents recomputes the filtered view for the given allowed
	// level indices. A nil slice clears the filter.
	FilterLogEvents(levels []int)

	// Build drains the stream to completion exactly once and reports the
	// valid and invalid event counts. Subsequent calls are no-ops that
	// return the previously computed result.
	Build() (valid, invalid int, err error)

	// DecodeRange decodes events in the half-open range [begin, end) of the
	// filtered or unfiltered view. It returns nil when the range is empty,
	// out of bounds, or useFilter is set with no active filter.
	DecodeRange(begin, end int, useFilter bool) []DecodedEvent
}

// Open validates the stream's encoding and version and returns the session
// for its decode strategy. A nil logger disables diagnostics. Construction
// failures return no partial session.
func Open(data []byte, logger hclog.Logger) (Reader, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("session", uuid.NewString())

	src, err := source.New(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ir.ErrMetadataCorrupted, err)
	}

	// Encoding detection must read from position 0, and the decoder selected
	// below consumes the preamble itself, so record the post-tag position
	// and seek back once the version is known.
	if err := src.SeekFromBegin(0); err != nil {
		return nil, fmt.Errorf("%w: %v", ir.ErrMetadataCorrupted, err)
	}
	fourByte, err := ir.ReadEncodingType(src)
	if err != nil {
		return nil, err
	}
	if !fourByte {
		return nil, fmt.Errorf("%w: stream does not use the four-byte variable encoding", ir.ErrUnsupportedEncoding)
	}
	preambleStart := src.Pos()

	meta, err := ir.ReadPreamble(src)
	if err != nil {
		return nil, err
	}
	logger.Info("opened IR stream", "version", meta.Version, "compressed_bytes", len(data))

	if err := src.SeekFromBegin(preambleStart); err != nil {
		return nil, fmt.Errorf("%w: %v", ir.ErrMetadataCorrupted, err)
	}

	switch {
	case meta.IsUnstructuredVersion():
		return newUnstructuredReader(src, logger)
	case meta.IsStructuredVersion():
		return newStructuredReader(src, logger)
	default:
		return nil, fmt.Errorf("%w: unsupported stream version %q", ir.ErrUnsupportedEncoding, meta.Version)
	}
}
