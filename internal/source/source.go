// Package source provides a seekable, position-tracking byte source over a
// zstd-compressed in-memory buffer. Decompression is streaming: seeking
// backward resets the decoder and re-reads from the start of the frame, so
// the full decompressed stream never has to be held in memory. Backward
// seeks only ever cover the short preamble span in practice.
package source

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/zstd"
)

var ErrReleased = errors.New("source: backing buffer released")

// Source owns the compressed input buffer for the duration of one decoding
// session. Release frees the buffer once the build loop no longer needs it.
type Source struct {
	data []byte
	dec  *zstd.Decoder
	pos  int64
}

// New wraps a zstd-compressed buffer. The buffer is owned by the returned
// Source until Release is called.
func New(data []byte) (*Source, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Source{data: data, dec: dec}, nil
}

// Read yields decompressed bytes and advances the position.
func (s *Source) Read(p []byte) (int, error) {
	if s.dec == nil {
		return 0, ErrReleased
	}
	n, err := s.dec.Read(p)
	s.pos += int64(n)
	return n, err
}

// Pos returns the current position in the decompressed stream.
func (s *Source) Pos() int64 {
	return s.pos
}

// SeekFromBegin repositions the source at the given absolute offset in the
// decompressed stream. Seeking backward restarts decompression from the
// beginning of the frame and discards bytes up to the offset.
func (s *Source) SeekFromBegin(off int64) error {
	if s.dec == nil {
		return ErrReleased
	}
	if off < s.pos {
		if err := s.dec.Reset(bytes.NewReader(s.data)); err != nil {
			return err
		}
		s.pos = 0
	}
	if off > s.pos {
		n, err := io.CopyN(io.Discard, s.dec, off-s.pos)
		s.pos += n
		if err != nil {
			return err
		}
	}
	return nil
}

// Release closes the decoder and drops the compressed buffer. The source is
// unusable afterward; reads return ErrReleased.
func (s *Source) Release() {
	if s.dec != nil {
		s.dec.Close()
		s.dec = nil
	}
	s.data = nil
}
