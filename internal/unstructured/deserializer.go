// Package unstructured decodes the text-with-placeholders wire encoding.
// Each record carries a logtype template plus the variables its placeholders
// reference; the deserializer reconstructs the final message, derives the
// record's log level and applies the session's evolving timestamp pattern.
package unstructured

import (
	"errors"
	"fmt"
	"io"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/source"
)

// Event is one fully decoded unstructured log event. Immutable once built.
type Event struct {
	Message   string
	Timestamp int64 // epoch milliseconds
	Level     int   // index into ir.LevelNames
}

// Deserializer consumes one record at a time from a byte source positioned
// at the stream's preamble. Timestamps are delta-encoded against the
// previous record; the first delta is taken from the preamble's reference
// timestamp.
type Deserializer struct {
	src     *source.Source
	pattern *ir.TimestampPattern
	lastTS  int64
}

// NewDeserializer consumes the preamble and prepares the record loop.
func NewDeserializer(src *source.Source) (*Deserializer, error) {
	meta, err := ir.ReadPreamble(src)
	if err != nil {
		return nil, err
	}
	return &Deserializer{
		src:     src,
		pattern: ir.NewTimestampPattern(meta.TimestampPattern),
		lastTS:  meta.ReferenceTimestamp,
	}, nil
}

// Next decodes the next record. It returns ir.ErrEndOfStream at the terminal
// marker, ir.ErrIncompleteStream when the stream is truncated mid-record or
// is missing its terminal marker, and ir.ErrDecoding for a malformed record.
func (d *Deserializer) Next() (Event, error) {
	var (
		intVars   []int32
		floatVars []uint32
		dictVars  []string
		logtype   []byte
	)

	inRecord := false
	for logtype == nil {
		tag, err := ir.ReadByte(d.src)
		if err != nil {
			if !inRecord && errors.Is(err, io.EOF) {
				return Event{}, fmt.Errorf("%w: missing terminal marker", ir.ErrIncompleteStream)
			}
			return Event{}, fmt.Errorf("%w: truncated record: %v", ir.ErrIncompleteStream, err)
		}

		switch tag {
		case ir.TagEndOfStream:
			if inRecord {
				return Event{}, fmt.Errorf("%w: end-of-stream marker inside a record", ir.ErrDecoding)
			}
			return Event{}, ir.ErrEndOfStream

		case ir.TagVarInt:
			v, err := ir.ReadUint32(d.src)
			if err != nil {
				return Event{}, truncated(err)
			}
			intVars = append(intVars, int32(v))

		case ir.TagVarFloat:
			v, err := ir.ReadUint32(d.src)
			if err != nil {
				return Event{}, truncated(err)
			}
			floatVars = append(floatVars, v)

		case ir.TagVarStrLenUint8, ir.TagVarStrLenUint16, ir.TagVarStrLenUint32:
			s, err := d.readLengthPrefixed(tag, ir.TagVarStrLenUint8)
			if err != nil {
				return Event{}, err
			}
			dictVars = append(dictVars, string(s))

		case ir.TagLogtypeLenUint8, ir.TagLogtypeLenUint16, ir.TagLogtypeLenUint32:
			lt, err := d.readLengthPrefixed(tag, ir.TagLogtypeLenUint8)
			if err != nil {
				return Event{}, err
			}
			logtype = lt

		case ir.TagTimestampPattern:
			n, err := ir.ReadByte(d.src)
			if err != nil {
				return Event{}, truncated(err)
			}
			p, err := ir.ReadBytes(d.src, int(n))
			if err != nil {
				return Event{}, truncated(err)
			}
			d.pattern.Set(string(p))
			continue

		default:
			return Event{}, fmt.Errorf("%w: unknown record tag 0x%02x", ir.ErrDecoding, tag)
		}
		inRecord = true
	}

	delta, err := d.readTimestampDelta()
	if err != nil {
		return Event{}, err
	}
	d.lastTS += delta

	body, err := reconstructMessage(logtype, intVars, floatVars, dictVars)
	if err != nil {
		return Event{}, err
	}

	level := detectLevel(body)
	msg := body
	if !d.pattern.Empty() {
		msg = d.pattern.Format(d.lastTS) + body
	}

	return Event{Message: msg, Timestamp: d.lastTS, Level: level}, nil
}

// readLengthPrefixed reads a length whose width is tag-base (uint8, uint16
// or uint32 for base, base+1, base+2) followed by that many bytes.
func (d *Deserializer) readLengthPrefixed(tag, base byte) ([]byte, error) {
	var n int
	switch tag - base {
	case 0:
		b, err := ir.ReadByte(d.src)
		if err != nil {
			return nil, truncated(err)
		}
		n = int(b)
	case 1:
		v, err := ir.ReadUint16(d.src)
		if err != nil {
			return nil, truncated(err)
		}
		n = int(v)
	default:
		v, err := ir.ReadUint32(d.src)
		if err != nil {
			return nil, truncated(err)
		}
		n = int(v)
	}
	s, err := ir.ReadBytes(d.src, n)
	if err != nil {
		return nil, truncated(err)
	}
	return s, nil
}

func (d *Deserializer) readTimestampDelta() (int64, error) {
	tag, err := ir.ReadByte(d.src)
	if err != nil {
		return 0, truncated(err)
	}
	switch tag {
	case ir.TagTimestampDeltaInt8:
		b, err := ir.ReadByte(d.src)
		if err != nil {
			return 0, truncated(err)
		}
		return int64(int8(b)), nil
	case ir.TagTimestampDeltaInt16:
		v, err := ir.ReadUint16(d.src)
		if err != nil {
			return 0, truncated(err)
		}
		return int64(int16(v)), nil
	case ir.TagTimestampDeltaInt32:
		v, err := ir.ReadUint32(d.src)
		if err != nil {
			return 0, truncated(err)
		}
		return int64(int32(v)), nil
	case ir.TagTimestampDeltaInt64:
		v, err := ir.ReadUint64(d.src)
		if err != nil {
			return 0, truncated(err)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: expected timestamp tag, got 0x%02x", ir.ErrDecoding, tag)
	}
}

func truncated(err error) error {
	return fmt.Errorf("%w: truncated record: %v", ir.ErrIncompleteStream, err)
}
