package reader

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/source"
	"github.com/loglens/irview/internal/unstructured"
)

// unstructuredReader buffers fully decoded text events. Per-record decode
// failures are absorbed: the drain loop stops, prior events stay queryable
// and the failure surfaces only through the invalid count and diagnostics.
type unstructuredReader struct {
	log hclog.Logger
	src *source.Source
	des *unstructured.Deserializer

	events   []unstructured.Event
	filtered []int // nil means no filter active

	built   bool
	valid   int
	invalid int
}

func newUnstructuredReader(src *source.Source, logger hclog.Logger) (*unstructuredReader, error) {
	des, err := unstructured.NewDeserializer(src)
	if err != nil {
		return nil, err
	}
	return &unstructuredReader{log: logger, src: src, des: des}, nil
}

func (r *unstructuredReader) NumEventsBuffered() int {
	return len(r.events)
}

func (r *unstructuredReader) FilteredLogEventMap() []int {
	return r.filtered
}

func (r *unstructuredReader) FilterLogEvents(levels []int) {
	if levels == nil {
		r.filtered = nil
		return
	}
	r.filtered = filterIndexes(levels, len(r.events), func(i int) int {
		return r.events[i].Level
	})
}

func (r *unstructuredReader) Build() (int, int, error) {
	if r.built {
		return r.valid, r.invalid, nil
	}

	r.events = make([]unstructured.Event, 0, defaultReservedEvents)
	for {
		ev, err := r.des.Next()
		if err == nil {
			r.events = append(r.events, ev)
			continue
		}
		switch {
		case errors.Is(err, ir.ErrEndOfStream):
		case errors.Is(err, ir.ErrIncompleteStream):
			r.log.Warn("stream is incomplete", "error", err, "events", len(r.events))
		default:
			r.log.Error("failed to decode record", "error", err, "events", len(r.events))
			r.invalid = 1
		}
		break
	}

	r.valid = len(r.events)
	r.built = true
	r.src.Release()
	return r.valid, r.invalid, nil
}

func (r *unstructuredReader) DecodeRange(begin, end int, useFilter bool) []DecodedEvent {
	if useFilter && r.filtered == nil {
		return nil
	}
	viewLen := len(r.events)
	if useFilter {
		viewLen = len(r.filtered)
	}
	if !resolveRange(begin, end, viewLen) {
		return nil
	}

	results := make([]DecodedEvent, 0, end-begin)
	for i := begin; i < end; i++ {
		idx := i
		if useFilter {
			idx = r.filtered[i]
		}
		ev := r.events[idx]
		results = append(results, DecodedEvent{
			Message:        ev.Message,
			Timestamp:      ev.Timestamp,
			LogLevel:       ev.Level,
			SequenceNumber: idx + 1,
		})
	}
	return results
}
