package reader

import (
	"errors"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/valyala/fastjson"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/source"
	"github.com/loglens/irview/internal/structured"
)

const emptyJSON = "{}"

// structuredReader buffers key-value events plus the schema tree needed to
// render them. Unlike the unstructured path, a malformed unit fails the
// whole build.
type structuredReader struct {
	log hclog.Logger
	src *source.Source
	des *structured.Deserializer

	events   []structured.Event
	filtered []int // nil means no filter active

	built    bool
	valid    int
	invalid  int
	buildErr error

	arena fastjson.Arena
}

func newStructuredReader(src *source.Source, logger hclog.Logger) (*structuredReader, error) {
	des, err := structured.NewDeserializer(src, logger)
	if err != nil {
		return nil, err
	}
	return &structuredReader{log: logger, src: src, des: des}, nil
}

func (r *structuredReader) NumEventsBuffered() int {
	return len(r.events)
}

func (r *structuredReader) FilteredLogEventMap() []int {
	return r.filtered
}

func (r *structuredReader) FilterLogEvents(levels []int) {
	if levels == nil {
		r.filtered = nil
		return
	}
	r.filtered = filterIndexes(levels, len(r.events), func(i int) int {
		return r.events[i].Level
	})
}

func (r *structuredReader) Build() (int, int, error) {
	if r.built {
		return r.valid, r.invalid, r.buildErr
	}

	r.events = make([]structured.Event, 0, defaultReservedEvents)
	for {
		ev, err := r.des.Next()
		if err == nil {
			if ev != nil {
				r.events = append(r.events, *ev)
			}
			continue
		}
		switch {
		case errors.Is(err, ir.ErrEndOfStream):
		case errors.Is(err, ir.ErrIncompleteStream):
			r.log.Warn("stream is incomplete", "error", err, "events", len(r.events))
		default:
			r.log.Error("failed to deserialize IR unit", "error", err)
			r.buildErr = err
		}
		break
	}

	r.valid = len(r.events)
	r.built = true
	r.src.Release()
	return r.valid, r.invalid, r.buildErr
}

func (r *structuredReader) DecodeRange(begin, end int, useFilter bool) []DecodedEvent {
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
			Message:        r.renderJSON(ev),
			Timestamp:      ev.Timestamp,
			LogLevel:       ev.Level,
			SequenceNumber: idx + 1,
		})
	}
	return results
}

// renderJSON serializes an event's node-id-value pairs as a flat JSON object
// keyed by each node's dotted path. Falls back to an empty object when the
// event references nodes the schema tree can't resolve.
func (r *structuredReader) renderJSON(ev structured.Event) string {
	r.arena.Reset()
	tree := r.des.Tree()

	obj := r.arena.NewObject()
	for _, p := range ev.Pairs {
		path, ok := tree.Path(p.NodeID)
		if !ok {
			r.log.Error("failed to serialize log event", "node", p.NodeID)
			return emptyJSON
		}
		obj.Set(path, r.renderValue(p.Value))
	}
	return string(obj.MarshalTo(nil))
}

func (r *structuredReader) renderValue(v structured.Value) *fastjson.Value {
	switch v.Kind {
	case structured.NodeInt:
		return r.arena.NewNumberString(strconv.FormatInt(v.Int, 10))
	case structured.NodeFloat:
		return r.arena.NewNumberFloat64(v.Float)
	case structured.NodeBool:
		if v.Bool {
			return r.arena.NewTrue()
		}
		return r.arena.NewFalse()
	case structured.NodeString:
		return r.arena.NewString(v.Str)
	default:
		return r.arena.NewNull()
	}
}
