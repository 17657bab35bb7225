package structured

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/irtest"
	"github.com/loglens/irview/internal/source"
)

func open(t *testing.T, b *irtest.StructuredBuilder) *Deserializer {
	t.Helper()
	src, err := source.New(b.Bytes())
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	if err := src.SeekFromBegin(1); err != nil {
		t.Fatalf("seek past encoding tag: %v", err)
	}
	d, err := NewDeserializer(src, hclog.NewNullLogger())
	if err != nil {
		t.Fatalf("NewDeserializer: %v", err)
	}
	return d
}

// drain pulls units until end-of-stream, collecting log events.
func drain(t *testing.T, d *Deserializer) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := d.Next()
		if errors.Is(err, ir.ErrEndOfStream) {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
}

func TestDeserializerDerivesLevelAndTimestamp(t *testing.T) {
	b := irtest.NewStructuredBuilder("0.1.0", "level", "ts")
	b.InsertNode(0, "level", byte(NodeString)) // id 1
	b.InsertNode(0, "ts", byte(NodeInt))       // id 2
	b.InsertNode(0, "msg", byte(NodeString))   // id 3
	b.Event(irtest.KV{ID: 1, V: "ERROR"}, irtest.KV{ID: 2, V: int64(1700000000000)}, irtest.KV{ID: 3, V: "disk failure"})
	b.Event(irtest.KV{ID: 3, V: "no level or ts on this one"})
	b.End()

	d := open(t, b)
	events := drain(t, d)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	if events[0].Level != 5 {
		t.Errorf("event 0 level = %d, want 5 (ERROR)", events[0].Level)
	}
	if events[0].Timestamp != 1700000000000 {
		t.Errorf("event 0 timestamp = %d", events[0].Timestamp)
	}
	if len(events[0].Pairs) != 3 {
		t.Errorf("event 0 has %d pairs, want 3", len(events[0].Pairs))
	}

	// Absent authoritative pairs derive none/zero.
	if events[1].Level != ir.LevelNone {
		t.Errorf("event 1 level = %d, want none", events[1].Level)
	}
	if events[1].Timestamp != 0 {
		t.Errorf("event 1 timestamp = %d, want 0", events[1].Timestamp)
	}

	if !d.Done() {
		t.Error("Done should report true after end-of-stream")
	}
}

func TestDeserializerLevelValueForms(t *testing.T) {
	b := irtest.NewStructuredBuilder("0.1.0", "level", "")
	b.InsertNode(0, "level", byte(NodeString)) // id 1
	b.InsertNode(0, "lvlnum", byte(NodeInt))   // id 2
	b.Event(irtest.KV{ID: 1, V: "info"}) // wrong case: derives none
	b.End()

	events := drain(t, open(t, b))
	if events[0].Level != ir.LevelNone {
		t.Errorf("lowercase level derived %d, want none", events[0].Level)
	}

	// Integer-typed level node: value used as index when in range.
	b = irtest.NewStructuredBuilder("0.1.0", "level", "")
	b.InsertNode(0, "level", byte(NodeInt)) // id 1
	b.Event(irtest.KV{ID: 1, V: int64(4)})
	b.Event(irtest.KV{ID: 1, V: int64(99)}) // out of range
	b.End()

	events = drain(t, open(t, b))
	if events[0].Level != 4 {
		t.Errorf("integer level = %d, want 4", events[0].Level)
	}
	if events[1].Level != ir.LevelNone {
		t.Errorf("out-of-range level = %d, want none", events[1].Level)
	}
}

func TestDeserializerAuthoritativeNodeFirstWins(t *testing.T) {
	b := irtest.NewStructuredBuilder("0.1.0", "level", "")
	b.InsertNode(0, "level", byte(NodeString)) // id 1: resolves
	b.InsertNode(0, "level", byte(NodeString)) // id 2: same key, must not override
	b.Event(irtest.KV{ID: 2, V: "ERROR"})
	b.Event(irtest.KV{ID: 1, V: "WARN"})
	b.End()

	events := drain(t, open(t, b))
	if events[0].Level != ir.LevelNone {
		t.Errorf("event carrying only the duplicate node derived %d, want none", events[0].Level)
	}
	if events[1].Level != 4 {
		t.Errorf("event carrying the first node derived %d, want 4 (WARN)", events[1].Level)
	}
}

func TestDeserializerAuthoritativeNodeCompatibility(t *testing.T) {
	// A nested node or an incompatibly typed node never becomes
	// authoritative even when its key matches.
	b := irtest.NewStructuredBuilder("0.1.0", "level", "ts")
	b.InsertNode(0, "wrapper", byte(NodeObject)) // id 1
	b.InsertNode(1, "level", byte(NodeString))   // id 2: nested, not authoritative
	b.InsertNode(0, "ts", byte(NodeString))      // id 3: wrong type for a timestamp
	b.Event(irtest.KV{ID: 2, V: "ERROR"}, irtest.KV{ID: 3, V: "yesterday"})
	b.End()

	events := drain(t, open(t, b))
	if events[0].Level != ir.LevelNone {
		t.Errorf("level = %d, want none", events[0].Level)
	}
	if events[0].Timestamp != 0 {
		t.Errorf("timestamp = %d, want 0", events[0].Timestamp)
	}
}

func TestDeserializerUTCOffsetIgnored(t *testing.T) {
	b := irtest.NewStructuredBuilder("0.1.0", "", "")
	b.InsertNode(0, "msg", byte(NodeString)) // id 1
	b.UTCOffset(3600)
	b.Event(irtest.KV{ID: 1, V: "hello"})
	b.End()

	events := drain(t, open(t, b))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
}

func TestDeserializerValueKinds(t *testing.T) {
	b := irtest.NewStructuredBuilder("0.1.0", "", "")
	b.InsertNode(0, "i", byte(NodeInt))    // id 1
	b.InsertNode(0, "f", byte(NodeFloat))  // id 2
	b.InsertNode(0, "b", byte(NodeBool))   // id 3
	b.InsertNode(0, "s", byte(NodeString)) // id 4
	b.Event(
		irtest.KV{ID: 1, V: int64(-7)},
		irtest.KV{ID: 2, V: 2.5},
		irtest.KV{ID: 3, V: true},
		irtest.KV{ID: 4, V: "str"},
	)
	b.End()

	events := drain(t, open(t, b))
	pairs := events[0].Pairs
	if pairs[0].Value.Int != -7 || pairs[0].Value.Kind != NodeInt {
		t.Errorf("int pair = %+v", pairs[0].Value)
	}
	if pairs[1].Value.Float != 2.5 || pairs[1].Value.Kind != NodeFloat {
		t.Errorf("float pair = %+v", pairs[1].Value)
	}
	if !pairs[2].Value.Bool || pairs[2].Value.Kind != NodeBool {
		t.Errorf("bool pair = %+v", pairs[2].Value)
	}
	if pairs[3].Value.Str != "str" || pairs[3].Value.Kind != NodeString {
		t.Errorf("string pair = %+v", pairs[3].Value)
	}
}

func TestDeserializerErrors(t *testing.T) {
	// Unknown unit tag is fatal.
	b := irtest.NewStructuredBuilder("0.1.0", "", "")
	b.Append(0x7E)
	d := open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrDecoding) {
		t.Errorf("unknown tag: got %v, want ErrDecoding", err)
	}

	// Event referencing a node that was never inserted is fatal.
	b = irtest.NewStructuredBuilder("0.1.0", "", "")
	b.Event(irtest.KV{ID: 42, V: int64(1)})
	d = open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrDecoding) {
		t.Errorf("unknown node: got %v, want ErrDecoding", err)
	}

	// Truncated payload mid-unit is fatal, unlike the unstructured path.
	b = irtest.NewStructuredBuilder("0.1.0", "", "")
	b.Append(ir.TagSchemaNodeInsert, byte(NodeString))
	d = open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrDecoding) {
		t.Errorf("truncated unit: got %v, want ErrDecoding", err)
	}

	// A missing terminal marker at a unit boundary is merely incomplete.
	b = irtest.NewStructuredBuilder("0.1.0", "", "")
	b.InsertNode(0, "msg", byte(NodeString))
	d = open(t, b)
	if _, err := d.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := d.Next(); !errors.Is(err, ir.ErrIncompleteStream) {
		t.Errorf("missing marker: got %v, want ErrIncompleteStream", err)
	}
}
