package unstructured

import (
	"errors"
	"testing"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/irtest"
	"github.com/loglens/irview/internal/source"
)

// open positions a source past the encoding tag and hands it to a fresh
// deserializer, the way the session facade does.
func open(t *testing.T, b *irtest.UnstructuredBuilder) *Deserializer {
	t.Helper()
	src, err := source.New(b.Bytes())
	if err != nil {
		t.Fatalf("source.New: %v", err)
	}
	if err := src.SeekFromBegin(1); err != nil {
		t.Fatalf("seek past encoding tag: %v", err)
	}
	d, err := NewDeserializer(src)
	if err != nil {
		t.Fatalf("NewDeserializer: %v", err)
	}
	return d
}

func TestDeserializerRecords(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 1000)
	b.Record([]byte(" INFO request took \x11 ms"), []int32{31}, nil, nil, 5)
	b.Record([]byte(" ERROR user \x12 not found"), nil, nil, []string{"bob"}, -2)
	b.End()

	d := open(t, b)

	ev, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Message != " INFO request took 31 ms" {
		t.Errorf("message = %q", ev.Message)
	}
	if ev.Timestamp != 1005 {
		t.Errorf("timestamp = %d, want 1005", ev.Timestamp)
	}
	if ev.Level != 3 {
		t.Errorf("level = %d, want 3 (INFO)", ev.Level)
	}

	ev, err = d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Message != " ERROR user bob not found" {
		t.Errorf("message = %q", ev.Message)
	}
	if ev.Timestamp != 1003 {
		t.Errorf("timestamp = %d, want 1003", ev.Timestamp)
	}
	if ev.Level != 5 {
		t.Errorf("level = %d, want 5 (ERROR)", ev.Level)
	}

	if _, err := d.Next(); !errors.Is(err, ir.ErrEndOfStream) {
		t.Errorf("after last record: got %v, want ErrEndOfStream", err)
	}
}

func TestDeserializerTimestampPattern(t *testing.T) {
	// 1700000000000 ms = 2023-11-14 22:13:20 UTC.
	b := irtest.NewUnstructuredBuilder("v0.0.0", "%H:%M:%S ", 1700000000000)
	b.Record([]byte("first"), nil, nil, nil, 0)
	b.PatternChange("[%S] ")
	b.Record([]byte("second"), nil, nil, nil, 1000)
	b.End()

	d := open(t, b)

	ev, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Message != "22:13:20 first" {
		t.Errorf("message = %q", ev.Message)
	}

	ev, err = d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Message != "[21] second" {
		t.Errorf("message = %q", ev.Message)
	}
}

func TestDeserializerNoPattern(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 0)
	b.Record([]byte("bare message"), nil, nil, nil, 42)
	b.End()

	d := open(t, b)
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ev.Message != "bare message" {
		t.Errorf("message = %q: no pattern should mean no timestamp prefix", ev.Message)
	}
	if ev.Timestamp != 42 {
		t.Errorf("timestamp = %d, want 42", ev.Timestamp)
	}
}

func TestDeserializerMissingTerminalMarker(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 0)
	b.Record([]byte("one"), nil, nil, nil, 1)
	// no End()

	d := open(t, b)
	if _, err := d.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := d.Next(); !errors.Is(err, ir.ErrIncompleteStream) {
		t.Errorf("got %v, want ErrIncompleteStream", err)
	}
}

func TestDeserializerTruncatedMidRecord(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 0)
	b.Append(ir.TagVarInt, 0x00, 0x01) // integer variable cut short

	d := open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrIncompleteStream) {
		t.Errorf("got %v, want ErrIncompleteStream", err)
	}
}

func TestDeserializerMalformedRecord(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 0)
	b.Append(0x7E) // not a record tag
	b.End()

	d := open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrDecoding) {
		t.Errorf("unknown tag: got %v, want ErrDecoding", err)
	}
}

func TestDeserializerPlaceholderWithoutVariable(t *testing.T) {
	b := irtest.NewUnstructuredBuilder("v0.0.0", "", 0)
	b.Record([]byte("count \x11"), nil, nil, nil, 1) // int placeholder, no int var
	b.End()

	d := open(t, b)
	if _, err := d.Next(); !errors.Is(err, ir.ErrDecoding) {
		t.Errorf("got %v, want ErrDecoding", err)
	}
}
