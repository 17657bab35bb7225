// Package irtest builds well-formed (and deliberately malformed) compressed
// IR streams for package tests. It is test support only; the product has no
// encode side.
package irtest

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/loglens/irview/internal/ir"
)

// Compress wraps raw stream bytes in a single zstd frame.
func Compress(raw []byte) []byte {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		panic(err)
	}
	if _, err := enc.Write(raw); err != nil {
		panic(err)
	}
	if err := enc.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Stream assembles encoding tag + JSON preamble + body and compresses the
// result.
func Stream(encodingTag byte, metadataJSON, body []byte) []byte {
	var raw bytes.Buffer
	raw.WriteByte(encodingTag)
	raw.WriteByte(ir.MetadataJSON)
	raw.WriteByte(ir.LenUint16)
	writeUint16(&raw, uint16(len(metadataJSON)))
	raw.Write(metadataJSON)
	raw.Write(body)
	return Compress(raw.Bytes())
}

// UnstructuredBuilder accumulates the body of an unstructured stream.
type UnstructuredBuilder struct {
	meta map[string]any
	body bytes.Buffer
}

func NewUnstructuredBuilder(version, pattern string, refTS int64) *UnstructuredBuilder {
	meta := map[string]any{ir.MetadataVersionKey: version}
	if pattern != "" {
		meta[ir.MetadataTimestampPatternKey] = pattern
	}
	if refTS != 0 {
		meta[ir.MetadataReferenceTimestampKey] = refTS
	}
	return &UnstructuredBuilder{meta: meta}
}

// Record writes one full record: variables in placeholder order, the
// logtype, then the timestamp delta.
func (b *UnstructuredBuilder) Record(logtype []byte, ints []int32, floats []uint32, dicts []string, tsDelta int64) {
	for _, v := range ints {
		b.body.WriteByte(ir.TagVarInt)
		writeUint32(&b.body, uint32(v))
	}
	for _, v := range floats {
		b.body.WriteByte(ir.TagVarFloat)
		writeUint32(&b.body, v)
	}
	for _, s := range dicts {
		writeLengthPrefixed(&b.body, ir.TagVarStrLenUint8, []byte(s))
	}
	writeLengthPrefixed(&b.body, ir.TagLogtypeLenUint8, logtype)
	b.writeTimestampDelta(tsDelta)
}

func (b *UnstructuredBuilder) writeTimestampDelta(d int64) {
	switch {
	case d >= -128 && d <= 127:
		b.body.WriteByte(ir.TagTimestampDeltaInt8)
		b.body.WriteByte(byte(int8(d)))
	case d >= -32768 && d <= 32767:
		b.body.WriteByte(ir.TagTimestampDeltaInt16)
		writeUint16(&b.body, uint16(int16(d)))
	case d >= -2147483648 && d <= 2147483647:
		b.body.WriteByte(ir.TagTimestampDeltaInt32)
		writeUint32(&b.body, uint32(int32(d)))
	default:
		b.body.WriteByte(ir.TagTimestampDeltaInt64)
		writeUint64(&b.body, uint64(d))
	}
}

// PatternChange writes a timestamp-pattern change unit.
func (b *UnstructuredBuilder) PatternChange(pattern string) {
	b.body.WriteByte(ir.TagTimestampPattern)
	b.body.WriteByte(byte(len(pattern)))
	b.body.WriteString(pattern)
}

// Append writes raw bytes into the body, for malformed-stream tests.
func (b *UnstructuredBuilder) Append(p ...byte) {
	b.body.Write(p)
}

// End writes the terminal marker.
func (b *UnstructuredBuilder) End() {
	b.body.WriteByte(ir.TagEndOfStream)
}

// Bytes returns the finished compressed stream.
func (b *UnstructuredBuilder) Bytes() []byte {
	return Stream(ir.EncodingFourByte, marshalMeta(b.meta), b.body.Bytes())
}

// KV binds a schema node id to a Go value for event encoding. The value's Go
// type must match the node's declared wire type.
type KV struct {
	ID uint32
	V  any
}

// StructuredBuilder accumulates the body of a structured stream.
type StructuredBuilder struct {
	meta map[string]any
	body bytes.Buffer
}

func NewStructuredBuilder(version, levelKey, tsKey string) *StructuredBuilder {
	meta := map[string]any{ir.MetadataVersionKey: version}
	if levelKey != "" {
		meta[ir.MetadataLogLevelKey] = levelKey
	}
	if tsKey != "" {
		meta[ir.MetadataTimestampKey] = tsKey
	}
	return &StructuredBuilder{meta: meta}
}

// InsertNode writes a schema-tree node-insertion unit. typ is the raw wire
// value of the node's value type.
func (b *StructuredBuilder) InsertNode(parent uint32, key string, typ byte) {
	b.body.WriteByte(ir.TagSchemaNodeInsert)
	b.body.WriteByte(typ)
	writeUint32(&b.body, parent)
	writeUint16(&b.body, uint16(len(key)))
	b.body.WriteString(key)
}

// Event writes a kv log event unit.
func (b *StructuredBuilder) Event(pairs ...KV) {
	b.body.WriteByte(ir.TagKeyValueLogEvent)
	writeUint16(&b.body, uint16(len(pairs)))
	for _, p := range pairs {
		writeUint32(&b.body, p.ID)
		switch v := p.V.(type) {
		case int:
			writeUint64(&b.body, uint64(int64(v)))
		case int64:
			writeUint64(&b.body, uint64(v))
		case float64:
			writeUint64(&b.body, floatBits(v))
		case bool:
			if v {
				b.body.WriteByte(1)
			} else {
				b.body.WriteByte(0)
			}
		case string:
			writeUint16(&b.body, uint16(len(v)))
			b.body.WriteString(v)
		default:
			panic("irtest: unsupported value type")
		}
	}
}

// UTCOffset writes a UTC-offset-change unit.
func (b *StructuredBuilder) UTCOffset(seconds int64) {
	b.body.WriteByte(ir.TagUTCOffsetChange)
	writeUint64(&b.body, uint64(seconds))
}

// Append writes raw bytes into the body, for malformed-stream tests.
func (b *StructuredBuilder) Append(p ...byte) {
	b.body.Write(p)
}

// End writes the terminal marker.
func (b *StructuredBuilder) End() {
	b.body.WriteByte(ir.TagEndOfStream)
}

// Bytes returns the finished compressed stream.
func (b *StructuredBuilder) Bytes() []byte {
	return Stream(ir.EncodingFourByte, marshalMeta(b.meta), b.body.Bytes())
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

func marshalMeta(meta map[string]any) []byte {
	data, err := json.Marshal(meta)
	if err != nil {
		panic(err)
	}
	return data
}

func writeLengthPrefixed(buf *bytes.Buffer, base byte, data []byte) {
	switch {
	case len(data) < 1<<8:
		buf.WriteByte(base)
		buf.WriteByte(byte(len(data)))
	case len(data) < 1<<16:
		buf.WriteByte(base + 1)
		writeUint16(buf, uint16(len(data)))
	default:
		buf.WriteByte(base + 2)
		writeUint32(buf, uint32(len(data)))
	}
	buf.Write(data)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}
