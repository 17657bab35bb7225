package structured

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/loglens/irview/internal/ir"
	"github.com/loglens/irview/internal/source"
)

// Deserializer processes the stream's typed IR units in order: schema-node
// insertions, kv log events, UTC-offset changes and end-of-stream. Unlike
// the unstructured path, a malformed unit is fatal to the whole stream.
type Deserializer struct {
	src  *source.Source
	log  hclog.Logger
	tree *SchemaTree

	logLevelKey  string
	timestampKey string

	// Authoritative node ids; -1 while unresolved. First matching insertion
	// wins and later duplicates never override.
	logLevelNodeID  int64
	timestampNodeID int64

	utcOffset int64
	done      bool
}

// NewDeserializer consumes the preamble and prepares the unit loop. The
// level and timestamp key names come from the preamble metadata; an absent
// key disables that derived field for the whole stream.
func NewDeserializer(src *source.Source, logger hclog.Logger) (*Deserializer, error) {
	meta, err := ir.ReadPreamble(src)
	if err != nil {
		return nil, err
	}
	return &Deserializer{
		src:             src,
		log:             logger,
		tree:            NewSchemaTree(),
		logLevelKey:     meta.LogLevelKey,
		timestampKey:    meta.TimestampKey,
		logLevelNodeID:  -1,
		timestampNodeID: -1,
	}, nil
}

// Tree exposes the schema tree for rendering decoded events.
func (d *Deserializer) Tree() *SchemaTree {
	return d.tree
}

// Done reports whether the terminal marker has been seen.
func (d *Deserializer) Done() bool {
	return d.done
}

// Next processes exactly one IR unit. Units that do not produce a log event
// (node insertions, UTC-offset changes) return (nil, nil). The terminal
// marker returns ir.ErrEndOfStream; a clean truncation at a unit boundary
// returns ir.ErrIncompleteStream; anything malformed returns ir.ErrDecoding.
func (d *Deserializer) Next() (*Event, error) {
	if d.done {
		return nil, ir.ErrEndOfStream
	}

	tag, err := ir.ReadByte(d.src)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: missing terminal marker", ir.ErrIncompleteStream)
		}
		return nil, fmt.Errorf("%w: %v", ir.ErrDecoding, err)
	}

	switch tag {
	case ir.TagEndOfStream:
		d.done = true
		return nil, ir.ErrEndOfStream
	case ir.TagSchemaNodeInsert:
		return nil, d.handleNodeInsertion()
	case ir.TagKeyValueLogEvent:
		return d.handleLogEvent()
	case ir.TagUTCOffsetChange:
		return nil, d.handleUTCOffsetChange()
	default:
		return nil, fmt.Errorf("%w: unknown unit tag 0x%02x", ir.ErrDecoding, tag)
	}
}

func (d *Deserializer) handleNodeInsertion() error {
	typ, err := ir.ReadByte(d.src)
	if err != nil {
		return corrupt("node type", err)
	}
	parentID, err := ir.ReadUint32(d.src)
	if err != nil {
		return corrupt("node parent id", err)
	}
	keyLen, err := ir.ReadUint16(d.src)
	if err != nil {
		return corrupt("node key length", err)
	}
	key, err := ir.ReadBytes(d.src, int(keyLen))
	if err != nil {
		return corrupt("node key", err)
	}

	id, err := d.tree.Insert(parentID, string(key), NodeType(typ))
	if err != nil {
		return err
	}

	// Authoritative fields must sit directly under the root and carry a
	// compatible type.
	if parentID != RootNodeID {
		return nil
	}
	if d.logLevelNodeID < 0 && d.logLevelKey != "" && string(key) == d.logLevelKey &&
		(NodeType(typ) == NodeString || NodeType(typ) == NodeInt) {
		d.logLevelNodeID = int64(id)
	}
	if d.timestampNodeID < 0 && d.timestampKey != "" && string(key) == d.timestampKey &&
		NodeType(typ) == NodeInt {
		d.timestampNodeID = int64(id)
	}
	return nil
}

func (d *Deserializer) handleLogEvent() (*Event, error) {
	count, err := ir.ReadUint16(d.src)
	if err != nil {
		return nil, corrupt("pair count", err)
	}

	pairs := make([]Pair, 0, count)
	for i := 0; i < int(count); i++ {
		nodeID, err := ir.ReadUint32(d.src)
		if err != nil {
			return nil, corrupt("pair node id", err)
		}
		node, ok := d.tree.Node(nodeID)
		if !ok {
			return nil, fmt.Errorf("%w: log event references unknown node %d", ir.ErrDecoding, nodeID)
		}
		val, err := d.readValue(node.Type)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{NodeID: nodeID, Value: val})
	}

	return &Event{
		Pairs:     pairs,
		Level:     d.deriveLevel(pairs),
		Timestamp: d.deriveTimestamp(pairs),
	}, nil
}

func (d *Deserializer) readValue(typ NodeType) (Value, error) {
	switch typ {
	case NodeInt:
		v, err := ir.ReadUint64(d.src)
		if err != nil {
			return Value{}, corrupt("int value", err)
		}
		return Value{Kind: NodeInt, Int: int64(v)}, nil
	case NodeFloat:
		v, err := ir.ReadUint64(d.src)
		if err != nil {
			return Value{}, corrupt("float value", err)
		}
		return Value{Kind: NodeFloat, Float: math.Float64frombits(v)}, nil
	case NodeBool:
		b, err := ir.ReadByte(d.src)
		if err != nil {
			return Value{}, corrupt("bool value", err)
		}
		return Value{Kind: NodeBool, Bool: b != 0}, nil
	case NodeString:
		n, err := ir.ReadUint16(d.src)
		if err != nil {
			return Value{}, corrupt("string length", err)
		}
		s, err := ir.ReadBytes(d.src, int(n))
		if err != nil {
			return Value{}, corrupt("string value", err)
		}
		return Value{Kind: NodeString, Str: string(s)}, nil
	default:
		return Value{}, fmt.Errorf("%w: value for non-leaf node type 0x%02x", ir.ErrDecoding, byte(typ))
	}
}

// deriveLevel maps the authoritative node's value to a level index. String
// values must match a level name exactly; integer values are used directly
// when in range. Anything else silently derives "none".
func (d *Deserializer) deriveLevel(pairs []Pair) int {
	if d.logLevelNodeID < 0 {
		return ir.LevelNone
	}
	for _, p := range pairs {
		if int64(p.NodeID) != d.logLevelNodeID {
			continue
		}
		switch p.Value.Kind {
		case NodeString:
			if lvl, ok := ir.LevelByName(p.Value.Str); ok {
				return lvl
			}
		case NodeInt:
			if p.Value.Int >= 0 && p.Value.Int < int64(len(ir.LevelNames)) {
				return int(p.Value.Int)
			}
		}
		return ir.LevelNone
	}
	return ir.LevelNone
}

// deriveTimestamp reads the authoritative node's integer value, already in
// epoch milliseconds. Unset or absent derives zero.
func (d *Deserializer) deriveTimestamp(pairs []Pair) int64 {
	if d.timestampNodeID < 0 {
		return 0
	}
	for _, p := range pairs {
		if int64(p.NodeID) == d.timestampNodeID && p.Value.Kind == NodeInt {
			return p.Value.Int
		}
	}
	return 0
}

// handleUTCOffsetChange accepts and records the new offset but applies no
// adjustment: timestamps in this format are already absolute.
func (d *Deserializer) handleUTCOffsetChange() error {
	v, err := ir.ReadUint64(d.src)
	if err != nil {
		return corrupt("utc offset", err)
	}
	old := d.utcOffset
	d.utcOffset = int64(v)
	d.log.Warn("UTC offset change units aren't handled", "old", old, "new", d.utcOffset)
	return nil
}

func corrupt(what string, err error) error {
	return fmt.Errorf("%w: truncated %s: %v", ir.ErrDecoding, what, err)
}
