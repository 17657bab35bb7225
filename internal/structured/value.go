package structured

// Value is a decoded kv-pair value. Kind mirrors the schema node's type.
type Value struct {
	Kind  NodeType
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Pair binds a schema-tree node id to its value within one log event.
type Pair struct {
	NodeID uint32
	Value  Value
}

// Event is one decoded structured log event: the full node-id-value mapping
// plus the level and timestamp derived from the authoritative nodes.
// Immutable once built.
type Event struct {
	Pairs     []Pair
	Level     int   // index into ir.LevelNames
	Timestamp int64 // epoch milliseconds
}
