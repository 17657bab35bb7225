package ir

// Encoding-type tag, byte 0 of every stream.
const (
	EncodingFourByte  = 0x04
	EncodingEightByte = 0x08
)

// Preamble tags.
const (
	MetadataJSON = 0x01

	LenUint8  = 0x11
	LenUint16 = 0x12
	LenUint32 = 0x13
)

// Metadata keys.
const (
	MetadataVersionKey            = "VERSION"
	MetadataTimestampPatternKey   = "TIMESTAMP_PATTERN"
	MetadataReferenceTimestampKey = "REFERENCE_TIMESTAMP"
	MetadataLogLevelKey           = "LOG_LEVEL_KEY"
	MetadataTimestampKey          = "TIMESTAMP_KEY"
)

// Unstructured record tags.
const (
	TagEndOfStream = 0x00

	TagVarInt   = 0x18
	TagVarFloat = 0x19

	TagVarStrLenUint8  = 0x21
	TagVarStrLenUint16 = 0x22
	TagVarStrLenUint32 = 0x23

	TagLogtypeLenUint8  = 0x24
	TagLogtypeLenUint16 = 0x25
	TagLogtypeLenUint32 = 0x26

	TagTimestampDeltaInt8  = 0x31
	TagTimestampDeltaInt16 = 0x32
	TagTimestampDeltaInt32 = 0x33
	TagTimestampDeltaInt64 = 0x34

	TagTimestampPattern = 0x35
)

// Structured unit tags.
const (
	TagSchemaNodeInsert = 0x71
	TagKeyValueLogEvent = 0x72
	TagUTCOffsetChange  = 0x73
)

// Placeholder bytes inside a logtype. A backslash escapes the byte after it.
const (
	PlaceholderInt    = 0x11
	PlaceholderDict   = 0x12
	PlaceholderFloat  = 0x13
	PlaceholderEscape = '\\'
)

// Supported format versions, checked against the preamble's VERSION value.
var (
	UnstructuredVersions = []string{"v0.0.0", "0.0.1", "0.0.2"}
	StructuredVersions   = []string{"0.1.0"}
)
