package ir

import (
	"fmt"
	"io"
	"slices"

	"github.com/valyala/fastjson"
)

// Metadata holds the fields extracted from the stream preamble. Created once
// per session and never mutated afterward.
type Metadata struct {
	Version            string
	TimestampPattern   string
	ReferenceTimestamp int64
	LogLevelKey        string
	TimestampKey       string
}

// IsUnstructuredVersion reports whether the metadata's version selects the
// unstructured (text-with-placeholders) decode path.
func (m *Metadata) IsUnstructuredVersion() bool {
	return slices.Contains(UnstructuredVersions, m.Version)
}

// IsStructuredVersion reports whether the metadata's version selects the
// structured (key-value) decode path.
func (m *Metadata) IsStructuredVersion() bool {
	return slices.Contains(StructuredVersions, m.Version)
}

var parsers fastjson.ParserPool

// ReadEncodingType reads the encoding-type tag at the start of the stream
// and reports whether it selects the four-byte variable encoding. An
// unrecognized tag is ErrMetadataCorrupted; the eight-byte tag is valid on
// the wire but returns fourByte == false.
func ReadEncodingType(r io.Reader) (fourByte bool, err error) {
	tag, err := ReadByte(r)
	if err != nil {
		return false, fmt.Errorf("%w: missing encoding tag: %v", ErrMetadataCorrupted, err)
	}
	switch tag {
	case EncodingFourByte:
		return true, nil
	case EncodingEightByte:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown encoding tag 0x%02x", ErrMetadataCorrupted, tag)
	}
}

// ReadPreamble consumes the metadata block that follows the encoding tag and
// parses it. The VERSION field is mandatory; everything else is optional.
// The reader is left positioned at the first record of the stream body.
func ReadPreamble(r io.Reader) (*Metadata, error) {
	tag, err := ReadByte(r)
	if err != nil {
		return nil, fmt.Errorf("%w: missing metadata tag: %v", ErrMetadataCorrupted, err)
	}
	if tag != MetadataJSON {
		return nil, fmt.Errorf("%w: unknown metadata tag 0x%02x", ErrMetadataCorrupted, tag)
	}

	lenTag, err := ReadByte(r)
	if err != nil {
		return nil, fmt.Errorf("%w: missing metadata length: %v", ErrMetadataCorrupted, err)
	}
	n, ok, err := ReadLength(r, lenTag)
	if !ok {
		return nil, fmt.Errorf("%w: unknown length tag 0x%02x", ErrMetadataCorrupted, lenTag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: truncated metadata length: %v", ErrMetadataCorrupted, err)
	}

	payload, err := ReadBytes(r, n)
	if err != nil {
		return nil, fmt.Errorf("%w: truncated metadata payload: %v", ErrMetadataCorrupted, err)
	}

	p := parsers.Get()
	defer parsers.Put(p)

	v, err := p.ParseBytes(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataCorrupted, err)
	}

	version := v.GetStringBytes(MetadataVersionKey)
	if version == nil {
		return nil, fmt.Errorf("%w: metadata is missing %q", ErrMetadataCorrupted, MetadataVersionKey)
	}

	return &Metadata{
		Version:            string(version),
		TimestampPattern:   string(v.GetStringBytes(MetadataTimestampPatternKey)),
		ReferenceTimestamp: v.GetInt64(MetadataReferenceTimestampKey),
		LogLevelKey:        string(v.GetStringBytes(MetadataLogLevelKey)),
		TimestampKey:       string(v.GetStringBytes(MetadataTimestampKey)),
	}, nil
}
