package ir

import (
	"encoding/binary"
	"io"
)

// Low-level wire reads. All multi-byte integers on the wire are big-endian.
// Helpers return the underlying io error on truncation; callers decide
// whether that means an incomplete stream or a corrupt payload.

func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func ReadBytes(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadLength reads a length whose width is selected by tag, which must be
// one of LenUint8, LenUint16 or LenUint32. ok is false for any other tag.
func ReadLength(r io.Reader, tag byte) (n int, ok bool, err error) {
	switch tag {
	case LenUint8:
		b, err := ReadByte(r)
		return int(b), true, err
	case LenUint16:
		v, err := ReadUint16(r)
		return int(v), true, err
	case LenUint32:
		v, err := ReadUint32(r)
		return int(v), true, err
	default:
		return 0, false, nil
	}
}
