// Package savegame holds the two persisted encodings of the economy: the
// little-endian binary layout of classic game data and a sectioned
// key/value text format.
package savegame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when a binary record ends early.
var ErrShortRead = errors.New("savegame: short read")

// BinaryReader reads fixed-width little-endian fields. The first error
// sticks: later reads return zero and Err reports it.
type BinaryReader struct {
	buf []byte
	off int
	err error
}

// NewBinaryReader reads from data.
func NewBinaryReader(data []byte) *BinaryReader {
	return &BinaryReader{buf: data}
}

func (r *BinaryReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.buf) {
		r.err = fmt.Errorf("read %d bytes at offset %d of %d: %w", n, r.off, len(r.buf), ErrShortRead)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

// U8 reads one byte.
func (r *BinaryReader) U8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// U16 reads a little-endian 16-bit value.
func (r *BinaryReader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

// U32 reads a little-endian 32-bit value.
func (r *BinaryReader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

// Skip advances n bytes.
func (r *BinaryReader) Skip(n int) {
	r.take(n)
}

// Offset is the number of bytes consumed.
func (r *BinaryReader) Offset() int { return r.off }

// Remaining is the number of unread bytes.
func (r *BinaryReader) Remaining() int { return len(r.buf) - r.off }

// Err returns the first read error.
func (r *BinaryReader) Err() error { return r.err }

// BinaryWriter builds records in the layout BinaryReader consumes.
type BinaryWriter struct {
	buf []byte
}

// PutU8 appends one byte.
func (w *BinaryWriter) PutU8(v uint8) { w.buf = append(w.buf, v) }

// PutU16 appends a little-endian 16-bit value.
func (w *BinaryWriter) PutU16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

// PutU32 appends a little-endian 32-bit value.
func (w *BinaryWriter) PutU32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

// Bytes returns the encoded record.
func (w *BinaryWriter) Bytes() []byte { return w.buf }
