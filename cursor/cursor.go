// Package cursor provides a bounded, little-endian binary reader over a byte
// slice, with absolute file-offset tracking so every error can pinpoint the
// exact byte position at which it was detected.
//
// Every EVTX section (file header, chunk header, record body, BinXML token
// stream) is read through a cursor.Reader composed from endian's little-
// endian engine, following the same "typed reads over a fixed buffer" shape
// as section.NumericHeader.Parse, but generalized into a standalone,
// reusable reader instead of ad hoc slice indexing.
package cursor

import (
	"fmt"

	"github.com/goevtx/evtx/endian"
	"github.com/goevtx/evtx/errs"
)

// Reader wraps a bounded []byte with a current read position. base is the
// absolute file offset of position zero within buf, so that errors and
// Offset() report file-relative positions even for sub-cursors carved out
// of a chunk or record body.
type Reader struct {
	buf    []byte
	pos    int
	base   int64
	engine endian.EndianEngine
}

// New creates a Reader over buf. base is the absolute file offset
// corresponding to buf[0], used for error reporting.
func New(buf []byte, base int64) *Reader {
	return &Reader{
		buf:    buf,
		base:   base,
		engine: endian.GetLittleEndianEngine(),
	}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int {
	return len(r.buf) - r.pos
}

// Pos returns the current position relative to the start of this cursor's buffer.
func (r *Reader) Pos() int {
	return r.pos
}

// Offset returns the absolute file offset of the current position.
func (r *Reader) Offset() int64 {
	return r.base + int64(r.pos)
}

// Bytes returns the entire backing buffer (not just the unread portion).
func (r *Reader) Bytes() []byte {
	return r.buf
}

// Remaining returns the unread portion of the buffer, without advancing.
func (r *Reader) Remaining() []byte {
	return r.buf[r.pos:]
}

func (r *Reader) eof(n int) error {
	return fmt.Errorf("%w at offset %d: need %d bytes, have %d", errs.ErrUnexpectedEOF, r.Offset(), n, r.Len())
}

func (r *Reader) need(n int) error {
	if r.Len() < n {
		return r.eof(n)
	}

	return nil
}

// Seek repositions the cursor to an absolute position within this cursor's buffer.
func (r *Reader) Seek(pos int) error {
	if pos < 0 || pos > len(r.buf) {
		return fmt.Errorf("%w: seek to %d out of bounds [0,%d]", errs.ErrUnexpectedEOF, pos, len(r.buf))
	}

	r.pos = pos

	return nil
}

// Advance moves the cursor forward by n bytes without reading them.
func (r *Reader) Advance(n int) error {
	if err := r.need(n); err != nil {
		return err
	}

	r.pos += n

	return nil
}

// Sub carves out an independent cursor over the next length bytes, advancing
// this cursor past them. The returned cursor's base accounts for this
// cursor's own base, so absolute offsets remain correct.
func (r *Reader) Sub(length int) (*Reader, error) {
	if err := r.need(length); err != nil {
		return nil, err
	}

	start := r.pos
	r.pos += length

	return New(r.buf[start:start+length], r.base+int64(start)), nil
}

// U8 reads an unsigned 8-bit integer.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}

	v := r.buf[r.pos]
	r.pos++

	return v, nil
}

// I8 reads a signed 8-bit integer.
func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

// U16 reads a little-endian unsigned 16-bit integer.
func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}

	v := r.engine.Uint16(r.buf[r.pos:])
	r.pos += 2

	return v, nil
}

// I16 reads a little-endian signed 16-bit integer.
func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

// U32 reads a little-endian unsigned 32-bit integer.
func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}

	v := r.engine.Uint32(r.buf[r.pos:])
	r.pos += 4

	return v, nil
}

// I32 reads a little-endian signed 32-bit integer.
func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

// U64 reads a little-endian unsigned 64-bit integer.
func (r *Reader) U64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}

	v := r.engine.Uint64(r.buf[r.pos:])
	r.pos += 8

	return v, nil
}

// I64 reads a little-endian signed 64-bit integer.
func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

// F32 reads a little-endian IEEE-754 single-precision float.
func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}

	return float32FromBits(v), nil
}

// F64 reads a little-endian IEEE-754 double-precision float.
func (r *Reader) F64() (float64, error) {
	v, err := r.U64()
	if err != nil {
		return 0, err
	}

	return float64FromBits(v), nil
}

// GUID reads a 16-byte GUID in its on-disk mixed-endian layout
// (data1 u32 LE, data2 u16 LE, data3 u16 LE, data4 8 bytes verbatim).
func (r *Reader) GUID() ([16]byte, error) {
	var g [16]byte

	if err := r.need(16); err != nil {
		return g, err
	}

	copy(g[:], r.buf[r.pos:r.pos+16])
	r.pos += 16

	return g, nil
}

// FixedBytes reads n raw bytes verbatim.
func (r *Reader) FixedBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n

	return out, nil
}

// PeekBytes returns n raw bytes without advancing the cursor.
func (r *Reader) PeekBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}

	return r.buf[r.pos : r.pos+n], nil
}

// FixedUTF16 reads exactly n UTF-16 code units (2n bytes) and decodes them.
func (r *Reader) FixedUTF16(n int) (string, error) {
	if err := r.need(n * 2); err != nil {
		return "", err
	}

	units := make([]uint16, n)
	for i := 0; i < n; i++ {
		units[i] = r.engine.Uint16(r.buf[r.pos+i*2:])
	}
	r.pos += n * 2

	return DecodeUTF16(units), nil
}

// LengthPrefixedUTF16 reads a 16-bit character count followed by that many
// UTF-16 code units (the "Name" / "Value" string shape used throughout the
// format: offset 4.3/4.4 of the spec).
func (r *Reader) LengthPrefixedUTF16() (string, error) {
	n, err := r.U16()
	if err != nil {
		return "", err
	}

	return r.FixedUTF16(int(n))
}

// NullTerminatedUTF16 reads UTF-16 code units until a NUL unit (0x0000) or
// the buffer is exhausted.
func (r *Reader) NullTerminatedUTF16() (string, error) {
	var units []uint16

	for {
		u, err := r.U16()
		if err != nil {
			return DecodeUTF16(units), err
		}

		if u == 0 {
			break
		}

		units = append(units, u)
	}

	return DecodeUTF16(units), nil
}
