package binread

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// OutOfBoundsError is returned by every Reader method that would have to
// touch bytes outside the wrapped buffer.
type OutOfBoundsError struct {
	Pos  int
	Need int
	Size int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at 0x%x is outside buffer of size 0x%x", e.Need, e.Pos, e.Size)
}

// Reader is a bounds-checked little-endian cursor over a byte buffer.
// Methods advance the position and never panic on truncated input.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Pos() int { return r.pos }

func (r *Reader) Size() int { return len(r.buf) }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) check(n int) error {
	if n < 0 || r.pos < 0 || r.pos+n > len(r.buf) {
		return &OutOfBoundsError{Pos: r.pos, Need: n, Size: len(r.buf)}
	}
	return nil
}

func (r *Reader) Seek(off int) error {
	if off < 0 || off > len(r.buf) {
		return &OutOfBoundsError{Pos: off, Need: 0, Size: len(r.buf)}
	}
	r.pos = off
	return nil
}

// SeekBase positions the cursor at base+rel. The formats store most offsets
// relative to the start of the record that holds them, not the file start.
func (r *Reader) SeekBase(base, rel int) error {
	return r.Seek(base + rel)
}

func (r *Reader) Skip(n int) error {
	if err := r.check(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.check(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) I8() (int8, error) {
	v, err := r.U8()
	return int8(v), err
}

func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) I16() (int16, error) {
	v, err := r.U16()
	return int16(v), err
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) I32() (int32, error) {
	v, err := r.U32()
	return int32(v), err
}

func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) I64() (int64, error) {
	v, err := r.U64()
	return int64(v), err
}

func (r *Reader) F32() (float32, error) {
	v, err := r.U32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) F32Array(n int) ([]float32, error) {
	out := make([]float32, n)
	for i := range out {
		v, err := r.F32()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *Reader) Vec2() ([2]float32, error) {
	var v [2]float32
	for i := range v {
		f, err := r.F32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *Reader) Vec3() ([3]float32, error) {
	var v [3]float32
	for i := range v {
		f, err := r.F32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

func (r *Reader) Vec4() ([4]float32, error) {
	var v [4]float32
	for i := range v {
		f, err := r.F32()
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// StringFixed reads a fixed-width nul-padded string field of n bytes.
func (r *Reader) StringFixed(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// StringZ reads a nul-terminated string starting at the current position
// without a known length. limit bounds the scan; limit <= 0 scans to the
// end of the buffer.
func (r *Reader) StringZ(limit int) (string, error) {
	if r.pos > len(r.buf) {
		return "", &OutOfBoundsError{Pos: r.pos, Need: 1, Size: len(r.buf)}
	}
	rest := r.buf[r.pos:]
	if limit > 0 && limit < len(rest) {
		rest = rest[:limit]
	}
	i := bytes.IndexByte(rest, 0)
	if i < 0 {
		return "", &OutOfBoundsError{Pos: r.pos, Need: len(rest) + 1, Size: len(r.buf)}
	}
	r.pos += i + 1
	return string(rest[:i]), nil
}

// Sub returns a new reader based at off against the same backing buffer.
// Record-relative tables are decoded by subbing at the record start, so
// nested offsets resolve against the right base. An out of range off yields
// a reader pinned past the end, every read from it fails with OutOfBounds.
func (r *Reader) Sub(off int) *Reader {
	if off < 0 || off > len(r.buf) {
		return &Reader{buf: r.buf, pos: len(r.buf) + 1}
	}
	return &Reader{buf: r.buf[off:]}
}

// SubRange is Sub with an explicit size cap, for records whose trailing data
// must not be readable past the declared end.
func (r *Reader) SubRange(off, size int) (*Reader, error) {
	if off < 0 || size < 0 || off+size > len(r.buf) {
		return nil, &OutOfBoundsError{Pos: off, Need: size, Size: len(r.buf)}
	}
	return &Reader{buf: r.buf[off : off+size]}, nil
}

// Array calls fn once per element of a (count, stride) table located at off,
// handing it a reader positioned at the element start. fn receives the element
// index. The scan stops at the first error.
func (r *Reader) Array(off, count, stride int, fn func(i int, er *Reader) error) error {
	if count < 0 || stride < 0 {
		return &OutOfBoundsError{Pos: off, Need: count * stride, Size: len(r.buf)}
	}
	if count > 0 {
		if off < 0 || off+count*stride > len(r.buf) {
			return &OutOfBoundsError{Pos: off, Need: count * stride, Size: len(r.buf)}
		}
	}
	for i := 0; i < count; i++ {
		er := &Reader{buf: r.buf[off+i*stride:]}
		if err := fn(i, er); err != nil {
			return err
		}
	}
	return nil
}
