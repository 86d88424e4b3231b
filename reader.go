// Copyright 2024 The gojvm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package classfile

import (
	"encoding/binary"
	"io"
	"math"
)

// byteReader is a typed, position-tracking decoder over a forward-only
// byte stream. It is the streaming counterpart to the teacher's mmap-backed
// random-access ReadUint8/16/32/64 helpers: every class file is consumed in
// a single forward pass (spec.md §5), so byteReader keeps a running offset
// instead of taking one per call.
type byteReader struct {
	r      io.Reader
	offset int64
	ctx    *contextStack
}

func newByteReader(r io.Reader, ctx *contextStack) *byteReader {
	return &byteReader{r: r, ctx: ctx}
}

// pos returns the current byte offset into the input stream.
func (b *byteReader) pos() int64 {
	return b.offset
}

func (b *byteReader) fail(field string, cause error) error {
	return newError(b.offset, b.ctx.path(), field, cause)
}

// raw reads exactly n bytes, advancing the offset, labelling EOF with
// field.
func (b *byteReader) raw(field string, n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, b.fail(field, ErrUnexpectedEOF)
	}
	b.offset += int64(n)
	return buf, nil
}

// u1 reads one unsigned byte.
func (b *byteReader) u1(field string) (uint8, error) {
	buf, err := b.raw(field, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// u2 reads one big-endian unsigned 16-bit value.
func (b *byteReader) u2(field string) (uint16, error) {
	buf, err := b.raw(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

// u4 reads one big-endian unsigned 32-bit value, required to fit in the
// signed 31-bit positive range (spec.md §4.1, §8 invariant 2).
func (b *byteReader) u4(field string) (uint32, error) {
	buf, err := b.raw(field, 4)
	if err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(buf)
	if v&0x80000000 != 0 {
		// Rewind is not possible on a forward-only stream; the offset
		// reported is the position just past the field, matching the
		// teacher's pattern of reporting the position at detection time.
		return 0, b.fail(field, ErrU4TooLarge)
	}
	return v, nil
}

// s4 reads one big-endian signed 32-bit value.
func (b *byteReader) s4(field string) (int32, error) {
	buf, err := b.raw(field, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf)), nil
}

// u8 reads one big-endian unsigned 64-bit value (used for long/double
// immediates before reinterpretation).
func (b *byteReader) u8(field string) (uint64, error) {
	buf, err := b.raw(field, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf), nil
}

// float32v reads an IEEE-754 32-bit float.
func (b *byteReader) float32v(field string) (float32, error) {
	buf, err := b.raw(field, 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(buf)), nil
}

// float64v reads an IEEE-754 64-bit double.
func (b *byteReader) float64v(field string) (float64, error) {
	bits, err := b.u8(field)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// long reads a signed 64-bit integer.
func (b *byteReader) long(field string) (int64, error) {
	bits, err := b.u8(field)
	if err != nil {
		return 0, err
	}
	return int64(bits), nil
}

// utf8String reads a 2-byte-length-prefixed modified-UTF-8 string and
// decodes it to a Go string. The JVM's modified UTF-8 differs from
// standard UTF-8 in its NUL encoding (0xC0 0x80) and in using CESU-8-style
// surrogate pairs rather than 4-byte sequences for supplementary code
// points; no ecosystem decoder in the retrieval pack handles this variant,
// so decoding is hand-rolled here (see DESIGN.md).
func (b *byteReader) utf8String(field string) (string, error) {
	length, err := b.u2(field)
	if err != nil {
		return "", err
	}
	raw, err := b.raw(field, int(length))
	if err != nil {
		return "", err
	}
	s, ok := decodeModifiedUTF8(raw)
	if !ok {
		return "", b.fail(field, ErrMalformedUtf8)
	}
	return s, nil
}

// decodeModifiedUTF8 decodes the JVM's modified UTF-8 encoding to a Go
// string. It returns ok=false on any malformed byte sequence.
func decodeModifiedUTF8(raw []byte) (string, bool) {
	out := make([]rune, 0, len(raw))
	i := 0
	for i < len(raw) {
		b0 := raw[i]
		switch {
		case b0&0x80 == 0 && b0 != 0:
			// 1-byte form, 0x01..0x7F. 0x00 is not legal standalone.
			out = append(out, rune(b0))
			i++
		case b0&0xE0 == 0xC0:
			if i+1 >= len(raw) {
				return "", false
			}
			b1 := raw[i+1]
			if b1&0xC0 != 0x80 {
				return "", false
			}
			r := (rune(b0&0x1F) << 6) | rune(b1&0x3F)
			out = append(out, r)
			i += 2
		case b0 == 0xED && i+1 < len(raw) && raw[i+1]&0xF0 == 0xA0:
			// 6-byte encoded supplementary character: a surrogate pair
			// expressed as two back-to-back 3-byte sequences, the JVM's
			// modified-UTF-8 alternative to standard UTF-8's 4-byte form.
			if i+5 >= len(raw) {
				return "", false
			}
			b1, b2, b3, b4, b5 := raw[i+1], raw[i+2], raw[i+3], raw[i+4], raw[i+5]
			if b1&0xF0 != 0xA0 || b2&0xC0 != 0x80 || b3 != 0xED || b4&0xF0 != 0xB0 || b5&0xC0 != 0x80 {
				return "", false
			}
			high := 0xD800 | (rune(b1&0x0F) << 6) | rune(b2&0x3F)
			low := 0xDC00 | (rune(b4&0x0F) << 6) | rune(b5&0x3F)
			r := 0x10000 + ((high - 0xD800) << 10) + (low - 0xDC00)
			out = append(out, r)
			i += 6
		case b0&0xF0 == 0xE0:
			if i+2 >= len(raw) {
				return "", false
			}
			b1, b2 := raw[i+1], raw[i+2]
			if b1&0xC0 != 0x80 || b2&0xC0 != 0x80 {
				return "", false
			}
			r := (rune(b0&0x0F) << 12) | (rune(b1&0x3F) << 6) | rune(b2&0x3F)
			out = append(out, r)
			i += 3
		default:
			return "", false
		}
	}
	return string(out), true
}
