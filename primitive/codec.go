// Package primitive implements the fixed-layout value types that tag structs
// are built from, along with their explicit-endian codecs.
//
// Every value knows how to read and write itself at a byte offset within a
// struct window. Reads validate bounds against both the struct window and the
// backing slice and fail with a tag parse error; writes treat a bounds
// violation as a programming bug and panic, since the framing layer reserves
// the window before any field is written.
package primitive

import (
	"fmt"
	"math"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
)

// MaxArrayLength is the maximum element count or byte size for any array-like
// value. Sizes are stored as 32-bit on the wire, and downstream consumers use
// signed 32-bit math, so the limit is 2^31-1 rather than the full u32 range.
const MaxArrayLength = 0x7FFFFFFF

// Fits returns at+size after verifying the window [at, at+size) lies inside a
// buffer of dataLen bytes.
func Fits(size, at, dataLen int) (int, error) {
	end, err := errs.AddCheck(at, size)
	if err != nil {
		return 0, err
	}
	if end > dataLen {
		return 0, errs.TagParseFailuref("data is out-of-bounds: 0x%04X (required) > 0x%04X (available)", end, dataLen)
	}
	return end, nil
}

// readBounds validates a read of size bytes at `at` against the struct window
// and the backing slice.
func readBounds(size, at, structEnd, dataLen int) error {
	end, err := Fits(size, at, dataLen)
	if err != nil {
		return err
	}
	if end > structEnd || structEnd > dataLen {
		return errs.TagParseFailuref("data is outside of the struct: 0x%04X > 0x%04X", end, structEnd)
	}
	return nil
}

// writeBounds panics if a write of size bytes at `at` would escape the struct
// window. The window comes from the framing layer, not tag data, so a
// violation is a bug in the caller rather than a corrupt tag.
func writeBounds(size, at, structEnd, dataLen int) {
	end := at + size
	if end > structEnd || structEnd > dataLen || at < 0 {
		panic(fmt.Sprintf("write out of struct bounds: 0x%04X + 0x%04X > 0x%04X (len 0x%04X)", at, size, structEnd, dataLen))
	}
}

func ReadU8(_ endian.EndianEngine, data []byte, at, structEnd int) (uint8, error) {
	if err := readBounds(1, at, structEnd, len(data)); err != nil {
		return 0, err
	}
	return data[at], nil
}

func WriteU8(_ endian.EndianEngine, value uint8, data []byte, at, structEnd int) {
	writeBounds(1, at, structEnd, len(data))
	data[at] = value
}

func ReadI8(e endian.EndianEngine, data []byte, at, structEnd int) (int8, error) {
	v, err := ReadU8(e, data, at, structEnd)
	return int8(v), err
}

func WriteI8(e endian.EndianEngine, value int8, data []byte, at, structEnd int) {
	WriteU8(e, uint8(value), data, at, structEnd)
}

func ReadU16(e endian.EndianEngine, data []byte, at, structEnd int) (uint16, error) {
	if err := readBounds(2, at, structEnd, len(data)); err != nil {
		return 0, err
	}
	return e.Uint16(data[at : at+2]), nil
}

func WriteU16(e endian.EndianEngine, value uint16, data []byte, at, structEnd int) {
	writeBounds(2, at, structEnd, len(data))
	e.PutUint16(data[at:at+2], value)
}

func ReadI16(e endian.EndianEngine, data []byte, at, structEnd int) (int16, error) {
	v, err := ReadU16(e, data, at, structEnd)
	return int16(v), err
}

func WriteI16(e endian.EndianEngine, value int16, data []byte, at, structEnd int) {
	WriteU16(e, uint16(value), data, at, structEnd)
}

func ReadU32(e endian.EndianEngine, data []byte, at, structEnd int) (uint32, error) {
	if err := readBounds(4, at, structEnd, len(data)); err != nil {
		return 0, err
	}
	return e.Uint32(data[at : at+4]), nil
}

func WriteU32(e endian.EndianEngine, value uint32, data []byte, at, structEnd int) {
	writeBounds(4, at, structEnd, len(data))
	e.PutUint32(data[at:at+4], value)
}

func ReadI32(e endian.EndianEngine, data []byte, at, structEnd int) (int32, error) {
	v, err := ReadU32(e, data, at, structEnd)
	return int32(v), err
}

func WriteI32(e endian.EndianEngine, value int32, data []byte, at, structEnd int) {
	WriteU32(e, uint32(value), data, at, structEnd)
}

func ReadF32(e endian.EndianEngine, data []byte, at, structEnd int) (float32, error) {
	v, err := ReadU32(e, data, at, structEnd)
	return math.Float32frombits(v), err
}

func WriteF32(e endian.EndianEngine, value float32, data []byte, at, structEnd int) {
	WriteU32(e, math.Float32bits(value), data, at, structEnd)
}

// ReadSize reads a 32-bit size field into a host int.
func ReadSize(e endian.EndianEngine, data []byte, at, structEnd int) (int, error) {
	v, err := ReadU32(e, data, at, structEnd)
	return int(v), err
}

// WriteSize writes a host int as a 32-bit size field. Values above
// MaxArrayLength cannot be represented downstream and are rejected.
func WriteSize(e endian.EndianEngine, value int, data []byte, at, structEnd int) error {
	if value < 0 || value > MaxArrayLength {
		return errs.ErrArrayLimitExceeded
	}
	WriteU32(e, uint32(value), data, at, structEnd)
	return nil
}

// WritePadding zero-fills size bytes at `at`.
func WritePadding(size int, data []byte, at, structEnd int) {
	writeBounds(size, at, structEnd, len(data))
	for i := at; i < at+size; i++ {
		data[i] = 0
	}
}

// ReadPadding validates that size bytes of padding fit in the struct window.
func ReadPadding(size int, data []byte, at, structEnd int) error {
	return readBounds(size, at, structEnd, len(data))
}
