package primitive

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
)

// ColorARGBFloat is a color with floating point channels in natural ARGB order.
type ColorARGBFloat struct {
	Alpha float32
	Red   float32
	Green float32
	Blue  float32
}

const ColorARGBFloatSize = 16

// InRange reports whether every channel is within [0, 1].
func (c ColorARGBFloat) InRange() bool {
	for _, v := range [...]float32{c.Alpha, c.Red, c.Green, c.Blue} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

func (c *ColorARGBFloat) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if c.Alpha, err = ReadF32(e, data, at, structEnd); err != nil {
		return err
	}
	if c.Red, err = ReadF32(e, data, at+4, structEnd); err != nil {
		return err
	}
	if c.Green, err = ReadF32(e, data, at+8, structEnd); err != nil {
		return err
	}
	c.Blue, err = ReadF32(e, data, at+12, structEnd)
	return err
}

func (c ColorARGBFloat) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, c.Alpha, data, at, structEnd)
	WriteF32(e, c.Red, data, at+4, structEnd)
	WriteF32(e, c.Green, data, at+8, structEnd)
	WriteF32(e, c.Blue, data, at+12, structEnd)
}

// ColorRGBFloat is a color with floating point channels and no alpha.
type ColorRGBFloat struct {
	Red   float32
	Green float32
	Blue  float32
}

const ColorRGBFloatSize = 12

// InRange reports whether every channel is within [0, 1].
func (c ColorRGBFloat) InRange() bool {
	for _, v := range [...]float32{c.Red, c.Green, c.Blue} {
		if v < 0 || v > 1 {
			return false
		}
	}
	return true
}

func (c *ColorRGBFloat) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if c.Red, err = ReadF32(e, data, at, structEnd); err != nil {
		return err
	}
	if c.Green, err = ReadF32(e, data, at+4, structEnd); err != nil {
		return err
	}
	c.Blue, err = ReadF32(e, data, at+8, structEnd)
	return err
}

func (c ColorRGBFloat) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, c.Red, data, at, structEnd)
	WriteF32(e, c.Green, data, at+4, structEnd)
	WriteF32(e, c.Blue, data, at+8, structEnd)
}

// ColorARGBInt is an 8-bit-per-channel color packed into a u32 as A8R8G8B8.
type ColorARGBInt struct {
	Alpha uint8
	Red   uint8
	Green uint8
	Blue  uint8
}

const ColorARGBIntSize = 4

func (c *ColorARGBInt) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	v, err := ReadU32(e, data, at, structEnd)
	if err != nil {
		return err
	}
	c.Alpha = uint8(v >> 24)
	c.Red = uint8(v >> 16)
	c.Green = uint8(v >> 8)
	c.Blue = uint8(v)
	return nil
}

func (c ColorARGBInt) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	v := uint32(c.Alpha)<<24 | uint32(c.Red)<<16 | uint32(c.Green)<<8 | uint32(c.Blue)
	WriteU32(e, v, data, at, structEnd)
}
