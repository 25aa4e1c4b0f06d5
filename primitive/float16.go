package primitive

import (
	"math"
)

// CompressedFloat is a 16-bit fraction in [-1, 1].
//
// The code space is asymmetric: 0x0000 maps to 0, positive codes scale by
// 1/0x7FFF, 0x8000 maps to -1, and the remaining negative codes climb back
// toward 0 from -1.
type CompressedFloat uint16

// Decompress expands the code to its float value.
func (c CompressedFloat) Decompress() float32 {
	code := uint16(c)
	switch {
	case code == 0:
		return 0
	case code < 0x8000:
		return float32(code) / 0x7FFF
	case code == 0x8000:
		return -1
	default:
		return -1 + float32(code-0x8000)/0x7FFF
	}
}

// CompressFloat quantizes f (clamped to [-1, 1]) into the 16-bit code space.
func CompressFloat(f float32) CompressedFloat {
	switch {
	case f >= 1:
		return 0x7FFF
	case f >= 0:
		return CompressedFloat(math.RoundToEven(float64(f) * 0x7FFF))
	case f <= -1:
		return 0x8000
	default:
		return CompressedFloat(0x8000 + uint16(math.RoundToEven((float64(f)+1)*0x7FFF)))
	}
}

// signedFraction decodes an n-bit two's-complement field into [-1, 1].
func signedFraction(bits uint32, width uint) float32 {
	shift := 32 - width
	signed := int32(bits<<shift) >> shift
	limit := float32(int32(1)<<(width-1) - 1)
	f := float32(signed) / limit
	if f < -1 {
		return -1
	}
	return f
}

// packSignedFraction encodes f in [-1, 1] as an n-bit two's-complement field.
func packSignedFraction(f float32, width uint) uint32 {
	limit := float32(int32(1)<<(width-1) - 1)
	if f > 1 {
		f = 1
	}
	if f < -1 {
		f = -1
	}
	return uint32(int32(math.RoundToEven(float64(f*limit)))) & (1<<width - 1)
}

// CompressedVector3D packs a 3D unit vector into 32 bits as 11/11/10 signed
// fractions (x in the low bits).
type CompressedVector3D uint32

// Decompress expands the packed vector.
func (c CompressedVector3D) Decompress() Vector3D {
	v := uint32(c)
	return Vector3D{
		X: signedFraction(v, 11),
		Y: signedFraction(v>>11, 11),
		Z: signedFraction(v>>22, 10),
	}
}

// CompressVector3D packs a vector, clamping each component to [-1, 1].
func CompressVector3D(v Vector3D) CompressedVector3D {
	return CompressedVector3D(
		packSignedFraction(v.X, 11) |
			packSignedFraction(v.Y, 11)<<11 |
			packSignedFraction(v.Z, 10)<<22,
	)
}

// CompressedVector2D packs a 2D vector into 32 bits as 16/16 signed fractions
// (x in the low bits).
type CompressedVector2D uint32

// Decompress expands the packed vector.
func (c CompressedVector2D) Decompress() Vector2D {
	v := uint32(c)
	return Vector2D{
		X: signedFraction(v, 16),
		Y: signedFraction(v>>16, 16),
	}
}

// CompressVector2D packs a vector, clamping each component to [-1, 1].
func CompressVector2D(v Vector2D) CompressedVector2D {
	return CompressedVector2D(
		packSignedFraction(v.X, 16) |
			packSignedFraction(v.Y, 16)<<16,
	)
}
