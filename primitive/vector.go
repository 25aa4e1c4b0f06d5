package primitive

import (
	"math"

	"github.com/FishAndRips/ringhopper-sub000/endian"
)

// Angle is an angle stored in radians.
type Angle float32

const AngleSize = 4

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float32 {
	return float32(float64(a) * 180.0 / math.Pi)
}

// AngleFromDegrees constructs an angle from degrees.
func AngleFromDegrees(degrees float32) Angle {
	return Angle(float64(degrees) * math.Pi / 180.0)
}

func (a *Angle) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	v, err := ReadF32(e, data, at, structEnd)
	if err != nil {
		return err
	}
	*a = Angle(v)
	return nil
}

func (a Angle) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, float32(a), data, at, structEnd)
}

// Vector2D is a 2D vector of 32-bit floats.
type Vector2D struct {
	X float32
	Y float32
}

const Vector2DSize = 8

func (v *Vector2D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if v.X, err = ReadF32(e, data, at, structEnd); err != nil {
		return err
	}
	v.Y, err = ReadF32(e, data, at+4, structEnd)
	return err
}

func (v Vector2D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, v.X, data, at, structEnd)
	WriteF32(e, v.Y, data, at+4, structEnd)
}

// Vector3D is a 3D vector of 32-bit floats.
type Vector3D struct {
	X float32
	Y float32
	Z float32
}

const Vector3DSize = 12

// Magnitude returns the Euclidean length of the vector.
func (v Vector3D) Magnitude() float64 {
	x, y, z := float64(v.X), float64(v.Y), float64(v.Z)
	return math.Sqrt(x*x + y*y + z*z)
}

// IsUnitVector reports whether the magnitude is within tolerance of 1.
func (v Vector3D) IsUnitVector(tolerance float64) bool {
	return math.Abs(v.Magnitude()-1.0) <= tolerance
}

func (v *Vector3D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if v.X, err = ReadF32(e, data, at, structEnd); err != nil {
		return err
	}
	if v.Y, err = ReadF32(e, data, at+4, structEnd); err != nil {
		return err
	}
	v.Z, err = ReadF32(e, data, at+8, structEnd)
	return err
}

func (v Vector3D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, v.X, data, at, structEnd)
	WriteF32(e, v.Y, data, at+4, structEnd)
	WriteF32(e, v.Z, data, at+8, structEnd)
}

// Euler2D is a yaw/pitch pair in radians.
type Euler2D struct {
	Yaw   Angle
	Pitch Angle
}

const Euler2DSize = 8

func (v *Euler2D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := v.Yaw.Read(e, data, at, structEnd); err != nil {
		return err
	}
	return v.Pitch.Read(e, data, at+4, structEnd)
}

func (v Euler2D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	v.Yaw.Write(e, data, at, structEnd)
	v.Pitch.Write(e, data, at+4, structEnd)
}

// Euler3D is a yaw/pitch/roll triple in radians.
type Euler3D struct {
	Yaw   Angle
	Pitch Angle
	Roll  Angle
}

const Euler3DSize = 12

func (v *Euler3D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := v.Yaw.Read(e, data, at, structEnd); err != nil {
		return err
	}
	if err := v.Pitch.Read(e, data, at+4, structEnd); err != nil {
		return err
	}
	return v.Roll.Read(e, data, at+8, structEnd)
}

func (v Euler3D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	v.Yaw.Write(e, data, at, structEnd)
	v.Pitch.Write(e, data, at+4, structEnd)
	v.Roll.Write(e, data, at+8, structEnd)
}

// Plane2D is a 2D plane (normal + distance).
type Plane2D struct {
	Vector Vector2D
	D      float32
}

const Plane2DSize = 12

func (p *Plane2D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := p.Vector.Read(e, data, at, structEnd); err != nil {
		return err
	}
	var err error
	p.D, err = ReadF32(e, data, at+Vector2DSize, structEnd)
	return err
}

func (p Plane2D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	p.Vector.Write(e, data, at, structEnd)
	WriteF32(e, p.D, data, at+Vector2DSize, structEnd)
}

// Plane3D is a 3D plane (normal + distance).
type Plane3D struct {
	Vector Vector3D
	D      float32
}

const Plane3DSize = 16

func (p *Plane3D) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := p.Vector.Read(e, data, at, structEnd); err != nil {
		return err
	}
	var err error
	p.D, err = ReadF32(e, data, at+Vector3DSize, structEnd)
	return err
}

func (p Plane3D) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	p.Vector.Write(e, data, at, structEnd)
	WriteF32(e, p.D, data, at+Vector3DSize, structEnd)
}

// Quaternion is a rotation quaternion.
type Quaternion struct {
	X float32
	Y float32
	Z float32
	W float32
}

const QuaternionSize = 16

func (q *Quaternion) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if q.X, err = ReadF32(e, data, at, structEnd); err != nil {
		return err
	}
	if q.Y, err = ReadF32(e, data, at+4, structEnd); err != nil {
		return err
	}
	if q.Z, err = ReadF32(e, data, at+8, structEnd); err != nil {
		return err
	}
	q.W, err = ReadF32(e, data, at+12, structEnd)
	return err
}

func (q Quaternion) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteF32(e, q.X, data, at, structEnd)
	WriteF32(e, q.Y, data, at+4, structEnd)
	WriteF32(e, q.Z, data, at+8, structEnd)
	WriteF32(e, q.W, data, at+12, structEnd)
}

// Matrix3x3 is a 3x3 matrix stored as three row vectors.
type Matrix3x3 struct {
	Rows [3]Vector3D
}

const Matrix3x3Size = 36

func (m *Matrix3x3) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	for i := range m.Rows {
		if err := m.Rows[i].Read(e, data, at+i*Vector3DSize, structEnd); err != nil {
			return err
		}
	}
	return nil
}

func (m Matrix3x3) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	for i := range m.Rows {
		m.Rows[i].Write(e, data, at+i*Vector3DSize, structEnd)
	}
}
