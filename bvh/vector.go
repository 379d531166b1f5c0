package bvh

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/chewxy/math32"
)

const (
	// Error returned when a vector component is accessed with an invalid axis.
	ErrTypeOutOfRange = "bvh_out_of_range"
)

// Axis identifies a vector component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "invalid"
	}
}

func EqualWithEpsilon(a float32, b float32, epsilon float32) bool {
	return math32.Abs(a-b) <= epsilon
}

type Vector3f struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func NewVector3f(x, y, z float32) Vector3f {
	return Vector3f{X: x, Y: y, Z: z}
}

// Component returns the value of the given axis.
func (v Vector3f) Component(a Axis) (float32, error) {
	switch a {
	case AxisX:
		return v.X, nil
	case AxisY:
		return v.Y, nil
	case AxisZ:
		return v.Z, nil
	default:
		return 0, errors.New("axis out of range").
			WithType(ErrTypeOutOfRange).
			WithTag("axis", int(a))
	}
}

// component is the unchecked version of Component, only called with the
// three valid axes.
func (v Vector3f) component(a Axis) float32 {
	switch a {
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	default:
		return v.X
	}
}

func (v Vector3f) EqualWithEpsilon(o Vector3f, epsilon float32) bool {
	return EqualWithEpsilon(v.X, o.X, epsilon) &&
		EqualWithEpsilon(v.Y, o.Y, epsilon) &&
		EqualWithEpsilon(v.Z, o.Z, epsilon)
}

func (v Vector3f) GreaterOrEqualThan(o Vector3f) bool {
	return v.X >= o.X && v.Y >= o.Y && v.Z >= o.Z
}

func (v Vector3f) LesserOrEqualThan(o Vector3f) bool {
	return v.X <= o.X && v.Y <= o.Y && v.Z <= o.Z
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector3f) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func Add(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

func Sub(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

func Mul(a Vector3f, s float32) Vector3f {
	return Vector3f{a.X * s, a.Y * s, a.Z * s}
}

// Min returns the per-axis minimum of a and b.
func Min(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{math32.Min(a.X, b.X), math32.Min(a.Y, b.Y), math32.Min(a.Z, b.Z)}
}

// Max returns the per-axis maximum of a and b.
func Max(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{math32.Max(a.X, b.X), math32.Max(a.Y, b.Y), math32.Max(a.Z, b.Z)}
}

func (v Vector3f) Dot(o Vector3f) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func Cross(a Vector3f, b Vector3f) Vector3f {
	return Vector3f{a.Y*b.Z - a.Z*b.Y, a.Z*b.X - a.X*b.Z, a.X*b.Y - a.Y*b.X}
}

func (v Vector3f) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Distance returns the euclidean distance between a and b.
func Distance(a Vector3f, b Vector3f) float32 {
	return Sub(a, b).Length()
}

func Normalized(a Vector3f) Vector3f {
	length := a.Length()
	if length == 0 {
		return a
	}
	return Mul(a, 1/length)
}
