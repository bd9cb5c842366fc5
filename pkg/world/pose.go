package world

import "math"

// Vector3 is a position or velocity in world coordinates.
// Vector3는 월드 좌표계의 위치 또는 속도입니다.
type Vector3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Quaternion is an orientation. The zero value is not a valid rotation,
// use Identity.
// Quaternion은 방향을 나타냅니다.
type Quaternion struct {
	W float64 `json:"w" yaml:"w"`
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Identity is the no-rotation quaternion.
var Identity = Quaternion{W: 1}

// IsZero reports whether q was never set.
func (q Quaternion) IsZero() bool {
	return q == Quaternion{}
}

// Mul returns the rotation q followed by o.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
	}
}

// Normalize scales q to unit length. The zero quaternion becomes Identity.
func (q Quaternion) Normalize() Quaternion {
	n := math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n == 0 {
		return Identity
	}
	return Quaternion{W: q.W / n, X: q.X / n, Y: q.Y / n, Z: q.Z / n}
}

// FromYaw returns a rotation of yaw radians about Z.
func FromYaw(yaw float64) Quaternion {
	s, c := math.Sincos(yaw / 2)
	return Quaternion{W: c, Z: s}
}

// Yaw returns the rotation about Z in (-pi, pi].
func (q Quaternion) Yaw() float64 {
	return math.Atan2(2*(q.W*q.Z+q.X*q.Y), 1-2*(q.Y*q.Y+q.Z*q.Z))
}

// Pose is a position plus an orientation.
// Pose는 위치와 방향입니다.
type Pose struct {
	Pos Vector3    `json:"pos" yaml:"pos"`
	Rot Quaternion `json:"rot" yaml:"rot"`
}

// NewPose returns a pose at (x, y, z) with identity orientation.
func NewPose(x, y, z float64) Pose {
	return Pose{Pos: Vector3{X: x, Y: y, Z: z}, Rot: Identity}
}

// Clamp limits v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
