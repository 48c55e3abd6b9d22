package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AxisAngle returns the rotation produced by angular velocity omega
// (radians per second around omega's direction) applied for dt seconds.
// A zero angular velocity yields the identity.
func AxisAngle(omega mgl32.Vec3, dt float32) mgl32.Quat {
	speed := omega.Len()
	if speed <= epsilon {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(speed*dt, omega.Mul(1/speed))
}

// Rotate2D rotates the unit vector (cos, sin) by angle radians.
func Rotate2D(cos, sin, angle float32) (float32, float32) {
	s, c := math.Sincos(float64(angle))
	rc := cos*float32(c) - sin*float32(s)
	rs := sin*float32(c) + cos*float32(s)
	l := float32(math.Sqrt(float64(rc*rc + rs*rs)))
	if l <= epsilon {
		return 1, 0
	}
	return rc / l, rs / l
}

// Accumulator composes the spins contributed to one particle during one
// frame and applies them to its rotation in a single step.
//
// It is scratch state of one controller frame: Reset before the first
// contribution, Drain once after the last. A drained accumulator is the
// identity again.
type Accumulator struct {
	q     mgl32.Quat
	spins int
}

// NewAccumulator returns an accumulator at identity.
func NewAccumulator() Accumulator {
	return Accumulator{q: mgl32.QuatIdent()}
}

// Reset returns the accumulator to identity.
func (a *Accumulator) Reset() {
	a.q = mgl32.QuatIdent()
	a.spins = 0
}

// Spin composes the rotation of angular velocity omega over dt.
func (a *Accumulator) Spin(omega mgl32.Vec3, dt float32) {
	if omega.LenSqr() <= epsilon {
		return
	}
	a.q = AxisAngle(omega, dt).Mul(a.q)
	a.spins++
}

// Drain applies the accumulated spin to rot, normalizes the result and
// resets the accumulator.
func (a *Accumulator) Drain(rot mgl32.Quat) mgl32.Quat {
	if a.spins == 0 {
		a.Reset()
		return rot
	}
	out := a.q.Mul(rot).Normalize()
	a.Reset()
	return out
}

// Spins reports how many contributions are pending.
func (a *Accumulator) Spins() int {
	return a.spins
}

// IsIdentity reports whether no rotation is pending.
func (a *Accumulator) IsIdentity() bool {
	return a.spins == 0 && a.q == mgl32.QuatIdent()
}
