package vmath

import "github.com/go-gl/mathgl/mgl32"

// Verlet advances a position one step without an explicit velocity.
// It returns the new position and the value to store as previous position.
//
//	next = 2*pos - prev + accel*dt²
func Verlet(pos, prev, accel mgl32.Vec3, dtSqr float32) (next, newPrev mgl32.Vec3) {
	next = pos.Mul(2).Sub(prev).Add(accel.Mul(dtSqr))
	return next, pos
}

// Euler advances a position with semi-implicit Euler integration.
func Euler(pos, vel, accel mgl32.Vec3, dt float32) (newPos, newVel mgl32.Vec3) {
	newVel = vel.Add(accel.Mul(dt))
	newPos = pos.Add(newVel.Mul(dt))
	return newPos, newVel
}

// SeedPrevious returns the previous position that makes a Verlet step
// reproduce velocity vel over dt.
func SeedPrevious(pos, vel mgl32.Vec3, dt float32) mgl32.Vec3 {
	return pos.Sub(vel.Mul(dt))
}

// Centripetal returns the acceleration pulling pos toward the axis that
// passes through center. The magnitude is speed²/radius where radius is
// the distance from pos to its projection on the axis. ok is false when
// the particle sits on the axis or the axis is degenerate; no
// acceleration must be applied in that case.
func Centripetal(pos, center, axis mgl32.Vec3, speed float32) (accel mgl32.Vec3, ok bool) {
	n, ok := SafeNormalize(axis)
	if !ok {
		return mgl32.Vec3{}, false
	}
	rel := pos.Sub(center)
	radial := rel.Sub(n.Mul(rel.Dot(n)))
	dir, ok := SafeNormalize(radial)
	if !ok {
		return mgl32.Vec3{}, false
	}
	radius := radial.Len()
	return dir.Mul(-speed * speed / radius), true
}

// Tangential returns the unit direction dir × pos. ok is false when the
// cross product vanishes.
func Tangential(dir, pos mgl32.Vec3) (mgl32.Vec3, bool) {
	return SafeNormalize(dir.Cross(pos))
}
