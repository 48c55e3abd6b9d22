// Package vmath holds the numeric helpers shared by the particle engine:
// integration steps, axis-angle quaternions, the per-frame angular
// accumulator and spherical direction conversion.
//
// Vectors and quaternions are mgl32 values; channels store float32 so no
// float64 round trips are made outside of trigonometry.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// epsilon below which a vector length is treated as zero.
const epsilon = 1e-12

// Clamp clamps v between minVal and maxVal.
func Clamp(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// Clamp01 clamps v to the [0, 1] range.
func Clamp01(v float32) float32 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// NormalizeAngle wraps an angle in radians to [-Pi, Pi].
func NormalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// Spherical converts spherical angles in radians to a unit direction.
// theta is the azimuth around Y, phi the polar angle measured from +Y.
func Spherical(theta, phi float32) mgl32.Vec3 {
	st, ct := math.Sincos(float64(theta))
	sp, cp := math.Sincos(float64(phi))
	return mgl32.Vec3{float32(ct * sp), float32(cp), float32(st * sp)}
}

// SphericalDeg is Spherical with angles in degrees.
func SphericalDeg(theta, phi float32) mgl32.Vec3 {
	return Spherical(mgl32.DegToRad(theta), mgl32.DegToRad(phi))
}

// SafeNormalize returns v scaled to unit length. ok is false when v has no
// usable length, in which case the zero vector is returned.
func SafeNormalize(v mgl32.Vec3) (mgl32.Vec3, bool) {
	l2 := v.LenSqr()
	if l2 <= epsilon {
		return mgl32.Vec3{}, false
	}
	return v.Mul(1 / float32(math.Sqrt(float64(l2)))), true
}
