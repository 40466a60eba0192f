package game

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Round64 will round a float64 to a given precision.
func Round64(val float64, precision int) float64 {
	pwr := math.Pow(10, float64(precision))
	return math.Round(val*pwr) / pwr
}

// Vec32To64 converts a 32-bit vector to a 64-bit one.
func Vec32To64(vec3 mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(vec3[0]), float64(vec3[1]), float64(vec3[2])}
}

// Vec64To32 converts a 64-bit vector to a 32-bit one.
func Vec64To32(vec3 mgl64.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{float32(vec3[0]), float32(vec3[1]), float32(vec3[2])}
}

// HorizontalDistance returns the distance between a and b on the XZ plane.
func HorizontalDistance(a, b mgl64.Vec3) float64 {
	dx, dz := a.X()-b.X(), a.Z()-b.Z()
	return math.Sqrt(dx*dx + dz*dz)
}

// LookRotation returns the yaw and pitch needed for an observer at origin to aim at target.
// Yaw 0 faces +Z and grows clockwise, pitch is positive when looking down.
func LookRotation(origin, target mgl64.Vec3) (yaw, pitch float32) {
	diff := Vec64To32(target.Sub(origin))
	hz := math32.Sqrt(diff[0]*diff[0] + diff[2]*diff[2])

	yaw = math32.Atan2(diff[2], diff[0])/math32.Pi*180 - 90
	if yaw <= -180 {
		yaw += 360
	}
	pitch = -math32.Atan2(diff[1], hz) / math32.Pi * 180
	return yaw, pitch
}

// DirectionVector returns a direction vector from the given yaw and pitch values.
func DirectionVector(yaw, pitch float32) mgl32.Vec3 {
	yawRad, pitchRad := mgl32.DegToRad(yaw), mgl32.DegToRad(pitch)
	m := math32.Cos(pitchRad)

	return mgl32.Vec3{
		-m * math32.Sin(yawRad),
		-math32.Sin(pitchRad),
		m * math32.Cos(yawRad),
	}
}
