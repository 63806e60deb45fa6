// Package kinematics converts motion intents of a differential drive into
// wheel angular velocities and duty cycles.
package kinematics

// Default geometry.
const (
	DefaultWheelRadius = 0.06
	DefaultHalfTrack   = 0.2
)

// Geometry describes the drive base.
type Geometry struct {
	// WheelRadius is rw in meters.
	WheelRadius float64 `yaml:"wheel_radius"`
	// HalfTrack is R in meters.
	HalfTrack float64 `yaml:"half_track"`
}

// DefaultGeometry returns the geometry of the reference platform.
func DefaultGeometry() Geometry {
	return Geometry{WheelRadius: DefaultWheelRadius, HalfTrack: DefaultHalfTrack}
}

// Matrix is a 2x2 linear transform.
type Matrix [2][2]float64

// WheelCommand is a pair of wheel angular velocities in rad/s.
type WheelCommand struct {
	Left  float64
	Right float64
}

// Inverse returns the transform from (v, w) to wheel velocities.
func (g Geometry) Inverse() Matrix {
	rw, r := g.WheelRadius, g.HalfTrack
	return Matrix{
		{1 / rw, -r / (2 * rw)},
		{1 / rw, r / (2 * rw)},
	}
}

// Forward returns the transform from wheel velocities to (v, w).
func (g Geometry) Forward() Matrix {
	rw, r := g.WheelRadius, g.HalfTrack
	return Matrix{
		{rw / 2, rw / 2},
		{-rw / r, rw / r},
	}
}

// Wheels applies an inverse matrix to linear speed v and turn rate w.
func (m Matrix) Wheels(v, w float64) WheelCommand {
	return WheelCommand{
		Left:  m[0][0]*v + m[0][1]*w,
		Right: m[1][0]*v + m[1][1]*w,
	}
}

// Body applies a forward matrix to wheel velocities.
func (m Matrix) Body(wheels WheelCommand) (v, w float64) {
	v = m[0][0]*wheels.Left + m[0][1]*wheels.Right
	w = m[1][0]*wheels.Left + m[1][1]*wheels.Right
	return
}
