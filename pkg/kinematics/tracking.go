package kinematics

import "math"

// Line tracking constants.
const (
	// DefaultTrackingGain is K.
	DefaultTrackingGain = 0.1
	// DefaultTrackingThreshold is the tracking error under which the robot
	// drives straight.
	DefaultTrackingThreshold = 50
	// QuadrantBound splits the heading error into quadrants.
	QuadrantBound = 1.57
)

// TrackingRotate computes the line tracking turn rate from the heading
// error theta and the tracking error radius. It is piecewise proportional
// over four quadrants of theta. A heading error of exactly 0 keeps prev.
func TrackingRotate(theta, radius, k, prev float64) float64 {
	bias := radius / 20
	switch {
	case theta > QuadrantBound:
		return -(3*(math.Pi-theta) + bias) * k
	case theta > 0:
		return -(3*(math.Pi/2-theta) + bias) * k
	case theta < -QuadrantBound:
		return (-3*(-math.Pi-theta) + bias) * k
	case theta < 0:
		return (-3*(-math.Pi/2-theta) + bias) * k
	}
	return prev
}
