package kinematics

import "math"

// Default duty mapping constants.
const (
	DefaultLeftOffset  = 8
	DefaultRightOffset = 10
)

// DefaultGain converts rad/s into duty percent: 6000 rpm over a 250 percent
// span.
var DefaultGain = 6000 / (250 * 2 * math.Pi)

// DutyMap converts wheel velocities into duty cycles. The left motor is
// mounted mirrored, so its duty counts down from 100.
type DutyMap struct {
	Gain        float64 `yaml:"gain"`
	LeftOffset  float64 `yaml:"left_offset"`
	RightOffset float64 `yaml:"right_offset"`
}

// DefaultDutyMap returns the empirically tuned mapping.
func DefaultDutyMap() DutyMap {
	return DutyMap{
		Gain:        DefaultGain,
		LeftOffset:  DefaultLeftOffset,
		RightOffset: DefaultRightOffset,
	}
}

// Left returns the duty for the left wheel.
func (m DutyMap) Left(wl float64) float64 {
	return 100 - wl*m.Gain - m.LeftOffset
}

// Right returns the duty for the right wheel.
func (m DutyMap) Right(wr float64) float64 {
	return wr*m.Gain + m.RightOffset
}

// Duties maps both wheels.
func (m DutyMap) Duties(wheels WheelCommand) (left, right float64) {
	return m.Left(wheels.Left), m.Right(wheels.Right)
}

// WheelsFromDuties inverts Duties.
func (m DutyMap) WheelsFromDuties(left, right float64) WheelCommand {
	if m.Gain == 0 {
		return WheelCommand{}
	}
	return WheelCommand{
		Left:  (100 - m.LeftOffset - left) / m.Gain,
		Right: (right - m.RightOffset) / m.Gain,
	}
}
