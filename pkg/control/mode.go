// Package control implements the control core: it polls the command
// channel on a fixed tick, selects a drive mode and drives the actuators.
package control

import (
	"fmt"

	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Mode is the drive mode of a tick.
type Mode int

// Drive modes.
const (
	DirectSpeed Mode = iota
	GoalSeek
	TrajectoryFollow
)

var modeNames = map[Mode]string{
	DirectSpeed:      "direct_speed",
	GoalSeek:         "goal_seek",
	TrajectoryFollow: "trajectory_follow",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Inputs is the decoded view of a command frame.
type Inputs struct {
	Velocity      float64
	Omega         float64
	Left          float64
	Right         float64
	Grip          float64
	Heading       float64
	TrackingError float64
	GoalX         float64
	GoalY         float64
	GoalHeading   float64
}

// InputsFromFrame decodes a command frame.
func InputsFromFrame(f telemetry.Frame) Inputs {
	return Inputs{
		Velocity:      f.Float(telemetry.SlotVelocity),
		Omega:         f.Float(telemetry.SlotOmega),
		Left:          f.Float(telemetry.SlotLeft),
		Right:         f.Float(telemetry.SlotRight),
		Grip:          f.Float(telemetry.SlotGrip),
		Heading:       f.Float(telemetry.SlotHeading),
		TrackingError: f.Float(telemetry.SlotTrackingError),
		GoalX:         f.Float(telemetry.SlotGoalX),
		GoalY:         f.Float(telemetry.SlotGoalY),
		GoalHeading:   f.Float(telemetry.SlotGoalHeading),
	}
}

// SelectMode resolves the drive mode: a positive tracking error wins over a
// non-zero goal, everything else is direct speed.
func SelectMode(in Inputs) Mode {
	switch {
	case in.TrackingError > 0:
		return TrajectoryFollow
	case in.GoalX != 0:
		return GoalSeek
	}
	return DirectSpeed
}
