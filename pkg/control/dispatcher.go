package control

import (
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/kinematics"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Outputs are the four duty setters driven by the dispatcher.
type Outputs interface {
	SetLeft(percent float64) error
	SetRight(percent float64) error
	SetGripA(percent float64) error
	SetGripB(percent float64) error
}

// Path is how the wheels were driven in a tick.
type Path int

// Drive paths.
const (
	// PathHold leaves the wheel outputs untouched.
	PathHold Path = iota
	// PathMatrix drives through the inverse kinematics matrix.
	PathMatrix
	// PathTurnLeft writes the left magnitude directly to the right wheel.
	PathTurnLeft
	// PathTurnRight writes the right magnitude directly to the left wheel.
	PathTurnRight
)

var pathNames = [...]string{"hold", "matrix", "turn_left", "turn_right"}

// String implements fmt.Stringer.
func (p Path) String() string {
	if p >= 0 && int(p) < len(pathNames) {
		return pathNames[p]
	}
	return "path(?)"
}

// Grip modes.
const (
	GripStop     = 0
	GripForward  = 1
	GripBackward = 2
	// GripDuty is the duty driving the gripper.
	GripDuty = 50
)

// State is the outcome of the last tick.
type State struct {
	Mode   Mode
	Path   Path
	Speed  float64
	Rotate float64
	Wheels kinematics.WheelCommand
	// LeftDuty and RightDuty are the last duties written to the wheels.
	LeftDuty  float64
	RightDuty float64
	Ticks     uint64
	Errors    uint64
}

// Dispatcher is the 1ms control task. Speed and rotate are latched across
// ticks: goal seeking overwrites the speed line tracking cruises at, and a
// heading error of 0 keeps the last turn rate.
type Dispatcher struct {
	Tuning Tuning

	reader  *telemetry.Reader
	out     Outputs
	inverse kinematics.Matrix

	lock  sync.Mutex
	state State
}

// NewDispatcher creates a Dispatcher polling commands and driving out.
func NewDispatcher(t Tuning, commands *telemetry.Channel, out Outputs) *Dispatcher {
	return &Dispatcher{
		Tuning:  t,
		reader:  commands.NewReader(),
		out:     out,
		inverse: t.Geometry.Inverse(),
		state:   State{Speed: t.CruiseSpeed},
	}
}

// RunTask implements framework.Task.
func (d *Dispatcher) RunTask(fx.TickContext) {
	d.Tick()
}

// Tick runs one control iteration: poll the commands, select the mode,
// drive the wheels then service the gripper.
func (d *Dispatcher) Tick() State {
	in := InputsFromFrame(d.reader.Poll())
	d.lock.Lock()
	defer d.lock.Unlock()
	s := &d.state
	s.Ticks++
	s.Mode = SelectMode(in)
	switch s.Mode {
	case TrajectoryFollow:
		d.followLine(in)
	case GoalSeek:
		d.seekGoal(in)
	default:
		d.directSpeed(in)
	}
	d.grip(in.Grip)
	return *s
}

// State returns the outcome of the last tick.
func (d *Dispatcher) State() State {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.state
}

// ReaderStats returns the polling statistics of the command channel.
func (d *Dispatcher) ReaderStats() telemetry.ReaderStats {
	return d.reader.Stats()
}

func (d *Dispatcher) directSpeed(in Inputs) {
	switch {
	case in.Left == 0 && in.Right == 0:
		d.drive(d.inverse.Wheels(in.Velocity, in.Omega))
	case in.Left > 0:
		d.state.Path = PathTurnLeft
		d.setWheels(100, in.Left)
	case in.Right > 0:
		d.state.Path = PathTurnRight
		d.setWheels(100-in.Right, 0)
	default:
		d.state.Path = PathHold
	}
}

func (d *Dispatcher) followLine(in Inputs) {
	s := &d.state
	if in.TrackingError <= d.Tuning.TrackingThreshold {
		s.Rotate = 0
	} else {
		s.Rotate = kinematics.TrackingRotate(in.Heading, in.TrackingError, d.Tuning.K, s.Rotate)
	}
	d.drive(d.inverse.Wheels(s.Speed, s.Rotate))
}

func (d *Dispatcher) seekGoal(in Inputs) {
	s := &d.state
	goal := kinematics.Pose{X: in.GoalX, Y: in.GoalY, Theta: in.GoalHeading}
	plan := d.Tuning.Geometry.PlanGoalCapped(kinematics.Pose{}, goal, s.Rotate, d.Tuning.GoalSpeedCap)
	s.Speed, s.Rotate = plan.Speed, plan.Rotate
	d.drive(d.inverse.Wheels(s.Speed, s.Rotate))
}

func (d *Dispatcher) drive(wheels kinematics.WheelCommand) {
	d.state.Path = PathMatrix
	d.state.Wheels = wheels
	d.setWheels(d.Tuning.Duty.Duties(wheels))
}

func (d *Dispatcher) setWheels(left, right float64) {
	d.state.LeftDuty, d.state.RightDuty = left, right
	d.check("left", d.out.SetLeft(left))
	d.check("right", d.out.SetRight(right))
}

func (d *Dispatcher) grip(mode float64) {
	switch mode {
	case GripForward:
		d.check("grip_a", d.out.SetGripA(0))
		d.check("grip_b", d.out.SetGripB(GripDuty))
	case GripBackward:
		d.check("grip_b", d.out.SetGripB(0))
		d.check("grip_a", d.out.SetGripA(GripDuty))
	case GripStop:
		d.check("grip_a", d.out.SetGripA(0))
		d.check("grip_b", d.out.SetGripB(0))
	}
}

func (d *Dispatcher) check(output string, err error) {
	if err == nil {
		return
	}
	d.state.Errors++
	if n := d.state.Errors; n == 1 || n%1000 == 0 {
		glog.Errorf("set %s duty: %v (%d errors)", output, err, n)
	}
}
