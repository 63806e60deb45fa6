// Package plant simulates the drive base behind the PWM registers: it turns
// compare values back into wheel speeds, moves the robot and feeds the
// encoders.
package plant

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/dualdrive/pkg/actuator"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/kinematics"
	"github.com/robotalks/dualdrive/pkg/qep"
)

// Registers is the register file the plant observes.
type Registers interface {
	Compare(actuator.Channel) uint16
}

// Config describes the simulated robot.
type Config struct {
	Geometry kinematics.Geometry
	Duty     kinematics.DutyMap
	Timebase actuator.Timebase
	Encoder  qep.Config
	// Accel limits the wheel acceleration in rad/s^2, 0 means unlimited.
	Accel float64
}

// DefaultConfig returns the reference robot.
func DefaultConfig() Config {
	return Config{
		Geometry: kinematics.DefaultGeometry(),
		Duty:     kinematics.DefaultDutyMap(),
		Timebase: actuator.DefaultTimebase(),
		Encoder:  qep.DefaultConfig(),
	}
}

// Plant is the simulated drive base.
type Plant struct {
	Config Config

	regs    Registers
	forward kinematics.Matrix

	lock   sync.Mutex
	pose   kinematics.Pose
	wheels kinematics.WheelCommand
	grip   float64
	left   encoder
	right  encoder
}

// New creates a Plant.
func New(cfg Config, regs Registers) *Plant {
	p := &Plant{
		Config:  cfg,
		regs:    regs,
		forward: cfg.Geometry.Forward(),
	}
	p.left.cfg, p.right.cfg = &p.Config.Encoder, &p.Config.Encoder
	return p
}

// RunTask implements framework.Task.
func (p *Plant) RunTask(tc fx.TickContext) {
	p.Advance(tc.Period())
}

// Advance moves the simulation forward by dt.
func (p *Plant) Advance(dt time.Duration) {
	secs := dt.Seconds()
	if secs <= 0 {
		return
	}
	target := p.Config.Duty.WheelsFromDuties(p.duty(actuator.Left), p.duty(actuator.Right))
	grip := p.duty(actuator.GripB) - p.duty(actuator.GripA)

	p.lock.Lock()
	defer p.lock.Unlock()
	p.wheels.Left = p.ramp(p.wheels.Left, target.Left, secs)
	p.wheels.Right = p.ramp(p.wheels.Right, target.Right, secs)
	p.grip = grip
	v, w := p.forward.Body(p.wheels)
	p.pose = integrate(p.pose, v, w, secs)
	p.left.advance(p.wheels.Left, secs)
	p.right.advance(p.wheels.Right, secs)
}

func (p *Plant) duty(ch actuator.Channel) float64 {
	period := p.Config.Timebase.Period()
	if period == 0 {
		return 0
	}
	return float64(p.regs.Compare(ch)) * 100 / float64(period)
}

func (p *Plant) ramp(current, target, secs float64) float64 {
	if p.Config.Accel <= 0 {
		return target
	}
	step := p.Config.Accel * secs
	if diff := target - current; math.Abs(diff) <= step {
		return target
	} else if diff > 0 {
		return current + step
	}
	return current - step
}

// integrate moves pose along an arc of speed v and turn rate w.
func integrate(pose kinematics.Pose, v, w, secs float64) kinematics.Pose {
	if math.Abs(w) < 1e-9 {
		pose.X += v * secs * math.Cos(pose.Theta)
		pose.Y += v * secs * math.Sin(pose.Theta)
		return pose
	}
	theta := pose.Theta + w*secs
	pose.X += v / w * (math.Sin(theta) - math.Sin(pose.Theta))
	pose.Y -= v / w * (math.Cos(theta) - math.Cos(pose.Theta))
	pose.Theta = normalizeHeading(theta)
	return pose
}

func normalizeHeading(r float64) float64 {
	r = math.Remainder(r, 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	}
	return r
}

// Pose returns the current pose.
func (p *Plant) Pose() kinematics.Pose {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.pose
}

// SetPose places the robot.
func (p *Plant) SetPose(pose kinematics.Pose) {
	p.lock.Lock()
	p.pose = pose
	p.lock.Unlock()
}

// Wheels returns the current wheel speeds.
func (p *Plant) Wheels() kinematics.WheelCommand {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.wheels
}

// Grip returns the gripper drive: positive closes, negative opens.
func (p *Plant) Grip() float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.grip
}

// LeftEncoder returns the counter of the left wheel.
func (p *Plant) LeftEncoder() qep.Counter {
	return &counter{plant: p, enc: &p.left}
}

// RightEncoder returns the counter of the right wheel.
func (p *Plant) RightEncoder() qep.Counter {
	return &counter{plant: p, enc: &p.right}
}
