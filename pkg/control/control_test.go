package control

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dualdrive/pkg/framework"

	"github.com/robotalks/dualdrive/pkg/actuator"
	"github.com/robotalks/dualdrive/pkg/decoder"
	"github.com/robotalks/dualdrive/pkg/kinematics"
	"github.com/robotalks/dualdrive/pkg/qep"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

const delta = 1e-9

func f32(v float64) float64 {
	return float64(float32(v))
}

type rig struct {
	commands *telemetry.Channel
	regs     *actuator.SimRegisters
	bank     *actuator.Bank
	d        *Dispatcher
}

func newRig() *rig {
	r := &rig{
		commands: telemetry.NewChannel(telemetry.CommandLayout),
		regs:     &actuator.SimRegisters{},
	}
	t := *Default()
	r.bank = actuator.NewBank(t.Timebase, r.regs)
	r.d = NewDispatcher(t, r.commands, r.bank)
	return r
}

func (r *rig) set(slot telemetry.Slot, v float32) {
	if err := r.commands.Write(slot, v); err != nil {
		panic(err)
	}
}

func TestSelectMode(t *testing.T) {
	testCases := []struct {
		name   string
		in     Inputs
		expect Mode
	}{
		{"tracking wins over goal", Inputs{TrackingError: 5, GoalX: 3}, TrajectoryFollow},
		{"goal", Inputs{GoalX: 3}, GoalSeek},
		{"negative goal", Inputs{TrackingError: -1, GoalX: -2}, GoalSeek},
		{"goal y alone", Inputs{GoalY: 3}, DirectSpeed},
		{"idle", Inputs{}, DirectSpeed},
		{"velocity", Inputs{Velocity: 1, Left: 2}, DirectSpeed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, SelectMode(tc.in))
		})
	}
	require.Equal(t, "trajectory_follow", TrajectoryFollow.String())
}

func TestDirectSpeedMatrix(t *testing.T) {
	r := newRig()
	r.set(telemetry.SlotVelocity, 0.1)
	r.set(telemetry.SlotOmega, 0.5)
	s := r.d.Tick()
	require.Equal(t, DirectSpeed, s.Mode)
	require.Equal(t, PathMatrix, s.Path)

	g := kinematics.DefaultGeometry()
	v, w := f32(0.1), f32(0.5)
	wl := v/g.WheelRadius - w*g.HalfTrack/(2*g.WheelRadius)
	wr := v/g.WheelRadius + w*g.HalfTrack/(2*g.WheelRadius)
	require.InDelta(t, wl, s.Wheels.Left, delta)
	require.InDelta(t, wr, s.Wheels.Right, delta)
	m := kinematics.DefaultDutyMap()
	require.InDelta(t, m.Left(wl), r.bank.Duty(actuator.Left), delta)
	require.InDelta(t, m.Right(wr), r.bank.Duty(actuator.Right), delta)
	// latched speed is untouched by direct speed
	require.Equal(t, DefaultCruiseSpeed, s.Speed)
}

func TestRoundTripTurnLeft(t *testing.T) {
	r := newRig()
	dec := decoder.New(r.commands)
	res := dec.Decode(decoder.Command{Code: decoder.CodeLeft, Value: 13.9})
	require.True(t, res.Applied)
	require.Equal(t, float32(13.9), r.commands.Load().Get(telemetry.SlotLeft))

	s := r.d.Tick()
	require.Equal(t, DirectSpeed, s.Mode)
	require.Equal(t, PathTurnLeft, s.Path)
	require.Equal(t, float64(100), r.bank.Duty(actuator.Left))
	require.Equal(t, float64(float32(13.9)), r.bank.Duty(actuator.Right))
	require.Equal(t, uint16(30000), r.regs.Compare(actuator.Left))
}

func TestTurnRightAndHold(t *testing.T) {
	r := newRig()
	r.set(telemetry.SlotRight, 9.7)
	s := r.d.Tick()
	require.Equal(t, PathTurnRight, s.Path)
	require.Equal(t, 100-f32(9.7), r.bank.Duty(actuator.Left))
	require.Equal(t, float64(0), r.bank.Duty(actuator.Right))

	// a negative magnitude with the other zero leaves outputs alone
	r.set(telemetry.SlotRight, -1)
	writes := r.regs.Writes(actuator.Left)
	s = r.d.Tick()
	require.Equal(t, PathHold, s.Path)
	require.Equal(t, writes, r.regs.Writes(actuator.Left))
	require.Equal(t, 100-f32(9.7), r.bank.Duty(actuator.Left))
}

func TestTrajectoryFollow(t *testing.T) {
	r := newRig()
	g := kinematics.DefaultGeometry()

	r.set(telemetry.SlotTrackingError, 30)
	r.set(telemetry.SlotHeading, 1)
	s := r.d.Tick()
	require.Equal(t, TrajectoryFollow, s.Mode)
	require.Equal(t, float64(0), s.Rotate)
	require.InDelta(t, DefaultCruiseSpeed/g.WheelRadius, s.Wheels.Left, delta)
	require.InDelta(t, DefaultCruiseSpeed/g.WheelRadius, s.Wheels.Right, delta)

	r.set(telemetry.SlotTrackingError, 100)
	s = r.d.Tick()
	rotate := kinematics.TrackingRotate(1, 100, kinematics.DefaultTrackingGain, 0)
	require.InDelta(t, rotate, s.Rotate, delta)
	require.InDelta(t, g.Inverse().Wheels(DefaultCruiseSpeed, rotate).Left, s.Wheels.Left, delta)

	// on the line the last correction is kept
	r.set(telemetry.SlotHeading, 0)
	s = r.d.Tick()
	require.InDelta(t, rotate, s.Rotate, delta)
}

func TestGoalSeekLatchesSpeed(t *testing.T) {
	r := newRig()
	r.set(telemetry.SlotGoalX, 2)
	r.set(telemetry.SlotGoalY, 0.5)
	s := r.d.Tick()
	require.Equal(t, GoalSeek, s.Mode)
	require.InDelta(t, 0.075, s.Speed, delta)
	require.InDelta(t, 0, s.Rotate, delta)

	// line tracking now cruises at the goal seeking speed
	r.set(telemetry.SlotTrackingError, 10)
	s = r.d.Tick()
	require.Equal(t, TrajectoryFollow, s.Mode)
	require.InDelta(t, 0.075/kinematics.DefaultWheelRadius, s.Wheels.Left, delta)
}

func TestGrip(t *testing.T) {
	testCases := []struct {
		name         string
		mode         float32
		gripA, gripB float64
		writes       uint64
	}{
		{"forward", GripForward, 0, GripDuty, 1},
		{"backward", GripBackward, GripDuty, 0, 1},
		{"stop", GripStop, 0, 0, 1},
		{"unknown", 3, 7, 7, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig()
			r.bank.SetGripA(7)
			r.bank.SetGripB(7)
			writes := r.regs.Writes(actuator.GripA)
			r.set(telemetry.SlotGrip, tc.mode)
			r.d.Tick()
			require.Equal(t, tc.gripA, r.bank.Duty(actuator.GripA))
			require.Equal(t, tc.gripB, r.bank.Duty(actuator.GripB))
			require.Equal(t, writes+tc.writes, r.regs.Writes(actuator.GripA))
		})
	}
}

type fakeCounter struct {
	pos  uint32
	step uint32
}

func (c *fakeCounter) Sample() qep.Sample {
	c.pos += c.step
	return qep.Sample{Position: c.pos, Direction: 1}
}

func TestCoreStatus(t *testing.T) {
	commands := telemetry.NewChannel(telemetry.CommandLayout)
	status := telemetry.NewChannel(telemetry.StatusLayout)
	regs := &actuator.SimRegisters{}
	core, err := Default().NewCore(commands, status, regs, &fakeCounter{step: 400}, &fakeCounter{step: 200})
	require.NoError(t, err)

	require.NoError(t, commands.Write(telemetry.SlotGoalX, 2))
	require.NoError(t, commands.Write(telemetry.SlotGoalY, 0.5))
	for i := 0; i < 50; i++ {
		core.Step()
	}
	f := status.Load()
	require.Equal(t, uint64(1), f.Seq)
	require.Equal(t, float32(GoalSeek), f.Get(telemetry.StatusMode))
	require.Equal(t, float32(50), f.Get(telemetry.StatusTicks))
	require.InDelta(t, 600, f.Get(telemetry.StatusLeftRPM), 1e-3)
	require.InDelta(t, 300, f.Get(telemetry.StatusRightRPM), 1e-3)
	s := core.Dispatcher.State()
	require.Equal(t, float32(s.LeftDuty), f.Get(telemetry.StatusLeftDuty))
	require.InDelta(t, s.Wheels.Right, f.Get(telemetry.StatusRightWheel), 1e-3)

	stats := core.Scheduler.Stats()
	require.Len(t, stats, 3)
	require.Equal(t, "speed", stats[0].Name)
	require.Equal(t, uint64(5), stats[0].Runs)
	require.Equal(t, "dispatch", stats[1].Name)
	require.Equal(t, uint64(50), stats[1].Runs)
	require.Equal(t, uint64(1), stats[2].Runs)
	require.Equal(t, uint64(1), core.Dispatcher.ReaderStats().Fresh)
}

type tickAt uint64

var _ fx.TickContext = tickAt(0)

func (t tickAt) Time() time.Time       { return time.Time{} }
func (t tickAt) Tick() uint64          { return uint64(t) }
func (t tickAt) Period() time.Duration { return DefaultStatusPeriod }

func TestStatusTicksWrap(t *testing.T) {
	r := newRig()
	status := telemetry.NewChannel(telemetry.StatusLayout)
	task := NewStatusTask(r.d, nil, status)

	r.d.state.Ticks = telemetry.TicksMask - 1
	r.d.Tick()
	task.RunTask(tickAt(1))
	require.Equal(t, float32(telemetry.TicksMask), status.Load().Get(telemetry.StatusTicks))

	r.d.Tick()
	task.RunTask(tickAt(2))
	require.Equal(t, float32(0), status.Load().Get(telemetry.StatusTicks))

	r.d.state.Ticks = 1<<24 + 2
	r.d.Tick()
	task.RunTask(tickAt(3))
	require.Equal(t, float32(3), status.Load().Get(telemetry.StatusTicks))
	require.Equal(t, uint64(1<<24+3), r.d.State().Ticks)
}

func TestTuningLoad(t *testing.T) {
	tuning := *Default()
	require.NoError(t, tuning.Load([]byte(`
k: 0.2
geometry:
  wheel_radius: 0.05
speed_period: 20ms
estimator: capture
`)))
	require.Equal(t, 0.2, tuning.K)
	require.Equal(t, 0.05, tuning.Geometry.WheelRadius)
	require.Equal(t, kinematics.DefaultHalfTrack, tuning.Geometry.HalfTrack)
	require.Equal(t, 20*time.Millisecond, tuning.SpeedPeriod)
	require.Equal(t, qep.KindCaptureTimer, tuning.Estimator)

	tuning = *Default()
	require.Error(t, tuning.Load([]byte("status_period: 3500us\n")))
	tuning = *Default()
	require.Error(t, tuning.Load([]byte("estimator: bogus\n")))
	tuning = *Default()
	require.Error(t, tuning.Load([]byte("timebase:\n  switch_hz: 100\n")))
}
