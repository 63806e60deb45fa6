package control

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// StatusTask publishes the state of the control core into the status
// channel.
type StatusTask struct {
	dispatcher *Dispatcher
	speed      *SpeedTask
	status     *telemetry.Channel
	values     []float32
}

// NewStatusTask creates a StatusTask. speed may be nil when no encoders are
// attached.
func NewStatusTask(d *Dispatcher, speed *SpeedTask, status *telemetry.Channel) *StatusTask {
	return &StatusTask{
		dispatcher: d,
		speed:      speed,
		status:     status,
		values:     make([]float32, status.Layout().Len()),
	}
}

// RunTask implements framework.Task.
func (t *StatusTask) RunTask(tc fx.TickContext) {
	s := t.dispatcher.State()
	wheels := t.dispatcher.Tuning.Duty.WheelsFromDuties(s.LeftDuty, s.RightDuty)
	v := t.values
	v[telemetry.StatusMode] = float32(s.Mode)
	v[telemetry.StatusLeftWheel] = float32(wheels.Left)
	v[telemetry.StatusRightWheel] = float32(wheels.Right)
	v[telemetry.StatusLeftDuty] = float32(s.LeftDuty)
	v[telemetry.StatusRightDuty] = float32(s.RightDuty)
	if t.speed != nil {
		left, right := t.speed.Speeds()
		v[telemetry.StatusLeftRPM] = float32(left.RPM)
		v[telemetry.StatusRightRPM] = float32(right.RPM)
	}
	v[telemetry.StatusTicks] = float32(s.Ticks & telemetry.TicksMask)
	if err := t.status.WriteFrame(v); err != nil {
		glog.Errorf("publish status: %v", err)
		return
	}
	glog.V(4).Infof("tick %d: %s left %.2f right %.2f", tc.Tick(), s.Mode, s.LeftDuty, s.RightDuty)
}
