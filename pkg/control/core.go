package control

import (
	"context"

	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/actuator"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/qep"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Core assembles the control core around a command and a status channel.
type Core struct {
	Tuning     Tuning
	Commands   *telemetry.Channel
	Status     *telemetry.Channel
	Bank       *actuator.Bank
	Dispatcher *Dispatcher
	Speed      *SpeedTask
	StatusTask *StatusTask
	Scheduler  *fx.Periodic
}

// NewCore creates the control core. The encoders are optional: without
// them no speed task is scheduled.
func (t Tuning) NewCore(commands, status *telemetry.Channel, reg actuator.Register, left, right qep.Counter) (*Core, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c := &Core{
		Tuning:    t,
		Commands:  commands,
		Status:    status,
		Bank:      actuator.NewBank(t.Timebase, reg),
		Scheduler: fx.NewPeriodic(t.DispatchPeriod),
	}
	c.Dispatcher = NewDispatcher(t, commands, c.Bank)
	c.Scheduler.Every("dispatch", t.DispatchPeriod, fx.PrLvControl, c.Dispatcher)
	if left != nil && right != nil {
		speed, err := NewSpeedTask(t.Estimator, t.Encoder, left, right)
		if err != nil {
			return nil, err
		}
		c.Speed = speed
		c.Scheduler.Every("speed", t.SpeedPeriod, fx.PrLvSense, speed)
	}
	c.StatusTask = NewStatusTask(c.Dispatcher, c.Speed, status)
	c.Scheduler.Every("status", t.StatusPeriod, fx.PrLvPostProc, c.StatusTask)
	return c, nil
}

// Step advances the control core by one base tick.
func (c *Core) Step() {
	c.Scheduler.Step()
}

// Run implements framework.Runnable.
func (c *Core) Run(ctx context.Context) error {
	glog.Infof("control core running at %v", c.Tuning.DispatchPeriod)
	err := c.Scheduler.Run(ctx)
	for _, s := range c.Scheduler.Stats() {
		glog.Infof("task %s: %d runs, %d overruns, max %v", s.Name, s.Runs, s.Overruns, s.Max)
	}
	return err
}
