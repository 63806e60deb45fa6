package control

import (
	"sync"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/qep"
)

// SpeedTask runs the encoder speed estimators every unit period.
type SpeedTask struct {
	left, right       qep.Counter
	leftEst, rightEst qep.Estimator

	lock        sync.Mutex
	leftSpeed   qep.Speed
	rightSpeed  qep.Speed
	calculation uint64
}

// NewSpeedTask creates estimators of kind for both wheel encoders.
func NewSpeedTask(kind qep.Kind, cfg qep.Config, left, right qep.Counter) (*SpeedTask, error) {
	leftEst, err := qep.New(kind, cfg)
	if err != nil {
		return nil, err
	}
	rightEst, err := qep.New(kind, cfg)
	if err != nil {
		return nil, err
	}
	leftEst.Init()
	rightEst.Init()
	return &SpeedTask{
		left:     left,
		right:    right,
		leftEst:  leftEst,
		rightEst: rightEst,
	}, nil
}

// RunTask implements framework.Task.
func (t *SpeedTask) RunTask(fx.TickContext) {
	left := t.leftEst.Calc(t.left.Sample())
	right := t.rightEst.Calc(t.right.Sample())
	t.lock.Lock()
	t.leftSpeed, t.rightSpeed = left, right
	t.calculation++
	t.lock.Unlock()
}

// Speeds returns the latest estimates.
func (t *SpeedTask) Speeds() (left, right qep.Speed) {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.leftSpeed, t.rightSpeed
}
