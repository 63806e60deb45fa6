package qep

// UnitTimer estimates speed from the position delta over a unit period.
type UnitTimer struct {
	Config Config

	oldpos float64
	primed bool
}

// Init implements Estimator.
func (e *UnitTimer) Init() {
	e.oldpos, e.primed = 0, false
}

// Calc implements Estimator.
func (e *UnitTimer) Calc(s Sample) Speed {
	mech, elec := e.Config.angles(s.Position)
	if !e.primed {
		e.oldpos, e.primed = mech, true
		return e.Config.speed(mech, elec, 0)
	}
	delta := mech - e.oldpos
	e.oldpos = mech
	// the counter wrapped within the period
	if s.Direction >= 0 && delta < 0 {
		delta++
	} else if s.Direction < 0 && delta > 0 {
		delta--
	}
	var rpm float64
	if secs := e.Config.UnitPeriod.Seconds(); secs > 0 {
		rpm = delta / secs * 60
	}
	return e.Config.speed(mech, elec, rpm)
}

// CaptureTimer estimates speed from the capture period between edges.
type CaptureTimer struct {
	Config Config
}

// Init implements Estimator.
func (e *CaptureTimer) Init() {}

// Calc implements Estimator.
func (e *CaptureTimer) Calc(s Sample) Speed {
	mech, elec := e.Config.angles(s.Position)
	if s.CaptureOverflow || s.CapturePeriod == 0 || e.Config.CountsPerRev == 0 {
		return e.Config.speed(mech, elec, 0)
	}
	revs := float64(e.Config.EdgesPerEvent) / float64(e.Config.CountsPerRev)
	secs := float64(s.CapturePeriod) / e.Config.CaptureClockHz
	rpm := revs / secs * 60
	if s.Direction < 0 {
		rpm = -rpm
	}
	return e.Config.speed(mech, elec, rpm)
}
