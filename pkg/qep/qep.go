// Package qep estimates wheel position and speed from a quadrature encoder.
package qep

import (
	"fmt"
	"math"
	"time"
)

// Default encoder parameters.
const (
	DefaultCountsPerRev   = 4000
	DefaultPolePairs      = 2
	DefaultBaseRPM        = 6000
	DefaultUnitPeriod     = 10 * time.Millisecond
	DefaultCaptureClockHz = 150e6 / 128
	DefaultEdgesPerEvent  = 4
)

// Config describes the encoder and the timers sampling it.
type Config struct {
	CountsPerRev uint32 `yaml:"counts_per_rev"`
	PolePairs    int    `yaml:"pole_pairs"`
	// BaseRPM is the speed of 1.0 per-unit.
	BaseRPM float64 `yaml:"base_rpm"`
	// UnitPeriod is the interval the position counter is latched at.
	UnitPeriod time.Duration `yaml:"unit_period"`
	// CaptureClockHz is the clock of the capture timer.
	CaptureClockHz float64 `yaml:"capture_clock_hz"`
	// EdgesPerEvent is the number of counts between capture events.
	EdgesPerEvent uint32 `yaml:"edges_per_event"`
}

// DefaultConfig returns the parameters of the reference motors.
func DefaultConfig() Config {
	return Config{
		CountsPerRev:   DefaultCountsPerRev,
		PolePairs:      DefaultPolePairs,
		BaseRPM:        DefaultBaseRPM,
		UnitPeriod:     DefaultUnitPeriod,
		CaptureClockHz: DefaultCaptureClockHz,
		EdgesPerEvent:  DefaultEdgesPerEvent,
	}
}

// Sample is a latched reading of the encoder peripheral.
type Sample struct {
	// Position is the position counter.
	Position uint32
	// Direction is 1 forward, -1 reverse.
	Direction int
	// CapturePeriod is the number of capture clocks between the last two
	// capture events.
	CapturePeriod uint32
	// CaptureOverflow is set when the capture timer overflowed, which means
	// the wheel is too slow to measure.
	CaptureOverflow bool
}

// Speed is the output of an estimator.
type Speed struct {
	// Mech is the mechanical angle in revolutions [0, 1).
	Mech float64
	// Elec is the electrical angle in revolutions [0, 1).
	Elec float64
	// PerUnit is the speed relative to BaseRPM.
	PerUnit float64
	RPM     float64
}

// Counter supplies encoder samples.
type Counter interface {
	Sample() Sample
}

// Estimator computes speed from consecutive samples. Calc is called once
// every unit period.
type Estimator interface {
	Init()
	Calc(Sample) Speed
}

// Kind selects an Estimator.
type Kind string

// Estimator kinds.
const (
	// KindUnitTimer measures the position delta per unit period, accurate at
	// high speed.
	KindUnitTimer Kind = "unit"
	// KindCaptureTimer measures the time between encoder edges, accurate at
	// low speed.
	KindCaptureTimer Kind = "capture"
)

// New creates an Estimator of the given kind.
func New(kind Kind, cfg Config) (Estimator, error) {
	switch kind {
	case KindUnitTimer, "":
		return &UnitTimer{Config: cfg}, nil
	case KindCaptureTimer:
		return &CaptureTimer{Config: cfg}, nil
	}
	return nil, fmt.Errorf("unknown estimator %q", kind)
}

// angles computes the mechanical and electrical angles of a position.
func (c Config) angles(pos uint32) (mech, elec float64) {
	if c.CountsPerRev == 0 {
		return 0, 0
	}
	mech = float64(pos%c.CountsPerRev) / float64(c.CountsPerRev)
	_, elec = math.Modf(mech * float64(c.PolePairs))
	return
}

func (c Config) speed(mech, elec, rpm float64) Speed {
	s := Speed{Mech: mech, Elec: elec, RPM: rpm}
	if c.BaseRPM != 0 {
		s.PerUnit = rpm / c.BaseRPM
	}
	return s
}
