package control

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/dualdrive/pkg/actuator"
	"github.com/robotalks/dualdrive/pkg/kinematics"
	"github.com/robotalks/dualdrive/pkg/qep"
)

// Default task periods.
const (
	DefaultDispatchPeriod = time.Millisecond
	DefaultSpeedPeriod    = 10 * time.Millisecond
	DefaultStatusPeriod   = 50 * time.Millisecond
	DefaultCruiseSpeed    = 0.125
)

// Tuning holds the constants of the control core.
type Tuning struct {
	Geometry kinematics.Geometry `yaml:"geometry"`
	Duty     kinematics.DutyMap  `yaml:"duty"`
	Timebase actuator.Timebase   `yaml:"timebase"`
	Encoder  qep.Config          `yaml:"encoder"`
	// Estimator selects the encoder speed estimator.
	Estimator qep.Kind `yaml:"estimator"`

	// K is the line tracking gain.
	K float64 `yaml:"k"`
	// CruiseSpeed is the initial line tracking speed.
	CruiseSpeed float64 `yaml:"cruise_speed"`
	// TrackingThreshold is the tracking error under which the robot drives
	// straight.
	TrackingThreshold float64 `yaml:"tracking_threshold"`
	// GoalSpeedCap limits the goal seeking speed.
	GoalSpeedCap float64 `yaml:"goal_speed_cap"`

	DispatchPeriod time.Duration `yaml:"dispatch_period"`
	SpeedPeriod    time.Duration `yaml:"speed_period"`
	StatusPeriod   time.Duration `yaml:"status_period"`
}

var defaultTuning = Tuning{
	Geometry:          kinematics.DefaultGeometry(),
	Duty:              kinematics.DefaultDutyMap(),
	Timebase:          actuator.DefaultTimebase(),
	Encoder:           qep.DefaultConfig(),
	Estimator:         qep.KindUnitTimer,
	K:                 kinematics.DefaultTrackingGain,
	CruiseSpeed:       DefaultCruiseSpeed,
	TrackingThreshold: kinematics.DefaultTrackingThreshold,
	GoalSpeedCap:      kinematics.DefaultSpeedCap,
	DispatchPeriod:    DefaultDispatchPeriod,
	SpeedPeriod:       DefaultSpeedPeriod,
	StatusPeriod:      DefaultStatusPeriod,
}

var tuningFile string

func init() {
	tuningFile = os.Getenv("DUALDRIVE_TUNING")
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&tuningFile, "tuning", tuningFile, "YAML file overriding tuning constants.")
	flag.Float64Var(&defaultTuning.Geometry.WheelRadius, "wheel-radius", defaultTuning.Geometry.WheelRadius, "Wheel radius (m).")
	flag.Float64Var(&defaultTuning.Geometry.HalfTrack, "half-track", defaultTuning.Geometry.HalfTrack, "Half of the track width (m).")
	flag.Float64Var(&defaultTuning.K, "tracking-gain", defaultTuning.K, "Line tracking gain.")
	flag.Float64Var(&defaultTuning.CruiseSpeed, "cruise-speed", defaultTuning.CruiseSpeed, "Initial line tracking speed (m/s).")
	flag.Float64Var(&defaultTuning.TrackingThreshold, "tracking-threshold", defaultTuning.TrackingThreshold, "Tracking error under which to drive straight.")
	flag.Float64Var(&defaultTuning.GoalSpeedCap, "goal-speed-cap", defaultTuning.GoalSpeedCap, "Maximum goal seeking speed (m/s).")
	flag.DurationVar(&defaultTuning.DispatchPeriod, "dispatch-period", defaultTuning.DispatchPeriod, "Control tick period.")
	flag.Var((*kindValue)(&defaultTuning.Estimator), "estimator", "Encoder speed estimator: unit or capture.")
}

type kindValue qep.Kind

func (v *kindValue) String() string {
	return string(*v)
}

func (v *kindValue) Set(s string) error {
	if _, err := qep.New(qep.Kind(s), qep.Config{}); err != nil {
		return err
	}
	*v = kindValue(s)
	return nil
}

// Default gets default tuning.
func Default() *Tuning {
	return &defaultTuning
}

// NewTuning creates a Tuning from defaults, flags and the tuning file.
func NewTuning() (*Tuning, error) {
	t := defaultTuning
	if tuningFile != "" {
		if err := t.LoadFile(tuningFile); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// LoadFile overrides the tuning with the values present in a YAML file.
func (t *Tuning) LoadFile(fn string) error {
	data, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	return t.Load(data)
}

// Load overrides the tuning with the values present in YAML data.
func (t *Tuning) Load(data []byte) error {
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("invalid tuning: %v", err)
	}
	return t.Validate()
}

// Validate checks the tuning is usable.
func (t *Tuning) Validate() error {
	switch {
	case t.Geometry.WheelRadius <= 0:
		return fmt.Errorf("wheel radius must be positive")
	case t.Geometry.HalfTrack <= 0:
		return fmt.Errorf("half track must be positive")
	case t.Timebase.SwitchHz <= 0 || t.Timebase.ClockHz/t.Timebase.SwitchHz > 65535:
		return fmt.Errorf("PWM period of %v/%v does not fit 16 bits", t.Timebase.ClockHz, t.Timebase.SwitchHz)
	case t.DispatchPeriod <= 0 || t.SpeedPeriod <= 0 || t.StatusPeriod <= 0:
		return fmt.Errorf("task periods must be positive")
	case t.SpeedPeriod%t.DispatchPeriod != 0 || t.StatusPeriod%t.DispatchPeriod != 0:
		return fmt.Errorf("task periods must be multiples of %v", t.DispatchPeriod)
	}
	if _, err := qep.New(t.Estimator, t.Encoder); err != nil {
		return err
	}
	return nil
}
