// Package actuator converts duty cycles into PWM compare values and writes
// them to a register backend.
package actuator

// Default clocks.
const (
	DefaultClockHz  = 150e6
	DefaultSwitchHz = 5e3
)

// Timebase derives the PWM period from the control clock and the
// switching frequency.
type Timebase struct {
	ClockHz  float64 `yaml:"clock_hz"`
	SwitchHz float64 `yaml:"switch_hz"`
}

// DefaultTimebase is 150MHz switching at 5kHz.
func DefaultTimebase() Timebase {
	return Timebase{ClockHz: DefaultClockHz, SwitchHz: DefaultSwitchHz}
}

// Period returns the number of clock counts per PWM period.
func (t Timebase) Period() uint16 {
	return uint16(t.ClockHz / t.SwitchHz)
}

// Compare converts percent into a compare value. Percent is not range
// checked: the result is truncated into the 16-bit register like the
// hardware does.
func (t Timebase) Compare(percent float64) uint16 {
	return uint16(int64(float64(t.Period()) * percent / 100))
}
