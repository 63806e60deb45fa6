// Package periphpwm drives the actuator channels through the hardware PWM
// of GPIO pins exposed by periph.io.
package periphpwm

import (
	"fmt"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"

	"github.com/robotalks/dualdrive/pkg/actuator"
	fx "github.com/robotalks/dualdrive/pkg/framework"
)

// Pins names the GPIO pin of each channel.
type Pins [actuator.NumChannels]string

// DefaultPins are the hardware PWM capable pins of a Raspberry Pi header.
var DefaultPins = Pins{"GPIO12", "GPIO13", "GPIO18", "GPIO19"}

// Registers implements actuator.Register by converting compare values back
// to a duty of the PWM period.
type Registers struct {
	Timebase actuator.Timebase

	pins [actuator.NumChannels]gpio.PinOut
	freq physic.Frequency
}

// Open initializes the host drivers and resolves the pins.
func Open(tb actuator.Timebase, names Pins) (*Registers, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	r := &Registers{
		Timebase: tb,
		freq:     physic.Frequency(tb.SwitchHz) * physic.Hertz,
	}
	for n, name := range names {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("unknown pin %q for %s", name, actuator.Channel(n))
		}
		r.pins[n] = pin
	}
	return r, nil
}

// Duty converts a compare value into a gpio.Duty.
func (r *Registers) Duty(compare uint16) gpio.Duty {
	period := r.Timebase.Period()
	if period == 0 {
		return 0
	}
	if compare >= period {
		return gpio.DutyMax
	}
	return gpio.Duty(int64(gpio.DutyMax) * int64(compare) / int64(period))
}

// WriteCompare implements actuator.Register.
func (r *Registers) WriteCompare(ch actuator.Channel, compare uint16) error {
	if ch < 0 || ch >= actuator.NumChannels {
		return &actuator.ErrInvalidChannel{Channel: ch}
	}
	return r.pins[ch].PWM(r.Duty(compare), r.freq)
}

// Halt stops all outputs.
func (r *Registers) Halt() error {
	var errs fx.AggregatedError
	for _, pin := range r.pins {
		if pin != nil {
			errs.Add(pin.Out(gpio.Low))
		}
	}
	return errs.Aggregate()
}
