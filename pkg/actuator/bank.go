package actuator

import (
	"math"
	"sync"

	"github.com/golang/glog"
)

// Stats counts duty updates per channel.
type Stats struct {
	Writes     [NumChannels]uint64
	OutOfRange [NumChannels]uint64
	Errors     [NumChannels]uint64
}

// Bank holds the four duty setters.
type Bank struct {
	Timebase Timebase

	reg   Register
	lock  sync.Mutex
	duty  [NumChannels]float64
	stats Stats
}

// NewBank creates a Bank writing to reg.
func NewBank(tb Timebase, reg Register) *Bank {
	return &Bank{Timebase: tb, reg: reg}
}

// SetDuty writes percent to a channel. A percent outside [0, 100] is
// written through unchanged and counted.
func (b *Bank) SetDuty(ch Channel, percent float64) error {
	if ch < 0 || ch >= NumChannels {
		return &ErrInvalidChannel{Channel: ch}
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.stats.Writes[ch]++
	if percent < 0 || percent > 100 || math.IsNaN(percent) {
		b.stats.OutOfRange[ch]++
		if n := b.stats.OutOfRange[ch]; n == 1 || n%1000 == 0 {
			glog.Warningf("%s duty %v out of range (%d times)", ch, percent, n)
		}
	}
	b.duty[ch] = percent
	if err := b.reg.WriteCompare(ch, b.Timebase.Compare(percent)); err != nil {
		b.stats.Errors[ch]++
		return err
	}
	return nil
}

// SetLeft sets the left wheel duty.
func (b *Bank) SetLeft(percent float64) error {
	return b.SetDuty(Left, percent)
}

// SetRight sets the right wheel duty.
func (b *Bank) SetRight(percent float64) error {
	return b.SetDuty(Right, percent)
}

// SetGripA sets the gripper forward duty.
func (b *Bank) SetGripA(percent float64) error {
	return b.SetDuty(GripA, percent)
}

// SetGripB sets the gripper backward duty.
func (b *Bank) SetGripB(percent float64) error {
	return b.SetDuty(GripB, percent)
}

// Duty returns the last duty written to a channel, 0 for an invalid one.
func (b *Bank) Duty(ch Channel) float64 {
	if ch < 0 || ch >= NumChannels {
		return 0
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.duty[ch]
}

// Halt writes zero duty to every channel and returns the first error.
func (b *Bank) Halt() error {
	var first error
	for ch := Channel(0); ch < NumChannels; ch++ {
		if err := b.SetDuty(ch, 0); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stats returns the counters.
func (b *Bank) Stats() Stats {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.stats
}
