package actuator

import (
	"fmt"
	"sync"
)

// Channel identifies a PWM output.
type Channel int

// Output channels.
const (
	Left Channel = iota
	Right
	GripA
	GripB
	NumChannels
)

var channelNames = [NumChannels]string{"left", "right", "grip_a", "grip_b"}

// String implements fmt.Stringer.
func (c Channel) String() string {
	if c >= 0 && c < NumChannels {
		return channelNames[c]
	}
	return fmt.Sprintf("channel(%d)", int(c))
}

// Register is the sink of compare values.
type Register interface {
	WriteCompare(ch Channel, compare uint16) error
}

// ErrInvalidChannel is returned for a channel outside the bank.
type ErrInvalidChannel struct {
	Channel Channel
}

// Error implements error.
func (e *ErrInvalidChannel) Error() string {
	return fmt.Sprintf("invalid channel %d", int(e.Channel))
}

// SimRegisters is an in-memory register file.
type SimRegisters struct {
	lock    sync.RWMutex
	compare [NumChannels]uint16
	writes  [NumChannels]uint64
}

// WriteCompare implements Register.
func (r *SimRegisters) WriteCompare(ch Channel, compare uint16) error {
	if ch < 0 || ch >= NumChannels {
		return &ErrInvalidChannel{Channel: ch}
	}
	r.lock.Lock()
	r.compare[ch] = compare
	r.writes[ch]++
	r.lock.Unlock()
	return nil
}

// Compare reads back the compare value of a channel.
func (r *SimRegisters) Compare(ch Channel) uint16 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.compare[ch]
}

// Writes returns the number of writes to a channel.
func (r *SimRegisters) Writes(ch Channel) uint64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.writes[ch]
}
