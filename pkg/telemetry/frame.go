package telemetry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Frame is an immutable snapshot of all slots of a channel.
type Frame struct {
	// Seq counts writes published to the channel.
	Seq uint64
	// Values holds the slot values in index order.
	Values []float32
	// Writes counts writes per slot.
	Writes []uint64
}

var (
	// ErrFrameSize indicates a frame doesn't match the layout.
	ErrFrameSize = errors.New("frame size mismatch")
	// ErrUnknownLayout indicates no channel has the requested layout.
	ErrUnknownLayout = errors.New("unknown layout")
)

// ErrSlotRange indicates the slot is outside of the layout.
type ErrSlotRange struct {
	Slot   Slot
	Layout string
}

// Error implements error.
func (e *ErrSlotRange) Error() string {
	return fmt.Sprintf("slot %d out of range in %s layout", int(e.Slot), e.Layout)
}

// Get returns the value of a slot, 0 when out of range.
func (f Frame) Get(s Slot) float32 {
	if s < 0 || int(s) >= len(f.Values) {
		return 0
	}
	return f.Values[s]
}

// Float returns the value of a slot as float64.
func (f Frame) Float(s Slot) float64 {
	return float64(f.Get(s))
}

// MarshalBinary encodes the values as the memory image of the shared region:
// little-endian IEEE-754 single precision, one word per slot.
func (f Frame) MarshalBinary() ([]byte, error) {
	b := make([]byte, len(f.Values)*4)
	for n, v := range f.Values {
		binary.LittleEndian.PutUint32(b[n*4:], math.Float32bits(v))
	}
	return b, nil
}

// UnmarshalBinary decodes the memory image. Seq and Writes are reset.
func (f *Frame) UnmarshalBinary(data []byte) error {
	if len(data)%4 != 0 {
		return ErrFrameSize
	}
	values := make([]float32, len(data)/4)
	for n := range values {
		values[n] = math.Float32frombits(binary.LittleEndian.Uint32(data[n*4:]))
	}
	f.Seq, f.Values, f.Writes = 0, values, nil
	return nil
}
