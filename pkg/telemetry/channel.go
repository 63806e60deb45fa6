package telemetry

import (
	"math"
	"sync"
	"sync/atomic"
)

// Channel is the shared region between the cores.
//
// Writers are serialized and publish a new immutable Frame by an atomic
// pointer swap, so a reader always observes a complete frame and never a
// torn value. Readers never block writers and writers never wait for
// readers: the last write wins.
type Channel struct {
	layout    *Layout
	current   atomic.Pointer[Frame]
	writeLock sync.Mutex
	changed   chan struct{}
}

// NewChannel creates a zeroed Channel for the layout.
func NewChannel(layout *Layout) *Channel {
	c := &Channel{layout: layout, changed: make(chan struct{}, 1)}
	c.current.Store(&Frame{
		Values: make([]float32, layout.Len()),
		Writes: make([]uint64, layout.Len()),
	})
	return c
}

// Layout gets the layout of the channel.
func (c *Channel) Layout() *Layout {
	return c.layout
}

// Load returns the latest published frame.
func (c *Channel) Load() Frame {
	return *c.current.Load()
}

// Changed is signaled after writes. Multiple writes may be coalesced into
// one signal.
func (c *Channel) Changed() <-chan struct{} {
	return c.changed
}

// Write publishes a value into a slot.
func (c *Channel) Write(s Slot, v float32) error {
	if !c.layout.Valid(s) {
		return &ErrSlotRange{Slot: s, Layout: c.layout.Name}
	}
	c.writeLock.Lock()
	old := c.current.Load()
	f := &Frame{
		Seq:    old.Seq + 1,
		Values: append([]float32(nil), old.Values...),
		Writes: append([]uint64(nil), old.Writes...),
	}
	f.Values[s] = v
	f.Writes[s]++
	c.current.Store(f)
	c.writeLock.Unlock()
	c.notify()
	return nil
}

// WriteFrame replaces all slots in one publish. Only slots whose bits
// differ count as written.
func (c *Channel) WriteFrame(values []float32) error {
	if len(values) != c.layout.Len() {
		return ErrFrameSize
	}
	c.writeLock.Lock()
	old := c.current.Load()
	f := &Frame{
		Seq:    old.Seq + 1,
		Values: append([]float32(nil), values...),
		Writes: append([]uint64(nil), old.Writes...),
	}
	for n, v := range values {
		if math.Float32bits(v) != math.Float32bits(old.Values[n]) {
			f.Writes[n]++
		}
	}
	c.current.Store(f)
	c.writeLock.Unlock()
	c.notify()
	return nil
}

func (c *Channel) notify() {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}
