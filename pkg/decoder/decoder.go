package decoder

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Store is the command channel as seen by the decoder.
type Store interface {
	Write(telemetry.Slot, float32) error
	Load() telemetry.Frame
}

// Command is a decoded remote command.
type Command struct {
	Code  Code
	Value float32
}

// Result reports what a command did.
type Result struct {
	// Applied is set when a slot was written.
	Applied bool
	// Status is set when a status was read back.
	Status bool
	Slot   telemetry.Slot
	// Code is the status code resolved from the cursor.
	Code  Code
	Value float32
}

// Stats counts decoded commands.
type Stats struct {
	Applied    uint64
	Status     uint64
	Unknown    uint64
	Unresolved uint64
	// Errors are set commands the store failed to take.
	Errors uint64
}

// Decoder writes commands into the store and keeps a one-deep cursor of the
// last selected slot. Status queries read back the slot under the cursor.
// There is a single cursor for all clients.
type Decoder struct {
	store Store

	lock     sync.Mutex
	cursor   telemetry.Slot
	selected bool
	stats    Stats
}

// New creates a Decoder.
func New(store Store) *Decoder {
	return &Decoder{store: store}
}

// Decode applies a command. Unknown codes are ignored.
func (d *Decoder) Decode(cmd Command) Result {
	d.lock.Lock()
	defer d.lock.Unlock()
	if slot, ok := cmd.Code.Slot(); ok {
		if err := d.store.Write(slot, cmd.Value); err != nil {
			glog.Errorf("write %s: %v", cmd.Code, err)
			d.stats.Errors++
			return Result{}
		}
		d.cursor, d.selected = slot, true
		d.stats.Applied++
		glog.V(3).Infof("%s = %v", cmd.Code, cmd.Value)
		return Result{Applied: true, Slot: slot, Value: cmd.Value}
	}
	if cmd.Code.IsStatus() {
		return d.status()
	}
	d.stats.Unknown++
	glog.V(2).Infof("ignored unknown command %s", cmd.Code)
	return Result{}
}

// Status reads back the slot under the cursor. Only velocity, omega, left
// and right have status codes, any other cursor is unresolved.
func (d *Decoder) Status() Result {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.status()
}

func (d *Decoder) status() Result {
	code, ok := statusCodes[d.cursor]
	if !d.selected || !ok {
		d.stats.Unresolved++
		return Result{}
	}
	d.stats.Status++
	return Result{
		Status: true,
		Slot:   d.cursor,
		Code:   code,
		Value:  d.store.Load().Get(d.cursor),
	}
}

// Cursor returns the last selected slot.
func (d *Decoder) Cursor() (telemetry.Slot, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.cursor, d.selected
}

// Stats returns the counters.
func (d *Decoder) Stats() Stats {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.stats
}
