// Package telemetry provides the shared channel between the network core
// and the control core.
//
// A channel is a fixed-capacity indexed store of float32 values. The meaning
// of every index is fixed at build time by a Layout and must match on both
// sides exactly, there is no tagging or versioning. Writers publish, readers
// poll: the last write wins and there is no flow control.
package telemetry

import "fmt"

// Slot is a fixed index into a channel frame.
type Slot int

// Command slots, written by the network core and polled by the control core.
const (
	SlotVelocity Slot = iota
	SlotOmega
	SlotLeft
	SlotRight
	SlotGrip
	SlotHeading
	SlotTrackingError
	SlotGoalX
	SlotGoalY
	SlotGoalHeading
)

// Status slots, written by the control core and polled by the network core.
const (
	StatusMode Slot = iota
	StatusLeftWheel
	StatusRightWheel
	StatusLeftDuty
	StatusRightDuty
	StatusLeftRPM
	StatusRightRPM
	StatusTicks
)

// TicksMask keeps the tick count in StatusTicks exact in a float32 slot.
const TicksMask = 1<<24 - 1

// Layout names the slots of a channel.
type Layout struct {
	Name  string
	names []string
	index map[string]Slot
}

// NewLayout creates a Layout with slot names in index order.
func NewLayout(name string, slots ...string) *Layout {
	l := &Layout{Name: name, names: slots, index: make(map[string]Slot, len(slots))}
	for n, s := range slots {
		l.index[s] = Slot(n)
	}
	return l
}

// Predefined layouts.
var (
	CommandLayout = NewLayout("command",
		"velocity",
		"omega",
		"left",
		"right",
		"grip",
		"heading",
		"tracking_error",
		"goal_x",
		"goal_y",
		"goal_heading",
	)

	StatusLayout = NewLayout("status",
		"mode",
		"left_wheel",
		"right_wheel",
		"left_duty",
		"right_duty",
		"left_rpm",
		"right_rpm",
		"ticks",
	)
)

// Len is the number of slots.
func (l *Layout) Len() int {
	return len(l.names)
}

// Valid checks the slot is in range.
func (l *Layout) Valid(s Slot) bool {
	return s >= 0 && int(s) < len(l.names)
}

// SlotName gets the name of a slot.
func (l *Layout) SlotName(s Slot) string {
	if !l.Valid(s) {
		return fmt.Sprintf("%s[%d]", l.Name, int(s))
	}
	return l.names[s]
}

// Lookup finds a slot by name.
func (l *Layout) Lookup(name string) (Slot, bool) {
	s, ok := l.index[name]
	return s, ok
}

// Names returns slot names in index order.
func (l *Layout) Names() []string {
	return append([]string(nil), l.names...)
}
