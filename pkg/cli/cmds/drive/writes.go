// Package drive provides shell commands for the drive controller.
package drive

import (
	"fmt"
	"strconv"

	"github.com/robotalks/dualdrive/pkg/decoder"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// ParseCode accepts a command slot name (e.g. "left") or a numeric code
// (e.g. "0xA3").
func ParseCode(s string) (decoder.Code, error) {
	if slot, ok := telemetry.CommandLayout.Lookup(s); ok {
		if code, ok := decoder.SetCodeFor(slot); ok {
			return code, nil
		}
	}
	val, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", msgs.ErrUnknownCommand, s)
	}
	return decoder.Code(val), nil
}

func write(code decoder.Code, value float64) *msgs.SlotWrite {
	return &msgs.SlotWrite{Code: uint32(code), Value: float32(value)}
}

// DriveWrites selects the direct speed mode with body velocity v and
// angular velocity w. The mode selectors are cleared first.
func DriveWrites(v, w float64) []*msgs.SlotWrite {
	return []*msgs.SlotWrite{
		write(decoder.CodeTrackingError, 0),
		write(decoder.CodeGoalX, 0),
		write(decoder.CodeLeft, 0),
		write(decoder.CodeRight, 0),
		write(decoder.CodeVelocity, v),
		write(decoder.CodeOmega, w),
	}
}

// TurnWrites pivots on one wheel with the duty of the other.
func TurnWrites(side string, duty float64) ([]*msgs.SlotWrite, error) {
	writes := []*msgs.SlotWrite{
		write(decoder.CodeTrackingError, 0),
		write(decoder.CodeGoalX, 0),
	}
	switch side {
	case "left", "l":
		return append(writes, write(decoder.CodeRight, 0), write(decoder.CodeLeft, duty)), nil
	case "right", "r":
		return append(writes, write(decoder.CodeLeft, 0), write(decoder.CodeRight, duty)), nil
	}
	return nil, fmt.Errorf("invalid side %q, expect left or right", side)
}

// GoalWrites seeks the goal pose. The goal X goes last as it enables the
// mode.
func GoalWrites(x, y, theta float64) []*msgs.SlotWrite {
	return []*msgs.SlotWrite{
		write(decoder.CodeTrackingError, 0),
		write(decoder.CodeGoalY, y),
		write(decoder.CodeGoalHeading, theta),
		write(decoder.CodeGoalX, x),
	}
}

// TrackWrites follows a line given the tracking error and heading. The
// tracking error goes last as it enables the mode.
func TrackWrites(trackingErr, heading float64) []*msgs.SlotWrite {
	return []*msgs.SlotWrite{
		write(decoder.CodeHeading, heading),
		write(decoder.CodeTrackingError, trackingErr),
	}
}

// GripWrites drives the gripper: 0 stops, 1 forward, 2 backward.
func GripWrites(state int) ([]*msgs.SlotWrite, error) {
	if state < 0 || state > 2 {
		return nil, fmt.Errorf("invalid grip %d, expect 0, 1 or 2", state)
	}
	return []*msgs.SlotWrite{write(decoder.CodeGrip, float64(state))}, nil
}

// FormatFrame renders a frame reply as name=value lines.
func FormatFrame(m *msgs.FrameReply) []string {
	lines := make([]string, 0, len(m.Values)+1)
	lines = append(lines, fmt.Sprintf("%s #%d", m.Layout, m.Seq))
	for n, v := range m.Values {
		name := fmt.Sprintf("[%d]", n)
		if n < len(m.Names) {
			name = m.Names[n]
		}
		lines = append(lines, fmt.Sprintf("  %-16s %g", name, v))
	}
	return lines
}
