// Package decoder maps remote commands onto the command channel.
package decoder

import (
	"fmt"

	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Code identifies a command.
type Code byte

// Set codes write one command slot.
const (
	CodeVelocity      Code = 0xA1
	CodeOmega         Code = 0xA2
	CodeLeft          Code = 0xA3
	CodeRight         Code = 0xA4
	CodeGrip          Code = 0xA7
	CodeHeading       Code = 0xA9
	CodeTrackingError Code = 0xAA
	CodeGoalX         Code = 0xAB
	CodeGoalY         Code = 0xAC
	CodeGoalHeading   Code = 0xAD
)

// Status codes read back the slot under the cursor.
const (
	CodeGetVelocity Code = 4
	CodeGetOmega    Code = 5
	CodeGetLeft     Code = 6
	CodeGetRight    Code = 7
)

var (
	setSlots = map[Code]telemetry.Slot{
		CodeVelocity:      telemetry.SlotVelocity,
		CodeOmega:         telemetry.SlotOmega,
		CodeLeft:          telemetry.SlotLeft,
		CodeRight:         telemetry.SlotRight,
		CodeGrip:          telemetry.SlotGrip,
		CodeHeading:       telemetry.SlotHeading,
		CodeTrackingError: telemetry.SlotTrackingError,
		CodeGoalX:         telemetry.SlotGoalX,
		CodeGoalY:         telemetry.SlotGoalY,
		CodeGoalHeading:   telemetry.SlotGoalHeading,
	}

	statusCodes = map[telemetry.Slot]Code{
		telemetry.SlotVelocity: CodeGetVelocity,
		telemetry.SlotOmega:    CodeGetOmega,
		telemetry.SlotLeft:     CodeGetLeft,
		telemetry.SlotRight:    CodeGetRight,
	}

	codeNames = map[Code]string{
		CodeVelocity:      "velocity",
		CodeOmega:         "omega",
		CodeLeft:          "left",
		CodeRight:         "right",
		CodeGrip:          "grip",
		CodeHeading:       "heading",
		CodeTrackingError: "tracking_error",
		CodeGoalX:         "goal_x",
		CodeGoalY:         "goal_y",
		CodeGoalHeading:   "goal_heading",
		CodeGetVelocity:   "get_velocity",
		CodeGetOmega:      "get_omega",
		CodeGetLeft:       "get_left",
		CodeGetRight:      "get_right",
	}
)

// SetCodeFor finds the set code writing the slot.
func SetCodeFor(slot telemetry.Slot) (Code, bool) {
	for code, s := range setSlots {
		if s == slot {
			return code, true
		}
	}
	return 0, false
}

// Slot returns the slot a set code writes.
func (c Code) Slot() (telemetry.Slot, bool) {
	s, ok := setSlots[c]
	return s, ok
}

// IsSet indicates a set code.
func (c Code) IsSet() bool {
	_, ok := setSlots[c]
	return ok
}

// IsStatus indicates a status code.
func (c Code) IsStatus() bool {
	return c >= CodeGetVelocity && c <= CodeGetRight
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(0x%02x)", byte(c))
}
