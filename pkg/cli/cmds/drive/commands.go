package drive

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dualdrive/pkg/cli/sh"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

func parseFloats(c *ishell.Context, names ...string) ([]float64, bool) {
	if len(c.Args) < len(names) {
		c.Err(fmt.Errorf("%s required", names[len(c.Args)]))
		return nil, false
	}
	vals := make([]float64, len(names))
	for n, name := range names {
		val, err := strconv.ParseFloat(c.Args[n], 32)
		if err != nil {
			c.Err(fmt.Errorf("Invalid %s: %v", name, err))
			return nil, false
		}
		vals[n] = val
	}
	return vals, true
}

// sendWrites sends writes in order and stops at the first failure.
func sendWrites(c *ishell.Context, writes []*msgs.SlotWrite) {
	s := sh.ShellFrom(c)
	for _, w := range writes {
		reply, err := s.Request(w)
		if err != nil {
			c.Err(err)
			return
		}
		if res, ok := reply.(*msgs.SlotResult); !ok || !res.Applied {
			c.Err(fmt.Errorf("write 0x%02x not applied", w.Code))
			return
		}
	}
	c.Println("OK")
}

var (
	// SetCmd writes one command slot.
	SetCmd = ishell.Cmd{
		Name:    "set",
		Aliases: []string{"s"},
		Help:    "SLOT|CODE VALUE",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("SLOT and VALUE required"))
				return
			}
			code, err := ParseCode(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(fmt.Errorf("Invalid VALUE: %v", err))
				return
			}
			sh.DoCommand(c, write(code, val))
		}),
	}

	// StatusCmd reads back the last selected slot.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StatusQuery{})
		}),
	}

	// FrameCmd dumps a channel.
	FrameCmd = ishell.Cmd{
		Name:    "frame",
		Aliases: []string{"f"},
		Help:    "[command|status]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var query msgs.FrameQuery
			if len(c.Args) > 0 {
				query.Layout = c.Args[0]
			}
			s := sh.ShellFrom(c)
			reply, err := s.Request(&query)
			if err != nil {
				c.Err(err)
				return
			}
			frame, ok := reply.(*msgs.FrameReply)
			if !ok || s.OutputJSON {
				s.Print(c, reply)
				return
			}
			for _, line := range FormatFrame(frame) {
				c.Println(line)
			}
		}),
	}

	// DriveCmd drives with body velocities.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"dr"},
		Help:    "V(m/s) W(rad/s)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if vals, ok := parseFloats(c, "V", "W"); ok {
				sendWrites(c, DriveWrites(vals[0], vals[1]))
			}
		}),
	}

	// StopCmd stops driving.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sendWrites(c, DriveWrites(0, 0))
		}),
	}

	// TurnCmd pivots with a duty.
	TurnCmd = ishell.Cmd{
		Name:    "turn",
		Aliases: []string{"t"},
		Help:    "left|right DUTY(%)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("SIDE and DUTY required"))
				return
			}
			duty, err := strconv.ParseFloat(c.Args[1], 32)
			if err != nil {
				c.Err(fmt.Errorf("Invalid DUTY: %v", err))
				return
			}
			writes, err := TurnWrites(c.Args[0], duty)
			if err != nil {
				c.Err(err)
				return
			}
			sendWrites(c, writes)
		}),
	}

	// GoalCmd seeks a goal pose.
	GoalCmd = ishell.Cmd{
		Name:    "goal",
		Aliases: []string{"g"},
		Help:    "X(m) Y(m) [THETA(rad)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			vals, ok := parseFloats(c, "X", "Y")
			if !ok {
				return
			}
			var theta float64
			if len(c.Args) > 2 {
				val, err := strconv.ParseFloat(c.Args[2], 32)
				if err != nil {
					c.Err(fmt.Errorf("Invalid THETA: %v", err))
					return
				}
				theta = val
			}
			sendWrites(c, GoalWrites(vals[0], vals[1], theta))
		}),
	}

	// TrackCmd follows a line.
	TrackCmd = ishell.Cmd{
		Name:    "track",
		Aliases: []string{"tr"},
		Help:    "ERROR HEADING(rad)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if vals, ok := parseFloats(c, "ERROR", "HEADING"); ok {
				sendWrites(c, TrackWrites(vals[0], vals[1]))
			}
		}),
	}

	// GripCmd drives the gripper.
	GripCmd = ishell.Cmd{
		Name:    "grip",
		Aliases: []string{"gr"},
		Help:    "0|1|2",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("STATE required"))
				return
			}
			state, err := strconv.Atoi(c.Args[0])
			if err != nil {
				c.Err(fmt.Errorf("Invalid STATE: %v", err))
				return
			}
			writes, err := GripWrites(state)
			if err != nil {
				c.Err(err)
				return
			}
			sendWrites(c, writes)
		}),
	}
)

func init() {
	sh.AddCmds(
		&SetCmd,
		&StatusCmd,
		&FrameCmd,
		&DriveCmd,
		&StopCmd,
		&TurnCmd,
		&GoalCmd,
		&TrackCmd,
		&GripCmd,
	)
}
