package sh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dualdrive/pkg/l1"
)

// FormatInfo renders a discovered drive.
func FormatInfo(info l1.ControllerInfo) string {
	if info.Meta.Description == "" {
		return info.Ref.Name()
	}
	return info.Ref.Name() + ": " + info.Meta.Description
}

// Discover lists the drives accepted by filter, all when filter is nil.
func (s *Shell) Discover(filter func(l1.ControllerInfo) bool) ([]l1.ControllerInfo, error) {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout+time.Second)
	defer cancel()
	found, err := connector.Discover(ctx)
	if err != nil || filter == nil {
		return found, err
	}
	res := found[:0]
	for _, info := range found {
		if filter(info) {
			res = append(res, info)
		}
	}
	return res, nil
}

// SelectController discovers drives and asks for a choice when more than
// one is found.
func (s *Shell) SelectController(filter func(l1.ControllerInfo) bool) (*l1.ControllerInfo, error) {
	found, err := s.Discover(filter)
	if err != nil {
		return nil, err
	}
	switch {
	case len(found) == 0:
		return nil, errors.New("no drive discovered")
	case len(found) == 1:
		return &found[0], nil
	case !s.Interactive:
		return nil, fmt.Errorf("%d drives discovered, specify one", len(found))
	}
	items := make([]string, len(found))
	for n, info := range found {
		items[n] = FormatInfo(info)
	}
	index := s.Shell.MultiChoice(items, "Which one to connect?")
	if index < 0 {
		return nil, errors.New("canceled")
	}
	return &found[index], nil
}

// refFromArgs accepts TYPE/ID, TYPE ID or TYPE as a discovery filter.
func (s *Shell) refFromArgs(args []string) (l1.ControllerRef, error) {
	switch {
	case len(args) >= 2:
		return l1.ControllerRef{Type: args[0], ID: args[1]}, nil
	case len(args) == 1 && strings.Contains(args[0], "/"):
		ref, ok := l1.ParseRef(args[0])
		if !ok {
			return ref, fmt.Errorf("invalid drive %q, expect TYPE/ID", args[0])
		}
		return ref, nil
	}
	var filter func(l1.ControllerInfo) bool
	if len(args) == 1 {
		filter = func(info l1.ControllerInfo) bool { return info.Ref.Type == args[0] }
	}
	info, err := s.SelectController(filter)
	if err != nil {
		return l1.ControllerRef{}, err
	}
	return info.Ref, nil
}

var (
	// DiscoverCmd lists drives.
	DiscoverCmd = ishell.Cmd{
		Name:    "discover",
		Aliases: []string{"list", "l"},
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			found, err := s.Discover(nil)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if found == nil {
					found = []l1.ControllerInfo{}
				}
				out, err := json.Marshal(found)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			if len(found) == 0 {
				c.Println("No drives found")
			}
			for _, info := range found {
				c.Println(FormatInfo(info))
			}
		},
	}

	// ConnectCmd connects a drive.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[TYPE/ID | TYPE [ID]]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			ref, err := s.refFromArgs(c.Args)
			if err == nil {
				err = s.Connect(ref)
			}
			if err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects current drive.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}

	// WatchCmd toggles printing of DriveStatus events.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[on|off]",
		Func: MustBeConnected(func(c *ishell.Context) {
			conn := ShellFrom(c).Conn
			on := !conn.Watching()
			if len(c.Args) > 0 {
				on = c.Args[0] != "off"
			}
			conn.Watch(on)
		}),
	}

	builtinCmds = []*ishell.Cmd{&DiscoverCmd, &ConnectCmd, &DisconnectCmd, &WatchCmd}
)
