package sh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/abiosoft/ishell"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

var (
	errNotConnected = errors.New("not connected")
	errTimeout      = errors.New("command timeout")
)

// ConnLoop runs the loop of a drive connection. DriveStatus events are
// consumed by the loop and printed while watching.
type ConnLoop struct {
	Ref    l1.ControllerRef
	Conn   l1.ControllerConn
	Loop   *fx.Loop
	Cancel context.CancelFunc

	watching atomic.Bool
}

// Watching tells if events are printed.
func (l *ConnLoop) Watching() bool {
	return l.watching.Load()
}

// Watch turns event printing on or off.
func (l *ConnLoop) Watch(on bool) {
	l.watching.Store(on)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(errNotConnected)
			return
		}
		fn(c)
	}
}

func (s *Shell) autoConnect() error {
	ref, ok := s.Config.Ref()
	if !ok && !s.Config.IsDirect() {
		return nil
	}
	if s.Interactive {
		s.Shell.Printf("Connecting %s ...\n", s.Config.RegistryURL)
	}
	if err := s.Connect(ref); err != nil {
		return fmt.Errorf("connect %s: %w", s.Config.RegistryURL, err)
	}
	return nil
}

// Connect replaces the current connection with one to ref.
func (s *Shell) Connect(ref l1.ControllerRef) error {
	connector, err := s.Config.NewConnector()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return err
	}
	cl := &ConnLoop{Ref: ref, Conn: conn, Loop: fx.NewLoop(), Cancel: cancel}
	if adder, ok := conn.(fx.LoopAdder); ok {
		cl.Loop.Add(adder)
	}
	cl.Loop.AddController(fx.PrLvPostProc, fx.ControlFunc(func(cc fx.ControlContext) error {
		s.printEvents(cc, cl)
		return nil
	}))
	s.Disconnect()
	s.Conn = cl
	go cl.Loop.Run(ctx)
	name := ref.Name()
	if !ref.IsValid() {
		name = s.Config.RegistryURL
	}
	s.Shell.SetPrompt(name + " > ")
	return nil
}

// Disconnect disconnects current drive.
func (s *Shell) Disconnect() {
	if s.Conn == nil {
		return
	}
	s.Conn.Cancel()
	s.Conn = nil
	s.Shell.SetPrompt(idlePrompt)
}

// Request sends a command and waits for the reply up to Timeout.
func (s *Shell) Request(msg fx.Message) (fx.Message, error) {
	if s.Conn == nil {
		return nil, errNotConnected
	}
	timer := time.NewTimer(s.Timeout)
	defer timer.Stop()
	select {
	case res := <-s.Conn.Conn.DoCommand(msg).ResultChan():
		return res.Msg, res.Err
	case <-timer.C:
		return nil, errTimeout
	}
}

// DoCommand runs a command and prints the reply.
func DoCommand(c *ishell.Context, msg fx.Message) error {
	s := ShellFrom(c)
	reply, err := s.Request(msg)
	if err == nil {
		err = s.Print(c, reply)
	}
	if err != nil {
		c.Err(err)
	}
	return err
}

// Print prints a message, in JSON when requested.
func (s *Shell) Print(c *ishell.Context, msg fx.Message) error {
	line, err := s.format(msg)
	if err != nil {
		return err
	}
	c.Println(line)
	return nil
}

func (s *Shell) format(msg fx.Message) (string, error) {
	sm, ok := msg.(msgs.SerializableMessage)
	if !ok {
		return "", msgs.ErrNotSerializable
	}
	if s.OutputJSON {
		out, err := json.Marshal(sm.Serializable())
		return string(out), err
	}
	switch m := msg.(type) {
	case *msgs.CommandOK:
		return "OK", nil
	case *msgs.DriveStatus:
		return FormatStatus(m), nil
	}
	return reflect.Indirect(reflect.ValueOf(msg)).Type().Name() + " " + sm.Serializable().String(), nil
}

func (s *Shell) printEvents(cc fx.ControlContext, cl *ConnLoop) {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		status, ok := mctx.CurrentMessage().(*msgs.DriveStatus)
		if !ok {
			return
		}
		mctx.MessageTaken()
		if !cl.Watching() {
			return
		}
		if line, err := s.format(status); err == nil {
			s.Shell.Println(line)
		}
	}))
}

// FormatStatus renders a DriveStatus on one line.
func FormatStatus(m *msgs.DriveStatus) string {
	return fmt.Sprintf("#%d mode=%d wheels=%.3f/%.3f duty=%.1f/%.1f rpm=%.0f/%.0f ticks=%d",
		m.Seq, m.Mode, m.LeftWheel, m.RightWheel, m.LeftDuty, m.RightDuty, m.LeftRpm, m.RightRpm, m.Ticks)
}
