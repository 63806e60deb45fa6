package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

// Registrar implements Registrar with Pipe and integrated with Loop.
// Received commands are posted to the loop as l1.CommandMsg and replied
// through the same pipe.
type Registrar struct {
	// Loop receives the commands. When nil, the loop is taken from the
	// context Run is called with.
	Loop fx.LoopControl

	pipe Pipe
}

// NewRegistrar creates a Registrar posting into loop.
func NewRegistrar(rw PacketReadWriter, loop fx.LoopControl) *Registrar {
	r := &Registrar{Loop: loop}
	r.Init(rw)
	return r
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		loopCtl := r.Loop
		if loopCtl == nil {
			loopCtl = fx.LoopCtlFrom(ctx)
		}
		switch {
		case typed.IsReply():
			glog.V(3).Infof("drop unexpected reply %x", typed.TypeId)
			return nil
		case typed.IsCommand():
			loopCtl.PostMessage(&l1.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
		default:
			loopCtl.PostMessage(msg)
		}
		loopCtl.TriggerNext()
		return nil
	})
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// Stats returns the pipe counters.
func (r *Registrar) Stats() PipeStats {
	return r.pipe.Stats()
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	return r.pipe.Run(ctx)
}

// Close closes the underlying pipe.
func (r *Registrar) Close() error {
	return r.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux fans events out to multiple Registrars. Registrars may join
// and leave while the loop runs.
type RegistrarMux struct {
	Registrars []l1.Registrar

	lock sync.RWMutex
}

// SendEvent implements Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.RLock()
	regs := r.Registrars
	r.lock.RUnlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, reg := range r.Registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...l1.Registrar) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Registrars = append(append([]l1.Registrar(nil), r.Registrars...), regs...)
}

// Remove removes a registrar.
func (r *RegistrarMux) Remove(reg l1.Registrar) {
	r.lock.Lock()
	defer r.lock.Unlock()
	regs := make([]l1.Registrar, 0, len(r.Registrars))
	for _, item := range r.Registrars {
		if item != reg {
			regs = append(regs, item)
		}
	}
	r.Registrars = regs
}

// Len is the number of registrars.
func (r *RegistrarMux) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.Registrars)
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg); ok {
			mctx.MessageTaken()
			cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand))
		}
	}))
	return nil
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
