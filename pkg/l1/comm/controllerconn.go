package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

// DefaultCommandExpiration is the default expiration expecting a result.
const DefaultCommandExpiration = 1 * time.Second

// ControllerConn is the L2 side of a Pipe: it numbers commands, matches
// replies by sequence and posts events into the loop it is added to.
// Commands without a reply before Expiration fail with DeadlineExceeded.
type ControllerConn struct {
	Expiration time.Duration

	pipe    Pipe
	lock    sync.Mutex
	seq     uint32
	pending map[uint32]*commandFuture
}

// Init initializes ControllerConn with defaults.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.pending = make(map[uint32]*commandFuture)
}

func (c *ControllerConn) nextSeq() uint32 {
	c.seq++
	if c.seq == 0 {
		c.seq = 1
	}
	return c.seq
}

// DoCommand implements ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	f := &commandFuture{
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan l1.Result, 1),
	}
	seq := c.nextSeq()
	if err := c.pipe.SendCommandMsg(msg, seq); err != nil {
		f.resolve(l1.Result{Err: err})
		return f
	}
	c.pending[seq] = f
	return f
}

// Pending is the number of commands waiting for a reply.
func (c *ControllerConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Stats returns the pipe counters.
func (c *ControllerConn) Stats() PipeStats {
	return c.pipe.Stats()
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(func(fx.ControlContext) error {
		c.expire(time.Now())
		return nil
	}))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		loopCtl := fx.LoopCtlFrom(ctx)
		loopCtl.PostMessage(msg)
		loopCtl.TriggerNext()
		return nil
	}
	c.lock.Lock()
	f := c.pending[typed.Sequence]
	delete(c.pending, typed.Sequence)
	c.lock.Unlock()
	if f == nil {
		return nil
	}
	result := l1.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.resolve(result)
	return nil
}

func (c *ControllerConn) expire(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for seq, f := range c.pending {
		if now.Before(f.expireAt) {
			continue
		}
		delete(c.pending, seq)
		f.resolve(l1.Result{Err: context.DeadlineExceeded})
	}
}

type commandFuture struct {
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) resolve(r l1.Result) {
	f.result <- r
	close(f.result)
}

func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}
