package comm

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

// PipeStats counts packets through a Pipe.
type PipeStats struct {
	Sent     uint64
	Received uint64
	Dropped  uint64
}

// Pipe is a bi-directional pipe for messages.
type Pipe struct {
	ReadWriter PacketReadWriter
	Handler    msgs.TypedMsgHandler

	sendLock sync.Mutex
	sent     atomic.Uint64
	received atomic.Uint64
	dropped  atomic.Uint64
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{ReadWriter: rw}
}

// SendCommandMsg sends a message which must be a command.
func (p *Pipe) SendCommandMsg(msg fx.Message, seq uint32) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsCommand() {
		return msgs.ErrNotCommand
	}
	typed.Sequence = seq
	return p.SendTyped(typed)
}

// SendEventMsg sends a message which must be an event.
func (p *Pipe) SendEventMsg(msg fx.Message) error {
	typed, err := msgs.TypedFrom(msg)
	if err != nil {
		return err
	}
	if !typed.IsEvent() {
		return msgs.ErrNotEvent
	}
	return p.SendTyped(typed)
}

// SendTyped send a Typed message.
func (p *Pipe) SendTyped(typed *msgs.Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	if err = p.ReadWriter.WritePacket(pkt); err == nil {
		p.sent.Add(1)
	}
	return err
}

// Stats returns the counters.
func (p *Pipe) Stats() PipeStats {
	return PipeStats{
		Sent:     p.sent.Load(),
		Received: p.received.Load(),
		Dropped:  p.dropped.Load(),
	}
}

// Run implements Runnable.
// Undecodable packets are dropped, a failing command is answered with
// CommandErr. Run returns on read or handler errors.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		typed, err := msgs.DecodeTyped(pkt)
		if err != nil {
			p.dropped.Add(1)
			glog.V(2).Infof("drop packet of %d bytes: %v", len(pkt), err)
			continue
		}
		msg, err := typed.Decode()
		if err != nil {
			p.dropped.Add(1)
			if typed.IsCommand() && !typed.IsReply() {
				if err = p.SendCommandMsg(msgs.NewCommandErr(err), typed.Sequence); err != nil {
					return err
				}
			}
			continue
		}
		p.received.Add(1)
		if h := p.Handler; h != nil {
			if err = h.HandleTypedMsg(ctx, msg, typed); err != nil {
				return err
			}
		}
	}
}

// Close implements Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(p)
}

// PacketReader reads whole packets.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes whole packets.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter is a packet transport under a Pipe.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
