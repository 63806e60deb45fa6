package link

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
	"github.com/robotalks/dualdrive/pkg/l1/comm/stream"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// DefaultResend is the interval the latest frame is sent again even when
// nothing changed.
const DefaultResend = 100 * time.Millisecond

// Stats counts frames over the link.
type Stats struct {
	Sent     uint64
	Received uint64
	Rejected uint64
}

// Link mirrors the local Out channel to the peer and writes frames from
// the peer into the local In channel. Frames are whole snapshots, the peer
// always converges to the latest one.
type Link struct {
	Out    *telemetry.Channel
	In     *telemetry.Channel
	Resend time.Duration

	pipe *comm.Pipe

	lock    sync.Mutex
	peerSeq uint64
	synced  bool

	sent     atomic.Uint64
	received atomic.Uint64
	rejected atomic.Uint64
}

// New creates a Link over a byte stream.
func New(conn io.ReadWriter, out, in *telemetry.Channel) *Link {
	l := &Link{Out: out, In: in, Resend: DefaultResend}
	l.pipe = comm.NewPipe(stream.New(conn))
	l.pipe.Handler = msgs.HandleTypedMsgFunc(l.handleTypedMsg)
	return l
}

// Stats returns the counters.
func (l *Link) Stats() Stats {
	return Stats{
		Sent:     l.sent.Load(),
		Received: l.received.Load(),
		Rejected: l.rejected.Load(),
	}
}

// Run implements Runnable. It returns when either direction fails or ctx
// is done, the underlying stream is closed on return.
func (l *Link) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	recvCh := make(chan error, 1)
	go func() {
		recvCh <- fx.RunWithContextCloser(ctx, l.pipe, func() error {
			return l.pipe.Run(ctx)
		})
		cancel()
	}()
	var errs fx.AggregatedError
	if err := l.sendLoop(ctx); err != context.Canceled {
		errs.Add(err)
	}
	cancel()
	if err := <-recvCh; err != context.Canceled {
		errs.Add(err)
	}
	return errs.Aggregate()
}

func (l *Link) sendLoop(ctx context.Context) error {
	if l.Out == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	resend := l.Resend
	if resend <= 0 {
		resend = DefaultResend
	}
	ticker := time.NewTicker(resend)
	defer ticker.Stop()
	if err := l.send(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.Out.Changed():
		case <-ticker.C:
		}
		if err := l.send(); err != nil {
			return err
		}
	}
}

func (l *Link) send() error {
	f := l.Out.Load()
	err := l.pipe.SendEventMsg(&msgs.Frame{
		Layout: l.Out.Layout().Name,
		Seq:    f.Seq,
		Values: f.Values,
	})
	if err == nil {
		l.sent.Add(1)
	}
	return err
}

func (l *Link) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	frame, ok := msg.(*msgs.Frame)
	if !ok || l.In == nil {
		return nil
	}
	if frame.Layout != l.In.Layout().Name || len(frame.Values) != l.In.Layout().Len() {
		l.rejected.Add(1)
		glog.Warningf("link: reject frame %s[%d], expect %s[%d]",
			frame.Layout, len(frame.Values), l.In.Layout().Name, l.In.Layout().Len())
		return nil
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if l.synced && frame.Seq == l.peerSeq {
		return nil
	}
	if err := l.In.WriteFrame(frame.Values); err != nil {
		return err
	}
	l.peerSeq, l.synced = frame.Seq, true
	l.received.Add(1)
	glog.V(4).Infof("link: %s seq %d", frame.Layout, frame.Seq)
	return nil
}
