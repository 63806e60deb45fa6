package netcore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/robotalks/dualdrive/pkg/decoder"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
	ws "github.com/robotalks/dualdrive/pkg/l1/comm/websocket"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

func newTestServer() *Server {
	return NewServer(
		telemetry.NewChannel(telemetry.CommandLayout),
		telemetry.NewChannel(telemetry.StatusLayout))
}

type fakeCommand struct {
	msg   fx.Message
	reply fx.Message
}

func (c *fakeCommand) Msg() fx.Message { return c.msg }

func (c *fakeCommand) Done(msg fx.Message) error {
	c.reply = msg
	return nil
}

type eventRecorder struct {
	lock   sync.Mutex
	events []fx.Message
}

func (r *eventRecorder) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.events = append(r.events, msg)
	return nil
}

func (r *eventRecorder) count() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.events)
}

func TestHandleCommand(t *testing.T) {
	s := newTestServer()

	reply, ok := s.HandleCommand(&msgs.SlotWrite{Code: uint32(decoder.CodeLeft), Value: 13.9})
	require.True(t, ok)
	require.Equal(t, &msgs.SlotResult{Applied: true, Slot: int32(telemetry.SlotLeft), Value: 13.9}, reply)

	reply, ok = s.HandleCommand(&msgs.SlotWrite{Code: 0x55, Value: 1})
	require.True(t, ok)
	require.Equal(t, &msgs.SlotResult{}, reply)

	reply, ok = s.HandleCommand(&msgs.StatusQuery{})
	require.True(t, ok)
	require.Equal(t, &msgs.StatusReply{
		Resolved: true,
		Slot:     int32(telemetry.SlotLeft),
		Code:     uint32(decoder.CodeGetLeft),
		Value:    13.9,
	}, reply)

	reply, ok = s.HandleCommand(&msgs.FrameQuery{Layout: "command"})
	require.True(t, ok)
	frame := reply.(*msgs.FrameReply)
	require.Equal(t, "command", frame.Layout)
	require.Equal(t, uint64(1), frame.Seq)
	require.Equal(t, float32(13.9), frame.Values[telemetry.SlotLeft])
	require.Equal(t, "left", frame.Names[telemetry.SlotLeft])

	reply, ok = s.HandleCommand(&msgs.FrameQuery{})
	require.True(t, ok)
	require.Equal(t, "status", reply.(*msgs.FrameReply).Layout)

	reply, ok = s.HandleCommand(&msgs.FrameQuery{Layout: "nope"})
	require.True(t, ok)
	require.Equal(t, telemetry.ErrUnknownLayout.Error(), reply.(*msgs.CommandErr).Message)

	_, ok = s.HandleCommand(&msgs.CommandOK{})
	require.False(t, ok)
}

func TestServerInLoop(t *testing.T) {
	s := newTestServer()
	events := &eventRecorder{}
	s.Events = events
	loop := fx.NewLoop()
	loop.Add(s, &comm.UnsupportedCommands{})

	write := &fakeCommand{msg: &msgs.SlotWrite{Code: uint32(decoder.CodeVelocity), Value: 0.2}}
	other := &fakeCommand{msg: &msgs.CommandOK{}}
	loop.PostMessage(&l1.CommandMsg{Command: write})
	loop.PostMessage(&l1.CommandMsg{Command: other})
	loop.RunIteration(context.Background())

	require.True(t, write.reply.(*msgs.SlotResult).Applied)
	require.Equal(t, msgs.ErrUnsupportedCommand.Error(), other.reply.(*msgs.CommandErr).Message)
	require.Equal(t, float32(0.2), s.Commands.Load().Get(telemetry.SlotVelocity))
	require.Zero(t, events.count())

	require.NoError(t, s.Status.Write(telemetry.StatusTicks, 50))
	loop.RunIteration(context.Background())
	loop.RunIteration(context.Background())
	require.Equal(t, 1, events.count())
	status := events.events[0].(*msgs.DriveStatus)
	require.Equal(t, uint64(50), status.Ticks)
	require.Equal(t, uint64(1), s.PublishedSeq())
}

func TestDriveStatusFromFrame(t *testing.T) {
	ch := telemetry.NewChannel(telemetry.StatusLayout)
	require.NoError(t, ch.WriteFrame([]float32{2, 0.5, -0.5, 30, 70, 600, -300, 12}))
	require.Equal(t, &msgs.DriveStatus{
		Seq:        1,
		Mode:       2,
		LeftWheel:  0.5,
		RightWheel: -0.5,
		LeftDuty:   30,
		RightDuty:  70,
		LeftRpm:    600,
		RightRpm:   -300,
		Ticks:      12,
	}, DriveStatusFromFrame(ch.Load()))
	require.Equal(t, "trajectory_follow", ModeName(2))
}

func httpGet(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestGatewayCommands(t *testing.T) {
	s := newTestServer()
	srv := httptest.NewServer(NewGateway(s, fx.NewLoop(), &comm.RegistrarMux{}))
	defer srv.Close()

	code, body := httpGet(t, srv.URL+"/cmd?C1")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, body)

	code, body = httpGet(t, srv.URL+"/cmd?C0313.900")
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, body)
	require.Equal(t, float32(13.9), s.Commands.Load().Get(telemetry.SlotLeft))

	code, body = httpGet(t, srv.URL+"/cmd?=C1&id0.5")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "13.900", body)

	code, _ = httpGet(t, srv.URL+"/cmd?C2")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = httpGet(t, srv.URL+"/favicon.ico")
	require.Equal(t, http.StatusNotFound, code)

	code, body = httpGet(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, code)
	require.True(t, strings.Contains(body, "GetStatus"))
}

type received struct {
	msg fx.Message
	seq uint32
}

func TestGatewayWebSocket(t *testing.T) {
	s := newTestServer()
	clients := &comm.RegistrarMux{}
	s.Events = clients
	loop := fx.NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.Add(s, &comm.UnsupportedCommands{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	srv := httptest.NewServer(NewGateway(s, loop, clients))
	defer srv.Close()

	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", "", srv.URL)
	require.NoError(t, err)
	recvCh := make(chan received, 16)
	pipe := comm.NewPipe(ws.New(conn))
	pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		recvCh <- received{msg: msg, seq: typed.Sequence}
		return nil
	})
	go pipe.Run(ctx)
	defer pipe.Close()

	next := func() received {
		select {
		case r := <-recvCh:
			return r
		case <-time.After(2 * time.Second):
			t.Fatal("nothing received")
		}
		return received{}
	}

	_, ok := next().msg.(*msgs.DriveStatus)
	require.True(t, ok)

	require.NoError(t, pipe.SendCommandMsg(&msgs.SlotWrite{Code: uint32(decoder.CodeRight), Value: 4}, 7))
	r := next()
	require.Equal(t, uint32(7), r.seq)
	require.True(t, r.msg.(*msgs.SlotResult).Applied)
	require.Equal(t, float32(4), s.Commands.Load().Get(telemetry.SlotRight))

	require.NoError(t, s.Status.Write(telemetry.StatusMode, 1))
	r = next()
	require.Equal(t, int32(1), r.msg.(*msgs.DriveStatus).Mode)
}
