package link

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dualdrive/pkg/telemetry"
)

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func runLinks(t *testing.T, links ...*Link) func() {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, len(links))
	for _, l := range links {
		go func(l *Link) { errCh <- l.Run(ctx) }(l)
	}
	return func() {
		cancel()
		for range links {
			select {
			case <-errCh:
			case <-time.After(2 * time.Second):
				t.Fatal("link not stopped")
			}
		}
	}
}

func TestLinkMirrorsChannels(t *testing.T) {
	a, b := net.Pipe()
	netCommands := telemetry.NewChannel(telemetry.CommandLayout)
	netStatus := telemetry.NewChannel(telemetry.StatusLayout)
	ctlCommands := telemetry.NewChannel(telemetry.CommandLayout)
	ctlStatus := telemetry.NewChannel(telemetry.StatusLayout)

	netSide := New(a, netCommands, netStatus)
	ctlSide := New(b, ctlStatus, ctlCommands)
	ctlSide.Resend = 5 * time.Millisecond
	stop := runLinks(t, netSide, ctlSide)
	defer stop()

	require.NoError(t, netCommands.Write(telemetry.SlotLeft, 13.9))
	waitFor(t, func() bool {
		return ctlCommands.Load().Get(telemetry.SlotLeft) == float32(13.9)
	})

	require.NoError(t, ctlStatus.Write(telemetry.StatusTicks, 50))
	waitFor(t, func() bool {
		return netStatus.Load().Get(telemetry.StatusTicks) == 50
	})

	// resends of an unchanged frame are not published again
	seq := netStatus.Load().Seq
	received := netSide.Stats().Received
	waitFor(t, func() bool { return ctlSide.Stats().Sent > 5 })
	require.Equal(t, seq, netStatus.Load().Seq)
	require.Equal(t, received, netSide.Stats().Received)
}

func TestLinkRejectsLayoutMismatch(t *testing.T) {
	a, b := net.Pipe()
	sender := New(a, telemetry.NewChannel(telemetry.CommandLayout), nil)
	in := telemetry.NewChannel(telemetry.StatusLayout)
	receiver := New(b, nil, in)
	stop := runLinks(t, sender, receiver)
	defer stop()

	waitFor(t, func() bool { return receiver.Stats().Rejected > 0 })
	require.Zero(t, receiver.Stats().Received)
	require.Equal(t, uint64(0), in.Load().Seq)
}

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		url  string
		ep   Endpoint
		fail bool
	}{
		{url: "tcp://127.0.0.1:7000", ep: Endpoint{Scheme: SchemeTCP, Address: "127.0.0.1:7000"}},
		{url: "serial:///dev/ttyUSB0", ep: Endpoint{Scheme: SchemeSerial, Address: "/dev/ttyUSB0", BaudRate: DefaultBaudRate}},
		{url: "serial:///dev/ttyS1?baud=9600", ep: Endpoint{Scheme: SchemeSerial, Address: "/dev/ttyS1", BaudRate: 9600}},
		{url: "serial:///dev/ttyS1?baud=fast", fail: true},
		{url: "tcp://", fail: true},
		{url: "udp://127.0.0.1:7000", fail: true},
	}
	for _, c := range cases {
		t.Run(c.url, func(t *testing.T) {
			ep, err := ParseEndpoint(c.url)
			if c.fail {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.ep, *ep)
		})
	}
}

func TestEndpointTCP(t *testing.T) {
	ep, err := ParseEndpoint("tcp://127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ep.Accept(ctx)
	require.Equal(t, context.Canceled, err)
}
