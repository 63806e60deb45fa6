package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChannelWrite(t *testing.T) {
	ch := NewChannel(CommandLayout)
	require.Equal(t, 10, ch.Layout().Len())
	require.NoError(t, ch.Write(SlotLeft, 13.9))
	f := ch.Load()
	require.Equal(t, uint64(1), f.Seq)
	require.Equal(t, float32(13.9), f.Get(SlotLeft))
	require.Equal(t, float32(0), f.Get(SlotRight))

	// last write wins
	require.NoError(t, ch.Write(SlotLeft, 2))
	require.Equal(t, float32(2), ch.Load().Get(SlotLeft))

	err := ch.Write(Slot(10), 1)
	require.Error(t, err)
	require.IsType(t, &ErrSlotRange{}, err)
	require.Error(t, ch.Write(Slot(-1), 1))
	require.Equal(t, uint64(2), ch.Load().Seq)
}

func TestChannelWriteIdempotent(t *testing.T) {
	ch := NewChannel(CommandLayout)
	for s := SlotVelocity; s <= SlotGoalHeading; s++ {
		require.NoError(t, ch.Write(s, 0.5))
		first := ch.Load().Get(s)
		require.NoError(t, ch.Write(s, 0.5))
		require.Equal(t, first, ch.Load().Get(s))
	}
}

func TestFrameIsImmutable(t *testing.T) {
	ch := NewChannel(CommandLayout)
	require.NoError(t, ch.Write(SlotVelocity, 1))
	snap := ch.Load()
	require.NoError(t, ch.Write(SlotVelocity, 2))
	require.Equal(t, float32(1), snap.Get(SlotVelocity))
}

func TestChannelWriteFrame(t *testing.T) {
	ch := NewChannel(StatusLayout)
	require.Equal(t, ErrFrameSize, ch.WriteFrame(make([]float32, 3)))
	values := make([]float32, StatusLayout.Len())
	values[StatusMode] = 2
	require.NoError(t, ch.WriteFrame(values))
	f := ch.Load()
	require.Equal(t, float32(2), f.Get(StatusMode))
	require.Equal(t, uint64(1), f.Writes[StatusMode])
	require.Equal(t, uint64(0), f.Writes[StatusLeftWheel])
}

func TestChannelChanged(t *testing.T) {
	ch := NewChannel(CommandLayout)
	require.NoError(t, ch.Write(SlotGrip, 1))
	require.NoError(t, ch.Write(SlotGrip, 2))
	select {
	case <-ch.Changed():
	default:
		t.Fatal("expect change notification")
	}
	select {
	case <-ch.Changed():
		t.Fatal("notifications should coalesce")
	default:
	}
}

func TestReaderStats(t *testing.T) {
	ch := NewChannel(CommandLayout)
	r := ch.NewReader()

	r.Poll()
	require.Equal(t, ReaderStats{Polls: 1, Stale: 1}, r.Stats())

	require.NoError(t, ch.Write(SlotVelocity, 1))
	require.NoError(t, ch.Write(SlotVelocity, 2))
	require.NoError(t, ch.Write(SlotVelocity, 3))
	require.NoError(t, ch.Write(SlotOmega, 1))
	f := r.Poll()
	require.Equal(t, float32(3), f.Get(SlotVelocity))
	require.Equal(t, float32(1), f.Get(SlotOmega))
	require.Equal(t, ReaderStats{Polls: 2, Fresh: 1, Stale: 1, Missed: 2}, r.Stats())

	r.Poll()
	require.Equal(t, uint64(2), r.Stats().Stale)
}

func TestChannelNoTornFrames(t *testing.T) {
	ch := NewChannel(CommandLayout)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		values := make([]float32, CommandLayout.Len())
		for i := 1; i <= 2000; i++ {
			for n := range values {
				values[n] = float32(i)
			}
			ch.WriteFrame(values)
		}
	}()
	r := ch.NewReader()
	for i := 0; i < 2000; i++ {
		f := r.Poll()
		for _, v := range f.Values {
			require.Equal(t, f.Values[0], v)
		}
	}
	wg.Wait()
	require.Equal(t, float32(2000), ch.Load().Get(SlotGoalHeading))
}
