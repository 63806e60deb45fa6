package framework

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPeriodicSchedule(t *testing.T) {
	var order []string
	record := func(name string) Task {
		return TaskFunc(func(tc TickContext) {
			order = append(order, name)
		})
	}
	p := NewPeriodic(time.Millisecond).
		Every("path", 50*time.Millisecond, PrLvLow, record("path")).
		Every("speed", 10*time.Millisecond, PrLvNormal, record("speed")).
		Every("car", time.Millisecond, PrLvTop, record("car"))

	for i := 0; i < 9; i++ {
		p.Step()
	}
	require.Len(t, order, 9)
	order = nil
	p.Step()
	require.Equal(t, []string{"car", "speed"}, order)

	for p.Ticks() < 50 {
		order = nil
		p.Step()
	}
	require.Equal(t, []string{"car", "speed", "path"}, order)

	stats := p.Stats()
	require.Len(t, stats, 3)
	require.Equal(t, "car", stats[0].Name)
	require.Equal(t, uint64(50), stats[0].Runs)
	require.Equal(t, uint64(5), stats[1].Runs)
	require.Equal(t, uint64(1), stats[2].Runs)
}

func TestPeriodicTickContext(t *testing.T) {
	base := time.Unix(1000, 0)
	p := NewPeriodic(time.Millisecond)
	p.Now = func() time.Time { return base }
	var got []uint64
	p.Every("every2", 2*time.Millisecond, PrLvNormal, TaskFunc(func(tc TickContext) {
		require.Equal(t, 2*time.Millisecond, tc.Period())
		require.Equal(t, base, tc.Time())
		got = append(got, tc.Tick())
	}))
	for i := 0; i < 6; i++ {
		p.Step()
	}
	require.Equal(t, []uint64{2, 4, 6}, got)
}

func TestPeriodicOverrun(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewPeriodic(time.Millisecond)
	p.Now = func() time.Time { return now }
	p.Every("slow", time.Millisecond, PrLvTop, TaskFunc(func(TickContext) {
		now = now.Add(3 * time.Millisecond)
	}))
	p.Every("fast", time.Millisecond, PrLvNormal, TaskFunc(func(TickContext) {}))
	p.Step()
	p.Step()
	stats := p.Stats()
	require.Equal(t, uint64(2), stats[0].Overruns)
	require.Equal(t, 3*time.Millisecond, stats[0].Max)
	require.Zero(t, stats[1].Overruns)
}

func TestPeriodicInvalidPeriod(t *testing.T) {
	p := NewPeriodic(time.Millisecond)
	require.Panics(t, func() {
		p.Every("bad", 1500*time.Microsecond, PrLvTop, TaskFunc(func(TickContext) {}))
	})
}

func TestPeriodicRunStops(t *testing.T) {
	p := NewPeriodic(time.Millisecond)
	ran := make(chan struct{}, 1)
	p.Every("once", time.Millisecond, PrLvTop, TaskFunc(func(TickContext) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}
