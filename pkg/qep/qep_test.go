package qep

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	e, err := New(KindUnitTimer, DefaultConfig())
	require.NoError(t, err)
	require.IsType(t, &UnitTimer{}, e)
	e, err = New(KindCaptureTimer, DefaultConfig())
	require.NoError(t, err)
	require.IsType(t, &CaptureTimer{}, e)
	_, err = New("bogus", DefaultConfig())
	require.Error(t, err)
}

func TestUnitTimer(t *testing.T) {
	testCases := []struct {
		name      string
		from, to  uint32
		direction int
		rpm       float64
	}{
		{"still", 100, 100, 1, 0},
		{"forward", 0, 400, 1, 600},
		{"forward wraps", 3900, 300, 1, 600},
		{"reverse", 400, 0, -1, -600},
		{"reverse wraps", 300, 3900, -1, -600},
		{"base speed", 0, 3999, 1, 5998.5},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := &UnitTimer{Config: DefaultConfig()}
			e.Init()
			first := e.Calc(Sample{Position: tc.from, Direction: tc.direction})
			require.Equal(t, float64(0), first.RPM)
			s := e.Calc(Sample{Position: tc.to, Direction: tc.direction})
			require.InDelta(t, tc.rpm, s.RPM, 1e-6)
			require.InDelta(t, tc.rpm/DefaultBaseRPM, s.PerUnit, 1e-9)
		})
	}
}

func TestAngles(t *testing.T) {
	e := &UnitTimer{Config: DefaultConfig()}
	s := e.Calc(Sample{Position: 4000 + 1500})
	require.InDelta(t, 0.375, s.Mech, 1e-12)
	require.InDelta(t, 0.75, s.Elec, 1e-12)
}

func TestCaptureTimer(t *testing.T) {
	cfg := DefaultConfig()
	e := &CaptureTimer{Config: cfg}
	e.Init()
	// 4 edges of 4000 per rev in 1171.875 clocks = 1ms -> 60 rpm
	s := e.Calc(Sample{CapturePeriod: 1172, Direction: 1})
	require.InDelta(t, 60, s.RPM, 0.1)
	s = e.Calc(Sample{CapturePeriod: 1172, Direction: -1})
	require.InDelta(t, -60, s.RPM, 0.1)
	s = e.Calc(Sample{CapturePeriod: 1172, CaptureOverflow: true})
	require.Equal(t, float64(0), s.RPM)
	s = e.Calc(Sample{})
	require.Equal(t, float64(0), s.RPM)
}
