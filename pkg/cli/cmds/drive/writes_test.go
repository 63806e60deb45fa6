package drive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dualdrive/pkg/control"
	"github.com/robotalks/dualdrive/pkg/decoder"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

func apply(t *testing.T, writes []*msgs.SlotWrite) telemetry.Frame {
	ch := telemetry.NewChannel(telemetry.CommandLayout)
	d := decoder.New(ch)
	for _, w := range writes {
		r := d.Decode(decoder.Command{Code: decoder.Code(w.Code), Value: w.Value})
		require.True(t, r.Applied)
	}
	return ch.Load()
}

func TestParseCode(t *testing.T) {
	code, err := ParseCode("left")
	require.NoError(t, err)
	require.Equal(t, decoder.CodeLeft, code)

	code, err = ParseCode("0xAD")
	require.NoError(t, err)
	require.Equal(t, decoder.CodeGoalHeading, code)

	_, err = ParseCode("sideways")
	require.True(t, errors.Is(err, msgs.ErrUnknownCommand))
}

func TestWritesSelectMode(t *testing.T) {
	turn, err := TurnWrites("right", 13.9)
	require.NoError(t, err)
	grip, err := GripWrites(2)
	require.NoError(t, err)

	cases := []struct {
		name   string
		writes []*msgs.SlotWrite
		mode   control.Mode
	}{
		{"drive", DriveWrites(0.2, 0.1), control.DirectSpeed},
		{"turn", turn, control.DirectSpeed},
		{"goal", GoalWrites(1, 1, 0.78), control.GoalSeek},
		{"track", TrackWrites(60, 0.3), control.TrajectoryFollow},
		{"grip", grip, control.DirectSpeed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := control.InputsFromFrame(apply(t, c.writes))
			require.Equal(t, c.mode, control.SelectMode(in))
		})
	}
}

func TestDriveClearsModes(t *testing.T) {
	writes := append(GoalWrites(1, 1, 0), TrackWrites(60, 0.3)...)
	writes = append(writes, DriveWrites(0.2, 0)...)
	f := apply(t, writes)
	require.Zero(t, f.Get(telemetry.SlotGoalX))
	require.Zero(t, f.Get(telemetry.SlotTrackingError))
	require.Equal(t, float32(0.2), f.Get(telemetry.SlotVelocity))
}

func TestWritesInvalid(t *testing.T) {
	_, err := TurnWrites("up", 10)
	require.Error(t, err)
	_, err = GripWrites(3)
	require.Error(t, err)
}

func TestFormatFrame(t *testing.T) {
	lines := FormatFrame(&msgs.FrameReply{
		Layout: "status",
		Seq:    3,
		Values: []float32{1, 2},
		Names:  []string{"mode"},
	})
	require.Equal(t, []string{
		"status #3",
		"  mode             1",
		"  [1]              2",
	}, lines)
}
