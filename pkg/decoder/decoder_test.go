package decoder

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dualdrive/pkg/telemetry"
)

func newDecoder() (*Decoder, *telemetry.Channel) {
	ch := telemetry.NewChannel(telemetry.CommandLayout)
	return New(ch), ch
}

func TestDecodeSetCodes(t *testing.T) {
	d, ch := newDecoder()
	cases := []struct {
		code Code
		slot telemetry.Slot
	}{
		{CodeVelocity, telemetry.SlotVelocity},
		{CodeOmega, telemetry.SlotOmega},
		{CodeLeft, telemetry.SlotLeft},
		{CodeRight, telemetry.SlotRight},
		{CodeGrip, telemetry.SlotGrip},
		{CodeHeading, telemetry.SlotHeading},
		{CodeTrackingError, telemetry.SlotTrackingError},
		{CodeGoalX, telemetry.SlotGoalX},
		{CodeGoalY, telemetry.SlotGoalY},
		{CodeGoalHeading, telemetry.SlotGoalHeading},
	}
	for n, c := range cases {
		value := float32(n) + 0.5
		r := d.Decode(Command{Code: c.code, Value: value})
		require.True(t, r.Applied, c.code.String())
		require.Equal(t, c.slot, r.Slot)
		require.Equal(t, value, ch.Load().Get(c.slot))
		cursor, ok := d.Cursor()
		require.True(t, ok)
		require.Equal(t, c.slot, cursor)
		code, ok := SetCodeFor(c.slot)
		require.True(t, ok)
		require.Equal(t, c.code, code)
	}
	require.Equal(t, uint64(len(cases)), d.Stats().Applied)
}

func TestDecodeIdempotent(t *testing.T) {
	d, ch := newDecoder()
	d.Decode(Command{Code: CodeOmega, Value: 0.25})
	first := ch.Load().Values
	d.Decode(Command{Code: CodeOmega, Value: 0.25})
	require.Equal(t, first, ch.Load().Values)
}

func TestDecodeUnknownIgnored(t *testing.T) {
	d, ch := newDecoder()
	d.Decode(Command{Code: CodeRight, Value: 7})
	before := ch.Load()

	for _, code := range []Code{0, 0xA5, 0xA6, 0xA8, 0xFF, 3, 8} {
		r := d.Decode(Command{Code: code, Value: 99})
		require.False(t, r.Applied)
		require.False(t, r.Status)
	}
	require.Equal(t, before.Seq, ch.Load().Seq)
	require.Equal(t, before.Values, ch.Load().Values)
	cursor, _ := d.Cursor()
	require.Equal(t, telemetry.SlotRight, cursor)
	require.Equal(t, uint64(7), d.Stats().Unknown)
}

type brokenStore struct {
	*telemetry.Channel
}

func (brokenStore) Write(telemetry.Slot, float32) error {
	return errors.New("store unavailable")
}

func TestDecodeStoreError(t *testing.T) {
	d := New(brokenStore{telemetry.NewChannel(telemetry.CommandLayout)})
	r := d.Decode(Command{Code: CodeVelocity, Value: 1})
	require.False(t, r.Applied)
	_, selected := d.Cursor()
	require.False(t, selected)
	d.Decode(Command{Code: 0xA5})
	require.Equal(t, Stats{Unknown: 1, Errors: 1}, d.Stats())
}

func TestDecodeStatusFollowsCursor(t *testing.T) {
	d, _ := newDecoder()

	r := d.Status()
	require.False(t, r.Status)
	require.Equal(t, uint64(1), d.Stats().Unresolved)

	d.Decode(Command{Code: CodeLeft, Value: 13.9})
	d.Decode(Command{Code: CodeRight, Value: 4})

	// any status code answers with the slot under the cursor
	r = d.Decode(Command{Code: CodeGetLeft})
	require.True(t, r.Status)
	require.Equal(t, telemetry.SlotRight, r.Slot)
	require.Equal(t, CodeGetRight, r.Code)
	require.Equal(t, float32(4), r.Value)

	d.Decode(Command{Code: CodeLeft, Value: 13.9})
	r = d.Status()
	require.True(t, r.Status)
	require.Equal(t, CodeGetLeft, r.Code)
	require.Equal(t, float32(13.9), r.Value)
}

func TestDecodeStatusUnresolvedForGoalSlots(t *testing.T) {
	d, _ := newDecoder()
	d.Decode(Command{Code: CodeGoalX, Value: 3})
	r := d.Status()
	require.False(t, r.Status)
	require.Equal(t, Stats{Applied: 1, Unresolved: 1}, d.Stats())
}

func TestParseCommandWord(t *testing.T) {
	cases := []struct {
		word  string
		kind  RequestKind
		code  Code
		value float32
	}{
		{"C0313.900", RequestSet, CodeLeft, 13.9},
		{"C01-0.250", RequestSet, CodeVelocity, -0.25},
		{"C00001.57", RequestSet, CodeGoalHeading, 1.57},
		{"C08000003HTTP", RequestSet, CodeGoalX, 3},
		{"C05abc", RequestSet, CodeGrip, 0},
		{"C07  12", RequestSet, CodeTrackingError, 12},
		{"C0x1.0", RequestSet, 0, 1},
		{"C1", RequestStatus, 0, 0},
	}
	for _, c := range cases {
		req, err := ParseCommandWord(c.word)
		require.NoError(t, err, c.word)
		require.Equal(t, c.kind, req.Kind, c.word)
		require.Equal(t, c.code, req.Command.Code, c.word)
		require.Equal(t, c.value, req.Command.Value, c.word)
	}

	for _, word := range []string{"", "C", "X0313.9", "C2"} {
		_, err := ParseCommandWord(word)
		require.Equal(t, ErrInvalidCommand, err, word)
	}
}

func TestParseRequestURI(t *testing.T) {
	req, err := ParseRequestURI("/cmd?C0413.900")
	require.NoError(t, err)
	require.Equal(t, CodeRight, req.Command.Code)
	require.Equal(t, float32(13.9), req.Command.Value)

	_, err = ParseRequestURI("/favicon.ico")
	require.Equal(t, ErrInvalidCommand, err)
}

func TestRequestRoundTrip(t *testing.T) {
	d, ch := newDecoder()
	req, err := ParseRequestURI("/cmd?C0313.900")
	require.NoError(t, err)
	d.Decode(req.Command)
	require.Equal(t, float32(13.9), ch.Load().Get(telemetry.SlotLeft))

	req, err = ParseRequestURI("/cmd?C1")
	require.NoError(t, err)
	require.Equal(t, RequestStatus, req.Kind)
	r := d.Status()
	require.True(t, r.Status)
	require.Equal(t, float32(13.9), r.Value)
}
