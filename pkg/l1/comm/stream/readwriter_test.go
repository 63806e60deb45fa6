package stream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriterFraming(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte("abc")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadWriterMaxSize(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	rw.MaxSize = 2
	require.Equal(t, ErrPacketTooLarge, rw.WritePacket([]byte("abc")))
	require.Zero(t, buf.Len())

	buf.Write([]byte{3, 0, 0, 0, 'a', 'b', 'c'})
	_, err := rw.ReadPacket()
	require.Equal(t, ErrPacketTooLarge, err)
}

func TestReadWriterTruncated(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{5, 0, 0, 0, 'a'}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}
