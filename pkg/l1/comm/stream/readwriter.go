package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// DefaultMaxSize limits a single packet.
const DefaultMaxSize = 64 * 1024

// ErrPacketTooLarge is returned when a packet exceeds MaxSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter over a byte stream.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	Stream  io.ReadWriter
	MaxSize uint32

	readLock  sync.Mutex
	writeLock sync.Mutex
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{Stream: s, MaxSize: DefaultMaxSize}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	p.readLock.Lock()
	defer p.readLock.Unlock()
	var hdr [4]byte
	if _, err := io.ReadFull(p.Stream, hdr[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(hdr[:])
	if p.MaxSize > 0 && size > p.MaxSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.Stream, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
// Header and payload go out in one write so a serial line never carries
// a header without its payload from a concurrent writer.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if p.MaxSize > 0 && uint32(len(pkt)) > p.MaxSize {
		return ErrPacketTooLarge
	}
	buf := make([]byte, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	copy(buf[4:], pkt)
	p.writeLock.Lock()
	defer p.writeLock.Unlock()
	_, err := p.Stream.Write(buf)
	return err
}

// Close closes the underlying stream if it is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.Stream.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
