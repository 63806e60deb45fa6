package websocket

import "golang.org/x/net/websocket"

// ReadWriter implements PacketReadWriter with one binary frame per packet.
type ReadWriter struct {
	Conn *websocket.Conn
}

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return &ReadWriter{Conn: conn}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive(p.Conn, &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send(p.Conn, pkt)
}

// Close closes the connection.
func (p *ReadWriter) Close() error {
	return p.Conn.Close()
}
