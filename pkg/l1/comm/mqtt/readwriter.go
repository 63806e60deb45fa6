package mqtt

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/l1"
)

// Topic names under a controller, e.g. dualdrive/<id>/cmd.
const (
	TopicCommands = "cmd"
	TopicMessages = "msg"
	TopicMeta     = "meta"
	TopicStatus   = "status"
)

// DefaultBacklog is the number of received packets buffered before
// dropping.
const DefaultBacklog = 16

// ControllerTopic is the topic of a controller.
func ControllerTopic(ref l1.ControllerRef, name string) string {
	return ref.Name() + "/" + name
}

// ReadWriter implements PacketReadWriter over a pair of topics.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh  chan []byte
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewReadWriter creates a ReadWriter subscribing sub and publishing to pub.
func NewReadWriter(q *Queue, sub, pub string) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		SubTopic: sub,
		PubTopic: pub,
		packetCh: make(chan []byte, DefaultBacklog),
		done:     make(chan struct{}),
	}
}

// NewControllerReadWriter reads commands and writes messages of ref.
func NewControllerReadWriter(q *Queue, ref l1.ControllerRef) *ReadWriter {
	return NewReadWriter(q, ControllerTopic(ref, TopicCommands), ControllerTopic(ref, TopicMessages))
}

// NewConnectorReadWriter reads messages and writes commands of ref.
func NewConnectorReadWriter(q *Queue, ref l1.ControllerRef) *ReadWriter {
	return NewReadWriter(q, ControllerTopic(ref, TopicMessages), ControllerTopic(ref, TopicCommands))
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.done:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Dropped is the number of packets dropped on a full backlog.
func (p *ReadWriter) Dropped() uint64 {
	return p.dropped.Load()
}

// Close unblocks ReadPacket.
func (p *ReadWriter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Run implements Runnable.
func (p *ReadWriter) Run(ctx context.Context) error {
	sub := p.Queue.Sub(p.SubTopic, p.handleMsg)
	defer p.Close()
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(topic string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.done:
	default:
		p.dropped.Add(1)
		glog.V(2).Infof("backlog full, drop packet from %q", topic)
	}
}
