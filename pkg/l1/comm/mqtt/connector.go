package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector implements l1.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMetaTopic extracts the controller from a retained meta topic.
// Controllers which went offline have an empty meta payload.
func ParseMetaTopic(topic string, payload []byte) (info l1.ControllerInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != TopicMeta || len(payload) == 0 {
		return info, false
	}
	info.Ref = l1.ControllerRef{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.V(2).Infof("bad meta of %s: %v", info.Ref.Name(), err)
	}
	return info, info.Ref.IsValid()
}

// Discover implements Connector. It collects retained meta topics until
// DiscoverTimeout.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	q := NewQueue(c.options, c.topicPrefix)
	if err := q.ConnectAndWait(); err != nil {
		return nil, err
	}
	defer q.Close()

	found := make(chan l1.ControllerInfo, 8)
	sub := q.Sub("+/+/"+TopicMeta, func(topic string, payload []byte) {
		if info, ok := ParseMetaTopic(topic, payload); ok {
			select {
			case found <- info:
			case <-ctx.Done():
			}
		}
	})
	defer sub.Close()

	dur := c.DiscoverTimeout
	if dur <= 0 {
		dur = DefaultDiscoverTimeout
	}
	timer := time.NewTimer(dur)
	defer timer.Stop()
	seen := make(map[l1.ControllerRef]bool)
	var res []l1.ControllerInfo
	for {
		select {
		case info := <-found:
			if !seen[info.Ref] {
				seen[info.Ref] = true
				res = append(res, info)
			}
		case <-timer.C:
			return res, nil
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
}

// Connect implements Connector.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	conn := &ControllerConn{Queue: NewQueue(c.options, c.topicPrefix)}
	conn.Init(NewConnectorReadWriter(conn.Queue, ref))
	if err := conn.Queue.ConnectAndWait(); err != nil {
		return nil, err
	}
	return conn, nil
}

// ControllerConn implements ControllerConn using MQTT.
type ControllerConn struct {
	comm.ControllerConn
	Queue *Queue
}
