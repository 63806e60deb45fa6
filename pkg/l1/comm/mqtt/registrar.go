package mqtt

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
)

// ClientIDPrefix prefixes generated client IDs.
const ClientIDPrefix = "dualdrive:"

// Registrar implements l1.Registrar using MQTT.
// The metadata of the controller is retained on <type>/<id>/meta and
// cleared by the broker when the connection is lost. The latest
// DriveStatus is also retained as JSON on <type>/<id>/status.
type Registrar struct {
	Queue *Queue
	Info  l1.ControllerInfo

	meta      []byte
	registrar *comm.Registrar

	statusLock sync.Mutex
	status     []byte
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info l1.ControllerInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+ControllerTopic(info.Ref, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID(ClientIDPrefix + info.Ref.Name())
	}
	r := &Registrar{
		Queue: NewQueue(opts, topicPrefix),
		Info:  info,
		meta:  meta,
	}
	r.Queue.OnConnect = r.onConnected
	r.registrar = comm.NewRegistrar(NewControllerReadWriter(r.Queue, info.Ref), nil)
	return r, nil
}

// SendEvent implements Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	if status, ok := msg.(*msgs.DriveStatus); ok {
		r.retainStatus(status)
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	r.Queue.PubWith(ControllerTopic(r.Info.Ref, TopicMeta), nil, 1, true).Wait()
	r.Queue.Close()
	return nil
}

func (r *Registrar) retainStatus(status *msgs.DriveStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		glog.Errorf("encode status: %v", err)
		return
	}
	r.statusLock.Lock()
	r.status = data
	r.statusLock.Unlock()
	r.Queue.PubWith(ControllerTopic(r.Info.Ref, TopicStatus), data, 0, true)
}

func (r *Registrar) onConnected(q *Queue) {
	q.PubWith(ControllerTopic(r.Info.Ref, TopicMeta), r.meta, 1, true)
	r.statusLock.Lock()
	status := r.status
	r.statusLock.Unlock()
	if status != nil {
		q.PubWith(ControllerTopic(r.Info.Ref, TopicStatus), status, 0, true)
	}
}
