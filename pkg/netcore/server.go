// Package netcore is the network side of the drive: it accepts remote
// commands from the L1 registrars and the HTTP gateway, feeds them through
// the decoder into the command channel and publishes the status channel.
package netcore

import (
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/control"
	"github.com/robotalks/dualdrive/pkg/decoder"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/msgs"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Server handles drive commands and publishes DriveStatus events.
type Server struct {
	Decoder  *decoder.Decoder
	Commands *telemetry.Channel
	Status   *telemetry.Channel
	// Events receives DriveStatus whenever the status channel changes.
	Events l1.Registrar

	lock          sync.Mutex
	publishedSeq  uint64
	statusWatcher *telemetry.Reader
}

// NewServer creates a Server over the two channels.
func NewServer(commands, status *telemetry.Channel) *Server {
	return &Server{
		Decoder:       decoder.New(commands),
		Commands:      commands,
		Status:        status,
		statusWatcher: status.NewReader(),
	}
}

// Control implements Controller. It takes the drive commands among the
// pending messages and replies each of them.
func (s *Server) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		reply, ok := s.HandleCommand(cmdMsg.Command.Msg())
		if !ok {
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply %T: %v", reply, err)
		}
	}))
	return nil
}

// HandleCommand executes a drive command and returns the reply. It returns
// false when msg is not a drive command.
func (s *Server) HandleCommand(msg fx.Message) (fx.Message, bool) {
	switch m := msg.(type) {
	case *msgs.SlotWrite:
		r := s.Decoder.Decode(decoder.Command{Code: decoder.Code(m.Code), Value: m.Value})
		return &msgs.SlotResult{
			Applied: r.Applied,
			Status:  r.Status,
			Slot:    int32(r.Slot),
			Code:    uint32(r.Code),
			Value:   r.Value,
		}, true
	case *msgs.StatusQuery:
		r := s.Decoder.Status()
		return &msgs.StatusReply{
			Resolved: r.Status,
			Slot:     int32(r.Slot),
			Code:     uint32(r.Code),
			Value:    r.Value,
		}, true
	case *msgs.FrameQuery:
		ch := s.Status
		switch m.Layout {
		case "", s.Status.Layout().Name:
		case s.Commands.Layout().Name:
			ch = s.Commands
		default:
			return msgs.NewCommandErr(telemetry.ErrUnknownLayout), true
		}
		f := ch.Load()
		return &msgs.FrameReply{
			Seq:    f.Seq,
			Values: f.Values,
			Layout: ch.Layout().Name,
			Names:  ch.Layout().Names(),
		}, true
	}
	return nil, false
}

// DriveStatus converts the latest status frame.
func (s *Server) DriveStatus() *msgs.DriveStatus {
	return DriveStatusFromFrame(s.Status.Load())
}

// DriveStatusFromFrame converts a status frame.
func DriveStatusFromFrame(f telemetry.Frame) *msgs.DriveStatus {
	return &msgs.DriveStatus{
		Seq:        f.Seq,
		Mode:       int32(f.Get(telemetry.StatusMode)),
		LeftWheel:  f.Get(telemetry.StatusLeftWheel),
		RightWheel: f.Get(telemetry.StatusRightWheel),
		LeftDuty:   f.Get(telemetry.StatusLeftDuty),
		RightDuty:  f.Get(telemetry.StatusRightDuty),
		LeftRpm:    f.Get(telemetry.StatusLeftRPM),
		RightRpm:   f.Get(telemetry.StatusRightRPM),
		Ticks:      uint64(f.Get(telemetry.StatusTicks)) & telemetry.TicksMask,
	}
}

// ModeName names the mode carried in DriveStatus.
func ModeName(mode int32) string {
	return control.Mode(mode).String()
}

// publishStatus sends DriveStatus when the status channel advanced.
func (s *Server) publishStatus(cc fx.ControlContext) error {
	if s.Events == nil {
		return nil
	}
	f := s.statusWatcher.Poll()
	s.lock.Lock()
	if f.Seq == s.publishedSeq {
		s.lock.Unlock()
		return nil
	}
	s.publishedSeq = f.Seq
	s.lock.Unlock()
	return s.Events.SendEvent(cc.Context(), DriveStatusFromFrame(f))
}

// PublishedSeq is the sequence of the last published status.
func (s *Server) PublishedSeq() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.publishedSeq
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, s)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(s.publishStatus))
}
