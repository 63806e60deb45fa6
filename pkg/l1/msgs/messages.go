package msgs

import (
	"errors"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/dualdrive/pkg/framework"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewCommandOK creates a CommandOK.
func NewCommandOK() *CommandOK {
	return &CommandOK{}
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic message representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return NewCommandErrFromMsg(err.Error())
}

// NewCommandErrFromMsg creates a CommandErr.
func NewCommandErrFromMsg(message string) *CommandErr {
	return &CommandErr{Message: message}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// SlotWrite carries a command code and its value. A status code reads back
// the slot under the cursor instead.
type SlotWrite struct {
	Code  uint32  `protobuf:"varint,1,opt,name=code,proto3" json:"code,omitempty"`
	Value float32 `protobuf:"fixed32,2,opt,name=value,proto3" json:"value,omitempty"`
}

// NewMessage implements Message.
func (m *SlotWrite) NewMessage() fx.Message { return &SlotWrite{} }

// TypeID implements SerializableMessage.
func (m *SlotWrite) TypeID() uint32 { return SlotWriteTypeID }

// Serializable implements SerializableMessage.
func (m *SlotWrite) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SlotWrite) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SlotWrite) Reset() { *m = SlotWrite{} }

// String implements proto.Message.
func (m *SlotWrite) String() string { return proto.CompactTextString(m) }

// SlotResult replies SlotWrite.
type SlotResult struct {
	Applied bool    `protobuf:"varint,1,opt,name=applied,proto3" json:"applied,omitempty"`
	Status  bool    `protobuf:"varint,2,opt,name=status,proto3" json:"status,omitempty"`
	Slot    int32   `protobuf:"varint,3,opt,name=slot,proto3" json:"slot,omitempty"`
	Code    uint32  `protobuf:"varint,4,opt,name=code,proto3" json:"code,omitempty"`
	Value   float32 `protobuf:"fixed32,5,opt,name=value,proto3" json:"value,omitempty"`
}

// NewMessage implements Message.
func (m *SlotResult) NewMessage() fx.Message { return &SlotResult{} }

// TypeID implements SerializableMessage.
func (m *SlotResult) TypeID() uint32 { return SlotResultTypeID }

// Serializable implements SerializableMessage.
func (m *SlotResult) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *SlotResult) ProtoMessage() {}

// Reset implements proto.Message.
func (m *SlotResult) Reset() { *m = SlotResult{} }

// String implements proto.Message.
func (m *SlotResult) String() string { return proto.CompactTextString(m) }

// StatusQuery reads back the slot under the cursor.
type StatusQuery struct {
}

// NewMessage implements Message.
func (m *StatusQuery) NewMessage() fx.Message { return &StatusQuery{} }

// TypeID implements SerializableMessage.
func (m *StatusQuery) TypeID() uint32 { return StatusQueryTypeID }

// Serializable implements SerializableMessage.
func (m *StatusQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusQuery) Reset() { *m = StatusQuery{} }

// String implements proto.Message.
func (m *StatusQuery) String() string { return proto.CompactTextString(m) }

// StatusReply replies StatusQuery. Resolved is false when the cursor has
// no status code.
type StatusReply struct {
	Resolved bool    `protobuf:"varint,1,opt,name=resolved,proto3" json:"resolved,omitempty"`
	Slot     int32   `protobuf:"varint,2,opt,name=slot,proto3" json:"slot,omitempty"`
	Code     uint32  `protobuf:"varint,3,opt,name=code,proto3" json:"code,omitempty"`
	Value    float32 `protobuf:"fixed32,4,opt,name=value,proto3" json:"value,omitempty"`
}

// NewMessage implements Message.
func (m *StatusReply) NewMessage() fx.Message { return &StatusReply{} }

// TypeID implements SerializableMessage.
func (m *StatusReply) TypeID() uint32 { return StatusReplyTypeID }

// Serializable implements SerializableMessage.
func (m *StatusReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *StatusReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusReply) Reset() { *m = StatusReply{} }

// String implements proto.Message.
func (m *StatusReply) String() string { return proto.CompactTextString(m) }

// FrameQuery asks for a snapshot of a channel by layout name, the
// status channel when empty.
type FrameQuery struct {
	Layout string `protobuf:"bytes,1,opt,name=layout,proto3" json:"layout,omitempty"`
}

// NewMessage implements Message.
func (m *FrameQuery) NewMessage() fx.Message { return &FrameQuery{} }

// TypeID implements SerializableMessage.
func (m *FrameQuery) TypeID() uint32 { return FrameQueryTypeID }

// Serializable implements SerializableMessage.
func (m *FrameQuery) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameQuery) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameQuery) Reset() { *m = FrameQuery{} }

// String implements proto.Message.
func (m *FrameQuery) String() string { return proto.CompactTextString(m) }

// FrameReply carries a channel snapshot.
type FrameReply struct {
	Seq    uint64    `protobuf:"varint,1,opt,name=seq,proto3" json:"seq,omitempty"`
	Values []float32 `protobuf:"fixed32,2,rep,packed,name=values,proto3" json:"values,omitempty"`
	Layout string    `protobuf:"bytes,3,opt,name=layout,proto3" json:"layout,omitempty"`
	Names  []string  `protobuf:"bytes,4,rep,name=names,proto3" json:"names,omitempty"`
}

// NewMessage implements Message.
func (m *FrameReply) NewMessage() fx.Message { return &FrameReply{} }

// TypeID implements SerializableMessage.
func (m *FrameReply) TypeID() uint32 { return FrameReplyTypeID }

// Serializable implements SerializableMessage.
func (m *FrameReply) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FrameReply) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FrameReply) Reset() { *m = FrameReply{} }

// String implements proto.Message.
func (m *FrameReply) String() string { return proto.CompactTextString(m) }

// DriveStatus is the event reflecting the status channel.
type DriveStatus struct {
	Seq        uint64  `protobuf:"varint,1,opt,name=seq,proto3" json:"seq,omitempty"`
	Mode       int32   `protobuf:"varint,2,opt,name=mode,proto3" json:"mode,omitempty"`
	LeftWheel  float32 `protobuf:"fixed32,3,opt,name=left_wheel,proto3" json:"left_wheel,omitempty"`
	RightWheel float32 `protobuf:"fixed32,4,opt,name=right_wheel,proto3" json:"right_wheel,omitempty"`
	LeftDuty   float32 `protobuf:"fixed32,5,opt,name=left_duty,proto3" json:"left_duty,omitempty"`
	RightDuty  float32 `protobuf:"fixed32,6,opt,name=right_duty,proto3" json:"right_duty,omitempty"`
	LeftRpm    float32 `protobuf:"fixed32,7,opt,name=left_rpm,proto3" json:"left_rpm,omitempty"`
	RightRpm   float32 `protobuf:"fixed32,8,opt,name=right_rpm,proto3" json:"right_rpm,omitempty"`
	Ticks      uint64  `protobuf:"varint,9,opt,name=ticks,proto3" json:"ticks,omitempty"`
}

// NewMessage implements Message.
func (m *DriveStatus) NewMessage() fx.Message { return &DriveStatus{} }

// TypeID implements SerializableMessage.
func (m *DriveStatus) TypeID() uint32 { return DriveStatusTypeID }

// Serializable implements SerializableMessage.
func (m *DriveStatus) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *DriveStatus) ProtoMessage() {}

// Reset implements proto.Message.
func (m *DriveStatus) Reset() { *m = DriveStatus{} }

// String implements proto.Message.
func (m *DriveStatus) String() string { return proto.CompactTextString(m) }

// Frame is the event carrying a telemetry frame between the cores.
type Frame struct {
	Layout string    `protobuf:"bytes,1,opt,name=layout,proto3" json:"layout,omitempty"`
	Seq    uint64    `protobuf:"varint,2,opt,name=seq,proto3" json:"seq,omitempty"`
	Values []float32 `protobuf:"fixed32,3,rep,packed,name=values,proto3" json:"values,omitempty"`
}

// NewMessage implements Message.
func (m *Frame) NewMessage() fx.Message { return &Frame{} }

// TypeID implements SerializableMessage.
func (m *Frame) TypeID() uint32 { return FrameTypeID }

// Serializable implements SerializableMessage.
func (m *Frame) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Frame) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Frame) Reset() { *m = Frame{} }

// String implements proto.Message.
func (m *Frame) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupDrive   uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID   uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID  uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	SlotWriteTypeID   uint32 = GroupDrive | 0x0000
	SlotResultTypeID  uint32 = SlotWriteTypeID | TypeIDMaskReply
	StatusQueryTypeID uint32 = GroupDrive | 0x0001
	StatusReplyTypeID uint32 = StatusQueryTypeID | TypeIDMaskReply
	FrameQueryTypeID  uint32 = GroupDrive | 0x0002
	FrameReplyTypeID  uint32 = FrameQueryTypeID | TypeIDMaskReply
	DriveStatusTypeID uint32 = GroupDrive | TypeIDKindEvent | 0x0000
	FrameTypeID       uint32 = GroupDrive | TypeIDKindEvent | 0x0001
)

var (
	// ErrUnknownCommand indicates the command is unknown.
	ErrUnknownCommand = errors.New("unknown command")
)

func init() {
	Register(
		(*CommandOK)(nil),
		(*CommandErr)(nil),
		(*SlotWrite)(nil),
		(*SlotResult)(nil),
		(*StatusQuery)(nil),
		(*StatusReply)(nil),
		(*FrameQuery)(nil),
		(*FrameReply)(nil),
		(*DriveStatus)(nil),
		(*Frame)(nil),
	)
}
