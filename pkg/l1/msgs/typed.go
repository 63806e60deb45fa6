package msgs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/dualdrive/pkg/framework"
)

// Type ID layout: kind (1 bit) | group (15 bits) | reply (1 bit) | id (15 bits).
const (
	TypeIDMaskKind  uint32 = 0x80000000
	TypeIDMaskGroup uint32 = 0x7fff0000
	TypeIDMaskID    uint32 = 0x0000ffff
	TypeIDMaskReply uint32 = 0x00008000

	TypeIDKindCommand uint32 = 0x00000000
	TypeIDKindEvent   uint32 = 0x80000000
)

var (
	// ErrNotSerializable indicates the message is not serializable.
	ErrNotSerializable = errors.New("not serializable message")
	// ErrUnsupportedCommand indicates the command is unsupported.
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrNotCommand indicates a command was expected.
	ErrNotCommand = errors.New("message is not a command")
	// ErrNotEvent indicates an event was expected.
	ErrNotEvent = errors.New("message is not an event")
)

// ErrUnknownType indicates a type ID nobody registered.
type ErrUnknownType struct {
	TypeID uint32
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown type: %08x", e.TypeID)
}

// SerializableMessage can be carried in a Typed envelope.
type SerializableMessage interface {
	fx.Message
	TypeID() uint32
	Serializable() proto.Message
}

var (
	registryLock sync.RWMutex
	registry     = make(map[uint32]SerializableMessage)
)

// Register makes message types decodable. Registering a type ID twice
// panics.
func Register(types ...SerializableMessage) {
	registryLock.Lock()
	defer registryLock.Unlock()
	for _, t := range types {
		id := t.TypeID()
		if _, exist := registry[id]; exist {
			panic(fmt.Sprintf("type %08x registered twice", id))
		}
		registry[id] = t
	}
}

// New creates an empty message of the type ID.
func New(typeID uint32) (SerializableMessage, error) {
	registryLock.RLock()
	t, ok := registry[typeID]
	registryLock.RUnlock()
	if !ok {
		return nil, &ErrUnknownType{TypeID: typeID}
	}
	return t.NewMessage().(SerializableMessage), nil
}

// Typed is the envelope on the wire: a type ID, the encoded message and
// the sequence pairing a reply with its command.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message  []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	Sequence uint32 `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

// ProtoMessage implements proto.Message.
func (p *Typed) ProtoMessage() {}

// Reset implements proto.Message.
func (p *Typed) Reset() { *p = Typed{} }

// String implements proto.Message.
func (p *Typed) String() string { return proto.CompactTextString(p) }

// TypedFrom wraps a serializable message.
func TypedFrom(msg fx.Message) (*Typed, error) {
	s, ok := msg.(SerializableMessage)
	if !ok {
		return nil, ErrNotSerializable
	}
	data, err := proto.Marshal(s.Serializable())
	if err != nil {
		return nil, err
	}
	return &Typed{TypeId: s.TypeID(), Message: data}, nil
}

// DecodeTyped decodes an envelope.
func DecodeTyped(data []byte) (*Typed, error) {
	typed := &Typed{}
	if err := proto.Unmarshal(data, typed); err != nil {
		return nil, err
	}
	return typed, nil
}

// Encode encodes the envelope.
func (p *Typed) Encode() ([]byte, error) {
	return proto.Marshal(p)
}

// Decode decodes the enclosed message.
func (p *Typed) Decode() (fx.Message, error) {
	msg, err := New(p.TypeId)
	if err != nil {
		return nil, err
	}
	if err := proto.Unmarshal(p.Message, msg.Serializable()); err != nil {
		return nil, err
	}
	return msg, nil
}

// IsCommand tells commands and their replies.
func (p *Typed) IsCommand() bool {
	return p.TypeId&TypeIDMaskKind == TypeIDKindCommand
}

// IsEvent tells events.
func (p *Typed) IsEvent() bool {
	return p.TypeId&TypeIDMaskKind == TypeIDKindEvent
}

// IsReply tells replies of commands.
func (p *Typed) IsReply() bool {
	return p.IsCommand() && p.TypeId&TypeIDMaskReply != 0
}

// TypedMsgHandler handles a decoded message along with its envelope.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, fx.Message, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, fx.Message, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg fx.Message, typed *Typed) error {
	return f(ctx, msg, typed)
}
