// Package l1 defines how a drive (the L1 controller) meets its clients:
// a Registrar publishes the drive and receives commands, a Connector lets
// a client find a drive and send it commands.
package l1

import (
	"context"
	"strings"

	fx "github.com/robotalks/dualdrive/pkg/framework"
)

// ControllerRef names a drive as <type>/<id>.
type ControllerRef struct {
	Type string
	ID   string
}

// ParseRef parses <type>/<id>.
func ParseRef(name string) (ref ControllerRef, ok bool) {
	items := strings.SplitN(name, "/", 2)
	if len(items) != 2 {
		return ref, false
	}
	ref = ControllerRef{Type: items[0], ID: items[1]}
	return ref, ref.IsValid()
}

// Name retrieves the name from ref.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates ControllerRef is valid.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != "" && !strings.Contains(r.ID, "/")
}

// ControllerMeta is published along with the ref.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is a discovered drive.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Registrar is the drive side. Received commands are posted into the
// control loop as CommandMsg.
type Registrar interface {
	// SendEvent publishes an event to all clients.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	// Done sends the reply.
	Done(reply fx.Message) error
}

// CommandMsg wraps a Command as a Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// Connector is the client side.
type Connector interface {
	// Discover enumerates the registered drives.
	Discover(context.Context) ([]ControllerInfo, error)
	// Connect connects to one drive.
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is a connection to a drive.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// CommandFuture resolves once with the reply or an error.
type CommandFuture interface {
	ResultChan() <-chan Result
}

// Result is the reply of a command. A CommandErr reply is also set as Err.
type Result struct {
	Msg fx.Message
	Err error
}
