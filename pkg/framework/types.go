// Package framework runs the cores: a Loop dispatching messages to
// controllers by priority, a Periodic scheduler of fixed-rate tasks and a
// Runner supervising both.
package framework

import (
	"context"
	"time"
)

// Priority levels, lower runs first within an iteration.
const (
	PriorityLevels int = 16

	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense reads sensors.
	PrLvSense = PrLvHigh
	// PrLvControl computes set points.
	PrLvControl = PrLvNormal
	// PrLvAcuate drives outputs.
	PrLvAcuate = PrLvLow
	// PrLvPostProc publishes results.
	PrLvPostProc = PrLvIdle - 1
)

// Named is implemented by things with a name.
type Named interface {
	Name() string
}

// Runnable is a background job running until ctx is done.
type Runnable interface {
	Run(ctx context.Context) error
}

// RunnableFunc is the func form of Runnable.
type RunnableFunc func(context.Context) error

// Run implements Runnable.
func (f RunnableFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is posted to a Loop and consumed by its controllers.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per iteration at its priority level.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(cc ControlContext) error {
	return f(cc)
}

// LoopControl is the access to a running Loop.
type LoopControl interface {
	// PreRunAt installs one-shot hooks run before the controllers of
	// priorityLevel.
	PreRunAt(priorityLevel int, controllers ...Controller)
	// PostRunAt installs one-shot hooks run after the controllers of
	// priorityLevel.
	PostRunAt(priorityLevel int, controllers ...Controller)
	// PostMessage queues msg for the next iteration.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the
	// interval.
	TriggerNext()
}

// ControlContext is what a Controller sees of the current iteration.
type ControlContext interface {
	LoopControl

	Context() context.Context
	// Time is when the iteration started.
	Time() time.Time
	PriorityLevel() int
	// Messages are those posted before the iteration started and not
	// taken by a previous controller.
	Messages() MessageStore
	// PostRun installs one-shot hooks after the controllers of the
	// current level. Installed from a hook, they run next iteration.
	PostRun(hooks ...Controller)
}

// MessageAppender appends messages to the current iteration.
type MessageAppender interface {
	AddMessages(msgs ...Message)
}

// MessageStore holds the messages of an iteration.
type MessageStore interface {
	MessageAppender
	// ProcessMessages visits the messages in posted order.
	ProcessMessages(MessageProcessor)
}

// MessageProcessor visits one message at a time.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the message being visited.
type MessageProcessingContext interface {
	MessageAppender

	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
