package framework

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultLoopInterval is the idle iteration interval of a Loop.
const DefaultLoopInterval = 100 * time.Millisecond

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

// Loop runs controllers by priority level on every iteration. Iterations
// happen on Interval or right away when triggered, with the messages
// posted since the previous iteration. Messages nobody takes are dropped
// at the end of the iteration.
type Loop struct {
	Interval time.Duration

	levels  [PriorityLevels]level
	runners []Runnable

	lock       sync.Mutex
	posted     []Message
	wakeUpCh   chan struct{}
	iterations atomic.Uint64
}

// level holds the controllers of one priority level and the one-shot
// hooks around them.
type level struct {
	controllers []Controller

	lock      sync.Mutex
	preHooks  []Controller
	postHooks []Controller
}

type loopCtxKey struct{}

// LoopCtlFrom gets the LoopControl of the loop running ctx.
func LoopCtlFrom(ctx context.Context) LoopControl {
	return ctx.Value(loopCtxKey{}).(LoopControl)
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultLoopInterval, wakeUpCh: make(chan struct{}, 1)}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level. Controllers
// which are also Runnable are run along with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lv := &l.levels[priorityLevel]
	lv.controllers = append(lv.controllers, ctls...)
	for _, ctl := range ctls {
		if runnable, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runnable)
		}
	}
	return l
}

// AddRunnable adds Runnables started by Run.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey{}, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultLoopInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		l.RunIteration(ctx)
	}
}

// Iterations is the number of completed iterations.
func (l *Loop) Iterations() uint64 {
	return l.iterations.Load()
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.preHooks = append(lv.preHooks, hooks...)
	lv.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lv := &l.levels[priorityLevel]
	lv.lock.Lock()
	lv.postHooks = append(lv.postHooks, hooks...)
	lv.lock.Unlock()
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.posted = append(l.posted, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	if l.wakeUpCh == nil {
		return
	}
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// RunIteration runs all priority levels once with the pending messages.
func (l *Loop) RunIteration(ctx context.Context) {
	it := &iteration{Loop: l, time: time.Now()}
	l.lock.Lock()
	it.messages, l.posted = l.posted, nil
	l.lock.Unlock()
	it.ctx = context.WithValue(ctx, loopCtxKey{}, LoopControl(it))
	for n := range l.levels {
		it.priorityLevel = n
		l.levels[n].run(it)
	}
	l.iterations.Add(1)
}

func (lv *level) takeHooks(post bool) []Controller {
	lv.lock.Lock()
	defer lv.lock.Unlock()
	var hooks []Controller
	if post {
		hooks, lv.postHooks = lv.postHooks, nil
	} else {
		hooks, lv.preHooks = lv.preHooks, nil
	}
	return hooks
}

func (lv *level) run(it *iteration) {
	it.control(lv.takeHooks(false))
	it.control(lv.controllers)
	it.control(lv.takeHooks(true))
}

// iteration is the ControlContext and the MessageStore of one iteration.
type iteration struct {
	*Loop
	ctx           context.Context
	time          time.Time
	priorityLevel int
	messages      []Message
}

func (it *iteration) control(ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(it); err != nil {
			glog.Errorf("controller at level %d: %v", it.priorityLevel, err)
		}
	}
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) PriorityLevel() int       { return it.priorityLevel }
func (it *iteration) Messages() MessageStore   { return it }

func (it *iteration) PostRun(hooks ...Controller) {
	it.PostRunAt(it.priorityLevel, hooks...)
}

// AddMessages implements MessageAppender. The messages are visible to
// the processors running after the current one.
func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

// ProcessMessages implements MessageStore.
func (it *iteration) ProcessMessages(proc MessageProcessor) {
	pending := it.messages
	it.messages = nil
	kept := make([]Message, 0, len(pending))
	for n, msg := range pending {
		mc := messageContext{it: it, msg: msg}
		proc.ProcessMessage(&mc)
		if !mc.taken {
			kept = append(kept, msg)
		}
		if mc.stop {
			kept = append(kept, pending[n+1:]...)
			break
		}
	}
	it.messages = append(kept, it.messages...)
}

type messageContext struct {
	it    *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.it.AddMessages(msgs...) }
