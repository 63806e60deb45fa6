package framework

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Task is a periodic unit of work. RunTask must not block and must
// complete in bounded time, Periodic never preempts a running task.
type Task interface {
	RunTask(TickContext)
}

// TaskFunc is the func form of Task.
type TaskFunc func(TickContext)

// RunTask implements Task.
func (f TaskFunc) RunTask(tc TickContext) {
	f(tc)
}

// TickContext describes the tick in which a task runs.
type TickContext interface {
	// Time is when the tick started.
	Time() time.Time
	// Tick is the number of base ticks elapsed, starting from 1.
	Tick() uint64
	// Period is the period of the running task.
	Period() time.Duration
}

// TaskStats reports the execution history of a periodic task.
type TaskStats struct {
	Name     string
	Period   time.Duration
	Priority int
	Runs     uint64
	Overruns uint64
	Last     time.Duration
	Max      time.Duration
}

// Periodic is a cooperative single-threaded scheduler with a fixed-priority
// periodic task set. All periods are multiples of Base. On every base tick
// the due tasks run to completion in priority order (lower level first).
type Periodic struct {
	Base time.Duration
	// Now is the clock used for tick time and task timing.
	Now func() time.Time

	tasks []*periodicTask
	tick  uint64
	lock  sync.Mutex
}

type periodicTask struct {
	task  Task
	every uint64
	stats TaskStats
}

type tickContext struct {
	tick   uint64
	time   time.Time
	period time.Duration
}

func (c *tickContext) Time() time.Time       { return c.time }
func (c *tickContext) Tick() uint64          { return c.tick }
func (c *tickContext) Period() time.Duration { return c.period }

// DefaultBaseTick is the base tick of the control core.
const DefaultBaseTick = time.Millisecond

// NewPeriodic creates a Periodic with the given base tick.
func NewPeriodic(base time.Duration) *Periodic {
	if base <= 0 {
		base = DefaultBaseTick
	}
	return &Periodic{Base: base, Now: time.Now}
}

// Every registers a task running every period at the priority level.
// The period must be a positive multiple of Base.
func (p *Periodic) Every(name string, period time.Duration, priorityLevel int, task Task) *Periodic {
	if period <= 0 || period%p.Base != 0 {
		panic(fmt.Sprintf("task %s: period %v is not a multiple of base tick %v", name, period, p.Base))
	}
	t := &periodicTask{
		task:  task,
		every: uint64(period / p.Base),
		stats: TaskStats{Name: name, Period: period, Priority: priorityLevel},
	}
	p.lock.Lock()
	p.tasks = append(p.tasks, t)
	sort.SliceStable(p.tasks, func(i, j int) bool {
		return p.tasks[i].stats.Priority < p.tasks[j].stats.Priority
	})
	p.lock.Unlock()
	return p
}

// Ticks returns the number of base ticks executed.
func (p *Periodic) Ticks() uint64 {
	return atomic.LoadUint64(&p.tick)
}

// Step advances one base tick and runs all due tasks.
func (p *Periodic) Step() {
	tick := atomic.AddUint64(&p.tick, 1)
	now := p.Now()
	p.lock.Lock()
	tasks := p.tasks
	p.lock.Unlock()
	for _, t := range tasks {
		if tick%t.every != 0 {
			continue
		}
		tc := &tickContext{tick: tick, time: now, period: t.stats.Period}
		start := p.Now()
		t.task.RunTask(tc)
		elapsed := p.Now().Sub(start)
		p.account(t, elapsed)
	}
}

func (p *Periodic) account(t *periodicTask, elapsed time.Duration) {
	p.lock.Lock()
	defer p.lock.Unlock()
	s := &t.stats
	s.Runs++
	s.Last = elapsed
	if elapsed > s.Max {
		s.Max = elapsed
	}
	if elapsed > s.Period {
		s.Overruns++
		if s.Overruns == 1 || s.Overruns%1000 == 0 {
			glog.Warningf("task %s overrun: took %v, period %v (%d overruns)", s.Name, elapsed, s.Period, s.Overruns)
		}
	}
}

// Stats returns a snapshot of all task statistics in priority order.
func (p *Periodic) Stats() []TaskStats {
	p.lock.Lock()
	defer p.lock.Unlock()
	stats := make([]TaskStats, len(p.tasks))
	for n, t := range p.tasks {
		stats[n] = t.stats
	}
	return stats
}

// Run implements Runnable.
func (p *Periodic) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Base)
	defer ticker.Stop()
	for _, s := range p.Stats() {
		glog.V(2).Infof("periodic task %s every %v at level %d", s.Name, s.Period, s.Priority)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Step()
		}
	}
}
