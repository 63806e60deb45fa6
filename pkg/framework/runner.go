package framework

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// ErrForcedExit is returned by Wait when a second stop signal arrives
// before all Runnables return.
var ErrForcedExit = errors.New("forced exit")

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name used in logs.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Runner runs Runnables concurrently and collects their errors.
// context.Canceled is not an error. With FailFast, the first failing
// Runnable cancels all the others.
type Runner struct {
	Context  context.Context
	Runners  []Runnable
	FailFast bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	lock   sync.Mutex
	errs   AggregatedError
	exitCh chan struct{}
}

// NewRunner creates a runner with a background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner canceled along with ctx.
func NewRunnerWith(ctx context.Context) *Runner {
	r := &Runner{exitCh: make(chan struct{})}
	r.Context, r.cancel = context.WithCancel(ctx)
	return r
}

// Stop cancels the context of all Runnables.
func (r *Runner) Stop() {
	r.cancel()
}

// HandleSignals stops on Ctrl-C or SIGTERM, a second signal forces Wait
// to return.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		r.cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns Runnables with the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	return r.GoWith(r.Context, runnables...)
}

// GoWith spawns Runnables with ctx.
func (r *Runner) GoWith(ctx context.Context, runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(len(r.Runners))
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.Runners = append(r.Runners, runnable)
		r.wg.Add(1)
		go r.run(ctx, name, runnable)
	}
	return r
}

func (r *Runner) run(ctx context.Context, name string, runnable Runnable) {
	defer r.wg.Done()
	glog.V(4).Infof("%s: started", name)
	err := runnable.Run(ctx)
	glog.V(4).Infof("%s: stopped: %v", name, err)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	r.lock.Lock()
	r.errs.Add(err)
	r.lock.Unlock()
	if r.FailFast {
		glog.Errorf("%s failed: %v", name, err)
		r.cancel()
	}
}

// Wait waits until all Runnables return.
func (r *Runner) Wait() error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-r.exitCh:
		return ErrForcedExit
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.errs.Aggregate()
}

// RunWithContextCancel runs fn which doesn't accept a context. When ctx
// is done first, onCancel is expected to make fn return and ctx.Err() is
// returned. With a nil onCancel, fn is left running.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if onCancel != nil {
		onCancel()
		<-errCh
	}
	return ctx.Err()
}

// RunWithContext is RunWithContextCancel without cancel callback.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser runs fn and closes closer either on cancel or when
// fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var once sync.Once
	closeOnce := func() { once.Do(func() { closer.Close() }) }
	defer closeOnce()
	return RunWithContextCancel(ctx, closeOnce, fn)
}
