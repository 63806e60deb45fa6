package node

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dualdrive/pkg/actuator"
	"github.com/robotalks/dualdrive/pkg/actuator/periphpwm"
	"github.com/robotalks/dualdrive/pkg/control"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/link"
	"github.com/robotalks/dualdrive/pkg/netcore"
	"github.com/robotalks/dualdrive/pkg/qep"
	"github.com/robotalks/dualdrive/pkg/sim/plant"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Node runs the cores of a role.
type Node struct {
	Config   *Config
	Commands *telemetry.Channel
	Status   *telemetry.Channel

	Net     *netcore.Node
	Control *control.Core
	Plant   *plant.Plant
	Link    *link.Endpoint

	halt func() error
}

// Options are the configurations of the cores.
type Options struct {
	Net        *netcore.Config
	Tuning     *control.Tuning
	Registrars []l1.Registrar
}

// NewNode creates the cores of the role.
func (c *Config) NewNode(opts Options) (*Node, error) {
	n := &Node{
		Config:   c,
		Commands: telemetry.NewChannel(telemetry.CommandLayout),
		Status:   telemetry.NewChannel(telemetry.StatusLayout),
	}
	if c.Role != RoleAll {
		ep, err := link.ParseEndpoint(c.LinkURL)
		if err != nil {
			return nil, err
		}
		n.Link = ep
	}
	if c.Role != RoleCtl {
		n.Net = opts.Net.NewNode(n.Commands, n.Status, opts.Registrars...)
	}
	if c.Role != RoleNet {
		if err := n.newControl(*opts.Tuning); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n *Node) newControl(t control.Tuning) error {
	var (
		reg         actuator.Register
		left, right qep.Counter
	)
	if n.Config.Simulate {
		regs := &actuator.SimRegisters{}
		n.Plant = plant.New(plant.Config{
			Geometry: t.Geometry,
			Duty:     t.Duty,
			Timebase: t.Timebase,
			Encoder:  t.Encoder,
		}, regs)
		reg, left, right = regs, n.Plant.LeftEncoder(), n.Plant.RightEncoder()
	} else {
		regs, err := periphpwm.Open(t.Timebase, n.Config.Pins)
		if err != nil {
			return err
		}
		reg, n.halt = regs, regs.Halt
	}
	core, err := t.NewCore(n.Commands, n.Status, reg, left, right)
	if err != nil {
		return err
	}
	if n.Plant != nil {
		core.Scheduler.Every("plant", t.DispatchPeriod, fx.PrLvAcuate, n.Plant)
	}
	if n.halt == nil {
		n.halt = core.Bank.Halt
	}
	n.Control = core
	return nil
}

// Run implements Runnable.
func (n *Node) Run(ctx context.Context) error {
	runner := fx.NewRunnerWith(ctx)
	runner.FailFast = true
	if n.Net != nil {
		runner.Go(fx.NamedRun("net", n.Net))
	}
	if n.Control != nil {
		runner.Go(fx.NamedRun("control", n.Control))
	}
	if n.Link != nil {
		runner.Go(fx.NamedRun("link", fx.RunnableFunc(n.runLink)))
	}
	err := runner.Wait()
	if n.halt != nil {
		if haltErr := n.halt(); haltErr != nil {
			glog.Errorf("halt outputs: %v", haltErr)
		}
	}
	return err
}

// runLink keeps the link up, reconnecting after failures. The net role
// dials, the ctl role accepts.
func (n *Node) runLink(ctx context.Context) error {
	out, in := n.Commands, n.Status
	if n.Config.Role == RoleCtl {
		out, in = n.Status, n.Commands
	}
	for {
		var (
			conn io.ReadWriteCloser
			err  error
		)
		if n.Config.Role == RoleCtl {
			conn, err = n.Link.Accept(ctx)
		} else {
			conn, err = n.Link.Dial(ctx)
		}
		if err == nil {
			err = link.New(conn, out, in).Run(ctx)
			conn.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("link %s: %v, retry in %v", n.Link, err, n.Config.LinkRetry)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.Config.LinkRetry):
		}
	}
}
