package netcore

import (
	"context"
	"flag"
	"os"
	"time"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
	"github.com/robotalks/dualdrive/pkg/telemetry"
)

// Config configures the network core.
type Config struct {
	// HTTPAddr is the listen address of the gateway, disabled when empty.
	HTTPAddr string
	// LoopInterval is the idle interval of the command loop.
	LoopInterval time.Duration
}

var defaultConfig = Config{
	HTTPAddr:     ":8080",
	LoopInterval: 20 * time.Millisecond,
}

func init() {
	if val := os.Getenv("DUALDRIVE_HTTP"); val != "" {
		defaultConfig.HTTPAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.HTTPAddr, "http", defaultConfig.HTTPAddr, "HTTP gateway listen address, empty to disable")
	flag.DurationVar(&defaultConfig.LoopInterval, "net-interval", defaultConfig.LoopInterval, "Network core loop interval")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Node is an assembled network core.
type Node struct {
	Loop       *fx.Loop
	Server     *Server
	Registrars *comm.RegistrarMux
	Gateway    *Gateway
	HTTP       *HTTPServer
}

// NewNode assembles the network core over the channels. Extra registrars
// (e.g. MQTT) receive commands into the same loop and DriveStatus events.
func (c *Config) NewNode(commands, status *telemetry.Channel, regs ...l1.Registrar) *Node {
	n := &Node{
		Loop:       fx.NewLoop(),
		Server:     NewServer(commands, status),
		Registrars: &comm.RegistrarMux{},
	}
	n.Loop.Interval = c.LoopInterval
	n.Registrars.Add(regs...)
	n.Server.Events = n.Registrars
	n.Gateway = NewGateway(n.Server, n.Loop, n.Registrars)
	if c.HTTPAddr != "" {
		n.HTTP = &HTTPServer{Addr: c.HTTPAddr, Gateway: n.Gateway}
		n.Loop.AddRunnable(fx.NamedRun("http", n.HTTP))
	}
	n.Loop.Add(n.Registrars, n.Server, &comm.UnsupportedCommands{})
	return n
}

// Run implements Runnable.
func (n *Node) Run(ctx context.Context) error {
	return n.Loop.Run(ctx)
}
