// Package node assembles the two cores of a drive into one process, or one
// of them connected to its peer by a link.
package node

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robotalks/dualdrive/pkg/actuator/periphpwm"
)

// Role selects the cores running in the process.
type Role string

// Roles.
const (
	RoleAll Role = "all"
	RoleNet Role = "net"
	RoleCtl Role = "ctl"
)

// String implements flag.Value.
func (r *Role) String() string {
	return string(*r)
}

// Set implements flag.Value.
func (r *Role) Set(s string) error {
	switch Role(s) {
	case RoleAll, RoleNet, RoleCtl:
		*r = Role(s)
		return nil
	}
	return fmt.Errorf("invalid role %q, expect all, net or ctl", s)
}

type pinsValue periphpwm.Pins

func (v *pinsValue) String() string {
	return strings.Join(v[:], ",")
}

func (v *pinsValue) Set(s string) error {
	names := strings.Split(s, ",")
	if len(names) != len(v) {
		return fmt.Errorf("expect %d pins, got %d", len(v), len(names))
	}
	copy(v[:], names)
	return nil
}

// Config configures a node.
type Config struct {
	Role Role
	// LinkURL connects a net role to a ctl role, see link.ParseEndpoint.
	LinkURL string
	// LinkRetry is the delay before reconnecting a broken link.
	LinkRetry time.Duration
	// Simulate drives the simulated plant instead of the PWM pins.
	Simulate bool
	Pins     periphpwm.Pins
}

var defaultConfig = Config{
	Role:      RoleAll,
	LinkURL:   "tcp://127.0.0.1:7600",
	LinkRetry: time.Second,
	Simulate:  true,
	Pins:      periphpwm.DefaultPins,
}

func init() {
	if val := os.Getenv("DUALDRIVE_ROLE"); val != "" {
		defaultConfig.Role.Set(val)
	}
	if val := os.Getenv("DUALDRIVE_LINK"); val != "" {
		defaultConfig.LinkURL = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(&defaultConfig.Role, "role", "Cores to run: all, net or ctl.")
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Link between net and ctl roles: tcp://host:port or serial:///dev/tty?baud=N.")
	flag.DurationVar(&defaultConfig.LinkRetry, "link-retry", defaultConfig.LinkRetry, "Delay before reconnecting the link.")
	flag.BoolVar(&defaultConfig.Simulate, "sim", defaultConfig.Simulate, "Drive the simulated plant instead of PWM pins.")
	flag.Var((*pinsValue)(&defaultConfig.Pins), "pwm-pins", "PWM pins for left,right,grip_a,grip_b.")
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
