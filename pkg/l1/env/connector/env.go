// Package connector configures how clients reach a drive.
package connector

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm/mqtt"
	"github.com/robotalks/dualdrive/pkg/l1/comm/websocket"
)

// Config selects the registry and, optionally, the drive.
type Config struct {
	// Drive is <type>/<id> of the drive to connect, empty to choose from
	// the discovered ones.
	Drive string

	// RegistryURL specifies where drives are found:
	//
	//	mqtt://host:port/topic-prefix  discovered through the MQTT registry
	//	ws://host:port/ws              a single drive dialed directly
	RegistryURL string
}

var defaultConfig = Config{
	RegistryURL: "mqtt://localhost:1883/dualdrive/",
}

func init() {
	if val := os.Getenv("DUALDRIVE_DRIVE"); val != "" {
		defaultConfig.Drive = val
	}
	if val := os.Getenv("DUALDRIVE_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Drive, "drive", defaultConfig.Drive, "Drive to connect as TYPE/ID.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Registry URL, mqtt:// or ws:// for a single drive.")
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

// Ref parses Drive. ok is false when Drive is empty or malformed.
func (c *Config) Ref() (l1.ControllerRef, bool) {
	return l1.ParseRef(c.Drive)
}

// IsDirect indicates the registry URL points to a single drive.
func (c *Config) IsDirect() bool {
	u, err := url.Parse(c.RegistryURL)
	return err == nil && (u.Scheme == "ws" || u.Scheme == "wss")
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", u.Scheme)
	}
}
