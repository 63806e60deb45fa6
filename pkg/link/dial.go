// Package link carries telemetry frames between the network core and the
// control core when they run as separate processes.
package link

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"

	"github.com/golang/glog"
	serial "go.bug.st/serial"

	fx "github.com/robotalks/dualdrive/pkg/framework"
)

// DefaultBaudRate is used when a serial URL carries no baud.
const DefaultBaudRate = 115200

// Transport URL schemes.
const (
	SchemeTCP    = "tcp"
	SchemeSerial = "serial"
)

// Endpoint is a parsed link URL:
//
//	tcp://host:port
//	serial:///dev/ttyUSB0?baud=115200
type Endpoint struct {
	Scheme   string
	Address  string
	BaudRate int
}

// ParseEndpoint parses a link URL.
func ParseEndpoint(rawurl string) (*Endpoint, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case SchemeTCP:
		if u.Host == "" {
			return nil, fmt.Errorf("missing address in %q", rawurl)
		}
		return &Endpoint{Scheme: SchemeTCP, Address: u.Host}, nil
	case SchemeSerial:
		ep := &Endpoint{Scheme: SchemeSerial, Address: u.Path, BaudRate: DefaultBaudRate}
		if ep.Address == "" {
			ep.Address = u.Opaque
		}
		if ep.Address == "" {
			return nil, fmt.Errorf("missing device in %q", rawurl)
		}
		if baud := u.Query().Get("baud"); baud != "" {
			if ep.BaudRate, err = strconv.Atoi(baud); err != nil || ep.BaudRate <= 0 {
				return nil, fmt.Errorf("invalid baud %q", baud)
			}
		}
		return ep, nil
	}
	return nil, fmt.Errorf("unsupported link scheme %q", u.Scheme)
}

// String implements fmt.Stringer.
func (e *Endpoint) String() string {
	if e.Scheme == SchemeSerial {
		return fmt.Sprintf("serial://%s?baud=%d", e.Address, e.BaudRate)
	}
	return e.Scheme + "://" + e.Address
}

// Dial connects to the endpoint.
func (e *Endpoint) Dial(ctx context.Context) (io.ReadWriteCloser, error) {
	if e.Scheme == SchemeSerial {
		return e.openSerial()
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", e.Address)
	if err != nil {
		return nil, err
	}
	glog.Infof("link connected to %s", e)
	return conn, nil
}

// Accept waits for one peer on the endpoint. A serial endpoint is opened
// directly.
func (e *Endpoint) Accept(ctx context.Context) (io.ReadWriteCloser, error) {
	if e.Scheme == SchemeSerial {
		return e.openSerial()
	}
	ln, err := net.Listen("tcp", e.Address)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	glog.Infof("link listening on %s", ln.Addr())
	var conn net.Conn
	err = fx.RunWithContextCloser(ctx, ln, func() (err error) {
		conn, err = ln.Accept()
		return
	})
	if err != nil {
		return nil, err
	}
	glog.Infof("link accepted %s", conn.RemoteAddr())
	return conn, nil
}

func (e *Endpoint) openSerial() (io.ReadWriteCloser, error) {
	port, err := serial.Open(e.Address, &serial.Mode{BaudRate: e.BaudRate})
	if err != nil {
		return nil, err
	}
	glog.Infof("link opened %s", e)
	return port, nil
}
