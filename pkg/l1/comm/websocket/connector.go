package websocket

import (
	"context"
	"net/url"
	"strings"

	"golang.org/x/net/websocket"

	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
)

// DefaultPath is the websocket endpoint path of a controller.
const DefaultPath = "/ws"

// Connector implements l1.Connector by dialing a controller directly.
// There is exactly one controller behind the URL.
type Connector struct {
	URL    string
	Origin string
}

// NewConnector creates a Connector, the path defaults to DefaultPath.
func NewConnector(rawurl string) (*Connector, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, err
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = DefaultPath
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	return &Connector{URL: u.String(), Origin: origin}, nil
}

// Info describes the controller behind the URL.
func (c *Connector) Info() l1.ControllerInfo {
	u, _ := url.Parse(c.URL)
	return l1.ControllerInfo{
		Ref:  l1.ControllerRef{Type: u.Scheme, ID: strings.Replace(u.Host, ":", "-", -1)},
		Meta: l1.ControllerMeta{Description: c.URL},
	}
}

// Discover implements Connector.
func (c *Connector) Discover(ctx context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{c.Info()}, nil
}

// Connect implements Connector. The ref is ignored.
func (c *Connector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	cfg, err := websocket.NewConfig(c.URL, c.Origin)
	if err != nil {
		return nil, err
	}
	var conn *websocket.Conn
	err = fx.RunWithContext(ctx, func() (err error) {
		conn, err = websocket.DialConfig(cfg)
		return
	})
	if err != nil {
		return nil, err
	}
	cc := &ControllerConn{Conn: conn}
	cc.Init(New(conn))
	return cc, nil
}

// ControllerConn implements ControllerConn over a websocket.
type ControllerConn struct {
	comm.ControllerConn
	Conn *websocket.Conn
}
