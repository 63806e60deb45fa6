package netcore

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/dualdrive/pkg/decoder"
	fx "github.com/robotalks/dualdrive/pkg/framework"
	"github.com/robotalks/dualdrive/pkg/l1/comm"
	ws "github.com/robotalks/dualdrive/pkg/l1/comm/websocket"
)

const indexPage = `<html><head><title>dualdrive</title></head><body>
<script>
function cmd(word) {
  var v = document.getElementById(word == 'C0' ? 'I1' : 'I2');
  var http = new XMLHttpRequest();
  http.onreadystatechange = function() {
    if (http.readyState == 4 && word == 'C1') { v.value = http.responseText; }
  };
  http.open("GET", "cmd?=" + word + (word == 'C0' ? v.value : "") + "&id" + Math.random(), true);
  http.send(null);
}
</script>
<input id="B1" value="Set" onclick="cmd('C0');" type="button"><input maxlength="7" size="8" id="I1" type="text">
<input id="B2" value="GetStatus" onclick="cmd('C1');" type="button"><input maxlength="10" size="10" id="I2" type="text">
</body></html>
`

// Gateway serves the HTTP command surface and the websocket L1 endpoint.
//
//	GET /            control page
//	GET /cmd?C0...   sets a slot, empty reply
//	GET /cmd?C1      status of the selected slot, empty when unresolved
//	/ws              L1 typed messages, one binary frame each
type Gateway struct {
	Server *Server
	// Loop receives commands from websocket clients.
	Loop fx.LoopControl
	// Clients receives DriveStatus events along with other registrars.
	Clients *comm.RegistrarMux

	mux *http.ServeMux
}

// NewGateway creates a Gateway.
func NewGateway(s *Server, loop fx.LoopControl, clients *comm.RegistrarMux) *Gateway {
	g := &Gateway{Server: s, Loop: loop, Clients: clients, mux: http.NewServeMux()}
	g.mux.HandleFunc("/", g.serveIndex)
	g.mux.HandleFunc("/cmd", g.serveCommand)
	g.mux.Handle("/ws", websocket.Handler(g.serveWebSocket))
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

func (g *Gateway) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, indexPage)
}

func (g *Gateway) serveCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := decoder.ParseRequestURI(r.URL.RequestURI())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Cache-Control", "no-cache")
	switch req.Kind {
	case decoder.RequestSet:
		g.Server.Decoder.Decode(req.Command)
	case decoder.RequestStatus:
		if res := g.Server.Decoder.Status(); res.Status {
			io.WriteString(w, FormatValue(res.Value))
		}
	}
}

// FormatValue renders a slot value in a status reply.
func FormatValue(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 3, 32)
}

func (g *Gateway) serveWebSocket(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	reg := comm.NewRegistrar(ws.New(conn), g.Loop)
	g.Clients.Add(reg)
	defer g.Clients.Remove(reg)
	glog.Infof("ws client %s connected", conn.Request().RemoteAddr)
	// the first status reaches the client without waiting for a change
	if err := reg.SendEvent(conn.Request().Context(), g.Server.DriveStatus()); err != nil {
		glog.Warningf("ws client %s: %v", conn.Request().RemoteAddr, err)
		return
	}
	err := reg.Run(conn.Request().Context())
	glog.Infof("ws client %s disconnected: %v", conn.Request().RemoteAddr, err)
}

// Serve runs the HTTP server on the listener until ctx is done.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: g}
	err := fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		return srv.Serve(ln)
	})
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// HTTPServer runs a Gateway on an address as a Runnable.
type HTTPServer struct {
	Addr    string
	Gateway *Gateway
}

// Run implements Runnable.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("http listening on %s", ln.Addr())
	return s.Gateway.Serve(ctx, ln)
}
