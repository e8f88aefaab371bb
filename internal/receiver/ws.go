package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"sensorbridge/internal/sensor"
	"sensorbridge/internal/stats"
)

// WS receives one sensor packet per binary WebSocket message, for
// producers that can only speak HTTP. Text messages and empty payloads
// are ignored.
type WS struct {
	port  int
	path  string
	stats *stats.Counters
	sink  Sink

	addr atomic.Value // net.Addr once bound
}

// NewWS creates the WebSocket receiver serving the given endpoint path.
func NewWS(port int, path string, c *stats.Counters, sink Sink) *WS {
	return &WS{port: port, path: path, stats: c, sink: sink}
}

// LocalAddr returns the bound address, or nil before Run has bound.
func (w *WS) LocalAddr() net.Addr {
	a, _ := w.addr.Load().(net.Addr)
	return a
}

// Run serves upgrade requests until ctx is cancelled. Client errors end
// that client only; the endpoint keeps accepting.
func (w *WS) Run(ctx context.Context) error {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  maxDatagram,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc(w.path, func(rw http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(rw, req, nil)
		if err != nil {
			log.Warn("ws upgrade failed", "remote", req.RemoteAddr, "err", err)
			return
		}
		w.serve(ctx, conn)
	})

	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", w.port))
	if err != nil {
		return fmt.Errorf("ws listen: %w", err)
	}
	w.addr.Store(ln.Addr())
	log.Info("ws receiver listening", "addr", ln.Addr(), "path", w.path)

	srv := &http.Server{Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		w.stats.RecordRecvError()
		return fmt.Errorf("ws serve: %w", err)
	}
	log.Info("ws receiver stopped")
	return nil
}

// serve reads binary messages from one client until it disconnects or
// the context is cancelled.
func (w *WS) serve(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	log.Info("ws client connected", "remote", conn.RemoteAddr())

	// Upgraded connections are hijacked from the http server, so close
	// them ourselves on shutdown to unblock the read loop.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(sensor.MaxFrame)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("ws client disconnected", "remote", conn.RemoteAddr())
			return
		}
		if mt != websocket.BinaryMessage || len(data) == 0 {
			continue
		}
		w.stats.RecordRecv(len(data))
		consume(w.sink, w.stats, data)
	}
}
