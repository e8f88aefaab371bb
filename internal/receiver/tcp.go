package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"sensorbridge/internal/sensor"
	"sensorbridge/internal/stats"
)

// TCP receives length-prefixed sensor packets from one client at a time:
// a 4-byte little-endian total length followed by the packet bytes. A
// malformed length leaves the stream unframed, so the connection is
// dropped and the next client accepted.
type TCP struct {
	port    int
	recvBuf int
	stats   *stats.Counters
	sink    Sink

	addr atomic.Value // net.Addr once bound
}

// NewTCP creates the (single) TCP receiver.
func NewTCP(port, recvBuf int, c *stats.Counters, sink Sink) *TCP {
	return &TCP{port: port, recvBuf: recvBuf, stats: c, sink: sink}
}

// LocalAddr returns the bound address, or nil before Run has bound.
func (t *TCP) LocalAddr() net.Addr {
	a, _ := t.addr.Load().(net.Addr)
	return a
}

// Run listens and serves clients until ctx is cancelled.
func (t *TCP) Run(ctx context.Context) error {
	lc := net.ListenConfig{Control: sockopts(0)}
	ln, err := lc.Listen(ctx, "tcp4", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("tcp listen: %w", err)
	}
	defer ln.Close()

	tl := ln.(*net.TCPListener)
	t.addr.Store(tl.Addr())
	log.Info("tcp receiver listening", "addr", tl.Addr())

	for {
		if ctx.Err() != nil {
			log.Info("tcp receiver stopped")
			return nil
		}

		tl.SetDeadline(time.Now().Add(recvTimeout))
		conn, err := tl.AcceptTCP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				log.Info("tcp receiver stopped")
				return nil
			}
			t.stats.RecordRecvError()
			return fmt.Errorf("tcp accept: %w", err)
		}

		conn.SetNoDelay(true)
		if t.recvBuf > 0 {
			conn.SetReadBuffer(t.recvBuf)
		}
		log.Info("tcp client connected", "remote", conn.RemoteAddr())

		t.serve(ctx, conn)
		log.Info("tcp client disconnected", "remote", conn.RemoteAddr())
	}
}

// serve reads frames from one client until it disconnects, sends a
// malformed length, or the context is cancelled.
func (t *TCP) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var prefix [sensor.FramePrefixSize]byte
	buf := make([]byte, sensor.MaxFrame)

	for {
		if err := readFull(ctx, conn, prefix[:]); err != nil {
			return
		}

		n, err := sensor.FrameLength(prefix[:])
		if err != nil {
			t.stats.RecordParseError()
			return
		}

		if err := readFull(ctx, conn, buf[:n]); err != nil {
			return
		}

		t.stats.RecordRecv(n + sensor.FramePrefixSize)
		consume(t.sink, t.stats, buf[:n])
	}
}

// readFull fills b from conn, rolling the read deadline so cancellation
// is observed between partial reads.
func readFull(ctx context.Context, conn net.Conn, b []byte) error {
	off := 0
	for off < len(b) {
		conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, err := conn.Read(b[off:])
		off += n
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				continue
			}
			return err
		}
	}
	return nil
}
