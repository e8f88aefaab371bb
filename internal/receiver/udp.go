package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"sensorbridge/internal/stats"
)

// UDP receives one sensor packet per datagram. Several UDP receivers
// bind the same port; SO_REUSEPORT spreads the datagrams across them.
type UDP struct {
	id      int
	port    int
	recvBuf int
	stats   *stats.Counters
	sink    Sink

	addr atomic.Value // net.Addr once bound
}

// NewUDP creates a receiver. id is purely diagnostic.
func NewUDP(id, port, recvBuf int, c *stats.Counters, sink Sink) *UDP {
	return &UDP{id: id, port: port, recvBuf: recvBuf, stats: c, sink: sink}
}

// LocalAddr returns the bound address, or nil before Run has bound.
func (u *UDP) LocalAddr() net.Addr {
	a, _ := u.addr.Load().(net.Addr)
	return a
}

// Run binds and receives until ctx is cancelled. Timeouts silently
// continue; a fatal socket error is counted and ends the receiver.
func (u *UDP) Run(ctx context.Context) error {
	lc := net.ListenConfig{Control: sockopts(u.recvBuf)}
	pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", u.port))
	if err != nil {
		return fmt.Errorf("udp bind: %w", err)
	}
	defer pc.Close()

	u.addr.Store(pc.LocalAddr())
	log.Info("udp receiver listening", "thread", u.id, "addr", pc.LocalAddr())

	buf := make([]byte, maxDatagram)
	for {
		if ctx.Err() != nil {
			log.Info("udp receiver stopped", "thread", u.id)
			return nil
		}

		pc.SetReadDeadline(time.Now().Add(recvTimeout))
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				log.Info("udp receiver stopped", "thread", u.id)
				return nil
			}
			u.stats.RecordRecvError()
			return fmt.Errorf("udp receive: %w", err)
		}

		u.stats.RecordRecv(n)
		consume(u.sink, u.stats, buf[:n])
	}
}
