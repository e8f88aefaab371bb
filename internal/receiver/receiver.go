// Package receiver implements the ingest side of the pipeline: UDP,
// TCP, MQTT and WebSocket receivers that read raw sensor packets off the
// transport and hand them to a Sink.
//
// Receivers record receive statistics themselves and classify sink
// failures: a full ring counts as a channel drop, anything else as a
// parse error. They unblock from the kernel at least once per second to
// observe cancellation.
package receiver

import (
	"errors"
	"time"

	"sensorbridge/internal/stats"
	"sensorbridge/pkg/buffer"
)

// recvTimeout bounds every blocking transport read so receivers can
// recheck the shutdown signal.
const recvTimeout = time.Second

// maxDatagram is the receive buffer size for datagram and frame reads.
const maxDatagram = 65535

// Sink consumes one raw transport message. The bytes are only valid for
// the duration of the call; implementations copy what they keep.
type Sink interface {
	Consume(b []byte) error
}

// consume hands b to the sink and books the failure, if any, against the
// right counter. A full ring is transient backpressure (a drop); a
// message that can never fit a slot is malformed input, like any other
// parse failure.
func consume(sink Sink, c *stats.Counters, b []byte) {
	if err := sink.Consume(b); err != nil {
		if errors.Is(err, buffer.ErrFull) {
			c.RecordDrop()
		} else {
			c.RecordParseError()
		}
	}
}
