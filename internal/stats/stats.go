// Package stats holds the pipeline's shared counters and the periodic
// rate report.
//
// Hot-path updates are plain atomic increments; accuracy under contention
// is not required beyond eventual consistency of the totals. The periodic
// report swaps each counter with zero individually, so a snapshot is a
// close but not instantaneous view — acceptable for a rate line.
package stats

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Counters is the process-wide counter set. Create once before spawning
// any worker and share the pointer.
type Counters struct {
	received      atomic.Uint64
	receivedBytes atomic.Uint64
	processed     atomic.Uint64
	vadActive     atomic.Uint64
	published     atomic.Uint64
	parseErrors   atomic.Uint64
	recvErrors    atomic.Uint64
	publishErrors atomic.Uint64
	drops         atomic.Uint64
}

// RecordRecv counts one received transport message of n bytes.
func (c *Counters) RecordRecv(n int) {
	c.received.Add(1)
	c.receivedBytes.Add(uint64(n))
}

// RecordProcessed counts one packet through the VAD stage.
func (c *Counters) RecordProcessed(active bool) {
	c.processed.Add(1)
	if active {
		c.vadActive.Add(1)
	}
}

// RecordPublished counts one outbound MQTT publish.
func (c *Counters) RecordPublished() { c.published.Add(1) }

// RecordParseError counts one malformed packet or frame.
func (c *Counters) RecordParseError() { c.parseErrors.Add(1) }

// RecordRecvError counts one socket receive error.
func (c *Counters) RecordRecvError() { c.recvErrors.Add(1) }

// RecordPublishError counts one failed MQTT publish.
func (c *Counters) RecordPublishError() { c.publishErrors.Add(1) }

// RecordDrop counts one message dropped on a full ring.
func (c *Counters) RecordDrop() { c.drops.Add(1) }

// Snapshot is the counter values taken by SnapshotAndReset.
type Snapshot struct {
	Received      uint64
	ReceivedBytes uint64
	Processed     uint64
	VADActive     uint64
	Published     uint64
	ParseErrors   uint64
	RecvErrors    uint64
	PublishErrors uint64
	Drops         uint64
}

// SnapshotAndReset atomically exchanges every counter with zero and
// returns the previous values. Counting continues concurrently; the
// exchanges are per-counter, not joint.
func (c *Counters) SnapshotAndReset() Snapshot {
	return Snapshot{
		Received:      c.received.Swap(0),
		ReceivedBytes: c.receivedBytes.Swap(0),
		Processed:     c.processed.Swap(0),
		VADActive:     c.vadActive.Swap(0),
		Published:     c.published.Swap(0),
		ParseErrors:   c.parseErrors.Swap(0),
		RecvErrors:    c.recvErrors.Swap(0),
		PublishErrors: c.publishErrors.Swap(0),
		Drops:         c.drops.Swap(0),
	}
}

// clampElapsed guards the rate divisions against a zero interval.
func clampElapsed(elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs < 0.001 {
		secs = 0.001
	}
	return secs
}

// ProcessorLine formats the processor topology's stats line.
func (s Snapshot) ProcessorLine(transport string, elapsed time.Duration) string {
	secs := clampElapsed(elapsed)
	return fmt.Sprintf(
		"[STATS] %s: %.0f pps, %.2f Mbps | VAD: %.0f proc/s, %d active | errors: parse=%d recv=%d drops=%d",
		transport,
		float64(s.Received)/secs,
		float64(s.ReceivedBytes)*8/(secs*1e6),
		float64(s.Processed)/secs,
		s.VADActive,
		s.ParseErrors, s.RecvErrors, s.Drops,
	)
}

// BridgeLine formats the bridge topology's stats line; the VAD segment is
// replaced by the MQTT publish rate.
func (s Snapshot) BridgeLine(transport string, elapsed time.Duration) string {
	secs := clampElapsed(elapsed)
	return fmt.Sprintf(
		"[STATS] %s: %.0f pps, %.2f Mbps | MQTT: %.0f msg/s | errors: parse=%d recv=%d drops=%d",
		transport,
		float64(s.Received)/secs,
		float64(s.ReceivedBytes)*8/(secs*1e6),
		float64(s.Published)/secs,
		s.ParseErrors, s.RecvErrors, s.Drops,
	)
}
