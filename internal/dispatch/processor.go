package dispatch

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"sensorbridge/internal/sensor"
	"sensorbridge/internal/stats"
	"sensorbridge/internal/vad"
	"sensorbridge/pkg/buffer"
)

// Processor is one VAD worker: it pops raw messages off the shared MPMC
// ring, parses them, runs the VAD kernel, and counts the outcome. Worker
// 0 additionally owns the periodic stats line.
type Processor struct {
	id         int
	ring       *buffer.MPMC
	stats      *stats.Counters
	transport  string
	interval   time.Duration
	statsOwner bool
}

// NewProcessor creates worker id. interval 0 disables the stats line
// even for the owner.
func NewProcessor(id int, ring *buffer.MPMC, c *stats.Counters, transport string, interval time.Duration, statsOwner bool) *Processor {
	return &Processor{
		id:         id,
		ring:       ring,
		stats:      c,
		transport:  transport,
		interval:   interval,
		statsOwner: statsOwner,
	}
}

// Run processes until ctx is cancelled. An empty ring yields the
// scheduler; the worker never sleeps.
func (w *Processor) Run(ctx context.Context) {
	log.Info("vad processor started", "thread", w.id)

	var msg buffer.Message
	last := time.Now()

	for {
		// The stats owner checks the clock every iteration, idle or not.
		if w.statsOwner && w.interval > 0 {
			now := time.Now()
			if elapsed := now.Sub(last); elapsed >= w.interval {
				fmt.Println(w.stats.SnapshotAndReset().ProcessorLine(w.transport, elapsed))
				last = now
			}
		}

		if ctx.Err() != nil {
			log.Info("vad processor stopped", "thread", w.id)
			return
		}

		if err := w.ring.Pop(&msg); err != nil {
			runtime.Gosched()
			continue
		}

		pkt, err := sensor.ParseBinary(msg.Bytes())
		if err != nil {
			w.stats.RecordParseError()
			continue
		}

		res := vad.Process(&pkt)
		w.stats.RecordProcessed(res.Active)
	}
}
