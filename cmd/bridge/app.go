package main

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensorbridge/internal/affinity"
	"sensorbridge/internal/config"
	"sensorbridge/internal/dispatch"
	"sensorbridge/internal/receiver"
	"sensorbridge/internal/stats"
	"sensorbridge/pkg/buffer"
)

// App wires the bridge topology: N pinned UDP receivers, each with a
// private SPSC ring, drained by a single MQTT publisher.
type App struct {
	cfg    *config.BridgeConfig
	stats  *stats.Counters
	rings  []*buffer.SPSC
	client mqtt.Client

	ctx    context.Context
	cancel context.CancelFunc

	recvWG  sync.WaitGroup
	pubWG   sync.WaitGroup
	statsWG sync.WaitGroup

	errCh chan error
}

// NewApp creates the application with the given configuration.
func NewApp(cfg *config.BridgeConfig) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		cfg:    cfg,
		stats:  &stats.Counters{},
		ctx:    ctx,
		cancel: cancel,
		errCh:  make(chan error, config.MaxRecvThreads),
	}
}

// Err reports the first fatal receiver error, if any.
func (app *App) Err() <-chan error { return app.errCh }

// Start spawns all workers and returns. Receiver bind errors surface on
// Err.
func (app *App) Start() error {
	app.cfg.Clamp()
	ncores := runtime.NumCPU()

	log.Info("bridge starting",
		"port", app.cfg.Port,
		"recv_threads", app.cfg.RecvThreads,
		"ring_cap", app.cfg.RingCap,
		"broker", app.cfg.MQTT.BrokerURL(),
		"topic_prefix", app.cfg.TopicPrefix)

	app.client = dispatch.NewMQTTClient(&app.cfg.MQTT)
	if token := app.client.Connect(); token.WaitTimeout(app.cfg.MQTT.ReconnectMax) && token.Error() != nil {
		// Keep going: the client retries in the background and the
		// publisher queues until it connects.
		log.Error("mqtt connect failed", "broker", app.cfg.MQTT.BrokerURL(), "err", token.Error())
	}

	for i := 0; i < app.cfg.RecvThreads; i++ {
		ring := buffer.NewSPSC(app.cfg.RingCap)
		app.rings = append(app.rings, ring)

		enc := dispatch.NewBridgeEncoder(ring, app.cfg.TopicPrefix)
		rcv := receiver.NewUDP(i, app.cfg.Port, app.cfg.RecvBuf, app.stats, enc)

		app.recvWG.Add(1)
		go func(core int, rcv *receiver.UDP) {
			defer app.recvWG.Done()
			if err := affinity.Pin(core); err != nil {
				log.Warn("cpu pin failed, continuing unpinned", "core", core, "err", err)
			}
			if err := rcv.Run(app.ctx); err != nil {
				app.errCh <- err
			}
		}(i, rcv)
	}

	pub := dispatch.NewPublisher(app.client, app.rings, app.stats)
	app.pubWG.Add(1)
	go func() {
		defer app.pubWG.Done()
		core := app.cfg.RecvThreads % ncores
		if err := affinity.Pin(core); err != nil {
			log.Warn("cpu pin failed, continuing unpinned", "core", core, "err", err)
		}
		pub.Run(app.ctx)
	}()

	if app.cfg.StatsSecs > 0 {
		app.statsWG.Add(1)
		go app.statsLoop()
	}

	return nil
}

// statsLoop prints the bridge rate line every interval.
func (app *App) statsLoop() {
	defer app.statsWG.Done()

	interval := time.Duration(app.cfg.StatsSecs) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-app.ctx.Done():
			return
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			fmt.Println(app.stats.SnapshotAndReset().BridgeLine("UDP", elapsed))
		}
	}
}

// Stop shuts the pipeline down: receivers first, then the publisher's
// final drain, then the broker connection.
func (app *App) Stop() {
	app.cancel()
	app.recvWG.Wait()
	app.pubWG.Wait()
	app.statsWG.Wait()
	if app.client != nil {
		app.client.Disconnect(250)
	}
	log.Info("bridge shut down")
}
