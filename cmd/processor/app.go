package main

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"sensorbridge/internal/affinity"
	"sensorbridge/internal/config"
	"sensorbridge/internal/dispatch"
	"sensorbridge/internal/receiver"
	"sensorbridge/internal/stats"
	"sensorbridge/pkg/buffer"
)

// runner is any receiver's Run loop.
type runner interface {
	Run(ctx context.Context) error
}

// App wires the processor topology: transport receivers feeding one
// shared MPMC ring, drained by M pinned VAD workers.
type App struct {
	cfg   *config.ProcessorConfig
	stats *stats.Counters
	ring  *buffer.MPMC

	ctx    context.Context
	cancel context.CancelFunc

	recvWG sync.WaitGroup
	procWG sync.WaitGroup

	errCh chan error
}

// NewApp creates the application with the given configuration.
func NewApp(cfg *config.ProcessorConfig) *App {
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

// Start builds the ring and spawns workers and receivers. Receiver bind
// errors surface on Err.
func (app *App) Start() error {
	log.Info("processor starting",
		"transport", app.cfg.Transport,
		"port", app.cfg.Port,
		"recv_threads", app.recvCount(),
		"proc_threads", app.cfg.ProcThreads,
		"ring_cap", app.cfg.RingCap,
		"stats_interval", app.cfg.StatsSecs)

	app.ring = buffer.NewMPMC(app.cfg.RingCap)
	sink := dispatch.RingSink{Ring: app.ring}
	interval := time.Duration(app.cfg.StatsSecs) * time.Second

	// VAD workers on cores 0..M-1; worker 0 owns the stats line.
	for i := 0; i < app.cfg.ProcThreads; i++ {
		w := dispatch.NewProcessor(i, app.ring, app.stats,
			app.cfg.Transport.Name(), interval, i == 0)
		app.procWG.Add(1)
		go func(core int, w *dispatch.Processor) {
			defer app.procWG.Done()
			if err := affinity.Pin(core); err != nil {
				log.Warn("cpu pin failed, continuing unpinned", "core", core, "err", err)
			}
			w.Run(app.ctx)
		}(i, w)
	}

	// UDP and TCP receivers on the cores above the workers. The MQTT
	// receiver lives on the client library's callback thread and the WS
	// receiver serves clients from the http server's goroutines; neither
	// is pinned.
	switch app.cfg.Transport {
	case config.TransportUDP:
		for i := 0; i < app.cfg.RecvThreads; i++ {
			rcv := receiver.NewUDP(i, app.cfg.Port, app.cfg.RecvBuf, app.stats, sink)
			app.startReceiver(rcv, app.cfg.ProcThreads+i, true)
		}
	case config.TransportTCP:
		rcv := receiver.NewTCP(app.cfg.Port, app.cfg.RecvBuf, app.stats, sink)
		app.startReceiver(rcv, app.cfg.ProcThreads, true)
	case config.TransportMQTT:
		rcv := receiver.NewMQTT(&app.cfg.MQTT, app.cfg.Topic, app.stats, sink)
		app.startReceiver(rcv, 0, false)
	case config.TransportWS:
		rcv := receiver.NewWS(app.cfg.Port, app.cfg.WSPath, app.stats, sink)
		app.startReceiver(rcv, app.cfg.ProcThreads, false)
	}

	return nil
}

func (app *App) recvCount() int {
	if app.cfg.Transport == config.TransportUDP {
		return app.cfg.RecvThreads
	}
	return 1
}

func (app *App) startReceiver(r runner, core int, pin bool) {
	app.recvWG.Add(1)
	go func() {
		defer app.recvWG.Done()
		if pin {
			if err := affinity.Pin(core); err != nil {
				log.Warn("cpu pin failed, continuing unpinned", "core", core, "err", err)
			}
		}
		if err := r.Run(app.ctx); err != nil {
			app.errCh <- err
		}
	}()
}

// Stop shuts the pipeline down: receivers first, then the workers. Any
// messages still reserved in the ring are dropped.
func (app *App) Stop() {
	app.cancel()
	app.recvWG.Wait()
	app.procWG.Wait()
	log.Info("processor shut down")
}
