package dispatch

import (
	"context"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensorbridge/internal/config"
	"sensorbridge/internal/stats"
	"sensorbridge/pkg/buffer"
)

const (
	// spinIterations of empty scans before the publisher sleeps once.
	spinIterations = 1000

	// idleSleep is the single sleep between spin bursts.
	idleSleep = 100 * time.Microsecond

	// logPublishErrors bounds how many publish failures are logged;
	// after that they are only counted.
	logPublishErrors = 5
)

// Publisher round-robin drains the receivers' SPSC rings and issues
// fire-and-forget QoS 0 publishes. It never blocks on a mutex on the hot
// path: empty scans spin with a scheduler hint, then sleep briefly.
type Publisher struct {
	rings  []*buffer.SPSC
	client mqtt.Client
	stats  *stats.Counters

	errsLogged int
}

// NewPublisher creates the (single) bridge publisher.
func NewPublisher(client mqtt.Client, rings []*buffer.SPSC, c *stats.Counters) *Publisher {
	return &Publisher{rings: rings, client: client, stats: c}
}

// NewMQTTClient builds the bridge's broker connection: auto-reconnecting
// with the configured backoff window and a bounded client-side queue for
// disconnected sends.
func NewMQTTClient(cfg *config.MQTTConfig) mqtt.Client {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ReconnectMin).
		SetMaxReconnectInterval(cfg.ReconnectMax).
		SetMessageChannelDepth(cfg.QueueLimit).
		SetOrderMatters(false)

	opts.OnConnect = func(mqtt.Client) {
		log.Info("mqtt connected", "broker", cfg.BrokerURL())
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	}

	return mqtt.NewClient(opts)
}

// Run drains until ctx is cancelled, then performs one final best-effort
// sweep; messages staged after that sweep are discarded.
func (p *Publisher) Run(ctx context.Context) {
	var msg buffer.TopicMessage
	spins := 0

	for {
		drained := false
		for _, r := range p.rings {
			if r.Pop(&msg) == nil {
				p.publish(&msg)
				drained = true
			}
		}
		if drained {
			spins = 0
			continue
		}

		if ctx.Err() != nil {
			for _, r := range p.rings {
				for r.Pop(&msg) == nil {
					p.publish(&msg)
				}
			}
			log.Info("publisher stopped")
			return
		}

		spins++
		if spins < spinIterations {
			runtime.Gosched()
			continue
		}
		time.Sleep(idleSleep)
		spins = 0
	}
}

// publish issues one async QoS 0, non-retained publish. The payload is
// copied because the client retains it past this call.
func (p *Publisher) publish(m *buffer.TopicMessage) {
	payload := make([]byte, m.PayloadLen)
	copy(payload, m.Payload())
	topic := string(m.Topic())

	token := p.client.Publish(topic, 0, false, payload)
	if err := token.Error(); err != nil {
		p.stats.RecordPublishError()
		if p.errsLogged < logPublishErrors {
			p.errsLogged++
			log.Error("mqtt publish failed", "topic", topic, "err", err)
		}
		return
	}
	p.stats.RecordPublished()
}
