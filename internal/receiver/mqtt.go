package receiver

import (
	"context"

	"github.com/charmbracelet/log"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"sensorbridge/internal/config"
	"sensorbridge/internal/stats"
)

// MQTT receives one sensor packet per message on a QoS 0 subscription.
// Reconnection is the client library's job; the subscription is reissued
// from the connect callback so it survives reconnects.
type MQTT struct {
	cfg   *config.MQTTConfig
	topic string
	stats *stats.Counters
	sink  Sink
}

// NewMQTT creates the MQTT receiver for the given topic filter.
func NewMQTT(cfg *config.MQTTConfig, topic string, c *stats.Counters, sink Sink) *MQTT {
	return &MQTT{cfg: cfg, topic: topic, stats: c, sink: sink}
}

// Run connects and consumes messages until ctx is cancelled. Connect and
// subscribe failures are logged, not fatal: the client keeps retrying.
func (m *MQTT) Run(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(m.cfg.BrokerURL()).
		SetClientID(m.cfg.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(m.cfg.ReconnectMin).
		SetMaxReconnectInterval(m.cfg.ReconnectMax).
		SetOrderMatters(false)

	opts.OnConnect = func(c mqtt.Client) {
		log.Info("mqtt connected, subscribing", "topic", m.topic)
		if token := c.Subscribe(m.topic, 0, m.onMessage); token.Wait() && token.Error() != nil {
			log.Error("mqtt subscribe failed", "topic", m.topic, "err", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(m.cfg.ReconnectMax) && token.Error() != nil {
		// Not fatal: connect retry keeps going in the background.
		log.Error("mqtt connect failed", "broker", m.cfg.BrokerURL(), "err", token.Error())
	}

	<-ctx.Done()
	client.Disconnect(250)
	log.Info("mqtt receiver stopped")
	return nil
}

func (m *MQTT) onMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	if len(payload) == 0 {
		return
	}
	m.stats.RecordRecv(len(payload))
	consume(m.sink, m.stats, payload)
}
