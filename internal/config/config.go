// Package config holds the runtime configuration of both daemons:
// defaults, structures, and the long-option command lines that override
// them.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/pflag"
)

// Limits on the thread counts accepted from the command line.
const (
	MaxRecvThreads = 32
	MaxProcThreads = 16
)

// Transport selects the processor daemon's ingest path.
type Transport string

const (
	TransportUDP  Transport = "udp"
	TransportTCP  Transport = "tcp"
	TransportMQTT Transport = "mqtt"
	TransportWS   Transport = "ws"
)

// Name returns the transport label used in the stats line.
func (t Transport) Name() string {
	switch t {
	case TransportUDP:
		return "UDP"
	case TransportTCP:
		return "TCP"
	case TransportMQTT:
		return "MQTT"
	case TransportWS:
		return "WS"
	}
	return string(t)
}

// MQTTConfig configures the broker connection shared by the bridge
// publisher and the MQTT receiver.
type MQTTConfig struct {
	Host     string
	Port     int
	ClientID string

	// QueueLimit bounds messages buffered client-side while disconnected.
	QueueLimit uint

	// Reconnect backoff window.
	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// BrokerURL returns the paho broker address.
func (m *MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", m.Host, m.Port)
}

// BridgeConfig configures the UDP→MQTT bridge daemon.
type BridgeConfig struct {
	Port        int
	RecvThreads int
	RingCap     uint64
	RecvBuf     int
	StatsSecs   int // 0 disables the stats line
	TopicPrefix string
	MQTT        MQTTConfig
}

// ProcessorConfig configures the multi-transport VAD processor daemon.
type ProcessorConfig struct {
	Transport   Transport
	Port        int
	RecvThreads int // UDP only; TCP/MQTT/WS use one receiver
	ProcThreads int
	RingCap     uint64
	RecvBuf     int
	StatsSecs   int // 0 disables the stats line
	Topic       string
	WSPath      string
	MQTT        MQTTConfig
}

func defaultMQTT(clientID string) MQTTConfig {
	return MQTTConfig{
		Host:         "127.0.0.1",
		Port:         1883,
		ClientID:     clientID,
		QueueLimit:   65536,
		ReconnectMin: time.Second,
		ReconnectMax: 10 * time.Second,
	}
}

// DefaultBridge returns the bridge defaults: one receiver per CPU, a
// 64Ki-slot ring per receiver.
func DefaultBridge() *BridgeConfig {
	return &BridgeConfig{
		Port:        9000,
		RecvThreads: runtime.NumCPU(),
		RingCap:     65536,
		RecvBuf:     4 * 1024 * 1024,
		StatsSecs:   5,
		TopicPrefix: "vad/sensors",
		MQTT:        defaultMQTT("vad-bridge"),
	}
}

// DefaultProcessor returns the processor defaults: UDP ingest, a shared
// 256Ki-slot ring.
func DefaultProcessor() *ProcessorConfig {
	return &ProcessorConfig{
		Transport:   TransportUDP,
		Port:        9000,
		RecvThreads: 4,
		ProcThreads: 2,
		RingCap:     262144,
		RecvBuf:     4 * 1024 * 1024,
		StatsSecs:   5,
		Topic:       "vad/sensors/+",
		WSPath:      "/ingest",
		MQTT:        defaultMQTT("vad-processor"),
	}
}

// BridgeFlags registers the bridge command line onto fs, writing into c.
func BridgeFlags(fs *pflag.FlagSet, c *BridgeConfig) {
	fs.IntVar(&c.Port, "port", c.Port, "UDP listen port")
	fs.IntVar(&c.RecvThreads, "threads", c.RecvThreads, "UDP receiver threads")
	fs.Uint64Var(&c.RingCap, "ring-cap", c.RingCap, "per-receiver ring capacity (rounded up to a power of two)")
	fs.IntVar(&c.StatsSecs, "stats-interval", c.StatsSecs, "stats interval in seconds (0 disables)")
	fs.StringVar(&c.TopicPrefix, "topic-prefix", c.TopicPrefix, "MQTT topic prefix (topic is <prefix>/<sensor_id>)")
	fs.StringVar(&c.MQTT.Host, "mqtt-host", c.MQTT.Host, "MQTT broker host")
	fs.IntVar(&c.MQTT.Port, "mqtt-port", c.MQTT.Port, "MQTT broker port")
}

// ProcessorFlags registers the processor command line onto fs, writing
// into c. The returned string holds the raw --transport value; pass it to
// Normalize after parsing.
func ProcessorFlags(fs *pflag.FlagSet, c *ProcessorConfig) *string {
	transport := fs.String("transport", string(c.Transport), "ingest transport: udp, tcp, mqtt, ws")
	fs.IntVar(&c.Port, "port", c.Port, "listen port for UDP/TCP/WS")
	fs.IntVar(&c.RecvThreads, "recv-threads", c.RecvThreads, "receiver threads (UDP only)")
	fs.IntVar(&c.ProcThreads, "proc-threads", c.ProcThreads, "VAD processor threads")
	fs.Uint64Var(&c.RingCap, "ring-cap", c.RingCap, "shared ring capacity (rounded up to a power of two)")
	fs.IntVar(&c.StatsSecs, "stats-interval", c.StatsSecs, "stats interval in seconds (0 disables)")
	fs.StringVar(&c.Topic, "mqtt-topic", c.Topic, "MQTT subscribe topic filter")
	fs.StringVar(&c.MQTT.Host, "mqtt-host", c.MQTT.Host, "MQTT broker host")
	fs.IntVar(&c.MQTT.Port, "mqtt-port", c.MQTT.Port, "MQTT broker port")
	return transport
}

// Normalize validates the transport string and clamps thread counts.
func (c *ProcessorConfig) Normalize(transport string) error {
	switch Transport(transport) {
	case TransportUDP, TransportTCP, TransportMQTT, TransportWS:
		c.Transport = Transport(transport)
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}

	c.RecvThreads = clamp(c.RecvThreads, 1, MaxRecvThreads)
	c.ProcThreads = clamp(c.ProcThreads, 1, MaxProcThreads)
	return nil
}

// Clamp bounds the bridge receiver count.
func (c *BridgeConfig) Clamp() {
	c.RecvThreads = clamp(c.RecvThreads, 1, MaxRecvThreads)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
