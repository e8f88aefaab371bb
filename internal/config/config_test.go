package config

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessorFlags(t *testing.T) {
	cfg := DefaultProcessor()
	fs := pflag.NewFlagSet("processor", pflag.ContinueOnError)
	transport := ProcessorFlags(fs, cfg)

	err := fs.Parse([]string{
		"--transport", "tcp",
		"--port", "9100",
		"--proc-threads", "8",
		"--ring-cap", "1024",
		"--stats-interval", "0",
		"--mqtt-host", "broker.local",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.Normalize(*transport))

	assert.Equal(t, TransportTCP, cfg.Transport)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 8, cfg.ProcThreads)
	assert.Equal(t, uint64(1024), cfg.RingCap)
	assert.Equal(t, 0, cfg.StatsSecs)
	assert.Equal(t, "broker.local", cfg.MQTT.Host)
}

func TestProcessorUnknownTransport(t *testing.T) {
	cfg := DefaultProcessor()
	assert.Error(t, cfg.Normalize("carrier-pigeon"))
}

func TestProcessorThreadClamping(t *testing.T) {
	cfg := DefaultProcessor()
	cfg.RecvThreads = 0
	cfg.ProcThreads = 1000
	require.NoError(t, cfg.Normalize("udp"))
	assert.Equal(t, 1, cfg.RecvThreads)
	assert.Equal(t, MaxProcThreads, cfg.ProcThreads)
}

func TestBridgeFlags(t *testing.T) {
	cfg := DefaultBridge()
	fs := pflag.NewFlagSet("bridge", pflag.ContinueOnError)
	BridgeFlags(fs, cfg)

	err := fs.Parse([]string{
		"--threads", "2",
		"--topic-prefix", "plant/sensors",
		"--mqtt-port", "8883",
	})
	require.NoError(t, err)
	cfg.Clamp()

	assert.Equal(t, 2, cfg.RecvThreads)
	assert.Equal(t, "plant/sensors", cfg.TopicPrefix)
	assert.Equal(t, 8883, cfg.MQTT.Port)
	assert.Equal(t, "tcp://127.0.0.1:8883", cfg.MQTT.BrokerURL())
}

func TestTransportNames(t *testing.T) {
	assert.Equal(t, "UDP", TransportUDP.Name())
	assert.Equal(t, "TCP", TransportTCP.Name())
	assert.Equal(t, "MQTT", TransportMQTT.Name())
	assert.Equal(t, "WS", TransportWS.Name())
}
