package dispatch

import (
	"strconv"

	"sensorbridge/internal/sensor"
	"sensorbridge/pkg/buffer"
)

// BridgeEncoder turns a raw datagram into a staged MQTT message: topic
// <prefix>/<sensor_id>, payload the packet's compact JSON metadata. Each
// receiver owns one encoder and one SPSC ring, so the scratch buffers
// are reused without synchronization.
type BridgeEncoder struct {
	ring   *buffer.SPSC
	prefix string

	topicBuf []byte
	jsonBuf  []byte
}

// NewBridgeEncoder creates an encoder staging onto ring.
func NewBridgeEncoder(ring *buffer.SPSC, prefix string) *BridgeEncoder {
	return &BridgeEncoder{
		ring:     ring,
		prefix:   prefix,
		topicBuf: make([]byte, 0, 64),
		jsonBuf:  make([]byte, 0, 160),
	}
}

// Consume parses one datagram and pushes (topic, JSON) onto the
// receiver's ring. Parse errors and a full ring are returned to the
// receiver for counting. Not safe for concurrent use.
func (e *BridgeEncoder) Consume(b []byte) error {
	p, err := sensor.ParseBinary(b)
	if err != nil {
		return err
	}

	e.topicBuf = append(e.topicBuf[:0], e.prefix...)
	e.topicBuf = append(e.topicBuf, '/')
	e.topicBuf = strconv.AppendUint(e.topicBuf, uint64(p.SensorID), 10)
	e.jsonBuf = p.AppendMetaJSON(e.jsonBuf[:0])

	return e.ring.Push(e.topicBuf, e.jsonBuf)
}
