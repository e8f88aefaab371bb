package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensorbridge/internal/sensor"
	"sensorbridge/pkg/utils"
)

func audioPacket(samples []int16) sensor.Packet {
	return sensor.Packet{
		SensorID: 7,
		Seq:      3,
		DataType: sensor.DataTypeAudio,
		Payload:  utils.SamplesToBytes(samples),
	}
}

func vectorPacket(v sensor.Vector) sensor.Packet {
	return sensor.Packet{
		SensorID: 7,
		Seq:      3,
		DataType: sensor.DataTypeVector,
		Payload:  v.AppendBinary(nil),
	}
}

func TestAudioSilence(t *testing.T) {
	p := audioPacket(make([]int16, 160))
	r := Process(&p)

	assert.Equal(t, KindAudio, r.Kind)
	assert.Equal(t, uint32(7), r.SensorID)
	assert.Equal(t, uint64(3), r.Seq)
	assert.Equal(t, 0.0, r.Energy)
	assert.Equal(t, EnergyThreshold, r.Threshold)
	assert.False(t, r.Active)
}

func TestAudioFullScale(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 32767
		} else {
			samples[i] = -32767
		}
	}
	p := audioPacket(samples)
	r := Process(&p)

	assert.InDelta(t, 32767.0, r.Energy, 0.001)
	assert.True(t, r.Active)
}

func TestAudioEmptyPayload(t *testing.T) {
	p := audioPacket(nil)
	r := Process(&p)
	assert.Equal(t, 0.0, r.Energy)
	assert.False(t, r.Active)
}

func TestAudioOddLengthIgnoresTrailingByte(t *testing.T) {
	p := audioPacket([]int16{1000, -2000, 3000})
	even := Process(&p)

	p.Payload = append(p.Payload, 0x7F)
	odd := Process(&p)

	assert.Equal(t, even.Energy, odd.Energy)
	assert.Equal(t, even.Active, odd.Active)
}

func TestUnknownDataTypeFallsBackToAudio(t *testing.T) {
	p := audioPacket([]int16{100, 100})
	p.DataType = 99
	r := Process(&p)
	assert.Equal(t, KindAudio, r.Kind)
	assert.InDelta(t, 100.0, r.Energy, 0.001)
}

func TestEmotionalZeroVector(t *testing.T) {
	p := vectorPacket(sensor.Vector{})
	r := Process(&p)

	assert.Equal(t, KindEmotional, r.Kind)
	assert.InDelta(t, 0.30, r.Valence, 1e-6, "valence bias")
	assert.InDelta(t, 0.10, r.Arousal, 1e-6, "arousal bias")
	assert.InDelta(t, 0.35, r.Dominance, 1e-6, "dominance bias")
	assert.False(t, r.Active)
}

func TestEmotionalAllOnes(t *testing.T) {
	p := vectorPacket(sensor.Vector{
		BatteryLow: 1, PeopleCount: 1, KnownFace: 1, UnknownFace: 1,
		FallEvent: 1, Lifted: 1, IdleTime: 1, SoundEnergy: 1,
		VoiceRate: 1, MotionEnergy: 1,
	})
	r := Process(&p)

	// Sum of every weight plus bias, clamped to [0, 1].
	assert.InDelta(t, 0.25, r.Valence, 1e-5)
	assert.InDelta(t, 1.00, r.Arousal, 1e-5)
	assert.InDelta(t, 0.25, r.Dominance, 1e-5)
	assert.True(t, r.Active)
}

func TestEmotionalArousalSum(t *testing.T) {
	p := vectorPacket(sensor.Vector{MotionEnergy: 1, SoundEnergy: 1, FallEvent: 1})
	r := Process(&p)

	// 0.10 bias + 0.25 motion + 0.25 sound + 0.20 fall.
	assert.InDelta(t, 0.80, r.Arousal, 1e-5)
	assert.True(t, r.Active)
}

func TestEmotionalShortPayloadIsNotFatal(t *testing.T) {
	p := sensor.Packet{
		SensorID: 1,
		DataType: sensor.DataTypeVector,
		Payload:  make([]byte, sensor.VectorBytes-4),
	}
	r := Process(&p)

	require.Equal(t, KindEmotional, r.Kind)
	assert.Zero(t, r.Valence)
	assert.Zero(t, r.Arousal)
	assert.Zero(t, r.Dominance)
	assert.False(t, r.Active)
}

func TestClampBounds(t *testing.T) {
	// UnknownFace and FallEvent both weigh negative on valence; a strong
	// threat signal pushes the raw sum below zero and must clamp at 0.
	p := vectorPacket(sensor.Vector{UnknownFace: 1, FallEvent: 1, Lifted: 1, IdleTime: 1})
	r := Process(&p)
	assert.GreaterOrEqual(t, r.Valence, float32(0))
	assert.LessOrEqual(t, r.Valence, float32(1))
}
