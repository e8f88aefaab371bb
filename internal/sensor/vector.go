package sensor

import (
	"encoding/binary"
	"math"
)

// VectorLen is the number of channels in a sensor vector.
const VectorLen = 10

// VectorBytes is the minimum payload length for a vector: 10 float32
// values. Extra trailing bytes are ignored.
const VectorBytes = VectorLen * 4

// Vector is the 10-channel environmental sensor vector carried by
// data_type 2 payloads. Each channel is logically normalized to [0, 1].
type Vector struct {
	BatteryLow   float32
	PeopleCount  float32
	KnownFace    float32
	UnknownFace  float32
	FallEvent    float32
	Lifted       float32
	IdleTime     float32
	SoundEnergy  float32
	VoiceRate    float32
	MotionEnergy float32
}

// ParseVector decodes a vector from a payload: 10 little-endian float32
// values in declared channel order.
func ParseVector(payload []byte) (Vector, error) {
	if len(payload) < VectorBytes {
		return Vector{}, ErrTooShort
	}

	var a [VectorLen]float32
	for i := range a {
		a[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:]))
	}
	return Vector{
		BatteryLow:   a[0],
		PeopleCount:  a[1],
		KnownFace:    a[2],
		UnknownFace:  a[3],
		FallEvent:    a[4],
		Lifted:       a[5],
		IdleTime:     a[6],
		SoundEnergy:  a[7],
		VoiceRate:    a[8],
		MotionEnergy: a[9],
	}, nil
}

// Array returns the channels in declared order.
func (v *Vector) Array() [VectorLen]float32 {
	return [VectorLen]float32{
		v.BatteryLow, v.PeopleCount, v.KnownFace, v.UnknownFace,
		v.FallEvent, v.Lifted, v.IdleTime, v.SoundEnergy,
		v.VoiceRate, v.MotionEnergy,
	}
}

// AppendBinary appends the wire encoding of v to dst.
func (v *Vector) AppendBinary(dst []byte) []byte {
	a := v.Array()
	var b [4]byte
	for i := range a {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(a[i]))
		dst = append(dst, b[:]...)
	}
	return dst
}
