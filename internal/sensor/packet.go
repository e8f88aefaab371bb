// Package sensor implements the binary sensor wire format: a fixed
// 32-byte little-endian header followed by a variable payload, plus the
// 10-channel sensor vector carried by data_type 2 payloads.
//
// Layout of the header:
//
//	[ sensor_id: u32 ][ timestamp_us: u64 ][ data_type: u8 ][ reserved: 3 ]
//	[ payload_len: u16 ][ reserved: 2 ][ seq: u64 ][ padding: 4 ]
//
// For stream transports (TCP) a packet is preceded by a 4-byte
// little-endian total length covering header and payload.
//
// Parsing is zero-copy: the returned packet's Payload aliases the input
// buffer. Nothing in this package allocates on the parse path.
package sensor

import (
	"encoding/binary"
	"errors"
)

const (
	// HeaderSize is the fixed wire header length.
	HeaderSize = 32

	// MaxPayload is the largest accepted payload_len.
	MaxPayload = 4096

	// FramePrefixSize is the stream-transport length prefix.
	FramePrefixSize = 4

	// MinFrame and MaxFrame bound the total_len of a stream frame.
	MinFrame = HeaderSize
	MaxFrame = 65535
)

// Payload data types.
const (
	DataTypeAudio  = 1 // 16-bit little-endian PCM samples
	DataTypeVector = 2 // 10-channel float32 sensor vector
)

var (
	// ErrTooShort means the buffer cannot hold a header (or, for
	// ParseVector, a full vector).
	ErrTooShort = errors.New("sensor: buffer too short")

	// ErrOversize means the header declares payload_len > MaxPayload.
	ErrOversize = errors.New("sensor: payload length exceeds maximum")

	// ErrTruncated means the buffer ends before the declared payload.
	ErrTruncated = errors.New("sensor: packet truncated")

	// ErrFrameLength means a stream frame prefix is outside
	// [MinFrame, MaxFrame].
	ErrFrameLength = errors.New("sensor: invalid frame length")
)

// Packet is a parsed sensor packet. Payload aliases the parse buffer and
// is valid only while that buffer is.
type Packet struct {
	SensorID    uint32
	TimestampUS uint64
	DataType    uint8
	Seq         uint64
	Payload     []byte
}

// ParseBinary parses one packet from buf. The reserved header bytes are
// ignored; trailing bytes after the payload are ignored too (a datagram
// carries exactly one packet, a stream frame is pre-sliced by its
// prefix).
func ParseBinary(buf []byte) (Packet, error) {
	if len(buf) < HeaderSize {
		return Packet{}, ErrTooShort
	}

	plen := int(binary.LittleEndian.Uint16(buf[16:18]))
	if plen > MaxPayload {
		return Packet{}, ErrOversize
	}
	if len(buf) < HeaderSize+plen {
		return Packet{}, ErrTruncated
	}

	return Packet{
		SensorID:    binary.LittleEndian.Uint32(buf[0:4]),
		TimestampUS: binary.LittleEndian.Uint64(buf[4:12]),
		DataType:    buf[12],
		Seq:         binary.LittleEndian.Uint64(buf[20:28]),
		Payload:     buf[HeaderSize : HeaderSize+plen],
	}, nil
}

// AppendBinary appends the wire encoding of p to dst and returns the
// extended slice. Reserved and padding bytes are written as zero.
func AppendBinary(dst []byte, p *Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayload {
		return dst, ErrOversize
	}

	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], p.SensorID)
	binary.LittleEndian.PutUint64(hdr[4:12], p.TimestampUS)
	hdr[12] = p.DataType
	binary.LittleEndian.PutUint16(hdr[16:18], uint16(len(p.Payload)))
	binary.LittleEndian.PutUint64(hdr[20:28], p.Seq)

	dst = append(dst, hdr[:]...)
	dst = append(dst, p.Payload...)
	return dst, nil
}

// AppendFrame appends the stream-transport encoding of p: a 4-byte
// little-endian total length followed by the packet.
func AppendFrame(dst []byte, p *Packet) ([]byte, error) {
	total := HeaderSize + len(p.Payload)
	if total > MaxFrame {
		return dst, ErrOversize
	}

	var prefix [FramePrefixSize]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(total))
	dst = append(dst, prefix[:]...)
	return AppendBinary(dst, p)
}

// FrameLength decodes and validates a stream frame prefix.
func FrameLength(prefix []byte) (int, error) {
	if len(prefix) < FramePrefixSize {
		return 0, ErrTooShort
	}
	n := int(binary.LittleEndian.Uint32(prefix))
	if n < MinFrame || n > MaxFrame {
		return 0, ErrFrameLength
	}
	return n, nil
}
