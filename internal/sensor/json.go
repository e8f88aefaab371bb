package sensor

import "strconv"

// AppendMetaJSON appends the compact JSON metadata object published by
// the bridge for p:
//
//	{"sensor_id":u,"timestamp_us":u,"data_type":u,"seq":u,"payload_len":u}
//
// The payload bytes themselves are not included. Hand-built so the
// publish hot path stays allocation-free when dst has capacity.
func (p *Packet) AppendMetaJSON(dst []byte) []byte {
	dst = append(dst, `{"sensor_id":`...)
	dst = strconv.AppendUint(dst, uint64(p.SensorID), 10)
	dst = append(dst, `,"timestamp_us":`...)
	dst = strconv.AppendUint(dst, p.TimestampUS, 10)
	dst = append(dst, `,"data_type":`...)
	dst = strconv.AppendUint(dst, uint64(p.DataType), 10)
	dst = append(dst, `,"seq":`...)
	dst = strconv.AppendUint(dst, p.Seq, 10)
	dst = append(dst, `,"payload_len":`...)
	dst = strconv.AppendUint(dst, uint64(len(p.Payload)), 10)
	dst = append(dst, '}')
	return dst
}
