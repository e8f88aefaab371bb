// Package dispatch implements the outbound side of the pipeline: the
// bridge's per-receiver encoders and its MQTT publisher, and the
// processor's VAD workers draining the shared ring.
package dispatch

import "sensorbridge/pkg/buffer"

// RingSink pushes raw transport bytes straight into the shared MPMC
// ring. Safe for concurrent receivers.
type RingSink struct {
	Ring *buffer.MPMC
}

// Consume copies b into the ring. Returns buffer.ErrFull when the ring
// has no free slot and buffer.ErrTooLarge when b exceeds a slot.
func (s RingSink) Consume(b []byte) error {
	return s.Ring.Push(b)
}
