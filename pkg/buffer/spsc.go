package buffer

import "sync/atomic"

// SPSCSlotData is the slot capacity of the SPSC ring: topic and payload
// packed back to back. It bounds the largest forwardable message.
const SPSCSlotData = 4096

// TopicMessage is one (topic, payload) record popped from an SPSC ring.
// The backing array is inline so a single TopicMessage can be reused for
// every pop without allocating.
type TopicMessage struct {
	TopicLen   int
	PayloadLen int
	Data       [SPSCSlotData]byte
}

// Topic returns the topic bytes. Valid until the next Pop into the same
// TopicMessage.
func (m *TopicMessage) Topic() []byte { return m.Data[:m.TopicLen] }

// Payload returns the payload bytes. Valid until the next Pop into the
// same TopicMessage.
func (m *TopicMessage) Payload() []byte { return m.Data[m.TopicLen : m.TopicLen+m.PayloadLen] }

type spscSlot struct {
	topicLen   uint16
	payloadLen uint16
	data       [SPSCSlotData]byte
}

// SPSC is a lock-free single-producer single-consumer ring of
// (topic, payload) slots.
//
// The producer goroutine is the sole modifier of head; the consumer
// goroutine is the sole modifier of tail. Occupancy is head - tail
// (cursors increase monotonically and are never masked). The atomic store
// of head publishes the slot writes to the consumer; the atomic store of
// tail returns the slot to the producer.
type SPSC struct {
	// head is the producer cursor: number of messages ever pushed.
	head atomic.Uint64
	_    [cacheLineSize - 8]byte

	// tail is the consumer cursor: number of messages ever popped.
	tail atomic.Uint64
	_    [cacheLineSize - 8]byte

	// Read-only after construction.
	mask     uint64
	capacity uint64
	slots    []spscSlot
}

// NewSPSC creates a ring with the given capacity, rounded up to the next
// power of two.
func NewSPSC(capacity uint64) *SPSC {
	c := ceilPow2(capacity)
	return &SPSC{
		mask:     c - 1,
		capacity: c,
		slots:    make([]spscSlot, c),
	}
}

// Cap returns the (rounded) slot count.
func (r *SPSC) Cap() uint64 { return r.capacity }

// Size returns the current occupancy. Exact only when called from the
// producer or consumer goroutine; otherwise a close snapshot in [0, Cap].
func (r *SPSC) Size() uint64 {
	h := r.head.Load()
	t := r.tail.Load()
	if h < t {
		return 0
	}
	return h - t
}

// Push copies topic and payload into the next free slot. Only safe to
// call from the single producer goroutine. Returns ErrFull when the ring
// has no free slot and ErrTooLarge when topic+payload exceed the slot.
func (r *SPSC) Push(topic, payload []byte) error {
	if len(topic)+len(payload) > SPSCSlotData {
		return ErrTooLarge
	}

	h := r.head.Load() // producer owns head
	t := r.tail.Load()
	if h-t >= r.capacity {
		return ErrFull
	}

	s := &r.slots[h&r.mask]
	s.topicLen = uint16(len(topic))
	s.payloadLen = uint16(len(payload))
	copy(s.data[:], topic)
	copy(s.data[len(topic):], payload)

	// Publish: the consumer's load of head synchronizes with this store,
	// making the slot writes above visible.
	r.head.Store(h + 1)
	return nil
}

// Pop copies the oldest message into out. Only safe to call from the
// single consumer goroutine. Returns ErrEmpty when no message is ready.
func (r *SPSC) Pop(out *TopicMessage) error {
	t := r.tail.Load() // consumer owns tail
	h := r.head.Load()
	if t >= h {
		return ErrEmpty
	}

	s := &r.slots[t&r.mask]
	out.TopicLen = int(s.topicLen)
	out.PayloadLen = int(s.payloadLen)
	copy(out.Data[:out.TopicLen+out.PayloadLen], s.data[:])

	r.tail.Store(t + 1)
	return nil
}
