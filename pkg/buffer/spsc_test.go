package buffer

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Sequential SPSC behaviour is deterministic, so a model-based property
// test can demand exact agreement, including ErrFull and ErrEmpty.
func TestSPSCModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.Uint64Range(1, 64).Draw(t, "cap")
		r := NewSPSC(capacity)

		type rec struct{ topic, payload []byte }
		var model []rec

		steps := rapid.IntRange(1, 300).Draw(t, "steps")
		var out TopicMessage
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "push") {
				topic := rapid.SliceOfN(rapid.Byte(), 0, 16).Draw(t, "topic")
				payload := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "payload")
				err := r.Push(topic, payload)
				if uint64(len(model)) >= r.Cap() {
					assert.ErrorIs(t, err, ErrFull)
				} else {
					assert.NoError(t, err)
					model = append(model, rec{topic, payload})
				}
			} else {
				err := r.Pop(&out)
				if len(model) == 0 {
					assert.ErrorIs(t, err, ErrEmpty)
				} else {
					require.NoError(t, err)
					assert.Equal(t, model[0].topic, append([]byte{}, out.Topic()...))
					assert.Equal(t, model[0].payload, append([]byte{}, out.Payload()...))
					model = model[1:]
				}
			}
			assert.Equal(t, uint64(len(model)), r.Size())
			assert.LessOrEqual(t, r.Size(), r.Cap())
		}
	})
}

func TestSPSCCapacityRounding(t *testing.T) {
	assert.Equal(t, uint64(1), NewSPSC(1).Cap())
	assert.Equal(t, uint64(1024), NewSPSC(1000).Cap())
	assert.Equal(t, uint64(1024), NewSPSC(1024).Cap())
	assert.Equal(t, uint64(2048), NewSPSC(1025).Cap())
}

func TestSPSCTooLarge(t *testing.T) {
	r := NewSPSC(8)
	big := make([]byte, SPSCSlotData)
	assert.ErrorIs(t, r.Push([]byte("t"), big), ErrTooLarge)
	assert.Equal(t, uint64(0), r.Size())
}

func TestSPSCFullIsImmediate(t *testing.T) {
	r := NewSPSC(4)
	for i := 0; i < int(r.Cap()); i++ {
		require.NoError(t, r.Push([]byte("t"), []byte{byte(i)}))
	}
	for i := 0; i < 1000; i++ {
		require.ErrorIs(t, r.Push([]byte("t"), []byte{0}), ErrFull)
	}
	assert.Equal(t, r.Cap(), r.Size())
}

// One producer thread against one consumer thread: every popped value
// equals the push at the same logical position and nothing is lost.
func TestSPSCConcurrentFIFO(t *testing.T) {
	const n = 1_000_000
	total := n
	if testing.Short() {
		total = 100_000
	}

	r := NewSPSC(1024)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		var b [8]byte
		for i := 0; i < total; i++ {
			binary.LittleEndian.PutUint64(b[:], uint64(i))
			for r.Push([]byte("t"), b[:]) != nil {
			}
		}
	}()

	var out TopicMessage
	for i := 0; i < total; i++ {
		for r.Pop(&out) != nil {
		}
		got := binary.LittleEndian.Uint64(out.Payload())
		if got != uint64(i) {
			t.Fatalf("pop %d: got %d", i, got)
		}
	}
	wg.Wait()

	assert.Equal(t, uint64(0), r.Size())
	assert.ErrorIs(t, r.Pop(&out), ErrEmpty)
}
