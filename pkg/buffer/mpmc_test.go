package buffer

import (
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Sequential MPMC behaviour matches the same FIFO model as SPSC.
func TestMPMCModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.Uint64Range(1, 64).Draw(t, "cap")
		r := NewMPMC(capacity)

		var model [][]byte
		steps := rapid.IntRange(1, 300).Draw(t, "steps")
		var out Message
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "push") {
				b := rapid.SliceOfN(rapid.Byte(), 0, 32).Draw(t, "msg")
				err := r.Push(b)
				if uint64(len(model)) >= r.Cap() {
					assert.ErrorIs(t, err, ErrFull)
				} else {
					assert.NoError(t, err)
					model = append(model, b)
				}
			} else {
				err := r.Pop(&out)
				if len(model) == 0 {
					assert.ErrorIs(t, err, ErrEmpty)
				} else {
					require.NoError(t, err)
					assert.Equal(t, model[0], append([]byte{}, out.Bytes()...))
					model = model[1:]
				}
			}
			assert.LessOrEqual(t, r.Size(), r.Cap())
		}
	})
}

func TestMPMCTooLarge(t *testing.T) {
	r := NewMPMC(8)
	assert.ErrorIs(t, r.Push(make([]byte, MPMCSlotData+1)), ErrTooLarge)
	assert.NoError(t, r.Push(make([]byte, MPMCSlotData)))
}

func TestMPMCFullIsImmediate(t *testing.T) {
	r := NewMPMC(4)
	for i := 0; i < int(r.Cap()); i++ {
		require.NoError(t, r.Push([]byte{byte(i)}))
	}
	for i := 0; i < 1000; i++ {
		require.ErrorIs(t, r.Push([]byte{0}), ErrFull)
	}
}

// encode/decode of (producer, seq) pairs used by the stress tests.
func stressMsg(producer int, seq uint64) []byte {
	var b [9]byte
	b[0] = byte(producer)
	binary.LittleEndian.PutUint64(b[1:], seq)
	return b[:]
}

func decodeStressMsg(b []byte) (int, uint64) {
	return int(b[0]), binary.LittleEndian.Uint64(b[1:])
}

// Multiple producers, single consumer: pop order is well defined, so
// per-producer FIFO is directly checkable.
func TestMPMCPerProducerFIFO(t *testing.T) {
	const producers = 4
	perProducer := 50_000
	if testing.Short() {
		perProducer = 5_000
	}

	r := NewMPMC(1024)
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for seq := uint64(0); seq < uint64(perProducer); seq++ {
				msg := stressMsg(p, seq)
				for r.Push(msg) != nil {
				}
			}
		}(p)
	}

	next := make([]uint64, producers)
	var out Message
	for i := 0; i < producers*perProducer; i++ {
		for r.Pop(&out) != nil {
		}
		p, seq := decodeStressMsg(out.Bytes())
		if seq != next[p] {
			t.Fatalf("producer %d: got seq %d, want %d", p, seq, next[p])
		}
		next[p]++
	}
	wg.Wait()

	assert.ErrorIs(t, r.Pop(&out), ErrEmpty)
}

// Multiple producers and consumers: the multiset of popped messages
// equals the multiset of pushed messages; no slot is delivered twice.
func TestMPMCMultisetConservation(t *testing.T) {
	const producers, consumers = 4, 4
	perProducer := 50_000
	if testing.Short() {
		perProducer = 5_000
	}
	total := producers * perProducer

	r := NewMPMC(4096)

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func(p int) {
			defer prodWG.Done()
			for seq := uint64(0); seq < uint64(perProducer); seq++ {
				msg := stressMsg(p, seq)
				for r.Push(msg) != nil {
				}
			}
		}(p)
	}

	results := make([][][2]uint64, consumers)
	var consWG sync.WaitGroup
	var popped sync.WaitGroup
	popped.Add(total)
	done := make(chan struct{})
	go func() {
		popped.Wait()
		close(done)
	}()

	for c := 0; c < consumers; c++ {
		consWG.Add(1)
		go func(c int) {
			defer consWG.Done()
			var out Message
			for {
				select {
				case <-done:
					return
				default:
				}
				if r.Pop(&out) != nil {
					continue
				}
				p, seq := decodeStressMsg(out.Bytes())
				results[c] = append(results[c], [2]uint64{uint64(p), seq})
				popped.Done()
			}
		}(c)
	}

	prodWG.Wait()
	<-done
	consWG.Wait()

	seen := make(map[[2]uint64]int, total)
	for _, rs := range results {
		for _, k := range rs {
			seen[k]++
		}
	}
	require.Len(t, seen, total, "every pushed message popped exactly once")
	for k, n := range seen {
		require.Equal(t, 1, n, "message %v delivered %d times", k, n)
	}
}

func TestMPMCPopBatch(t *testing.T) {
	r := NewMPMC(64)
	for i := 0; i < 10; i++ {
		require.NoError(t, r.Push([]byte{byte(i)}))
	}

	out := make([]Message, 4)
	n := r.PopBatch(out)
	require.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, []byte{byte(i)}, out[i].Bytes())
	}

	rest := make([]Message, 16)
	n = r.PopBatch(rest)
	require.Equal(t, 6, n)
	assert.Equal(t, []byte{4}, rest[0].Bytes())

	assert.Equal(t, 0, r.PopBatch(rest))
}
