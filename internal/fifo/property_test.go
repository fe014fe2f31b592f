package fifo

import (
	"bytes"
	"testing"

	"pgregory.net/rapid"

	"github.com/momentics/hioload-fifo/api"
)

func heapRing(t *rapid.T, capacity uint64, opts ...Option) *RingBuffer {
	r, err := New(capacity, append(opts, WithAllocator(HeapAllocator{}))...)
	if err != nil {
		t.Fatalf("New(%d): %v", capacity, err)
	}
	return r
}

// Raw mode behaves like an unbounded byte queue clipped to capacity.
func TestRawStreamMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.Uint64Range(1, 64).Draw(t, "capacity")
		r := heapRing(t, capacity)
		var model []byte
		var written, read []byte

		steps := rapid.IntRange(1, 200).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "put") {
				data := rapid.SliceOfN(rapid.Byte(), 0, int(capacity)+8).Draw(t, "data")
				room := int(capacity) - len(model)
				want := min(len(data), room)
				if got := r.Put(data); got != want {
					t.Fatalf("Put(%d) = %d, want %d", len(data), got, want)
				}
				model = append(model, data[:want]...)
				written = append(written, data[:want]...)
			} else {
				size := rapid.IntRange(0, int(capacity)+8).Draw(t, "size")
				buf := make([]byte, size)
				want := min(size, len(model))
				got := r.Get(buf)
				if got != want {
					t.Fatalf("Get(%d) = %d, want %d", size, got, want)
				}
				if !bytes.Equal(buf[:got], model[:got]) {
					t.Fatalf("Get returned %q, want %q", buf[:got], model[:got])
				}
				model = model[got:]
				read = append(read, buf[:got]...)
			}

			held := r.PutCount() - r.GetCount()
			if r.GetCount() > r.PutCount() || held > capacity {
				t.Fatalf("counter invariant broken: put=%d get=%d", r.PutCount(), r.GetCount())
			}
			if r.BytesToPut()+held != capacity {
				t.Fatalf("BytesToPut %d + held %d != capacity %d", r.BytesToPut(), held, capacity)
			}
		}
		if !bytes.HasPrefix(written, read) {
			t.Fatalf("read stream is not a prefix of the written stream")
		}
	})
}

// Packetized mode returns one whole record per Get, clipped to the caller
// buffer, and never spills the clipped tail into the next Get.
func TestPacketizedRecordsMatchModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.Uint64Range(api.HeaderSize+1, 128).Draw(t, "capacity")
		r := heapRing(t, capacity, WithPacketized(true))
		var records [][]byte
		used := uint64(0)

		steps := rapid.IntRange(1, 150).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if rapid.Bool().Draw(t, "put") {
				data := rapid.SliceOfN(rapid.Byte(), 1, int(capacity)).Draw(t, "data")
				room := uint64(0)
				if free := capacity - used; free > api.HeaderSize {
					room = free - api.HeaderSize
				}
				want := min(uint64(len(data)), room)
				if got := r.Put(data); uint64(got) != want {
					t.Fatalf("Put(%d) = %d, want %d", len(data), got, want)
				}
				if want > 0 {
					records = append(records, append([]byte(nil), data[:want]...))
					used += api.HeaderSize + want
				}
			} else {
				size := rapid.IntRange(1, int(capacity)).Draw(t, "size")
				buf := make([]byte, size)
				got := r.Get(buf)
				if len(records) == 0 {
					if got != 0 {
						t.Fatalf("Get on empty = %d", got)
					}
					continue
				}
				head := records[0]
				want := min(len(head), size)
				if got != want || !bytes.Equal(buf[:got], head[:want]) {
					t.Fatalf("Get(%d) = %q, want %q", size, buf[:got], head[:want])
				}
				records = records[1:]
				used -= api.HeaderSize + uint64(len(head))
			}

			if r.PutCount()-r.GetCount() != used {
				t.Fatalf("held %d, model %d", r.PutCount()-r.GetCount(), used)
			}
		}
		if r.Stats().Corruptions != 0 {
			t.Fatalf("unexpected corruption recovery")
		}
	})
}

// All-or-nothing requests either move everything or leave counters
// untouched, with and without record framing. In packetized mode an
// accepted Get returns the head record, clipped to the request.
func TestAllOrNothingNeverPartial(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		packetized := rapid.Bool().Draw(t, "packetized")
		capacity := rapid.Uint64Range(1, 64).Draw(t, "capacity")
		r := heapRing(t, capacity, WithAllOrNothing(true), WithPacketized(packetized))
		var records []int

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			before := r.Status()
			size := rapid.IntRange(1, int(capacity)+api.HeaderSize+4).Draw(t, "size")
			if rapid.Bool().Draw(t, "put") {
				room := r.BytesToPut()
				got := r.Put(make([]byte, size))
				switch {
				case uint64(size) > room:
					if got != 0 || r.Status() != before {
						t.Fatalf("oversized Put(%d) with room %d moved %d", size, room, got)
					}
				case got != size:
					t.Fatalf("Put(%d) with room %d = %d", size, room, got)
				default:
					records = append(records, size)
				}
				continue
			}

			avail := r.BytesToGet()
			got := r.Get(make([]byte, size))
			switch {
			case uint64(size) > avail:
				if got != 0 || r.Status() != before {
					t.Fatalf("oversized Get(%d) with %d stored moved %d", size, avail, got)
				}
			case !packetized:
				if got != size {
					t.Fatalf("Get(%d) with %d stored = %d", size, avail, got)
				}
			default:
				if want := min(size, records[0]); got != want {
					t.Fatalf("Get(%d) with head record %d = %d, want %d", size, records[0], got, want)
				}
				records = records[1:]
			}
		}
		if r.Stats().Corruptions != 0 {
			t.Fatalf("unexpected corruption recovery")
		}
	})
}

// Flush twice in a row is the same as once; Reset always zeroes counters.
func TestFlushIdempotentResetZeroes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		packetized := rapid.Bool().Draw(t, "packetized")
		r := heapRing(t, 32, WithPacketized(packetized))
		for _, n := range rapid.SliceOfN(rapid.IntRange(1, 12), 0, 6).Draw(t, "puts") {
			r.Put(make([]byte, n))
		}
		r.Flush()
		first := r.Status()
		r.Flush()
		if r.Status() != first || first.PutCount != first.GetCount {
			t.Fatalf("flush not idempotent: %+v then %+v", first, r.Status())
		}
		r.Reset()
		if st := r.Status(); st.PutCount != 0 || st.GetCount != 0 || st.Packetized() != packetized {
			t.Fatalf("reset left %+v", st)
		}
	})
}
