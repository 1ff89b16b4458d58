package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBufferPop(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	if buf.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", buf.Available())
	}

	buf.Pop(2)
	if !bytes.Equal(buf.Data(), []byte{3, 4, 5}) {
		t.Errorf("Expected [3 4 5] after popping 2, got %v", buf.Data())
	}

	buf.Pop(9)
	if buf.Available() != 0 {
		t.Errorf("Expected popping past the end to empty the buffer, got %d", buf.Available())
	}
}

func TestScratchOutputAppendsAndCaps(t *testing.T) {
	scratch := NewScratchOutput()

	scratch.Output([]byte{1, 2, 3})
	scratch.Output([]byte{4, 5})
	if !bytes.Equal(scratch.Result(), []byte{1, 2, 3, 4, 5}) {
		t.Errorf("Expected [1 2 3 4 5], got %v", scratch.Result())
	}

	scratch.Output(make([]byte, ScratchSize))
	if scratch.CurPosition() != ScratchSize {
		t.Errorf("Expected position capped at %d, got %d", ScratchSize, scratch.CurPosition())
	}

	scratch.Reset()
	if scratch.CurPosition() != 0 || len(scratch.Result()) != 0 {
		t.Errorf("Expected empty result after reset, got %v", scratch.Result())
	}
}

func TestFifoBufferCapacity(t *testing.T) {
	testCases := []struct {
		capacity int
		write    int
		expected int
	}{
		{10, 5, 5},
		{10, 9, 9},
		{10, 12, 9},
		{2, 4, 1},
	}

	for _, tc := range testCases {
		fifo := NewFifoBuffer(tc.capacity)
		if got := fifo.Write(make([]byte, tc.write)); got != tc.expected {
			t.Errorf("capacity %d, write %d: expected %d written, got %d",
				tc.capacity, tc.write, tc.expected, got)
		}
		if fifo.Available()+fifo.Free() != tc.capacity-1 {
			t.Errorf("capacity %d: available %d + free %d should be %d",
				tc.capacity, fifo.Available(), fifo.Free(), tc.capacity-1)
		}
	}
}

// Serial bytes arrive in bursts while the decoder consumes whole frames, so
// the read side regularly crosses the end of the ring.
func TestFifoBufferBurstsAcrossWrap(t *testing.T) {
	fifo := NewFifoBuffer(8)
	var got []byte
	next := byte(0)

	for round := 0; round < 10; round++ {
		burst := make([]byte, 5)
		for i := range burst {
			burst[i] = next
			next++
		}
		if n := fifo.Write(burst); n != len(burst) {
			t.Fatalf("Round %d: expected 5 bytes written, got %d", round, n)
		}

		out := make([]byte, 5)
		n := fifo.Read(out)
		got = append(got, out[:n]...)
	}

	if len(got) != 50 {
		t.Fatalf("Expected 50 bytes through the ring, got %d", len(got))
	}
	for i, b := range got {
		if b != byte(i) {
			t.Fatalf("Byte %d: expected %d, got %d", i, i, b)
		}
	}
	if !fifo.IsEmpty() {
		t.Errorf("Expected empty FIFO, %d bytes left", fifo.Available())
	}
}

func TestFifoBufferDataWraps(t *testing.T) {
	fifo := NewFifoBuffer(6)
	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(3)
	fifo.Write([]byte{5, 6, 7})

	if !bytes.Equal(fifo.Data(), []byte{4, 5, 6, 7}) {
		t.Errorf("Expected [4 5 6 7], got %v", fifo.Data())
	}
	if fifo.Free() != 1 {
		t.Errorf("Expected 1 byte free, got %d", fifo.Free())
	}

	fifo.Pop(10)
	if !fifo.IsEmpty() {
		t.Error("Expected empty FIFO after popping more than available")
	}

	fifo.Write([]byte{9})
	fifo.Reset()
	if !fifo.IsEmpty() {
		t.Error("Expected empty FIFO after reset")
	}
}
