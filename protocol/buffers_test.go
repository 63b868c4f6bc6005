package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBufferPop(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{0x05, 0x10, 0x7E, 0x00})

	steps := []struct {
		pop   int
		left  int
		first byte
	}{
		{0, 4, 0x05},
		{2, 2, 0x7E},
		{1, 1, 0x00},
	}
	for _, st := range steps {
		buf.Pop(st.pop)
		if buf.Available() != st.left || buf.Data()[0] != st.first {
			t.Errorf("After Pop(%d): expected %d bytes starting 0x%02X, got % X", st.pop, st.left, st.first, buf.Data())
		}
	}

	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Expected empty buffer, got %d bytes", buf.Available())
	}
}

// The encoder reserves a length byte, writes the body, then patches it
func TestScratchOutputPatch(t *testing.T) {
	out := NewScratchOutput()
	out.Output([]byte{0, SeqDest})
	body := out.CurPosition()
	out.Output([]byte{0x03, 0x07})
	out.Update(0, byte(out.CurPosition()))

	if got := out.Result(); !bytes.Equal(got, []byte{4, SeqDest, 0x03, 0x07}) {
		t.Errorf("Expected 04 10 03 07, got % X", got)
	}
	if since := out.DataSince(body); !bytes.Equal(since, []byte{0x03, 0x07}) {
		t.Errorf("Expected body 03 07, got % X", since)
	}

	out.Update(10, 0xEE)
	if out.CurPosition() != 4 {
		t.Errorf("Update past the end should not grow the output, got %d", out.CurPosition())
	}
	if out.DataSince(5) != nil {
		t.Error("DataSince past the end should be nil")
	}

	out.Reset()
	if len(out.Result()) != 0 {
		t.Errorf("Expected empty result after Reset, got % X", out.Result())
	}
}

func TestScratchOutputFull(t *testing.T) {
	out := NewScratchOutput()
	out.Output(make([]byte, ScratchMax-1))
	out.Output([]byte{1, 2, 3})
	if out.CurPosition() != ScratchMax {
		t.Errorf("Expected output capped at %d, got %d", ScratchMax, out.CurPosition())
	}
}

func TestStreamBuffer(t *testing.T) {
	buf := NewStreamBuffer(8)

	if buf.Available() != 0 {
		t.Errorf("Empty buffer should have 0 available, got %d", buf.Available())
	}

	buf.Write([]byte{1, 2, 3, 4, 5})
	if buf.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", buf.Available())
	}

	buf.Pop(2)
	if d := buf.Data(); len(d) != 3 || d[0] != 3 {
		t.Errorf("After popping 2, expected [3 4 5], got %v", d)
	}

	// Exceeding the limit drops the oldest bytes
	buf.Write([]byte{6, 7, 8, 9, 10, 11})
	d := buf.Data()
	if len(d) != 8 || d[0] != 4 || d[7] != 11 {
		t.Errorf("Expected [4 .. 11], got %v", d)
	}

	buf.Pop(100)
	if buf.Available() != 0 {
		t.Errorf("Pop past end should empty the buffer, got %d", buf.Available())
	}

	buf.Write(make([]byte, 20))
	if buf.Available() != 8 {
		t.Errorf("Oversized write should keep limit bytes, got %d", buf.Available())
	}
}
