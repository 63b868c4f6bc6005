package protocol

// InputBuffer is a window of received bytes the decoder consumes from
type InputBuffer interface {
	Data() []byte
	Available() int
	Pop(n int)
}

// OutputBuffer collects encoded bytes. Update and DataSince let the
// encoder patch the length byte and checksum a frame in place.
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// SliceInputBuffer implements InputBuffer over a fixed slice
type SliceInputBuffer struct {
	data []byte
}

func NewSliceInputBuffer(data []byte) *SliceInputBuffer {
	return &SliceInputBuffer{data: data}
}

func (s *SliceInputBuffer) Data() []byte   { return s.data }
func (s *SliceInputBuffer) Available() int { return len(s.data) }

func (s *SliceInputBuffer) Pop(n int) {
	if n > len(s.data) {
		n = len(s.data)
	}
	s.data = s.data[n:]
}

// ScratchOutput implements OutputBuffer on a fixed array. Writes past the
// end are dropped.
type ScratchOutput struct {
	buf [ScratchMax]byte
	pos int
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int { return s.pos }

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset
func (s *ScratchOutput) Result() []byte { return s.buf[:s.pos] }

func (s *ScratchOutput) Reset() { s.pos = 0 }

// StreamBuffer accumulates bytes read from a port until the decoder
// consumes whole frames. It implements InputBuffer.
type StreamBuffer struct {
	buf   []byte
	limit int
}

// NewStreamBuffer creates a buffer that keeps at most limit bytes; older
// bytes are discarded when a write would exceed it.
func NewStreamBuffer(limit int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, 0, limit), limit: limit}
}

// Write appends data. It never fails.
func (s *StreamBuffer) Write(data []byte) (int, error) {
	n := len(data)
	if n >= s.limit {
		s.buf = append(s.buf[:0], data[n-s.limit:]...)
		return n, nil
	}
	if over := len(s.buf) + n - s.limit; over > 0 {
		s.buf = append(s.buf[:0], s.buf[over:]...)
	}
	s.buf = append(s.buf, data...)
	return n, nil
}

func (s *StreamBuffer) Data() []byte   { return s.buf }
func (s *StreamBuffer) Available() int { return len(s.buf) }

func (s *StreamBuffer) Pop(n int) {
	if n >= len(s.buf) {
		s.buf = s.buf[:0]
		return
	}
	s.buf = append(s.buf[:0], s.buf[n:]...)
}

func (s *StreamBuffer) Reset() { s.buf = s.buf[:0] }
