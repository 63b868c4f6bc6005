package link

import (
	"bytes"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"mastermind/core"
	"mastermind/protocol"
)

// streamLimit bounds the bytes kept while waiting for a frame to complete
const streamLimit = 4 * protocol.FrameMax

// Monitor decodes a link stream into "name key=value" lines. Feed and the
// accessors may be called from different goroutines.
type Monitor struct {
	mu     sync.Mutex
	dec    *protocol.Decoder
	stream *protocol.StreamBuffer
	emit   func(line string)

	identify *core.Message
	reg      *core.MessageRegistry // nil until a dictionary is complete
	pending  bytes.Buffer
	version  string
	unknown  int

	Log logrus.FieldLogger
}

// NewMonitor creates a monitor passing each decoded event line to emit
func NewMonitor(emit func(line string)) *Monitor {
	m := &Monitor{
		stream: protocol.NewStreamBuffer(streamLimit),
		emit:   emit,
		Log:    logrus.StandardLogger(),
	}
	m.identify, _ = NewRegistry().GetMessage(IdentifyID)
	m.dec = protocol.NewDecoder(m.handleFrame)
	return m
}

// Feed processes bytes read from the link
func (m *Monitor) Feed(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// At most one partial frame stays buffered between steps, so a step
	// of FrameMax bytes never overflows the stream buffer
	for len(data) > 0 {
		n := len(data)
		if n > protocol.FrameMax {
			n = protocol.FrameMax
		}
		m.stream.Write(data[:n])
		m.dec.Receive(m.stream)
		data = data[n:]
	}
}

// Run reads r until ctx is done or the reader fails. Readers with a read
// timeout let cancellation be noticed between reads.
func (m *Monitor) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (m *Monitor) handleFrame(seq uint8, payload []byte) {
	err := protocol.ParseFrame(payload, m.handleMessage)
	if err != nil {
		m.Log.WithError(err).WithField("seq", seq).Debug("frame skipped")
	}
}

func (m *Monitor) handleMessage(id uint16, data *[]byte) error {
	if id == IdentifyID {
		return m.handleIdentify(data)
	}
	if m.reg == nil {
		m.unknown++
		return fmt.Errorf("%w: id %d before dictionary", core.ErrUnknownMessage, id)
	}
	msg, ok := m.reg.GetMessage(id)
	if !ok {
		m.unknown++
		return fmt.Errorf("%w: id %d", core.ErrUnknownMessage, id)
	}
	values, err := msg.Decode(data)
	if err != nil {
		return fmt.Errorf("%s: %w", msg.Name, err)
	}
	m.emit(msg.Render(values))
	return nil
}

// handleIdentify collects dictionary chunks; an empty chunk completes it
func (m *Monitor) handleIdentify(data *[]byte) error {
	values, err := m.identify.Decode(data)
	if err != nil {
		return err
	}
	offset := values[0].(uint32)
	chunk := values[1].(string)

	if offset == 0 {
		m.pending.Reset()
	}
	if have := m.pending.Len(); int(offset) != have {
		m.pending.Reset()
		return fmt.Errorf("identify: chunk at %d, have %d bytes", offset, have)
	}
	if chunk != "" {
		m.pending.WriteString(chunk)
		return nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(m.pending.Bytes()))
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	reg := core.NewMessageRegistry()
	version, err := reg.LoadJSON(raw, nil)
	if err != nil {
		return err
	}
	m.reg = reg
	m.version = version
	m.Log.WithFields(logrus.Fields{
		"version":  version,
		"messages": reg.Count(),
	}).Info("dictionary received")
	return nil
}

// Ready reports whether a dictionary has been received
func (m *Monitor) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reg != nil
}

// Version returns the sender's protocol version
func (m *Monitor) Version() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Dictionary returns the learned dictionary text
func (m *Monitor) Dictionary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reg == nil {
		return ""
	}
	return m.reg.GetDictionary()
}

// Stats returns the frame decoder counters
func (m *Monitor) Stats() protocol.DecoderStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dec.Stats()
}

// Unknown returns how many messages could not be decoded
func (m *Monitor) Unknown() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unknown
}
