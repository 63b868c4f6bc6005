// Package link publishes game events as protocol frames on a byte stream
// and decodes them again on the monitoring side.
//
// The stream is one-way. The sender starts with a run of identify frames
// carrying its zlib compressed JSON dictionary so a monitor attached at any time can learn
// the message ids once the sender re-identifies.
package link

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"mastermind/core"
	"mastermind/protocol"
)

// identify is message 0 in every dictionary
const (
	IdentifyName   = "identify"
	IdentifyFormat = "offset=%u data=%s"
	IdentifyID     = 0

	// chunkSize keeps an identify frame well under protocol.FrameMax
	chunkSize = 40
)

var ErrUnknownEvent = errors.New("link: unknown event")

// NewRegistry returns a registry with identify registered as message 0
func NewRegistry() *core.MessageRegistry {
	reg := core.NewMessageRegistry()
	if _, err := reg.Register(IdentifyName, IdentifyFormat, nil); err != nil {
		panic(err)
	}
	return reg
}

// Link encodes events into frames and writes them to w
type Link struct {
	mu  sync.Mutex
	w   io.Writer
	reg *core.MessageRegistry
	out *protocol.ScratchOutput
	enc *protocol.Encoder

	// Log receives write failures (optional)
	Log logrus.FieldLogger
}

// New creates a link over w publishing the messages of reg. reg should
// come from NewRegistry.
func New(w io.Writer, reg *core.MessageRegistry) *Link {
	out := protocol.NewScratchOutput()
	return &Link{
		w:   w,
		reg: reg,
		out: out,
		enc: protocol.NewEncoder(out),
		Log: logrus.StandardLogger(),
	}
}

// Identify sends the compressed dictionary in chunks, ending with an
// empty chunk
func (l *Link) Identify() error {
	dict, err := compressDictionary(l.reg)
	if err != nil {
		return fmt.Errorf("link: dictionary: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.enc.Reset()
	offset := 0
	for _, chunk := range splitChunks(dict, chunkSize) {
		start := offset
		if err := l.sendLocked(IdentifyID, func(o protocol.OutputBuffer) {
			protocol.EncodeVLQUint(o, uint32(start))
			protocol.EncodeVLQBytes(o, chunk)
		}); err != nil {
			return err
		}
		offset += len(chunk)
	}

	l.Log.WithField("bytes", len(dict)).Debug("link identified")
	return nil
}

// splitChunks cuts data into pieces of at most size bytes followed by an
// empty terminator
func splitChunks(data []byte, size int) [][]byte {
	var chunks [][]byte
	for offset := 0; offset < len(data); offset += size {
		end := offset + size
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[offset:end])
	}
	return append(chunks, []byte{})
}

func compressDictionary(reg *core.MessageRegistry) ([]byte, error) {
	raw, err := reg.GenerateJSON(protocol.Version)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Publish sends one event. Arguments follow the message format order.
func (l *Link) Publish(name string, args ...interface{}) error {
	msg, ok := l.reg.GetMessageByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}

	encoded := protocol.NewScratchOutput()
	if err := msg.Encode(encoded, args...); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sendLocked(msg.ID, func(o protocol.OutputBuffer) {
		o.Output(encoded.Result())
	})
}

func (l *Link) sendLocked(id uint16, args func(protocol.OutputBuffer)) error {
	l.out.Reset()
	if err := l.enc.SendMessage(id, args); err != nil {
		return fmt.Errorf("link: message %d: %w", id, err)
	}
	if _, err := l.w.Write(l.out.Result()); err != nil {
		return fmt.Errorf("link: write: %w", err)
	}
	return nil
}
