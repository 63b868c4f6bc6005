package protocol

import (
	"errors"
	"sync"
)

var ErrFrameTooLarge = errors.New("frame exceeds maximum length")

// MessageHandler handles one decoded message. The handler must consume its
// arguments from data so the next message id can be read.
type MessageHandler func(id uint16, data *[]byte) error

// FrameHandler receives the payload of each valid frame
type FrameHandler func(seq uint8, payload []byte)

// Encoder builds frames into an OutputBuffer with a rolling sequence
type Encoder struct {
	mu      sync.Mutex
	output  OutputBuffer
	seq     uint8
	scratch ScratchOutput
}

// NewEncoder creates an encoder starting at sequence 0x10
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{output: output, seq: SeqDest}
}

// EncodeFrame writes one frame whose payload is produced by frameData.
// Nothing is written if the frame would exceed FrameMax.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scratch.Reset()
	e.scratch.Output([]byte{0, e.seq})
	frameData(&e.scratch)

	n := e.scratch.CurPosition() + FrameTrailer
	if n > FrameMax {
		return ErrFrameTooLarge
	}
	e.scratch.Update(PositionLen, uint8(n))

	trailer := appendCRC(make([]byte, 0, FrameTrailer), e.scratch.Result())
	e.output.Output(e.scratch.Result())
	e.output.Output(trailer)
	e.seq = nextSeq(e.seq)
	return nil
}

// SendMessage encodes a single message (id then args) as one frame
func (e *Encoder) SendMessage(id uint16, args func(output OutputBuffer)) error {
	return e.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(id))
		if args != nil {
			args(output)
		}
	})
}

// Sequence returns the sequence byte of the next frame
func (e *Encoder) Sequence() uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Reset restarts the sequence at 0x10
func (e *Encoder) Reset() {
	e.mu.Lock()
	e.seq = SeqDest
	e.mu.Unlock()
}

// DecoderStats counts what the decoder saw
type DecoderStats struct {
	Frames    int // Valid frames delivered
	CRCErrors int
	Resyncs   int // Times sync was lost
	SeqGaps   int // Frames whose sequence was not the expected one
	Restarts  int // Sender restarted at 0x10
}

// Decoder splits a byte stream into frames. It is passive: frames are
// never acknowledged, and a sequence gap is counted but the frame is
// still delivered.
type Decoder struct {
	synced   bool
	expected uint8
	handler  FrameHandler
	stats    DecoderStats
}

func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{synced: true, expected: SeqDest, handler: handler}
}

// Receive consumes every complete frame in input. A partial frame at the
// end is left in the buffer for the next call.
func (d *Decoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synced {
			i := 0
			for i < len(data) && data[i] != SyncByte {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}

		n := int(data[PositionLen])
		seq := data[PositionSeq]
		if n < FrameMin || n > FrameMax || seq&^SeqMask != SeqDest {
			d.lose()
			continue
		}
		if len(data) < n {
			break
		}
		if data[n-1] != SyncByte {
			d.lose()
			continue
		}
		crc := uint16(data[n-3])<<8 | uint16(data[n-2])
		if crc != CRC16(data[:n-FrameTrailer]) {
			d.stats.CRCErrors++
			d.lose()
			continue
		}

		payload := data[FrameHeader : n-FrameTrailer]
		data = data[n:]

		switch {
		case seq == d.expected:
		case seq == SeqDest:
			d.stats.Restarts++
		default:
			d.stats.SeqGaps++
		}
		d.expected = nextSeq(seq)
		d.stats.Frames++
		if d.handler != nil {
			d.handler(seq, payload)
		}
	}

	input.Pop(input.Available() - len(data))
}

func (d *Decoder) lose() {
	d.synced = false
	d.stats.Resyncs++
}

// Stats returns the counters so far
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// ParseFrame walks the messages of a payload, calling handler for each.
// It stops at the first error.
func ParseFrame(payload []byte, handler MessageHandler) error {
	for len(payload) > 0 {
		id, err := DecodeVLQUint(&payload)
		if err != nil {
			return err
		}
		if err := handler(uint16(id), &payload); err != nil {
			return err
		}
	}
	return nil
}
