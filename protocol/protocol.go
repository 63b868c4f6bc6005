// Package protocol frames game events for the serial link.
//
// A frame is: len seq payload... crc_hi crc_lo 0x7E, where len counts the
// whole frame and seq carries the 0x10 marker in its high nibble. The
// payload is a run of messages, each a VLQ message id followed by its
// VLQ-encoded arguments.
package protocol

// Version is reported in the identify dictionary
const Version = "0.2.0"

// Frame constants
const (
	FrameMax     = 64 // Largest frame including header and trailer
	FrameHeader  = 2  // len, seq
	FrameTrailer = 3  // crc16, sync
	FrameMin     = FrameHeader + FrameTrailer

	PositionLen = 0
	PositionSeq = 1

	SyncByte = 0x7E

	// Sequence byte: low nibble counts, high nibble is fixed
	SeqMask = 0x0F
	SeqDest = 0x10

	ScratchMax = 512 // Encoder scratch space (several frames)
)

// nextSeq returns the sequence byte following seq
func nextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
