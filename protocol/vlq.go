package protocol

import "errors"

var (
	ErrInvalidVLQ = errors.New("vlq: more than five bytes")
	ErrShortVLQ   = errors.New("vlq: truncated value")
)

// vlqFits reports whether v is representable in the bits below shift plus
// the two sign-carrying bits of a leading byte
func vlqFits(v int32, shift uint) bool {
	return -(int32(1)<<shift) <= v && v < int32(3)<<shift
}

// VLQLen returns how many bytes EncodeVLQInt uses for v
func VLQLen(v int32) int {
	n := 1
	for shift := uint(5); shift <= 26 && !vlqFits(v, shift); shift += 7 {
		n++
	}
	return n
}

// EncodeVLQInt writes v most significant group first, 7 bits per byte,
// with the top bit set on every byte but the last. Values in [-32, 96)
// take one byte.
func EncodeVLQInt(output OutputBuffer, v int32) {
	var tmp [5]byte
	n := VLQLen(v)
	for i := 0; i < n; i++ {
		shift := uint(7 * (n - 1 - i))
		tmp[i] = byte(v>>shift) & 0x7F
		if i < n-1 {
			tmp[i] |= 0x80
		}
	}
	output.Output(tmp[:n])
}

// EncodeVLQUint encodes an unsigned value (same wire form as int)
func EncodeVLQUint(output OutputBuffer, v uint32) {
	EncodeVLQInt(output, int32(v))
}

// DecodeVLQInt reads one value and advances data past it
func DecodeVLQInt(data *[]byte) (int32, error) {
	buf := *data
	if len(buf) == 0 {
		return 0, ErrShortVLQ
	}

	c := buf[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F) // Negative: extend the sign
	}

	i := 1
	for ; c&0x80 != 0; i++ {
		if i == 5 {
			return 0, ErrInvalidVLQ
		}
		if i >= len(buf) {
			return 0, ErrShortVLQ
		}
		c = buf[i]
		v = v<<7 | uint32(c&0x7F)
	}

	*data = buf[i:]
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned value
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}

// EncodeVLQBytes writes a length prefix then the raw bytes
func EncodeVLQBytes(output OutputBuffer, data []byte) {
	EncodeVLQUint(output, uint32(len(data)))
	output.Output(data)
}

// DecodeVLQBytes reads a length-prefixed byte run. The result aliases data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	rest := *data
	n, err := DecodeVLQUint(&rest)
	if err != nil {
		return nil, err
	}
	if uint32(len(rest)) < n {
		return nil, ErrShortVLQ
	}
	*data = rest[n:]
	return rest[:n], nil
}

// EncodeVLQString writes s as length-prefixed bytes
func EncodeVLQString(output OutputBuffer, s string) {
	EncodeVLQBytes(output, []byte(s))
}

// DecodeVLQString reads a length-prefixed string
func DecodeVLQString(data *[]byte) (string, error) {
	b, err := DecodeVLQBytes(data)
	return string(b), err
}
