package protocol

import "testing"

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{[]byte{}, 0xFFFF},
		{[]byte{0x00}, 0x0F87},
		{[]byte{0xFF}, 0x00FF},
		{[]byte{5, SeqDest}, 0x9E81},
		{[]byte{1, 2, 3}, 0x62C4},
	}

	for i, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("Test case %d: CRC16(%v) expected 0x%04X, got 0x%04X", i, tc.data, tc.expected, got)
		}
	}
}

func TestCRC16Different(t *testing.T) {
	crc1 := CRC16([]byte{0x01, 0x02, 0x03})
	crc2 := CRC16([]byte{0x01, 0x02, 0x04})

	if crc1 == crc2 {
		t.Errorf("CRC16 collision: both inputs produced %04X", crc1)
	}
}
