package protocol

// CRC16 is the CCITT variant used in frame trailers (init 0xFFFF,
// reflected nibble update). It covers len, seq and the payload.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b ^= uint8(crc & 0xFF)
		b ^= b << 4
		w := uint16(b)
		crc = (w<<8 | crc>>8) ^ (w >> 4) ^ (w << 3)
	}
	return crc
}

// appendCRC appends the big-endian crc of data and the sync byte
func appendCRC(dst []byte, data []byte) []byte {
	crc := CRC16(data)
	return append(dst, byte(crc>>8), byte(crc), SyncByte)
}
