package protocol

import (
	"bytes"
	"errors"
	"testing"
)

var vlqCases = []struct {
	value   int32
	encoded []byte
}{
	{0, []byte{0x00}},
	{-1, []byte{0x7F}},
	{-32, []byte{0x60}},
	{95, []byte{0x5F}},
	{96, []byte{0x80, 0x60}},
	{-33, []byte{0xFF, 0x5F}},
	{200, []byte{0x81, 0x48}},
	{1000, []byte{0x87, 0x68}},
	{12288, []byte{0x80, 0xE0, 0x00}},
	{0x7FFFFFFF, []byte{0x87, 0xFF, 0xFF, 0xFF, 0x7F}},
}

func TestVLQEncode(t *testing.T) {
	for _, tc := range vlqCases {
		out := NewScratchOutput()
		EncodeVLQInt(out, tc.value)
		if !bytes.Equal(out.Result(), tc.encoded) {
			t.Errorf("Value %d: expected % X, got % X", tc.value, tc.encoded, out.Result())
		}
		if n := VLQLen(tc.value); n != len(tc.encoded) {
			t.Errorf("Value %d: expected length %d, got %d", tc.value, len(tc.encoded), n)
		}
	}
}

func TestVLQDecode(t *testing.T) {
	for _, tc := range vlqCases {
		data := append(append([]byte(nil), tc.encoded...), 0xAA)
		v, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("% X: %v", tc.encoded, err)
			continue
		}
		if v != tc.value {
			t.Errorf("% X: expected %d, got %d", tc.encoded, tc.value, v)
		}
		if len(data) != 1 || data[0] != 0xAA {
			t.Errorf("% X: expected the trailing byte left, got % X", tc.encoded, data)
		}
	}
}

func TestVLQUintAboveInt32(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQUint(out, 0xFFFFFFFF)
	data := out.Result()
	v, err := DecodeVLQUint(&data)
	if err != nil || v != 0xFFFFFFFF {
		t.Errorf("Expected 0xFFFFFFFF, got 0x%X (%v)", v, err)
	}
}

// An event payload: round=2 exact=3 outcome="win"
func TestVLQEventPayload(t *testing.T) {
	out := NewScratchOutput()
	EncodeVLQUint(out, 2)
	EncodeVLQUint(out, 3)
	EncodeVLQString(out, "win")

	want := []byte{0x02, 0x03, 0x03, 'w', 'i', 'n'}
	if !bytes.Equal(out.Result(), want) {
		t.Fatalf("Expected % X, got % X", want, out.Result())
	}

	data := out.Result()
	round, _ := DecodeVLQUint(&data)
	exact, _ := DecodeVLQUint(&data)
	outcome, err := DecodeVLQString(&data)
	if err != nil {
		t.Fatal(err)
	}
	if round != 2 || exact != 3 || outcome != "win" {
		t.Errorf("Expected 2 3 win, got %d %d %s", round, exact, outcome)
	}
	if len(data) != 0 {
		t.Errorf("Expected payload consumed, %d bytes left", len(data))
	}
}

func TestVLQBytesAlias(t *testing.T) {
	data := []byte{0x02, 0x10, 0x20, 0x30}
	b, err := DecodeVLQBytes(&data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0x10, 0x20}) || !bytes.Equal(data, []byte{0x30}) {
		t.Errorf("Unexpected split % X / % X", b, data)
	}

	empty := []byte{0x00}
	if s, err := DecodeVLQString(&empty); err != nil || s != "" {
		t.Errorf("Expected empty string, got %q (%v)", s, err)
	}
}

func TestVLQErrors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrShortVLQ},
		{"continuation without byte", []byte{0x80}, ErrShortVLQ},
		{"overlong", []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}, ErrInvalidVLQ},
	}
	for _, tc := range cases {
		data := tc.data
		if _, err := DecodeVLQInt(&data); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	short := []byte{0x05, 'a', 'b'}
	if _, err := DecodeVLQString(&short); !errors.Is(err, ErrShortVLQ) {
		t.Errorf("Expected ErrShortVLQ for short string, got %v", err)
	}
	if len(short) != 3 {
		t.Errorf("A failed decode should not consume input, %d bytes left", len(short))
	}
}
