package codec

import (
	"bytes"
	"testing"
)

func TestDecodeNaturalConcrete(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint64
	}{
		{"zero", []byte{0x00}, 0},
		{"literal 66", []byte{0x42}, 66},
		{"full-width zero", append([]byte{0xFF}, make([]byte, 8)...), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := DecodeNatural(tt.in)
			if err != nil {
				t.Fatalf("DecodeNatural(%x) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("DecodeNatural(%x) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestNaturalRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 66, 127, 128, 129, 255, 256, 16383, 16384,
		1 << 20, 1<<28 - 1, 1 << 28, 1 << 35, 1 << 42, 1 << 49,
		1<<56 - 1, 1 << 56, 1<<63 - 1, 1<<64 - 1,
	}
	for _, v := range values {
		enc := EncodeNatural(v)
		if len(enc) != NaturalLen(v) {
			t.Errorf("NaturalLen(%d) = %d, encoded length = %d", v, NaturalLen(v), len(enc))
		}
		got, n, err := DecodeNatural(enc)
		if err != nil {
			t.Fatalf("DecodeNatural(encode(%d)) error: %v", v, err)
		}
		if n != len(enc) {
			t.Errorf("decode consumed %d bytes, encoded %d", n, len(enc))
		}
		if got != v {
			t.Errorf("round trip %d -> %x -> %d", v, enc, got)
		}
	}
}

func TestDecodeNaturalEndOfStream(t *testing.T) {
	cases := [][]byte{
		{},
		{0x80},       // needs 1 trailing byte
		{0xFF, 1, 2}, // needs 8 trailing bytes
	}
	for _, c := range cases {
		if _, _, err := DecodeNatural(c); err != ErrEndOfStream {
			t.Errorf("DecodeNatural(%x) error = %v, want ErrEndOfStream", c, err)
		}
	}
}

func TestFixedIntRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint24(buf, 0x010203)
	if got := Uint24(buf); got != 0x010203 {
		t.Errorf("Uint24 = %x, want 0x010203", got)
	}
	PutUint64(buf, 0x1122334455667788)
	if got := Uint64(buf); got != 0x1122334455667788 {
		t.Errorf("Uint64 = %x", got)
	}
}

func TestSignExtend(t *testing.T) {
	if got := SignExtend8To64(0xFF); got != -1 {
		t.Errorf("SignExtend8To64(0xFF) = %d, want -1", got)
	}
	if got := SignExtendNTo64(0xFF, 1); got != -1 {
		t.Errorf("SignExtendNTo64(0xFF,1) = %d, want -1", got)
	}
	if got := SignExtendNTo64(0x7F, 1); got != 0x7F {
		t.Errorf("SignExtendNTo64(0x7F,1) = %d, want 127", got)
	}
	if got := SignExtendNTo64(0, 0); got != 0 {
		t.Errorf("SignExtendNTo64(0,0) = %d, want 0", got)
	}
}

func FuzzDecodeNatural(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x42})
	f.Add([]byte{0x80, 0x80})
	f.Add(append([]byte{0xFF}, make([]byte, 8)...))
	f.Add([]byte{0xFF, 1, 2})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		v, n, err := DecodeNatural(data)
		if err != nil {
			return
		}
		if n < 0 || n > len(data) {
			t.Fatalf("DecodeNatural(%x) consumed %d bytes, have %d", data, n, len(data))
		}
		reenc := EncodeNatural(v)
		if !bytes.Equal(reenc, data[:n]) {
			t.Fatalf("DecodeNatural(%x) = %d, but EncodeNatural(%d) = %x, want %x", data, v, v, reenc, data[:n])
		}
	})
}

func TestEncodeNaturalKnownPrefixes(t *testing.T) {
	// Bucket boundaries per the base table: l=1 starts at 128 (0x80).
	enc := EncodeNatural(128)
	if !bytes.Equal(enc, []byte{0x80, 0x80}) {
		t.Errorf("EncodeNatural(128) = %x, want 80 80", enc)
	}
}
