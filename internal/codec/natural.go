// Package codec implements the length-prefixed binary primitives the rest
// of jamnode builds on: the variable-length "natural number" encoding and
// the fixed-width little-endian integer helpers described in spec §4.1.
package codec

import (
	"encoding/binary"
	"math/bits"
)

// naturalBucketBase returns the base value of the l-byte-extension bucket,
// i.e. the smallest prefix byte that selects l trailing bytes. l ranges
// over 0..7; l == 8 (the 0xFF full-width escape) is handled separately by
// the caller.
func naturalBucketBase(l int) int {
	return 256 - (1 << uint(8-l))
}

// EncodeNatural encodes x using the variable-length natural number scheme:
// a single byte for x < 2^7, a prefix byte carrying a bucket length l
// (1..7) plus l little-endian trailing bytes for larger values up to
// 2^56-1, and the 0xFF escape followed by a fixed 8-byte little-endian
// value for anything requiring the full 64-bit range.
func EncodeNatural(x uint64) []byte {
	if x == 0 {
		return []byte{0}
	}
	for l := 0; l <= 7; l++ {
		limit := uint64(1) << uint(7*(l+1))
		if x < limit {
			prefix := byte(naturalBucketBase(l)) + byte(x>>uint(8*l))
			buf := make([]byte, 1+l)
			buf[0] = prefix
			for i := 0; i < l; i++ {
				buf[1+i] = byte(x >> uint(8*i))
			}
			return buf
		}
	}
	buf := make([]byte, 9)
	buf[0] = 0xFF
	binary.LittleEndian.PutUint64(buf[1:], x)
	return buf
}

// DecodeNatural decodes a natural number from the front of data, returning
// the value and the number of bytes consumed. It fails with ErrEndOfStream
// if data does not hold enough bytes for the scheme selected by the prefix.
func DecodeNatural(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrEndOfStream
	}
	p := data[0]
	if p == 0xFF {
		if len(data) < 9 {
			return 0, 0, ErrEndOfStream
		}
		return binary.LittleEndian.Uint64(data[1:9]), 9, nil
	}
	l := bits.LeadingZeros8(^p)
	if len(data) < 1+l {
		return 0, 0, ErrEndOfStream
	}
	top := uint64(int(p) - naturalBucketBase(l))
	var low uint64
	for i := 0; i < l; i++ {
		low |= uint64(data[1+i]) << uint(8*i)
	}
	return (top << uint(8*l)) | low, 1 + l, nil
}

// NaturalLen returns the number of bytes EncodeNatural(x) would produce,
// without allocating.
func NaturalLen(x uint64) int {
	if x == 0 {
		return 1
	}
	for l := 0; l <= 7; l++ {
		if x < uint64(1)<<uint(7*(l+1)) {
			return 1 + l
		}
	}
	return 9
}
