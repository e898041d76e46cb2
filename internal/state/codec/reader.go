package codec

import (
	"github.com/jamzig/jamnode/internal/codec"
	"github.com/jamzig/jamnode/internal/state"
)

// Reader is a forward-only cursor over a state blob.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for decoding. buf is not copied; the caller must
// not mutate it while decoding is in progress.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrEndOfStream
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads one byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadN reads and copies exactly n bytes into an owned buffer, so the
// decoded entity does not alias the source blob (spec §3 "All entities
// ... decoding allocates their buffers").
func (r *Reader) ReadN(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadHash reads a 32-byte Hash.
func (r *Reader) ReadHash() (state.Hash, error) {
	var h state.Hash
	b, err := r.take(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// ReadNatural reads a variable-length natural number.
func (r *Reader) ReadNatural() (uint64, error) {
	v, n, err := codec.DecodeNatural(r.buf[r.pos:])
	if err != nil {
		return 0, ErrEndOfStream
	}
	r.pos += n
	return v, nil
}

// ReadUint8 reads a single byte as a u8.
func (r *Reader) ReadUint8() (uint8, error) { return r.ReadByte() }

// ReadUint16 reads a little-endian u16.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return codec.Uint16(b), nil
}

// ReadUint24 reads a little-endian u24.
func (r *Reader) ReadUint24() (uint32, error) {
	b, err := r.take(3)
	if err != nil {
		return 0, err
	}
	return codec.Uint24(b), nil
}

// ReadUint32 reads a little-endian u32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return codec.Uint32(b), nil
}

// ReadUint64 reads a little-endian u64.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return codec.Uint64(b), nil
}

// ReadExistence reads a one-byte existence marker, which must be exactly
// 0 or 1 (spec §4.6 "Existence markers are exactly 0 or 1; other values
// => InvalidValue").
func (r *Reader) ReadExistence() (bool, error) {
	b, err := r.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, ErrInvalidValue
	}
}
