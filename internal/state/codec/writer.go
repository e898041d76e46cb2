package codec

import (
	"github.com/jamzig/jamnode/internal/codec"
	"github.com/jamzig/jamnode/internal/state"
)

// Writer accumulates an encoded state blob.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded output so far.
func (w *Writer) Bytes() []byte { return w.buf }

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) { w.buf = append(w.buf, b) }

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteHash appends a 32-byte Hash.
func (w *Writer) WriteHash(h state.Hash) { w.buf = append(w.buf, h[:]...) }

// WriteNatural appends the variable-length natural encoding of v.
func (w *Writer) WriteNatural(v uint64) { w.buf = append(w.buf, codec.EncodeNatural(v)...) }

// WriteUint16 appends a little-endian u16.
func (w *Writer) WriteUint16(v uint16) {
	b := make([]byte, 2)
	codec.PutUint16(b, v)
	w.buf = append(w.buf, b...)
}

// WriteUint24 appends a little-endian u24.
func (w *Writer) WriteUint24(v uint32) {
	b := make([]byte, 3)
	codec.PutUint24(b, v)
	w.buf = append(w.buf, b...)
}

// WriteUint32 appends a little-endian u32.
func (w *Writer) WriteUint32(v uint32) {
	b := make([]byte, 4)
	codec.PutUint32(b, v)
	w.buf = append(w.buf, b...)
}

// WriteUint64 appends a little-endian u64.
func (w *Writer) WriteUint64(v uint64) {
	b := make([]byte, 8)
	codec.PutUint64(b, v)
	w.buf = append(w.buf, b...)
}

// WriteExistence appends a one-byte existence marker.
func (w *Writer) WriteExistence(present bool) {
	if present {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}
