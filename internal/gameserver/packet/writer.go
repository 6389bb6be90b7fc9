package packet

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"

	"github.com/google/uuid"
)

// Writer provides methods for writing packet data.
// Uses Little-Endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations by reusing Writers.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{
			buf: bytes.NewBuffer(make([]byte, 0, 1024)),
		}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool for reuse.
// Do not use the Writer or slices from Bytes after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// NewWriter creates a new packet writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{
		buf: bytes.NewBuffer(make([]byte, 0, capacity)),
	}
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteBool writes 1 or 0.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
		return
	}
	w.buf.WriteByte(0)
}

// WriteInt writes an int32 (4 bytes, LE).
func (w *Writer) WriteInt(val int32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(val))
	w.buf.Write(tmp[:])
}

// WriteLong writes an int64 (8 bytes, LE).
func (w *Writer) WriteLong(val int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(val))
	w.buf.Write(tmp[:])
}

// WriteDouble writes a float64 (8 bytes, LE).
func (w *Writer) WriteDouble(val float64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(val))
	w.buf.Write(tmp[:])
}

// WriteString writes a UTF-16LE null-terminated string.
// Runes above the BMP are written as surrogate pairs.
func (w *Writer) WriteString(s string) {
	if need := len(s)*2 + 2; w.buf.Cap()-w.buf.Len() < need {
		w.buf.Grow(need)
	}

	for _, r := range s {
		if r <= 0xFFFF {
			w.buf.WriteByte(byte(r))
			w.buf.WriteByte(byte(r >> 8))
			continue
		}
		r -= 0x10000
		high := uint16((r >> 10) + 0xD800)
		low := uint16((r & 0x3FF) + 0xDC00)
		w.buf.WriteByte(byte(high))
		w.buf.WriteByte(byte(high >> 8))
		w.buf.WriteByte(byte(low))
		w.buf.WriteByte(byte(low >> 8))
	}

	w.buf.WriteByte(0x00)
	w.buf.WriteByte(0x00)
}

// WriteStrings writes an int32 count followed by the strings.
func (w *Writer) WriteStrings(ss []string) {
	w.WriteInt(int32(len(ss)))
	for _, s := range ss {
		w.WriteString(s)
	}
}

// WriteUUID writes the 16 raw bytes of id.
func (w *Writer) WriteUUID(id uuid.UUID) {
	w.buf.Write(id[:])
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(data []byte) {
	_, _ = w.buf.Write(data)
}

// Bytes returns the accumulated packet data.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the current length of the packet.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}
