package packet

import (
	"math"

	"golang.org/x/text/encoding/unicode"
)

// Writer builds a server packet as a bit stream, LSB-first within each byte,
// mirroring Reader exactly. The 16-bit opcode always comes first. Bytes()
// pads the tail with zero bits to a byte boundary.
type Writer struct {
	buf    []byte
	bitLen int
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

func NewWriterWithOpcode(opcode uint16) *Writer {
	w := &Writer{buf: make([]byte, 0, 64)}
	w.WriteBits(uint64(opcode), 16)
	return w
}

// WriteBits appends the low n bits of v, LSB-first.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := 0; i < n; i++ {
		byteIdx := w.bitLen >> 3
		bitIdx := w.bitLen & 7
		if byteIdx == len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<i) != 0 {
			w.buf[byteIdx] |= 1 << bitIdx
		}
		w.bitLen++
	}
}

// WriteC writes 1 byte.
func (w *Writer) WriteC(v byte) {
	w.WriteBits(uint64(v), 8)
}

// WriteH writes a 16-bit little-endian unsigned integer.
func (w *Writer) WriteH(v uint16) {
	w.WriteBits(uint64(v), 16)
}

// WriteD writes a 32-bit little-endian unsigned integer.
func (w *Writer) WriteD(v uint32) {
	w.WriteBits(uint64(v), 32)
}

// WriteQ writes a 64-bit little-endian unsigned integer.
func (w *Writer) WriteQ(v uint64) {
	w.WriteBits(v, 64)
}

// WriteF writes a 32-bit IEEE-754 float.
func (w *Writer) WriteF(v float32) {
	w.WriteBits(uint64(math.Float32bits(v)), 32)
}

// WriteBool writes a single bit.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteBits(1, 1)
	} else {
		w.WriteBits(0, 1)
	}
}

// WriteWS writes a wide string: 16-bit code-unit count + UTF-16LE payload.
func (w *Writer) WriteWS(s string) {
	if s == "" {
		w.WriteBits(0, 16)
		return
	}
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte(s))
	if err != nil {
		w.WriteBits(0, 16)
		return
	}
	w.WriteBits(uint64(len(encoded)/2), 16)
	for _, b := range encoded {
		w.WriteBits(uint64(b), 8)
	}
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	for _, v := range b {
		w.WriteBits(uint64(v), 8)
	}
}

// Bytes returns the packet content, zero-padded to a byte boundary.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the current length in whole bytes (including padding bits).
func (w *Writer) Len() int {
	return len(w.buf)
}
