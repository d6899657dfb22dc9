package packet

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/unicode"
)

// Reader reads fields from a decrypted payload. Bytes 0-1 are always the
// little-endian opcode; everything after is a bit stream, LSB-first within
// each byte. Byte-aligned primitives are just 8/16/32/64-bit reads, so the
// 7/14/21-bit packed fields of build 16042 and plain integers share one
// cursor. Reads past the end return zero and set the overrun flag.
type Reader struct {
	data    []byte
	bitOff  int // bit cursor, starts after the 16-bit opcode
	overrun bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data, bitOff: 16}
}

func (r *Reader) Opcode() uint16 {
	if len(r.data) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(r.data)
}

// ReadBits reads n bits (n ≤ 64) LSB-first and returns them right-aligned.
func (r *Reader) ReadBits(n int) uint64 {
	if n <= 0 || n > 64 {
		return 0
	}
	if r.bitOff+n > len(r.data)*8 {
		r.overrun = true
		r.bitOff = len(r.data) * 8
		return 0
	}
	var v uint64
	for i := 0; i < n; i++ {
		byteIdx := r.bitOff >> 3
		bitIdx := r.bitOff & 7
		if r.data[byteIdx]&(1<<bitIdx) != 0 {
			v |= 1 << i
		}
		r.bitOff++
	}
	return v
}

// ReadC reads 1 unsigned byte.
func (r *Reader) ReadC() byte {
	return byte(r.ReadBits(8))
}

// ReadH reads a 16-bit little-endian unsigned integer.
func (r *Reader) ReadH() uint16 {
	return uint16(r.ReadBits(16))
}

// ReadD reads a 32-bit little-endian unsigned integer.
func (r *Reader) ReadD() uint32 {
	return uint32(r.ReadBits(32))
}

// ReadQ reads a 64-bit little-endian unsigned integer.
func (r *Reader) ReadQ() uint64 {
	return r.ReadBits(64)
}

// ReadF reads a 32-bit IEEE-754 float.
func (r *Reader) ReadF() float32 {
	return math.Float32frombits(uint32(r.ReadBits(32)))
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() bool {
	return r.ReadBits(1) != 0
}

// ReadWS reads a wide string: 16-bit code-unit count followed by UTF-16LE
// payload, decoded to UTF-8.
func (r *Reader) ReadWS() string {
	units := int(r.ReadBits(16))
	if units == 0 {
		return ""
	}
	raw := make([]byte, units*2)
	for i := range raw {
		raw[i] = byte(r.ReadBits(8))
	}
	if r.overrun {
		return ""
	}
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(raw)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(r.ReadBits(8))
	}
	return b
}

// Remaining returns the number of unread whole bytes.
func (r *Reader) Remaining() int {
	return (len(r.data)*8 - r.bitOff) / 8
}

// Overrun reports whether any read went past the end of the payload.
// A true value is a protocol violation (declared length did not match).
func (r *Reader) Overrun() bool {
	return r.overrun
}
