package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame layout, build 16042:
// [2B LE total length incl. 4-byte header][2B LE flags][opcode+payload].
const frameHeaderLen = 4

// maxFramePayload keeps a hostile length prefix from allocating 64 KB per
// read; no legitimate packet in this build comes close.
const maxFramePayload = 0xFFFF - frameHeaderLen

// ReadFrame reads one frame from r and returns its flags and payload
// (opcode + body, without the header).
func ReadFrame(r io.Reader) (uint16, []byte, error) {
	var header [frameHeaderLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[0:2]))
	flags := binary.LittleEndian.Uint16(header[2:4])

	payloadLen := totalLen - frameHeaderLen
	if payloadLen < 2 || payloadLen > maxFramePayload {
		return 0, nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return flags, payload, nil
}

// WriteFrame writes one frame to w.
func WriteFrame(w io.Writer, flags uint16, data []byte) error {
	totalLen := len(data) + frameHeaderLen
	if totalLen > 0xFFFF {
		return fmt.Errorf("frame too large: %d", totalLen)
	}
	var header [frameHeaderLen]byte
	binary.LittleEndian.PutUint16(header[0:2], uint16(totalLen))
	binary.LittleEndian.PutUint16(header[2:4], flags)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}
