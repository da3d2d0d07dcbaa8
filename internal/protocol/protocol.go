package protocol

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed size of the binary audio frame header.
// Layout: [Sequence:2][PayloadLen:2][SampleRate:2][Channels:1][BitsPerSample:1][Flags:2]
const HeaderSize = 10

// AudioFrameHeader is prepended to every PCM frame sent over the websocket.
// All multi-byte fields are little-endian.
type AudioFrameHeader struct {
	Sequence      uint16 // Frame counter, informational only
	PayloadLen    uint16 // Exact byte length of the trailing PCM payload
	SampleRate    uint16 // Hz
	Channels      uint8
	BitsPerSample uint8
	Flags         uint16 // Reserved bitfield, default 0
}

// IncompleteHeaderError is returned when fewer than HeaderSize bytes are
// available to decode a frame header.
type IncompleteHeaderError struct {
	Expected int
	Got      int
}

func (e *IncompleteHeaderError) Error() string {
	return fmt.Sprintf("incomplete audio header: expected %d bytes, got %d", e.Expected, e.Got)
}

// Encode serializes the header into its fixed little-endian layout.
func (h AudioFrameHeader) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.Sequence)
	binary.LittleEndian.PutUint16(buf[2:4], h.PayloadLen)
	binary.LittleEndian.PutUint16(buf[4:6], h.SampleRate)
	buf[6] = h.Channels
	buf[7] = h.BitsPerSample
	binary.LittleEndian.PutUint16(buf[8:10], h.Flags)
	return buf
}

// DecodeHeader parses the fixed-size audio frame header from the start of data.
func DecodeHeader(data []byte) (AudioFrameHeader, error) {
	if len(data) < HeaderSize {
		return AudioFrameHeader{}, &IncompleteHeaderError{Expected: HeaderSize, Got: len(data)}
	}

	return AudioFrameHeader{
		Sequence:      binary.LittleEndian.Uint16(data[0:2]),
		PayloadLen:    binary.LittleEndian.Uint16(data[2:4]),
		SampleRate:    binary.LittleEndian.Uint16(data[4:6]),
		Channels:      data[6],
		BitsPerSample: data[7],
		Flags:         binary.LittleEndian.Uint16(data[8:10]),
	}, nil
}

// String returns a human-readable representation of the header.
func (h AudioFrameHeader) String() string {
	return fmt.Sprintf("AudioFrameHeader{Seq:%d, PayloadLen:%d, Rate:%d, Ch:%d, Bits:%d, Flags:0x%04x}",
		h.Sequence, h.PayloadLen, h.SampleRate, h.Channels, h.BitsPerSample, h.Flags)
}
