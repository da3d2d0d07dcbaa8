package session

import (
	"errors"
	"fmt"

	"github.com/speakingstone/edge/internal/protocol"
)

// ErrEmptyBuffer is returned by Snapshot when no frame has been accepted
// since the last clear.
var ErrEmptyBuffer = errors.New("no audio buffered yet")

// PayloadLengthMismatchError reports a frame whose payload does not match
// the length declared in its header.
type PayloadLengthMismatchError struct {
	HeaderLen int
	ActualLen int
}

func (e *PayloadLengthMismatchError) Error() string {
	return fmt.Sprintf("payload length mismatch: header says %d bytes, got %d", e.HeaderLen, e.ActualLen)
}

// FormatChangedError reports an audio format field that drifted from the
// utterance's reference header mid-stream.
type FormatChangedError struct {
	Field string
	Ref   int
	Got   int
}

func (e *FormatChangedError) Error() string {
	return fmt.Sprintf("%s changed mid-stream: %d -> %d", e.Field, e.Ref, e.Got)
}

// UtteranceBuffer accumulates PCM payloads for one utterance. The header of
// the first accepted frame becomes the format reference; later frames must
// match it. The buffer never clears itself on rejection — that is the
// session state machine's responsibility.
//
// No locking: all access happens on the connection's single dispatch loop.
type UtteranceBuffer struct {
	pcm    []byte
	header *protocol.AudioFrameHeader
}

// NewUtteranceBuffer returns an empty buffer.
func NewUtteranceBuffer() *UtteranceBuffer {
	return &UtteranceBuffer{}
}

// AppendFrame validates the frame against the reference format and appends
// its payload. The call mutates nothing when it returns an error.
func (b *UtteranceBuffer) AppendFrame(header protocol.AudioFrameHeader, payload []byte) error {
	if int(header.PayloadLen) != len(payload) {
		return &PayloadLengthMismatchError{HeaderLen: int(header.PayloadLen), ActualLen: len(payload)}
	}

	if b.header == nil {
		h := header
		b.header = &h
	} else {
		if header.SampleRate != b.header.SampleRate {
			return &FormatChangedError{Field: "sample rate", Ref: int(b.header.SampleRate), Got: int(header.SampleRate)}
		}
		if header.Channels != b.header.Channels {
			return &FormatChangedError{Field: "channel count", Ref: int(b.header.Channels), Got: int(header.Channels)}
		}
		if header.BitsPerSample != b.header.BitsPerSample {
			return &FormatChangedError{Field: "bit depth", Ref: int(b.header.BitsPerSample), Got: int(header.BitsPerSample)}
		}
	}

	b.pcm = append(b.pcm, payload...)
	return nil
}

// Snapshot returns a copy of the accumulated PCM bytes together with the
// reference header, without clearing the buffer.
func (b *UtteranceBuffer) Snapshot() ([]byte, protocol.AudioFrameHeader, error) {
	if b.header == nil {
		return nil, protocol.AudioFrameHeader{}, ErrEmptyBuffer
	}
	pcm := make([]byte, len(b.pcm))
	copy(pcm, b.pcm)
	return pcm, *b.header, nil
}

// Clear resets the accumulated bytes and drops the format reference.
func (b *UtteranceBuffer) Clear() {
	b.pcm = b.pcm[:0]
	b.header = nil
}

// IsEmpty reports whether no PCM bytes are buffered.
func (b *UtteranceBuffer) IsEmpty() bool {
	return len(b.pcm) == 0
}

// ByteCount returns the number of buffered PCM bytes.
func (b *UtteranceBuffer) ByteCount() int {
	return len(b.pcm)
}
