package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/speakingstone/edge/internal/protocol"
)

func testHeader(overrides func(*protocol.AudioFrameHeader)) protocol.AudioFrameHeader {
	h := protocol.AudioFrameHeader{
		Sequence:      0,
		PayloadLen:    4,
		SampleRate:    16000,
		Channels:      1,
		BitsPerSample: 16,
	}
	if overrides != nil {
		overrides(&h)
	}
	return h
}

func TestUtteranceBufferAppendAndSnapshot(t *testing.T) {
	buf := NewUtteranceBuffer()
	header := testHeader(nil)
	payload := []byte{0x00, 0x01, 0x02, 0x03}

	if err := buf.AppendFrame(header, payload); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}

	data, stored, err := buf.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("snapshot bytes = %v, want %v", data, payload)
	}
	if stored != header {
		t.Errorf("snapshot header = %+v, want %+v", stored, header)
	}
	if buf.IsEmpty() {
		t.Error("IsEmpty() = true after append")
	}
	if buf.ByteCount() != len(payload) {
		t.Errorf("ByteCount() = %d, want %d", buf.ByteCount(), len(payload))
	}
}

func TestUtteranceBufferConcatenatesFrames(t *testing.T) {
	buf := NewUtteranceBuffer()
	first := testHeader(nil)
	second := testHeader(func(h *protocol.AudioFrameHeader) { h.Sequence = 1 })

	if err := buf.AppendFrame(first, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("AppendFrame first: %v", err)
	}
	if err := buf.AppendFrame(second, []byte{5, 6, 7, 8}); err != nil {
		t.Fatalf("AppendFrame second: %v", err)
	}

	data, stored, err := buf.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("snapshot bytes = %v", data)
	}
	// The first header stays the format reference.
	if stored.Sequence != 0 {
		t.Errorf("reference header sequence = %d, want 0", stored.Sequence)
	}
}

func TestUtteranceBufferRejectsPayloadLengthMismatch(t *testing.T) {
	buf := NewUtteranceBuffer()

	err := buf.AppendFrame(testHeader(nil), []byte{1, 2})
	var mismatch *PayloadLengthMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("error = %v, want *PayloadLengthMismatchError", err)
	}
	if mismatch.HeaderLen != 4 || mismatch.ActualLen != 2 {
		t.Errorf("mismatch = (%d, %d), want (4, 2)", mismatch.HeaderLen, mismatch.ActualLen)
	}
	if !buf.IsEmpty() {
		t.Error("buffer mutated by rejected frame")
	}
}

func TestUtteranceBufferRejectsFormatChanges(t *testing.T) {
	changes := []struct {
		field    string
		override func(*protocol.AudioFrameHeader)
	}{
		{"sample rate", func(h *protocol.AudioFrameHeader) { h.SampleRate = 8000 }},
		{"channel count", func(h *protocol.AudioFrameHeader) { h.Channels = 2 }},
		{"bit depth", func(h *protocol.AudioFrameHeader) { h.BitsPerSample = 8 }},
	}

	for _, tc := range changes {
		buf := NewUtteranceBuffer()
		if err := buf.AppendFrame(testHeader(nil), []byte{1, 2, 3, 4}); err != nil {
			t.Fatalf("%s: first AppendFrame: %v", tc.field, err)
		}

		err := buf.AppendFrame(testHeader(tc.override), []byte{5, 6, 7, 8})
		var changed *FormatChangedError
		if !errors.As(err, &changed) {
			t.Fatalf("%s: error = %v, want *FormatChangedError", tc.field, err)
		}
		if changed.Field != tc.field {
			t.Errorf("field = %q, want %q", changed.Field, tc.field)
		}

		// Rejection leaves the buffered bytes untouched.
		data, _, err := buf.Snapshot()
		if err != nil {
			t.Fatalf("%s: Snapshot: %v", tc.field, err)
		}
		if !bytes.Equal(data, []byte{1, 2, 3, 4}) {
			t.Errorf("%s: buffer bytes = %v after rejection", tc.field, data)
		}
	}
}

func TestUtteranceBufferSnapshotWithoutData(t *testing.T) {
	buf := NewUtteranceBuffer()

	if _, _, err := buf.Snapshot(); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Snapshot on fresh buffer = %v, want ErrEmptyBuffer", err)
	}

	if err := buf.AppendFrame(testHeader(nil), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}
	buf.Clear()

	if _, _, err := buf.Snapshot(); !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("Snapshot after Clear = %v, want ErrEmptyBuffer", err)
	}
	if !buf.IsEmpty() || buf.ByteCount() != 0 {
		t.Error("Clear did not reset the buffer")
	}
}

func TestUtteranceBufferSnapshotReturnsCopy(t *testing.T) {
	buf := NewUtteranceBuffer()
	if err := buf.AppendFrame(testHeader(nil), []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("AppendFrame: %v", err)
	}

	data, _, err := buf.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	data[0] = 0xFF

	again, _, err := buf.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if again[0] != 1 {
		t.Error("snapshot aliases the internal buffer")
	}
}
