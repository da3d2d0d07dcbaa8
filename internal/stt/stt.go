package stt

import (
	"context"
	"fmt"

	"github.com/speakingstone/edge/internal/protocol"
)

// Client defines the interface for speech-to-text providers.
type Client interface {
	// Transcribe converts buffered PCM audio into text. The format header
	// describes the raw bytes; implementations must reject formats they
	// are not configured for.
	Transcribe(ctx context.Context, pcm []byte, format protocol.AudioFrameHeader) (string, error)
}

// ValidateFormat checks that a frame format is one the recognizer accepts:
// the configured sample rate, mono, 16-bit PCM, with a sample-aligned
// payload length.
func ValidateFormat(format protocol.AudioFrameHeader, requiredRate int, pcmLen int) error {
	if int(format.SampleRate) != requiredRate {
		return fmt.Errorf("recognizer expects %d Hz audio, got %d", requiredRate, format.SampleRate)
	}
	if format.BitsPerSample != 16 {
		return fmt.Errorf("only 16-bit PCM supported, got %d", format.BitsPerSample)
	}
	if format.Channels != 1 {
		return fmt.Errorf("only mono audio supported, got %d channels", format.Channels)
	}
	if pcmLen%2 != 0 {
		return fmt.Errorf("PCM payload size must be aligned to 16-bit samples")
	}
	return nil
}
