package tts

import (
	"context"
	"fmt"
)

// Client defines the interface for text-to-speech providers.
type Client interface {
	// Synthesize converts text to audio bytes. Empty text synthesizes to
	// empty bytes without an error.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Placeholder returns the stand-in audio bytes used when no synthesizer is
// configured or the provider fails mid-flush.
func Placeholder(text string) []byte {
	if text == "" {
		return []byte{}
	}
	return []byte(fmt.Sprintf("[tts-bytes for '%s']", text))
}

// PlaceholderClient is a Client that always produces placeholder bytes. It
// keeps the pipeline running in environments without a TTS provider.
type PlaceholderClient struct{}

// NewPlaceholderClient creates a placeholder synthesizer.
func NewPlaceholderClient() *PlaceholderClient {
	return &PlaceholderClient{}
}

// Synthesize returns placeholder bytes for the text.
func (c *PlaceholderClient) Synthesize(_ context.Context, text string) ([]byte, error) {
	return Placeholder(text), nil
}
