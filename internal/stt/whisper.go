package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/speakingstone/edge/internal/audio"
	"github.com/speakingstone/edge/internal/protocol"
)

// WhisperClient implements the Client interface against an OpenAI-compatible
// Whisper transcription server (audio/transcriptions with multipart upload).
type WhisperClient struct {
	endpoint   string
	apiKey     string
	model      string
	language   string
	sampleRate int
	httpClient *http.Client
}

// WhisperConfig holds configuration for the Whisper client.
type WhisperConfig struct {
	Endpoint   string // e.g. "http://whisper:8000/v1/audio/transcriptions"
	APIKey     string
	Model      string // e.g. "base"
	Language   string // Optional language hint; empty means auto-detect
	SampleRate int    // Required input rate in Hz; defaults to 16000
	Timeout    time.Duration
	HTTPClient *http.Client // Optional shared client
}

// NewWhisperClient creates a new Whisper transcription client.
func NewWhisperClient(cfg WhisperConfig) (*WhisperClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &WhisperClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		httpClient: httpClient,
	}, nil
}

// SampleRate returns the input rate this client requires.
func (c *WhisperClient) SampleRate() int {
	return c.sampleRate
}

// transcriptionResponse is the JSON body returned by the server.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the PCM bytes as a WAV file and returns the transcript.
// Empty input transcribes to an empty string without touching the network.
func (c *WhisperClient) Transcribe(ctx context.Context, pcm []byte, format protocol.AudioFrameHeader) (string, error) {
	if len(pcm) == 0 {
		return "", nil
	}
	if err := ValidateFormat(format, c.sampleRate, len(pcm)); err != nil {
		return "", err
	}

	wav, err := audio.EncodeWAV(pcm, int(format.SampleRate), int(format.Channels), int(format.BitsPerSample))
	if err != nil {
		return "", fmt.Errorf("encode WAV: %w", err)
	}

	body, contentType, err := c.createMultipartRequest(wav)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}

	return strings.TrimSpace(parsed.Text), nil
}

func (c *WhisperClient) createMultipartRequest(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fileWriter.Write(wav); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := map[string]string{
		"response_format": "json",
	}
	if c.model != "" {
		fields["model"] = c.model
	}
	if c.language != "" {
		fields["language"] = c.language
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}
