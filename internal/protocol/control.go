package protocol

import (
	"encoding/json"
	"fmt"
)

// MsgTypeControl is the discriminator for control messages on the text channel.
// Keep this value aligned with the firmware protocol header.
const MsgTypeControl = "MSG_TYPE_CONTROL"

// Inbound control events.
const (
	EventSpeechEnd   = "speech_end"
	EventResetBuffer = "reset_buffer"
	EventTextInput   = "text_input"
)

// Outbound control events.
const (
	EventConnected          = "connected"
	EventAck                = "ack"
	EventError              = "error"
	EventNoop               = "noop"
	EventTranscriptionReady = "transcription_ready"
)

// ControlMessage is the JSON envelope shared by both directions.
type ControlMessage struct {
	Type    string          `json:"type"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// IsControl reports whether the envelope carries the control discriminator.
func (m *ControlMessage) IsControl() bool {
	return m.Type == MsgTypeControl
}

// TextInputPayload is the typed payload of a text_input event.
type TextInputPayload struct {
	Text    string `json:"text"`
	SkipTTS bool   `json:"skipTts"`
}

// TextInput decodes the payload as a text_input request. A missing or null
// payload decodes to the zero value.
func (m *ControlMessage) TextInput() (TextInputPayload, error) {
	var p TextInputPayload
	if len(m.Payload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return TextInputPayload{}, fmt.Errorf("decode text_input payload: %w", err)
	}
	return p, nil
}

// EncodeControl produces the JSON control envelope for an outbound event.
func EncodeControl(event string, payload any) (string, error) {
	raw, err := json.Marshal(struct {
		Type    string `json:"type"`
		Event   string `json:"event"`
		Payload any    `json:"payload"`
	}{Type: MsgTypeControl, Event: event, Payload: payload})
	if err != nil {
		return "", fmt.Errorf("encode control message: %w", err)
	}
	return string(raw), nil
}

// DecodeControl parses an inbound text message into a control envelope.
// The caller is responsible for checking the discriminator via IsControl.
func DecodeControl(raw string) (*ControlMessage, error) {
	var m ControlMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode control message: %w", err)
	}
	return &m, nil
}

// HeaderInfo is the format summary attached to transcription_ready responses.
type HeaderInfo struct {
	SampleRate    uint16 `json:"sampleRate"`
	Channels      uint8  `json:"channels"`
	BitsPerSample uint8  `json:"bitsPerSample"`
	Flags         uint16 `json:"flags"`
}

// NewHeaderInfo extracts the response format summary from a frame header.
func NewHeaderInfo(h AudioFrameHeader) *HeaderInfo {
	return &HeaderInfo{
		SampleRate:    h.SampleRate,
		Channels:      h.Channels,
		BitsPerSample: h.BitsPerSample,
		Flags:         h.Flags,
	}
}

// ConnectedPayload greets a client after the websocket upgrade.
type ConnectedPayload struct {
	SessionID string `json:"sessionId"`
}

// AckPayload acknowledges control traffic that needs no other response.
// Echo carries the raw text of unparseable messages; Event names an
// acknowledged control event.
type AckPayload struct {
	Event string `json:"event,omitempty"`
	Echo  string `json:"echo,omitempty"`
}

// NoopPayload reports that a request required no action.
type NoopPayload struct {
	Detail string `json:"detail,omitempty"`
}

// HeaderErrorPayload reports a frame whose header could not be decoded.
type HeaderErrorPayload struct {
	Detail        string `json:"detail"`
	ReceivedBytes int    `json:"receivedBytes"`
}

// LengthErrorPayload reports a frame whose trailing payload length does not
// match the header's PayloadLen.
type LengthErrorPayload struct {
	Detail           string `json:"detail"`
	HeaderPayloadLen int    `json:"headerPayloadLen"`
	ActualPayloadLen int    `json:"actualPayloadLen"`
}

// FrameRejectedPayload reports a frame the utterance buffer refused.
type FrameRejectedPayload struct {
	Detail        string `json:"detail"`
	Sequence      uint16 `json:"sequence"`
	SampleRate    uint16 `json:"sampleRate"`
	Channels      uint8  `json:"channels"`
	BitsPerSample uint8  `json:"bitsPerSample"`
}

// StageErrorPayload reports a pipeline stage failure during a flush.
type StageErrorPayload struct {
	Detail string `json:"detail"`
}

// DispatchErrorPayload reports an unexpected failure while handling a
// control event.
type DispatchErrorPayload struct {
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

// TranscriptionReadyPayload carries the pipeline result for one turn.
// Header is nil and PayloadBytes zero for text-only turns; Timings and
// TTSSkipped are attached for text-only turns only.
type TranscriptionReadyPayload struct {
	Header       *HeaderInfo        `json:"header"`
	PayloadBytes int                `json:"payloadBytes"`
	Transcript   string             `json:"transcript"`
	Reply        string             `json:"reply"`
	Timings      map[string]float64 `json:"timings,omitempty"`
	TTSSkipped   *bool              `json:"ttsSkipped,omitempty"`
}
