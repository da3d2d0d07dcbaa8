package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/speakingstone/edge/internal/audio"
	"github.com/speakingstone/edge/internal/eventlog"
	"github.com/speakingstone/edge/internal/llm"
	"github.com/speakingstone/edge/internal/metrics"
	"github.com/speakingstone/edge/internal/protocol"
	"github.com/speakingstone/edge/internal/store"
	"github.com/speakingstone/edge/internal/stt"
	"github.com/speakingstone/edge/internal/tts"
)

// Sender delivers outbound messages for one connection. The websocket layer
// implements it; tests substitute a recorder.
type Sender interface {
	SendControl(event string, payload any) error
	SendAudio(data []byte) error
}

// Deps carries the collaborators a controller needs. STT and LLM are
// required; TTS falls back to placeholder audio when nil. Metrics, Events
// and Store are optional and nil-safe.
type Deps struct {
	STT     stt.Client
	LLM     llm.Client
	TTS     tts.Client
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Events  *eventlog.Logger
	Store   *store.Store
}

// Controller owns one connection's session state: the utterance buffer, the
// conversation history, and dispatch for inbound frames and control events.
//
// All handler methods run on the connection's single read loop, one message
// at a time. Nothing here needs locking.
type Controller struct {
	id         string
	remoteAddr string
	startedAt  time.Time

	sender  Sender
	buffer  *UtteranceBuffer
	history []llm.Message

	stt     stt.Client
	llm     llm.Client
	tts     tts.Client
	logger  *log.Logger
	metrics *metrics.Metrics
	events  *eventlog.Logger
	store   *store.Store

	timerFactory func() *StageTimer

	framesTotal  int
	flushesTotal int
	turnSeq      int
}

// NewController creates the session state for one connection.
func NewController(id, remoteAddr string, sender Sender, deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		id:           id,
		remoteAddr:   remoteAddr,
		startedAt:    time.Now(),
		sender:       sender,
		buffer:       NewUtteranceBuffer(),
		stt:          deps.STT,
		llm:          deps.LLM,
		tts:          deps.TTS,
		logger:       logger,
		metrics:      deps.Metrics,
		events:       deps.Events,
		store:        deps.Store,
		timerFactory: NewStageTimer,
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Greet announces the session to the client and records it.
func (c *Controller) Greet(ctx context.Context) {
	c.metrics.RecordSessionOpened()
	c.events.LogAsync(c.id, eventlog.EventSessionConnected, map[string]any{"remote_addr": c.remoteAddr})
	if err := c.store.CreateSession(ctx, store.Session{ID: c.id, RemoteAddr: c.remoteAddr, StartedAt: c.startedAt}); err != nil {
		c.logger.Printf("session %s: create session record: %v", c.id, err)
	}
	c.sendControl(protocol.EventConnected, protocol.ConnectedPayload{SessionID: c.id})
}

// Close tears the session down after the connection ends. Buffered audio and
// history are discarded; only the audit record survives.
func (c *Controller) Close(ctx context.Context) {
	c.metrics.RecordSessionClosed()
	c.events.LogAsync(c.id, eventlog.EventSessionDisconnected, map[string]any{
		"frames_total":  c.framesTotal,
		"flushes_total": c.flushesTotal,
	})
	if err := c.store.EndSession(ctx, c.id, time.Now(), c.framesTotal, c.flushesTotal); err != nil {
		c.logger.Printf("session %s: end session record: %v", c.id, err)
	}
}

// HandleBinary processes one inbound audio frame. Protocol violations are
// reported to the client and the session continues; only format drift
// discards the in-progress utterance.
func (c *Controller) HandleBinary(data []byte) {
	header, err := protocol.DecodeHeader(data)
	if err != nil {
		c.metrics.RecordFrameError("incomplete_header")
		c.sendControl(protocol.EventError, protocol.HeaderErrorPayload{
			Detail:        err.Error(),
			ReceivedBytes: len(data),
		})
		return
	}

	payload := data[protocol.HeaderSize:]
	if int(header.PayloadLen) != len(payload) {
		c.metrics.RecordFrameError("length_mismatch")
		c.sendControl(protocol.EventError, protocol.LengthErrorPayload{
			Detail:           "frame payload length does not match header",
			HeaderPayloadLen: int(header.PayloadLen),
			ActualPayloadLen: len(payload),
		})
		return
	}

	if err := c.buffer.AppendFrame(header, payload); err != nil {
		// The utterance so far is unusable once the format drifts; the
		// client has to restart it.
		c.buffer.Clear()
		c.metrics.RecordFrameError("format_changed")
		c.events.LogAsync(c.id, eventlog.EventFrameRejected, map[string]any{
			"sequence": header.Sequence,
			"reason":   err.Error(),
		})
		c.sendControl(protocol.EventError, protocol.FrameRejectedPayload{
			Detail:        err.Error(),
			Sequence:      header.Sequence,
			SampleRate:    header.SampleRate,
			Channels:      header.Channels,
			BitsPerSample: header.BitsPerSample,
		})
		return
	}

	c.framesTotal++
	c.metrics.RecordFrame()
}

// HandleText processes one inbound text message. Anything that does not
// parse as a control envelope is echoed back as an ack rather than treated
// as an error.
func (c *Controller) HandleText(ctx context.Context, raw string) {
	msg, err := protocol.DecodeControl(raw)
	if err != nil || !msg.IsControl() {
		c.sendControl(protocol.EventAck, protocol.AckPayload{Echo: raw})
		return
	}

	switch msg.Event {
	case protocol.EventSpeechEnd:
		c.flushSpeech(ctx)
	case protocol.EventResetBuffer:
		c.buffer.Clear()
		c.events.LogAsync(c.id, eventlog.EventBufferReset, nil)
		c.sendControl(protocol.EventAck, protocol.AckPayload{Event: protocol.EventResetBuffer})
	case protocol.EventTextInput:
		c.handleTextInput(ctx, msg)
	default:
		c.sendControl(protocol.EventAck, protocol.AckPayload{Event: msg.Event})
	}
}

// flushSpeech runs the buffered utterance through the full pipeline.
func (c *Controller) flushSpeech(ctx context.Context) {
	if c.buffer.IsEmpty() {
		c.sendControl(protocol.EventNoop, protocol.NoopPayload{Detail: "no audio buffered"})
		return
	}

	pcm, header, err := c.buffer.Snapshot()
	if err != nil {
		c.sendControl(protocol.EventNoop, protocol.NoopPayload{Detail: "no audio buffered"})
		return
	}

	timer := c.timerFactory()

	transcript, err := c.stt.Transcribe(ctx, pcm, header)
	if err != nil {
		c.logger.Printf("session %s: transcription failed: %v", c.id, err)
		c.metrics.RecordFlushFailure()
		c.events.LogAsync(c.id, eventlog.EventFlushFailed, map[string]any{"error": err.Error()})
		c.sendControl(protocol.EventError, protocol.StageErrorPayload{Detail: err.Error()})
		c.buffer.Clear()
		return
	}
	timer.Mark("stt")

	reply := c.llm.GenerateReply(ctx, transcript, c.history)
	timer.Mark("llm")

	ttsAudio := c.synthesize(ctx, reply)
	timer.Mark("tts")

	c.appendHistory(transcript, reply)

	c.sendControl(protocol.EventTranscriptionReady, protocol.TranscriptionReadyPayload{
		Header:       protocol.NewHeaderInfo(header),
		PayloadBytes: len(pcm),
		Transcript:   transcript,
		Reply:        reply,
	})
	c.sendAudio(ttsAudio)
	c.buffer.Clear()

	c.flushesTotal++
	c.recordTurn(ctx, "speech", transcript, reply, len(pcm), len(ttsAudio), timer)
	c.metrics.RecordFlush(len(pcm), len(ttsAudio))
	c.events.LogAsync(c.id, eventlog.EventFlushCompleted, map[string]any{
		"payload_bytes": len(pcm),
		"duration_ms":   audio.EstimateDurationMS(len(pcm), int(header.SampleRate), int(header.Channels), int(header.BitsPerSample)),
		"timings":       timer.Metrics(),
	})
}

// handleTextInput runs a text-only turn through the reply and synthesis
// stages. Failures here are caught at this boundary so a bad turn never
// kills the session.
func (c *Controller) handleTextInput(ctx context.Context, msg *protocol.ControlMessage) {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			c.logger.Printf("session %s: text_input panicked: %v", c.id, r)
			c.sendControl(protocol.EventError, protocol.DispatchErrorPayload{
				Detail: "text_input_failed",
				Error:  fmt.Sprint(r),
			})
		}
	}()

	payload, err := msg.TextInput()
	if err != nil {
		c.sendControl(protocol.EventError, protocol.DispatchErrorPayload{
			Detail: "text_input_failed",
			Error:  err.Error(),
		})
		return
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		c.sendControl(protocol.EventError, protocol.StageErrorPayload{Detail: "empty text input"})
		return
	}

	timer := c.timerFactory()

	reply := c.llm.GenerateReply(ctx, text, c.history)
	timer.Mark("llm")

	var ttsAudio []byte
	if !payload.SkipTTS {
		ttsAudio = c.synthesize(ctx, reply)
		timer.Mark("tts")
	}

	c.appendHistory(text, reply)

	skipped := payload.SkipTTS
	c.sendControl(protocol.EventTranscriptionReady, protocol.TranscriptionReadyPayload{
		Header:       nil,
		PayloadBytes: 0,
		Transcript:   text,
		Reply:        reply,
		Timings:      timer.Metrics(),
		TTSSkipped:   &skipped,
	})
	if !payload.SkipTTS {
		c.sendAudio(ttsAudio)
	}

	c.recordTurn(ctx, "text", text, reply, 0, len(ttsAudio), timer)
	c.metrics.RecordTextInput()
	c.events.LogAsync(c.id, eventlog.EventTextInputProcessed, map[string]any{
		"tts_skipped": payload.SkipTTS,
		"timings":     timer.Metrics(),
	})
}

// synthesize degrades to placeholder audio when no synthesizer is configured
// or the provider fails, so a flush always produces a spoken reply.
func (c *Controller) synthesize(ctx context.Context, reply string) []byte {
	if c.tts == nil {
		return tts.Placeholder(reply)
	}
	data, err := c.tts.Synthesize(ctx, reply)
	if err != nil {
		c.logger.Printf("session %s: synthesis failed, using placeholder: %v", c.id, err)
		return tts.Placeholder(reply)
	}
	return data
}

func (c *Controller) appendHistory(transcript, reply string) {
	c.history = append(c.history,
		llm.Message{Role: "user", Content: transcript},
		llm.Message{Role: "assistant", Content: reply},
	)
}

func (c *Controller) recordTurn(ctx context.Context, source, transcript, reply string, payloadBytes, replyBytes int, timer *StageTimer) {
	for _, s := range timer.durations() {
		c.metrics.RecordStageDuration(s.name, s.duration.Seconds())
	}

	timings, _ := json.Marshal(timer.Metrics())

	c.turnSeq++
	turn := store.Turn{
		Sequence:     c.turnSeq,
		Source:       source,
		Transcript:   transcript,
		Reply:        reply,
		PayloadBytes: payloadBytes,
		ReplyBytes:   replyBytes,
		TimingsJSON:  timings,
		CreatedAt:    time.Now(),
	}
	if err := c.store.InsertTurn(ctx, c.id, turn); err != nil {
		c.logger.Printf("session %s: insert turn record: %v", c.id, err)
	}
}

func (c *Controller) sendControl(event string, payload any) {
	if err := c.sender.SendControl(event, payload); err != nil {
		c.logger.Printf("session %s: send %s: %v", c.id, event, err)
	}
}

func (c *Controller) sendAudio(data []byte) {
	if err := c.sender.SendAudio(data); err != nil {
		c.logger.Printf("session %s: send audio: %v", c.id, err)
	}
}
