package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the voice gateway.
type Metrics struct {
	// Frame ingestion
	FramesReceived prometheus.Counter
	FrameErrors    *prometheus.CounterVec
	BufferedBytes  prometheus.Histogram

	// Sessions
	ActiveSessions prometheus.Gauge
	SessionsOpened prometheus.Counter
	SessionsClosed prometheus.Counter

	// Pipeline
	FlushesCompleted prometheus.Counter
	FlushesFailed    prometheus.Counter
	TextInputs       prometheus.Counter
	StageDuration    *prometheus.HistogramVec
	SynthesizedBytes prometheus.Histogram
}

// New creates and registers all gateway metrics on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// prometheus.NewRegistry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_audio_frames_received_total",
			Help: "Total number of binary audio frames received",
		}),
		FrameErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_audio_frame_errors_total",
			Help: "Total number of rejected audio frames",
		}, []string{"reason"}),
		BufferedBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_utterance_bytes",
			Help:    "Size of flushed utterances in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_active_sessions",
			Help: "Current number of connected sessions",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_sessions_opened_total",
			Help: "Total number of sessions opened",
		}),
		SessionsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_sessions_closed_total",
			Help: "Total number of sessions closed",
		}),

		FlushesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_flushes_completed_total",
			Help: "Total number of completed pipeline flushes",
		}),
		FlushesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_flushes_failed_total",
			Help: "Total number of failed pipeline flushes",
		}),
		TextInputs: factory.NewCounter(prometheus.CounterOpts{
			Name: "gateway_text_inputs_total",
			Help: "Total number of text_input turns processed",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		}, []string{"stage"}),
		SynthesizedBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_synthesized_bytes",
			Help:    "Size of synthesized audio replies in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12),
		}),
	}
}

// RecordFrame increments the frames received counter.
func (m *Metrics) RecordFrame() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

// RecordFrameError increments the frame error counter for a reason.
func (m *Metrics) RecordFrameError(reason string) {
	if m == nil {
		return
	}
	m.FrameErrors.WithLabelValues(reason).Inc()
}

// RecordSessionOpened tracks a new session.
func (m *Metrics) RecordSessionOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
	m.ActiveSessions.Inc()
}

// RecordSessionClosed tracks a finished session.
func (m *Metrics) RecordSessionClosed() {
	if m == nil {
		return
	}
	m.SessionsClosed.Inc()
	m.ActiveSessions.Dec()
}

// RecordFlush records a completed flush with its utterance and reply sizes.
func (m *Metrics) RecordFlush(utteranceBytes, replyBytes int) {
	if m == nil {
		return
	}
	m.FlushesCompleted.Inc()
	m.BufferedBytes.Observe(float64(utteranceBytes))
	m.SynthesizedBytes.Observe(float64(replyBytes))
}

// RecordFlushFailure increments the failed flush counter.
func (m *Metrics) RecordFlushFailure() {
	if m == nil {
		return
	}
	m.FlushesFailed.Inc()
}

// RecordTextInput increments the text input counter.
func (m *Metrics) RecordTextInput() {
	if m == nil {
		return
	}
	m.TextInputs.Inc()
}

// RecordStageDuration observes a pipeline stage duration in seconds.
func (m *Metrics) RecordStageDuration(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}
