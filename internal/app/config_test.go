package app

import (
	"os"
	"testing"
)

func TestGetenv(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		defValue string
		want     string
	}{
		{
			name:     "env set",
			envKey:   "TEST_ENV_VAR",
			envValue: "custom_value",
			defValue: "default",
			want:     "custom_value",
		},
		{
			name:     "env not set",
			envKey:   "TEST_ENV_VAR_NOTSET",
			envValue: "",
			defValue: "default",
			want:     "default",
		},
		{
			name:     "empty default",
			envKey:   "TEST_ENV_VAR_EMPTY",
			envValue: "",
			defValue: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.envKey, tt.envValue)
				defer os.Unsetenv(tt.envKey)
			}

			got := getenv(tt.envKey, tt.defValue)
			if got != tt.want {
				t.Errorf("getenv(%q, %q) = %q, want %q", tt.envKey, tt.defValue, got, tt.want)
			}
		})
	}
}

func TestGetenvIntClamped(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		def      int
		min      int
		max      int
		want     int
	}{
		{
			name:     "value within range",
			envKey:   "TEST_INT_NORMAL",
			envValue: "24000",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     24000,
		},
		{
			name:     "value below min - clamp to min",
			envKey:   "TEST_INT_LOW",
			envValue: "100",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     8000,
		},
		{
			name:     "value above max - clamp to max",
			envKey:   "TEST_INT_HIGH",
			envValue: "96000",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     48000,
		},
		{
			name:     "env not set - use default",
			envKey:   "TEST_INT_NOTSET",
			envValue: "",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     16000,
		},
		{
			name:     "invalid value - use default",
			envKey:   "TEST_INT_INVALID",
			envValue: "not_a_number",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     16000,
		},
		{
			name:     "boundary: exactly min",
			envKey:   "TEST_INT_MIN",
			envValue: "8000",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     8000,
		},
		{
			name:     "boundary: exactly max",
			envKey:   "TEST_INT_MAX",
			envValue: "48000",
			def:      16000,
			min:      8000,
			max:      48000,
			want:     48000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv(tt.envKey, tt.envValue)
				defer os.Unsetenv(tt.envKey)
			}

			got := getenvIntClamped(tt.envKey, tt.def, tt.min, tt.max)
			if got != tt.want {
				t.Errorf("getenvIntClamped(%q, %d, %d, %d) = %d, want %d",
					tt.envKey, tt.def, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	// Clear any existing env vars that might interfere
	keysToClean := []string{
		"HTTP_ADDR", "DATABASE_URL", "REDIS_URL", "LOG_LEVEL",
		"WHISPER_ENDPOINT", "WHISPER_MODEL", "STT_SAMPLE_RATE",
	}
	for _, key := range keysToClean {
		os.Unsetenv(key)
	}

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}

	if cfg.WhisperModel != "base" {
		t.Errorf("WhisperModel = %q, want %q", cfg.WhisperModel, "base")
	}

	if cfg.STTSampleRate != 16000 {
		t.Errorf("STTSampleRate = %d, want %d", cfg.STTSampleRate, 16000)
	}
}

func TestLoadConfigFromEnvCustomValues(t *testing.T) {
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("WHISPER_ENDPOINT", "http://whisper:8000/v1/audio/transcriptions")
	os.Setenv("STT_SAMPLE_RATE", "24000")
	os.Setenv("TTS_VOICE_ID", "voice-42")

	defer func() {
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("WHISPER_ENDPOINT")
		os.Unsetenv("STT_SAMPLE_RATE")
		os.Unsetenv("TTS_VOICE_ID")
	}()

	cfg := LoadConfigFromEnv()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}

	if cfg.WhisperEndpoint != "http://whisper:8000/v1/audio/transcriptions" {
		t.Errorf("WhisperEndpoint = %q", cfg.WhisperEndpoint)
	}

	if cfg.STTSampleRate != 24000 {
		t.Errorf("STTSampleRate = %d, want 24000", cfg.STTSampleRate)
	}

	if cfg.TTSVoiceID != "voice-42" {
		t.Errorf("TTSVoiceID = %q, want voice-42", cfg.TTSVoiceID)
	}
}
