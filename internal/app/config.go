package app

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	RedisURL    string
	SentryDSN   string
	LogLevel    string

	// Speech recognition (Whisper-compatible server)
	WhisperEndpoint string
	WhisperAPIKey   string
	WhisperModel    string
	WhisperLanguage string
	STTSampleRate   int // Hz the recognizer is configured for

	// Reply generation
	OpenRouterAPIKey string
	OpenRouterModel  string
	SystemPromptPath string

	// Speech synthesis
	ElevenLabsAPIKey string
	TTSVoiceID       string // ElevenLabs voice ID
	TTSModelID       string

	// Socket authentication
	JWTSecret string
}

func LoadConfigFromEnv() Config {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		RedisURL:    getenv("REDIS_URL", ""),
		SentryDSN:   getenv("SENTRY_DSN", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		// Speech recognition
		WhisperEndpoint: getenv("WHISPER_ENDPOINT", ""),
		WhisperAPIKey:   getenv("WHISPER_API_KEY", ""),
		WhisperModel:    getenv("WHISPER_MODEL", "base"),
		WhisperLanguage: getenv("WHISPER_LANGUAGE", ""),
		STTSampleRate:   getenvIntClamped("STT_SAMPLE_RATE", 16000, 8000, 48000),

		// Reply generation
		OpenRouterAPIKey: getenv("OPENROUTER_API_KEY", ""),
		OpenRouterModel:  getenv("OPENROUTER_MODEL", ""),
		SystemPromptPath: getenv("SYSTEM_PROMPT_PATH", ""),

		// Speech synthesis
		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),
		TTSVoiceID:       getenv("TTS_VOICE_ID", ""),
		TTSModelID:       getenv("TTS_MODEL_ID", ""),

		// Socket authentication
		JWTSecret: os.Getenv("JWT_SECRET"), // No fallback; empty disables auth
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntClamped(k string, def, min, max int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
