package app

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/speakingstone/edge/internal/eventlog"
	"github.com/speakingstone/edge/internal/httpapi"
	"github.com/speakingstone/edge/internal/llm"
	"github.com/speakingstone/edge/internal/metrics"
	"github.com/speakingstone/edge/internal/session"
	"github.com/speakingstone/edge/internal/store"
	"github.com/speakingstone/edge/internal/stt"
	"github.com/speakingstone/edge/internal/tts"
)

type App struct {
	cfg        Config
	logger     *log.Logger
	db         *pgxpool.Pool
	rdb        *redis.Client
	store      *store.Store
	eventLog   *eventlog.Logger
	metrics    *metrics.Metrics
	httpClient *http.Client // Shared HTTP client with connection pooling for the providers

	sttClient stt.Client
	llmClient llm.Client
	ttsClient tts.Client
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	if cfg.WhisperEndpoint == "" {
		return nil, errors.New("WHISPER_ENDPOINT is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Postgres is optional: without it the gateway runs without the audit
	// trail, which is fine for development.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		db, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, err
		}
	} else {
		logger.Printf("app: DATABASE_URL not set, running without persistence")
	}

	// Redis mirrors active-session state for operators; also optional.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Printf("app: invalid REDIS_URL, skipping session mirror: %v", err)
		} else {
			rdb = redis.NewClient(opts)
			if err := rdb.Ping(ctx).Err(); err != nil {
				logger.Printf("app: redis unreachable, skipping session mirror: %v", err)
				_ = rdb.Close()
				rdb = nil
			}
		}
	}

	// Shared HTTP client with connection pooling. Keeps TCP connections
	// alive to reduce latency for repeated provider calls.
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	sttClient, err := stt.NewWhisperClient(stt.WhisperConfig{
		Endpoint:   cfg.WhisperEndpoint,
		APIKey:     cfg.WhisperAPIKey,
		Model:      cfg.WhisperModel,
		Language:   cfg.WhisperLanguage,
		SampleRate: cfg.STTSampleRate,
		HTTPClient: httpClient,
	})
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	systemPrompt, err := llm.LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	llmClient := llm.NewOpenRouterClient(llm.OpenRouterConfig{
		APIKey:       cfg.OpenRouterAPIKey,
		Model:        cfg.OpenRouterModel,
		SystemPrompt: systemPrompt,
		HTTPClient:   httpClient,
		Logger:       logger,
	})

	// Without an ElevenLabs key the controller degrades to placeholder
	// audio, so the pipeline still completes end to end.
	var ttsClient tts.Client
	if cfg.ElevenLabsAPIKey != "" {
		ttsClient = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			VoiceID:    cfg.TTSVoiceID,
			ModelID:    cfg.TTSModelID,
			HTTPClient: httpClient,
		})
	} else {
		logger.Printf("app: ELEVENLABS_API_KEY not set, using placeholder synthesis")
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		rdb:        rdb,
		store:      store.New(db),
		eventLog:   eventlog.New(db),
		metrics:    metrics.New(prometheus.DefaultRegisterer),
		httpClient: httpClient,
		sttClient:  sttClient,
		llmClient:  llmClient,
		ttsClient:  ttsClient,
	}, nil
}

// Redis returns the session-mirror client, or nil when not configured.
func (a *App) Redis() *redis.Client {
	return a.rdb
}

func (a *App) Router(registry *httpapi.SessionRegistry) http.Handler {
	routerCfg := httpapi.RouterConfig{
		JWTSecret: a.cfg.JWTSecret,
	}
	deps := session.Deps{
		STT:     a.sttClient,
		LLM:     a.llmClient,
		TTS:     a.ttsClient,
		Logger:  a.logger,
		Metrics: a.metrics,
		Events:  a.eventLog,
		Store:   a.store,
	}
	return httpapi.NewRouter(routerCfg, a.logger, deps, registry)
}

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
