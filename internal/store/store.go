package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists sessions and conversation turns. A nil *Store (or one
// created with a nil pool) is a no-op, so persistence stays optional.
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Session represents one WebSocket connection's lifetime.
type Session struct {
	ID           string     `json:"id"`
	RemoteAddr   string     `json:"remote_addr"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	FramesTotal  int        `json:"frames_total"`
	FlushesTotal int        `json:"flushes_total"`
}

// Turn represents one completed pipeline round trip.
type Turn struct {
	Sequence     int             `json:"sequence"`
	Source       string          `json:"source"` // "speech" or "text"
	Transcript   string          `json:"transcript"`
	Reply        string          `json:"reply"`
	PayloadBytes int             `json:"payload_bytes"`
	ReplyBytes   int             `json:"reply_bytes"`
	TimingsJSON  json.RawMessage `json:"timings_json,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (s *Store) enabled() bool {
	return s != nil && s.db != nil
}

// CreateSession records a newly opened session.
func (s *Store) CreateSession(ctx context.Context, sess Session) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO sessions (id, remote_addr, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, sess.ID, sess.RemoteAddr, sess.StartedAt)
	return err
}

// EndSession marks a session closed and records its totals.
func (s *Store) EndSession(ctx context.Context, sessionID string, endedAt time.Time, framesTotal, flushesTotal int) error {
	if !s.enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE sessions
		SET ended_at = $1,
		    frames_total = $2,
		    flushes_total = $3
		WHERE id = $4
	`, endedAt, framesTotal, flushesTotal, sessionID)
	return err
}

// InsertTurn records one transcript/reply round trip for a session.
func (s *Store) InsertTurn(ctx context.Context, sessionID string, t Turn) error {
	if !s.enabled() {
		return nil
	}
	timings := t.TimingsJSON
	if timings == nil {
		timings = json.RawMessage("{}")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_turns (id, session_id, sequence, source, transcript, reply, payload_bytes, reply_bytes, timings_json, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, sessionID, t.Sequence, t.Source, t.Transcript, t.Reply, t.PayloadBytes, t.ReplyBytes, timings, t.CreatedAt)
	return err
}
