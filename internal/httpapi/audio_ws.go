package httpapi

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/speakingstone/edge/internal/protocol"
	"github.com/speakingstone/edge/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsSender delivers the controller's outbound messages over the websocket.
// The mutex serializes writes; gorilla connections allow only one concurrent
// writer.
type wsSender struct {
	conn   *websocket.Conn
	connMu sync.Mutex
}

func (s *wsSender) SendControl(event string, payload any) error {
	text, err := protocol.EncodeControl(event, payload)
	if err != nil {
		return err
	}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func (s *wsSender) SendAudio(data []byte) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *wsSender) close() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	_ = s.conn.Close()
}

// audioSession binds one websocket connection to its controller.
type audioSession struct {
	id       string
	sender   *wsSender
	ctrl     *session.Controller
	registry *SessionRegistry
	logger   *log.Logger
}

func (r *Router) handleAudioWS(w http.ResponseWriter, req *http.Request) {
	if err := r.authorizeWS(req); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}

	sessionID := uuid.New().String()
	if !r.registry.Add(sessionID, req.RemoteAddr) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "server is draining"})
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.registry.Done(sessionID)
		r.logger.Printf("audio_ws: upgrade failed: %v", err)
		captureError(req, err, "audio_ws: upgrade failed")
		return
	}

	sender := &wsSender{conn: conn}
	s := &audioSession{
		id:       sessionID,
		sender:   sender,
		ctrl:     session.NewController(sessionID, req.RemoteAddr, sender, r.deps),
		registry: r.registry,
		logger:   r.logger,
	}

	r.logger.Printf("audio_ws: session %s connected from %s", sessionID, req.RemoteAddr)
	s.run(req.Context())
}

// run is the connection's single read loop. Each message is fully processed
// before the next read, which is what keeps the controller lock-free.
func (s *audioSession) run(ctx context.Context) {
	defer s.cleanup()

	s.ctrl.Greet(ctx)

	for {
		msgType, msg, err := s.sender.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("audio_ws: session %s closed", s.id)
			} else {
				s.logger.Printf("audio_ws: session %s read error: %v", s.id, err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			s.ctrl.HandleBinary(msg)
		case websocket.TextMessage:
			s.ctrl.HandleText(ctx, string(msg))
		}
	}
}

func (s *audioSession) cleanup() {
	s.ctrl.Close(context.Background())
	s.sender.close()
	s.registry.Done(s.id)
	s.logger.Printf("audio_ws: session %s cleaned up", s.id)
}
