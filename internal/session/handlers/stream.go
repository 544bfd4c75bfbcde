package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/aristath/cycleview/internal/session"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// HandleStream handles GET /api/sessions/{id}/stream (WebSocket).
// The current view is sent on connect and again after every change.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept websocket")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream ended")

	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Clients only listen; CloseRead handles control frames and ends ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	log := h.log.With().Str("session_id", s.ID()).Logger()
	log.Debug().Msg("Stream client connected")

	if err := h.sendView(ctx, conn, s); err != nil {
		log.Debug().Err(err).Msg("Failed to send initial view")
		return
	}

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("Stream client disconnected")
			return

		case _, ok := <-changes:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			if err := h.sendView(ctx, conn, s); err != nil {
				log.Debug().Err(err).Msg("Failed to send view")
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Debug().Err(err).Msg("Stream ping failed")
				return
			}
		}
	}
}

func (h *Handler) sendView(ctx context.Context, conn *websocket.Conn, s *session.Session) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, s.View())
}
