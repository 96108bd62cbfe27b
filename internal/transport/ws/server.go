package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vanced-support/signaling-service/internal/domain"
	"github.com/vanced-support/signaling-service/internal/room"

	"github.com/gorilla/websocket"
)

// Server upgrades signaling connections and pumps inbound frames into the
// peer's room until the transport goes away.
type Server struct {
	upgrader websocket.Upgrader
	registry *room.Registry
}

func NewServer(registry *room.Registry) *Server {
	return &Server{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WS endpoint: GET /ws?peerID=...&roomID=...&nickname=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	peerID := strings.TrimSpace(q.Get("peerID"))
	roomID := strings.TrimSpace(q.Get("roomID"))
	nickname := strings.TrimSpace(q.Get("nickname"))
	if peerID == "" || roomID == "" {
		http.Error(w, domain.ErrMissingIdentifier.Error(), http.StatusBadRequest)
		return
	}
	if nickname == "" {
		nickname = peerID
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	rm, err := s.registry.Join(r.Context(), roomID, peerID, nickname, c)
	if err != nil {
		slog.Warn("ws join failed", "room", roomID, "peer", peerID, "err", err)
		_ = c.Close()
		return
	}

	s.readLoop(r.Context(), rm, c, peerID)

	// Normal close, abrupt error and read-loop exit all funnel into the
	// same leave path; the room treats a repeat as a no-op.
	rm.Leave(peerID, c)
	_ = c.Close()
}

func (s *Server) readLoop(ctx context.Context, rm *room.Room, c *wsConn, peerID string) {
	c.conn.SetReadLimit(1 << 20)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			slog.Debug("ws read ended", "room", rm.ID(), "peer", peerID, "err", err)
			return
		}
		if err := rm.HandleFrame(ctx, peerID, data); err != nil {
			return
		}
	}
}
