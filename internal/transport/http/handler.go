package http

import (
	"log/slog"
	"net/http"

	"github.com/vanced-support/signaling-service/internal/domain"
	"github.com/vanced-support/signaling-service/internal/room"
	"github.com/vanced-support/signaling-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	registry *room.Registry
}

func NewHandler(registry *room.Registry) *Handler {
	return &Handler{registry: registry}
}

// GET /rooms/{id}/room-info
func (h *Handler) RoomInfo(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	rm, ok := h.registry.Lookup(roomID)
	if !ok {
		httputil.Error(w, http.StatusNotFound, domain.ErrRoomNotFound.Error())
		return
	}

	info, err := rm.Snapshot(r.Context())
	if err != nil {
		// The room emptied between the lookup and the snapshot.
		httputil.Error(w, http.StatusNotFound, domain.ErrRoomNotFound.Error())
		return
	}

	slog.Debug("room info served",
		slog.String("room", roomID),
		slog.Int("participants", info.ParticipantCount))
	httputil.JSON(w, http.StatusOK, info)
}
