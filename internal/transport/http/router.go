package http

import (
	"net/http"

	"github.com/vanced-support/signaling-service/internal/banlist"
	"github.com/vanced-support/signaling-service/internal/transport/ws"
	"github.com/vanced-support/signaling-service/pkg/httputil"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, wsServer *ws.Server, bans *banlist.Checker) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	// WS endpoint; ban check runs before the upgrade
	r.Group(func(pr chi.Router) {
		pr.Use(bans.Middleware)
		pr.Get("/ws", wsServer.HandleWS)
	})

	r.Get("/rooms/{id}/room-info", h.RoomInfo)

	r.Handle("/metrics", promhttp.Handler())

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.Error(w, http.StatusNotFound, "not found")
	})

	return r
}
