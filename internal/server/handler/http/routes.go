// Package http provides HTTP routing for the quiz server: the websocket
// endpoint and the liveness probe.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/imorozov/wordquiz/internal/middleware"
	"github.com/imorozov/wordquiz/internal/server/handler/ws"
)

// NewRouter constructs and returns the HTTP handler serving the quiz
// server. It applies request logging and mounts:
//
//	GET /ws       → websocket gateway
//	GET /healthz  → liveness probe
func NewRouter(gateway *ws.Gateway, logger *zap.Logger, storeAvailable bool) http.Handler {
	r := chi.NewRouter()

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/ws", gateway.HandleConnection)
	r.Get("/healthz", healthHandler(gateway, storeAvailable))

	return r
}

// healthHandler reports liveness plus whether the server runs degraded
// (store unreachable at startup, empty cache).
func healthHandler(gateway *ws.Gateway, storeAvailable bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":      "ok",
			"store":       storeAvailable,
			"connections": gateway.LiveConnections(),
		})
	}
}
