package transport

import (
	"context"
	"net/http"
	"time"

	"ryven-shop/internal/gateway"
	"ryven-shop/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const probeTimeout = 3 * time.Second

// StatusHandler reports liveness and store connectivity
type StatusHandler struct {
	prober gateway.Prober
	logger *zap.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(prober gateway.Prober, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{prober: prober, logger: logger}
}

// RegisterRoutes registers /health and /api/status
func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/api/status", h.Status)
}

// Health answers as long as the process is serving
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status pings the store; an unreachable store is reported, not failed
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	connected := true
	if err := h.prober.Ping(ctx); err != nil {
		h.logger.Warn("Store unreachable", zap.Error(err))
		connected = false
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"connected": connected})
}
