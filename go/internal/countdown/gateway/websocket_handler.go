package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for countdown displays
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	initial           func() *CountdownEvent
}

// NewWebSocketHandler creates a new WebSocket handler. initial, when set,
// supplies the event sent to a client right after it connects.
func NewWebSocketHandler(cm *ConnectionManager, initial func() *CountdownEvent) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		initial:           initial,
	}
}

// HandleCountdownConnection upgrades a display client to a live tick stream
func (h *WebSocketHandler) HandleCountdownConnection(w http.ResponseWriter, r *http.Request) {
	var first *CountdownEvent
	if h.initial != nil {
		first = h.initial()
	}

	// Upgrade writes its own HTTP error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, first); err != nil {
		if errors.Is(err, ErrManagerClosed) {
			log.Debug().Str("remote_addr", r.RemoteAddr).Msg("rejected WebSocket connection during shutdown")
			return
		}
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/countdown", h.HandleCountdownConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
