package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mcdev12/reindeergames/go/internal/countdown"
	"github.com/rs/zerolog/log"
)

// StateProvider defines what the state handler needs from the countdown clock
type StateProvider interface {
	Target() time.Time
	Interval() time.Duration
	CurrentSnapshot() (countdown.Snapshot, error)
	Latest() (countdown.Snapshot, bool)
}

// CountdownStateResponse represents the current state of the countdown
type CountdownStateResponse struct {
	Target     time.Time          `json:"target"`
	Snapshot   countdown.Snapshot `json:"snapshot"`
	Display    string             `json:"display"` // empty until a snapshot exists
	Live       bool               `json:"live"`
	Stale      bool               `json:"stale"` // wall clock unavailable; snapshot is the last good one
	IntervalMs int64              `json:"interval_ms"`
	ServerTime time.Time          `json:"server_time"`
}

// StateHandler handles HTTP requests for countdown state
type StateHandler struct {
	provider StateProvider
	now      func() time.Time
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider, now func() time.Time) *StateHandler {
	if now == nil {
		now = time.Now
	}
	return &StateHandler{
		provider: provider,
		now:      now,
	}
}

// State builds the current state response.
func (h *StateHandler) State() CountdownStateResponse {
	snap, err := h.provider.CurrentSnapshot()
	display := snap.String()
	if err != nil {
		if _, ok := h.provider.Latest(); !ok {
			display = ""
		}
		log.Warn().Err(err).Msg("serving last known countdown snapshot")
	}
	return CountdownStateResponse{
		Target:     h.provider.Target(),
		Snapshot:   snap,
		Display:    display,
		Live:       err == nil && snap.Live(),
		Stale:      err != nil,
		IntervalMs: h.provider.Interval().Milliseconds(),
		ServerTime: h.now(),
	}
}

// HandleGetState handles GET /api/countdown
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(h.State()); err != nil {
		log.Error().Err(err).Msg("failed to encode countdown state")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/countdown", h.HandleGetState)
}
