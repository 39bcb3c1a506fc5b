package site

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves read-only site content as JSON
type Handler struct {
	content *Content
}

// NewHandler creates a new content handler
func NewHandler(content *Content) *Handler {
	return &Handler{content: content}
}

// RegisterRoutes registers content routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/site", h.get(func(*http.Request) interface{} { return h.content }))
	mux.HandleFunc("/api/site/teams", h.get(h.teams))
	mux.HandleFunc("/api/site/schedule", h.get(func(*http.Request) interface{} { return h.content.Schedule }))
	mux.HandleFunc("/api/site/tickets", h.get(h.tickets))
	mux.HandleFunc("/api/site/venue", h.get(func(*http.Request) interface{} { return h.content.Venue }))
}

// teams supports ?division=10U
func (h *Handler) teams(r *http.Request) interface{} {
	if division := r.URL.Query().Get("division"); division != "" {
		teams := h.content.TeamsInDivision(division)
		if teams == nil {
			teams = []Team{}
		}
		return teams
	}
	return h.content.Teams
}

type ticketView struct {
	Ticket
	Price string `json:"price"`
}

func (h *Handler) tickets(*http.Request) interface{} {
	views := make([]ticketView, 0, len(h.content.Tickets))
	for _, t := range h.content.Tickets {
		views = append(views, ticketView{Ticket: t, Price: t.Price()})
	}
	return views
}

func (h *Handler) get(body func(*http.Request) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body(r)); err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to encode site content")
		}
	}
}
