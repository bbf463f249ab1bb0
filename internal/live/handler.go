package live

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/auth"
	"github.com/countboard/countboard/internal/httpjson"
)

// Handler upgrades dashboard connections onto the hub.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new live handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes mounts the WebSocket endpoints. The dashboard route sits
// behind the auth middleware so only validated identities may subscribe.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboard", h.handleDashboard)
	r.HandleFunc("/stats", h.handleStats).Methods(http.MethodGet)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	conn, err := h.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	client := &Client{
		userID: userID.String(),
		conn:   conn,
		send:   make(chan []byte, 64),
		hub:    h.hub,
	}
	h.hub.add(client)

	go client.writePump()
	go client.readPump()
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"connected_clients":%d}`, h.hub.ClientCount())
}
