package counting

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/countboard/countboard/internal/auth"
	"github.com/countboard/countboard/internal/httpjson"
)

// CountingApp defines what the service layer needs from the counting application
type CountingApp interface {
	Increment(ctx context.Context, userID uuid.UUID) (int, error)
	Sync(ctx context.Context, userID uuid.UUID, value int) (int, error)
	ToggleActive(ctx context.Context, userID uuid.UUID) (bool, error)
	EnsureToday(ctx context.Context, userID uuid.UUID) (*CounterStatus, error)
	History(ctx context.Context, userID uuid.UUID) (*UserHistory, error)
}

// Service exposes the counting HTTP API
type Service struct {
	app CountingApp
}

// NewService creates a new counting service
func NewService(app CountingApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the authenticated counting endpoints.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/counts/increment", s.handleIncrement).Methods(http.MethodPost)
	r.HandleFunc("/counts/today", s.handleToday).Methods(http.MethodGet)
	r.HandleFunc("/counts/toggle", s.handleToggle).Methods(http.MethodPost)
	r.HandleFunc("/counts/sync", s.handleSync).Methods(http.MethodPost)
}

// RegisterAdminRoutes mounts the admin history endpoint.
func (s *Service) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/users/{id}/counts", s.handleUserHistory).Methods(http.MethodGet)
}

func (s *Service) handleIncrement(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	count, err := s.app.Increment(r.Context(), userID)
	if err != nil {
		writeCountingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message": "Count incremented",
		"count":   count,
	})
}

func (s *Service) handleToday(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	status, err := s.app.EnsureToday(r.Context(), userID)
	if err != nil {
		writeCountingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, status)
}

func (s *Service) handleToggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	isActive, err := s.app.ToggleActive(r.Context(), userID)
	if err != nil {
		writeCountingError(w, err)
		return
	}
	message := "Counting paused"
	if isActive {
		message = "Counting resumed"
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message":  message,
		"isActive": isActive,
	})
}

func (s *Service) handleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpjson.WriteError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req struct {
		Count *int `json:"count"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Count == nil {
		httpjson.WriteError(w, http.StatusBadRequest, "count is required")
		return
	}
	if *req.Count < 0 {
		httpjson.WriteError(w, http.StatusBadRequest, "count must be non-negative")
		return
	}

	count, err := s.app.Sync(r.Context(), userID, *req.Count)
	if err != nil {
		writeCountingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message": "Count synced successfully",
		"count":   count,
	})
}

func (s *Service) handleUserHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	history, err := s.app.History(r.Context(), userID)
	if err != nil {
		writeCountingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, history)
}

func writeCountingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCountingClosed):
		httpjson.WriteError(w, http.StatusBadRequest, "Counting is closed for today (after result time)")
	case errors.Is(err, ErrCountingPaused):
		httpjson.WriteError(w, http.StatusBadRequest, "Counting is paused")
	default:
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
