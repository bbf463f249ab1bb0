package leaderboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/countboard/countboard/internal/httpjson"
	"github.com/countboard/countboard/internal/timegate"
)

// LeaderboardApp defines what the service layer needs from the leaderboard application
type LeaderboardApp interface {
	GetLeaderboard(ctx context.Context, day time.Time) ([]Entry, error)
	GetTrend(ctx context.Context, days int) (*Trend, error)
	GetStats(ctx context.Context) (*Stats, error)
}

// Service exposes the leaderboard HTTP API
type Service struct {
	app  LeaderboardApp
	gate *timegate.Gate
}

// NewService creates a new leaderboard service
func NewService(app LeaderboardApp, gate *timegate.Gate) *Service {
	return &Service{app: app, gate: gate}
}

// RegisterRoutes mounts the authenticated leaderboard endpoint.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
}

// RegisterAdminRoutes mounts the dashboard stats endpoint.
func (s *Service) RegisterAdminRoutes(r *mux.Router) {
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
}

func (s *Service) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	day := s.gate.Today()
	if raw := r.URL.Query().Get("day"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, timegate.IST)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	entries, err := s.app.GetLeaderboard(r.Context(), day)
	if err != nil {
		if errors.Is(err, ErrNotAvailable) {
			httpjson.Write(w, http.StatusBadRequest, map[string]interface{}{
				"message":     "Leaderboard is available after result time",
				"isAvailable": false,
			})
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message":     "Leaderboard",
		"isAvailable": true,
		"leaderboard": entries,
	})
}

func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.app.GetStats(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	trend, err := s.app.GetTrend(r.Context(), TrendDays)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"stats":  stats,
		"charts": trend,
	})
}
