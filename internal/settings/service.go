package settings

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/countboard/countboard/internal/auth"
	"github.com/countboard/countboard/internal/httpjson"
	"github.com/countboard/countboard/internal/models"
)

// SettingsApp defines what the service layer needs from the settings application
type SettingsApp interface {
	ListSettings(ctx context.Context) ([]models.Setting, error)
	UpdateSetting(ctx context.Context, req UpsertSettingRequest) (*models.Setting, error)
	UpdateSettings(ctx context.Context, reqs []UpsertSettingRequest) error
}

// Service exposes the admin settings HTTP API
type Service struct {
	app SettingsApp
}

// NewService creates a new settings service
func NewService(app SettingsApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the settings endpoints on the given admin router.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/settings", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/settings", s.handleUpdate).Methods(http.MethodPut)
	r.HandleFunc("/settings/bulk", s.handleBulkUpdate).Methods(http.MethodPost)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.ListSettings(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Keyed map mirrors the original settings payload shape.
	byKey := make(map[string]json.RawMessage, len(list))
	for _, setting := range list {
		byKey[setting.Key] = setting.Value
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message":  "Settings retrieved successfully",
		"settings": byKey,
		"entries":  list,
	})
}

func (s *Service) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpsertSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Key == "" || len(req.Value) == 0 {
		httpjson.WriteError(w, http.StatusBadRequest, "Setting key and value are required")
		return
	}
	if adminID, ok := auth.UserIDFromContext(r.Context()); ok {
		req.UpdatedBy = &adminID
	}

	setting, err := s.app.UpdateSetting(r.Context(), req)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message": "Setting updated successfully",
		"setting": setting,
	})
}

func (s *Service) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Settings []UpsertSettingRequest `json:"settings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Settings) == 0 {
		httpjson.WriteError(w, http.StatusBadRequest, "no settings to update")
		return
	}
	if adminID, ok := auth.UserIDFromContext(r.Context()); ok {
		for i := range req.Settings {
			req.Settings[i].UpdatedBy = &adminID
		}
	}

	if err := s.app.UpdateSettings(r.Context(), req.Settings); err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message": "Settings updated successfully",
		"updated": len(req.Settings),
	})
}
