package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/countboard/countboard/internal/httpjson"
	"github.com/countboard/countboard/internal/models"
)

// UsersApp defines what the service layer needs from the users application
type UsersApp interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListUsers(ctx context.Context, search string) ([]models.User, error)
}

// Service exposes the admin user directory HTTP API
type Service struct {
	app UsersApp
}

// NewService creates a new users service
func NewService(app UsersApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the user endpoints on the given admin router.
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/users", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", s.handleGet).Methods(http.MethodGet)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")

	users, err := s.app.ListUsers(r.Context(), search)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{
		"message": "Users retrieved successfully",
		"count":   len(users),
		"users":   users,
	})
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.app.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "User not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"user": user})
}
