package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/countboard/countboard/internal/models"
)

// ErrUserNotFound is returned when the directory has no user for an ID
var ErrUserNotFound = errors.New("user not found")

// UsersRepository defines what the app layer needs from the repository
type UsersRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
	ListUsers(ctx context.Context, search string) ([]models.User, error)
	RegistrationsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error)
}

// App is the user directory: read-only identity data for the counting and
// leaderboard flows. Account creation and credentials live elsewhere.
type App struct {
	repo UsersRepository
}

// NewApp creates a new users App
func NewApp(repo UsersRepository) *App {
	return &App{repo: repo}
}

// GetUser retrieves a user by ID.
func (a *App) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := a.repo.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUsersByIDs retrieves a batch of users keyed by ID.
func (a *App) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	users, err := a.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	return users, nil
}

// ListUsers retrieves users newest first, optionally filtered by search.
func (a *App) ListUsers(ctx context.Context, search string) ([]models.User, error) {
	users, err := a.repo.ListUsers(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// RegistrationsByDay counts new registrations per day in [from, to].
func (a *App) RegistrationsByDay(ctx context.Context, from, to time.Time) (map[time.Time]int, error) {
	regs, err := a.repo.RegistrationsByDay(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	return regs, nil
}
