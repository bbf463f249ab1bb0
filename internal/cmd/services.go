package main

import (
	"database/sql"

	"github.com/jonboulle/clockwork"

	"github.com/countboard/countboard/internal/counting"
	"github.com/countboard/countboard/internal/events"
	"github.com/countboard/countboard/internal/leaderboard"
	"github.com/countboard/countboard/internal/settings"
	"github.com/countboard/countboard/internal/timegate"
	"github.com/countboard/countboard/internal/users"
)

type Services struct {
	Settings    *settings.Service
	Users       *users.Service
	Counting    *counting.Service
	Leaderboard *leaderboard.Service
}

func setupServices(database *sql.DB, config *Config, publisher events.Publisher) *Services {
	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer → Service layer

	clock := clockwork.NewRealClock()
	gate := timegate.NewGate(clock)

	// Settings
	settingsRepo := settings.NewRepository(database)
	settingsApp := settings.NewApp(settingsRepo, clock, config.settingsCacheTTL())
	settingsService := settings.NewService(settingsApp)

	// Users
	usersRepo := users.NewRepository(database)
	usersApp := users.NewApp(usersRepo)
	usersService := users.NewService(usersApp)

	// Counting
	countingRepo := counting.NewRepository(database)
	countingApp := counting.NewApp(countingRepo, settingsApp, gate, publisher)
	countingService := counting.NewService(countingApp)

	// Leaderboard
	leaderboardApp := leaderboard.NewApp(countingApp, usersApp, settingsApp, gate)
	leaderboardService := leaderboard.NewService(leaderboardApp, gate)

	return &Services{
		Settings:    settingsService,
		Users:       usersService,
		Counting:    countingService,
		Leaderboard: leaderboardService,
	}
}
