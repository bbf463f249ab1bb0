package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/auth"
	"github.com/countboard/countboard/internal/live"
)

func setupServer(config *Config, services *Services, liveHandler *live.Handler) *http.Server {
	router := mux.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	// Register services
	registerRoutes(router, services, liveHandler)

	// Add health check endpoint
	setupHealthCheck(router)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", getEnv("PORT", config.Server.Port)),
		Handler: c.Handler(router),
	}
}

func registerRoutes(router *mux.Router, services *Services, liveHandler *live.Handler) {
	// Authenticated API surface
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware)
	services.Counting.RegisterRoutes(api)
	services.Leaderboard.RegisterRoutes(api)

	// Admin surface, super admins only
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(auth.AdminOnly)
	services.Settings.RegisterRoutes(admin)
	services.Users.RegisterRoutes(admin)
	services.Counting.RegisterAdminRoutes(admin)
	services.Leaderboard.RegisterAdminRoutes(admin)

	// Live dashboard stream
	ws := router.PathPrefix("/ws").Subrouter()
	ws.Use(auth.Middleware)
	liveHandler.RegisterRoutes(ws)
}

func setupHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
