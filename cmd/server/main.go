package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/meshvault/backend/internal/handlers"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/meshvault/backend/internal/router"
	"github.com/meshvault/backend/pkg/config"
	"github.com/meshvault/backend/pkg/logger"
	"github.com/meshvault/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	// Initialize database connection
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.CloseDB() // Ensure database connection is closed when main exits

	if err := repositories.EnsureIndexes(context.Background(), db.Database); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = handlers.NewHTTPErrorHandler(log)

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Database, cfg, log)

	// Start server
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
