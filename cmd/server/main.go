package main

import (
	"context"
	"log"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/router"
	"github.com/ferrohaus/dwelling/backend/internal/services"
	"github.com/ferrohaus/dwelling/backend/pkg/config"
	"github.com/ferrohaus/dwelling/backend/pkg/push"
	"github.com/ferrohaus/dwelling/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()

	// Initialize database connections; nil handles mean the fallback
	// stores carry that side until the backend comes back.
	db := config.InitDB(cfg)
	defer db.CloseDB()

	// Device push is optional; the in-process live channel works without it.
	var pushSender services.PushSender
	if cfg.FirebaseCredentialsPath != "" {
		sender, err := push.NewFCMSender(context.Background(), cfg.FirebaseCredentialsPath, logger)
		if err != nil {
			log.Printf("Firebase messaging unavailable, device push disabled: %v\n", err)
		} else {
			pushSender = sender
		}
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	hub := router.SetupRoutes(e, db, cfg, pushSender, logger)
	defer hub.Close()

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
