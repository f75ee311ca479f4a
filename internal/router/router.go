package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/handlers"
	"github.com/ferrohaus/dwelling/backend/internal/middleware"
	"github.com/ferrohaus/dwelling/backend/internal/models"
	"github.com/ferrohaus/dwelling/backend/internal/realtime"
	"github.com/ferrohaus/dwelling/backend/internal/repositories"
	"github.com/ferrohaus/dwelling/backend/internal/services"
	"github.com/ferrohaus/dwelling/backend/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies.
// db handles may be nil; the services then serve from their in-memory
// fallback stores alone.
func SetupRoutes(e *echo.Echo, db *config.DB, cfg *config.Config, push services.PushSender, logger zerolog.Logger) *realtime.Hub {
	// AutoMigrate PostgreSQL models when the durable store is reachable
	if db.Postgres != nil {
		if err := db.Postgres.AutoMigrate(
			&models.User{},
			&models.Notification{},
		); err != nil {
			log.Printf("Auto migration failed, continuing on the fallback store: %v\n", err)
			db.Postgres = nil
		} else {
			log.Println("PostgreSQL auto-migrations completed.")
		}
	}

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Durable adapters (nil when the store is unreachable) ---
	var notificationRepo repositories.NotificationRepository
	if db.Postgres != nil {
		notificationRepo = repositories.NewPostgresNotificationRepository(db.Postgres)
	}
	var messageRepo repositories.MessageRepository
	if db.Mongo != nil {
		messageRepo = repositories.NewMongoMessageRepository(db.Mongo.Database(cfg.MongoDatabase))
	}

	// --- Fallback ephemeral stores: one per process, service-owned ---
	notificationFallback := repositories.NewMemoryNotificationRepository()
	messageFallback := repositories.NewMemoryMessageRepository()

	// --- Live channel + services ---
	hub := realtime.NewHub(logger)
	notificationService := services.NewNotificationService(notificationRepo, notificationFallback, hub, push, logger)
	messageService := services.NewMessageService(messageRepo, messageFallback, notificationService, logger)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	notificationHandler := handlers.NewNotificationHandler(notificationService, hub, logger)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	messageHandler := handlers.NewMessageHandler(messageService)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	log.Println("All routes configured.")
	return hub
}
