package router

import (
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/meshvault/backend/internal/handlers"
	"github.com/meshvault/backend/internal/middleware"
	"github.com/meshvault/backend/internal/repositories"
	"github.com/meshvault/backend/pkg/config"
	"github.com/meshvault/backend/pkg/storage"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestID())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *mongo.Database, cfg *config.Config, log zerolog.Logger) {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	modelRepo := repositories.NewMongoModelRepository(db)
	tutorialRepo := repositories.NewMongoTutorialRepository(db)
	commentRepo := repositories.NewMongoCommentRepository(db)
	ratingRepo := repositories.NewMongoRatingRepository(db)

	store := storage.NewDiskStore(cfg.FileUploadPath)
	auth := middleware.JWTAuth(cfg.JWTSecret, userRepo)

	api := e.Group("/api")

	// Model routes
	modelHandler := handlers.NewModelHandler(modelRepo, commentRepo, ratingRepo, userRepo, store, cfg.MaxFileUpload)
	modelHandler.RegisterModelRoutes(api, auth)
	log.Info().Msg("model routes configured")

	// Tutorial routes
	tutorialHandler := handlers.NewTutorialHandler(tutorialRepo, modelRepo, commentRepo, userRepo, store, cfg.MaxFileUpload)
	tutorialHandler.RegisterTutorialRoutes(api, auth)
	log.Info().Msg("tutorial routes configured")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, modelRepo, userRepo)
	commentHandler.RegisterCommentRoutes(api, auth)
	log.Info().Msg("comment routes configured")

	// Rating routes
	ratingHandler := handlers.NewRatingHandler(ratingRepo, modelRepo, userRepo, log)
	ratingHandler.RegisterRatingRoutes(api, auth)
	log.Info().Msg("rating routes configured")

	// User routes
	userHandler := handlers.NewUserHandler(userRepo, modelRepo, store, cfg.MaxFileUpload)
	userHandler.RegisterUserRoutes(api, auth)
	log.Info().Msg("user routes configured")

	// Chat routes
	chatHandler := handlers.NewChatHandler(cfg.OpenAIAPIKey, log)
	chatHandler.RegisterChatRoutes(api, auth)
	log.Info().Msg("chat routes configured")
}
