package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kratovich/reviewdb/internal/config"
	"github.com/kratovich/reviewdb/internal/database"
	"github.com/kratovich/reviewdb/internal/handler"
	"github.com/kratovich/reviewdb/internal/mailer"
	"github.com/kratovich/reviewdb/internal/middleware"
	"github.com/kratovich/reviewdb/internal/repository"
	"github.com/kratovich/reviewdb/internal/service"
	"github.com/kratovich/reviewdb/pkg/logger"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	if err := logger.Init(!cfg.IsProduction()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Rate limiting for the auth endpoints; optional in development
	var authLimiter gin.HandlerFunc
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		limiter := middleware.NewRateLimiter(redis.NewClient(opts), middleware.RateLimiterConfig{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			BlockTime:   cfg.RateLimitBlockTime,
		})
		authLimiter = limiter.Middleware()
	} else {
		log.Println("REDIS_URL not set, auth rate limiting disabled")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)
	genreRepo := repository.NewGenreRepository(database.DB)
	titleRepo := repository.NewTitleRepository(database.DB)
	reviewRepo := repository.NewReviewRepository(database.DB)
	commentRepo := repository.NewCommentRepository(database.DB)

	// Initialize services
	authService := service.NewAuthService(userRepo, mailer.New(cfg), cfg.JWTSecret, cfg.JWTExpiry)
	userService := service.NewUserService(userRepo)
	catalogService := service.NewCatalogService(categoryRepo, genreRepo, titleRepo)
	reviewService := service.NewReviewService(titleRepo, reviewRepo, commentRepo)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	router.Use(cors.Default())

	handler.RegisterRoutes(router, handler.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(userService),
		Catalog: handler.NewCatalogHandler(catalogService),
		Review:  handler.NewReviewHandler(reviewService),
	}, cfg.JWTSecret, authLimiter)

	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
