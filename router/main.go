package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kunalverma/coursedeck/database"
	"github.com/kunalverma/coursedeck/handlers"
	auth_handlers "github.com/kunalverma/coursedeck/handlers/auth"
	course_handlers "github.com/kunalverma/coursedeck/handlers/course"
	enrollment_handlers "github.com/kunalverma/coursedeck/handlers/enrollment"
	"github.com/kunalverma/coursedeck/services"
	"github.com/kunalverma/coursedeck/utils/auth"
	"github.com/kunalverma/coursedeck/utils/cache"
	"github.com/kunalverma/coursedeck/utils/middleware"
)

func SetupRoutes(app *fiber.App, store database.Storage) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "coursedeck-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	db := store.GetDB()

	// Initialize Redis cache for brute force protection
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection will be disabled.", err)
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	catalogService := services.NewCatalogService(db)
	courseHandler := course_handlers.NewCourseHandler(db, catalogService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return handlers.HandleCheckHealth(c, store)
	})

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)

	// Protected auth routes
	authGroup.Post("/logout", authMiddleware.Required(), authHandler.Logout)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Courses routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)                                       // Public: List/search courses
	courses.Get("/:id", courseHandler.GetCourse)                                      // Public: Get course with curriculum
	courses.Post("/", authMiddleware.RequireAdmin(), courseHandler.CreateCourse)      // Admin only: Create course
	courses.Put("/:id", authMiddleware.RequireAdmin(), courseHandler.UpdateCourse)    // Admin only: Update course
	courses.Delete("/:id", authMiddleware.RequireAdmin(), courseHandler.DeleteCourse) // Admin only: Delete course

	// Enrollment routes (all protected)
	enrollments := api.Group("/enrollments", authMiddleware.Required())
	enrollments.Get("/", enrollmentHandler.ListEnrollments)
	enrollments.Post("/", enrollmentHandler.CreateEnrollment)
	enrollments.Delete("/:course_id", enrollmentHandler.DeleteEnrollment)
	enrollments.Post("/:course_id/modules/:item_id/complete", enrollmentHandler.CompleteModule)
	enrollments.Post("/:course_id/rating", enrollmentHandler.RateCourse)
}
