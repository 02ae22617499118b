package routes

import (
	"CityHealth/aiclient"
	"CityHealth/cache"
	"CityHealth/config"
	"CityHealth/controllers"
	"CityHealth/handlers"
	"CityHealth/middlewares"
	"CityHealth/notifier"
	"CityHealth/pdfgen"
	"CityHealth/repositories"
	"CityHealth/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cache *cache.Cache, config *config.AppConfig, db *gorm.DB, advisor *aiclient.Client, ingest *notifier.Notifier) http.Handler {
	// Set Gin to release mode
	gin.SetMode(gin.ReleaseMode)

	// Create a Gin router
	router := gin.Default()

	// Apply Bearer token validation to all routes
	router.Use(middlewares.ValidateBearerToken(config.GetBearerToken()))

	// Create and apply CORS middleware configuration
	corsConfig := &middlewares.CorsConfig{
		AllowedOrigins:   []string{"http://localhost:3000", "https://cityhealth.example.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	router.Use(middlewares.CorsMiddleware(corsConfig))

	// Apply rate limiter middleware
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: 15, // 15 requests per second
		Burst:             30, // Burst of 30
	}))

	// Apply logging middleware
	router.Use(middlewares.LoggingMiddleware())

	// Initialize repositories, services, and handlers
	patientRepo := repositories.NewPatientRepository(cache)
	allergyRepo := repositories.NewAllergyRepository(cache)
	historyRepo := repositories.NewHistoryRepository(cache)
	prescriptionRepo := repositories.NewPrescriptionRepository(cache)
	userRepo := repositories.NewUserRepository(db, cache)

	renderer := pdfgen.NewRenderer()

	patientService := services.NewPatientService(patientRepo, allergyRepo, historyRepo)
	prescriptionService := services.NewPrescriptionService(patientRepo, prescriptionRepo, prescriptionRepo, renderer, ingest)
	safetyService := services.NewSafetyService(patientService, advisor)
	aiService := services.NewAIService(patientService, advisor, patientRepo, prescriptionRepo)
	userService := services.NewUserService(userRepo)

	patientHandler := handlers.NewPatientHandler(patientService)
	prescriptionHandler := handlers.NewPrescriptionHandler(prescriptionService, userService)
	aiHandler := handlers.NewAIHandler(safetyService, aiService)
	authHandler := handlers.NewAuthHandler(userService)

	// Register routes
	controllers.SetupClinicRoutes(router, patientHandler, prescriptionHandler, aiHandler)

	authController := controllers.NewAuthController(authHandler)
	authController.RegisterRoutes(router)

	controllers.SetupRootRoute(router)

	return router
}
