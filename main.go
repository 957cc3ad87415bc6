package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cleaning-service-server/config"
	"cleaning-service-server/database"
	"cleaning-service-server/jobs"
	"cleaning-service-server/middleware"
	"cleaning-service-server/queue"
	"cleaning-service-server/routes"
	"cleaning-service-server/services"
	ws "cleaning-service-server/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	config.Load()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Seed the catalog on demand
	if os.Getenv("SEED_CATALOG") == "true" {
		seedCatalog()
	}

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Disable automatic redirects for trailing slashes
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	// Security headers (must be first)
	router.Use(middleware.SecurityHeadersMiddleware())

	// Input validation
	router.Use(middleware.InputValidationMiddleware())

	// Rate limiting
	router.Use(middleware.RateLimitMiddleware())
	middleware.StartRateLimiterJanitor()

	// CORS: the booking flow runs on a browser and carries the guest
	// session cookie, so credentials must be allowed.
	corsConfig := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = splitOrigins(origins)
	}
	router.Use(cors.New(corsConfig))

	// Audit logging
	router.Use(middleware.AuditLogMiddleware())

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Cleaning Service Server is running",
			"time":    time.Now().UTC(),
		})
	})

	// WebSocket hub for the cleaner job feed
	hub := ws.NewHub()
	go hub.Run()

	// Notifications publisher. AMQP is optional: without a broker the
	// publisher is nil and lifecycle events are simply not published.
	var publisher *queue.Publisher
	if config.AppConfig.AMQP.Enabled {
		var err error
		publisher, err = queue.NewPublisher(config.AppConfig.AMQP.URL)
		if err != nil {
			log.Printf("⚠️ AMQP unavailable, booking notifications disabled: %v", err)
		} else {
			defer publisher.Close()
		}
	}

	routes.Init(services.NewPaymentGateway(), publisher, hub)

	// API routes
	api := router.Group("/api/v1")
	{
		// Auth routes with strict rate limiting
		authRoutes := api.Group("/auth")
		authRoutes.Use(middleware.AuthRateLimitMiddleware())
		routes.RegisterAuthRoutes(authRoutes)

		// Public catalog
		routes.RegisterCatalogRoutes(api)

		// Booking flow (guest or authenticated) and payments
		routes.RegisterBookingRoutes(api)
		routes.RegisterPaymentRoutes(api)

		// Cleaner portal
		routes.RegisterCleanerRoutes(api)
		routes.RegisterCleanerMediaRoutes(api)

		// Back office
		routes.RegisterAdminRoutes(api)
	}

	// Background jobs
	cleanupJob := jobs.NewDraftCleanupJob()
	cleanupJob.Start()
	defer cleanupJob.Stop()

	if config.AppConfig.AMQP.Enabled {
		emailWorker, err := jobs.NewEmailWorker(config.AppConfig.AMQP.URL)
		if err != nil {
			log.Printf("⚠️ Email worker unavailable: %v", err)
		} else if err := emailWorker.Start(); err != nil {
			log.Printf("⚠️ Email worker failed to start: %v", err)
		} else {
			defer emailWorker.Stop()
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func splitOrigins(origins string) []string {
	var out []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}
