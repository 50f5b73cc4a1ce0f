package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/skillbridge/skillbridge-api/config"
	"github.com/skillbridge/skillbridge-api/database"
	"github.com/skillbridge/skillbridge-api/handlers"
	auth_handlers "github.com/skillbridge/skillbridge-api/handlers/auth"
	course_handlers "github.com/skillbridge/skillbridge-api/handlers/course"
	enrollment_handlers "github.com/skillbridge/skillbridge-api/handlers/enrollment"
	job_handlers "github.com/skillbridge/skillbridge-api/handlers/job"
	payment_handlers "github.com/skillbridge/skillbridge-api/handlers/payment"
	"github.com/skillbridge/skillbridge-api/services"
	"github.com/skillbridge/skillbridge-api/services/razorpay"
	"github.com/skillbridge/skillbridge-api/services/storage"
	"github.com/skillbridge/skillbridge-api/utils"
	"github.com/skillbridge/skillbridge-api/utils/auth"
	"github.com/skillbridge/skillbridge-api/utils/cache"
	"github.com/skillbridge/skillbridge-api/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, env *config.EnviornmentVariable) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := env.JWT_ISSUER
	if jwtIssuer == "" {
		jwtIssuer = "skillbridge-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize Redis cache for brute force protection and catalog caching
	redisURL := env.REDIS_URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379/0"
	}

	redisCache, err := cache.NewRedisCache(redisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v. Brute force protection and caching will be disabled.", err)
		redisCache = nil
	}

	// Initialize brute force protection
	var bruteForceProtection *middleware.BruteForceProtection
	if redisCache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(redisCache)
	}

	// Initialize auth middleware with DB for blacklist checking
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize auth handler with brute force protection
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	// Spaces client for receipts and resume uploads, optional in development
	var spacesClient *storage.SpacesClient
	if env.SPACES_BUCKET != "" {
		spacesClient, err = storage.NewSpacesClient(storage.SpacesConfig{
			AccessKey: env.SPACES_ACCESS_KEY,
			SecretKey: env.SPACES_SECRET_KEY,
			Bucket:    env.SPACES_BUCKET,
			Region:    env.SPACES_REGION,
			Endpoint:  env.SPACES_ENDPOINT,
			CDNURL:    env.SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Failed to create Spaces client: %v. Uploads will be disabled.", err)
			spacesClient = nil
		}
	}

	// Payment stack: gateway client, lead tracking, reconciliation, notifications
	gateway := razorpay.NewGateway(env.RAZORPAY_KEY_ID, env.RAZORPAY_KEY_SECRET)
	orderService := razorpay.NewService(gateway, env.RAZORPAY_KEY_ID)
	leadService := services.NewLeadService(db)
	receiptService := services.NewReceiptService(spacesClient)
	emailService := services.NewEmailService(env, receiptService)
	paymentService := services.NewPaymentService(db, env.RAZORPAY_KEY_SECRET, leadService, emailService)

	// Handlers
	courseHandler := course_handlers.NewCourseHandler(db, redisCache)
	jobHandler := job_handlers.NewJobHandler(db, spacesClient)
	paymentHandler := payment_handlers.NewPaymentHandler(orderService, paymentService)
	enrollmentHandler := enrollment_handlers.NewEnrollmentHandler(leadService, paymentService)

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
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

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
	authGroup.Post("/change-password", authMiddleware.Required(), authHandler.ChangePassword)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Course catalog routes
	courses := api.Group("/courses")
	courses.Get("/", courseHandler.ListCourses)   // Public: List published courses
	courses.Get("/:slug", courseHandler.GetCourse) // Public: Get course by slug

	// Job board routes
	jobs := api.Group("/jobs")
	jobs.Get("/", jobHandler.ListJobs) // Public: List active jobs
	jobs.Get("/saved", authMiddleware.Required(), jobHandler.SavedJobs)
	jobs.Get("/applications", authMiddleware.Required(), jobHandler.MyApplications)
	jobs.Get("/:id", jobHandler.GetJob) // Public: Get job by ID
	jobs.Post("/:id/save", authMiddleware.Required(), jobHandler.SaveJob)
	jobs.Delete("/:id/save", authMiddleware.Required(), jobHandler.UnsaveJob)
	jobs.Post("/:id/apply", authMiddleware.Required(), jobHandler.Apply)

	// Enrollment routes (protected)
	enrollment := api.Group("/enrollment", authMiddleware.Required())
	enrollment.Post("/save-lead", enrollmentHandler.SaveLead)
	enrollment.Get("/my", enrollmentHandler.MyEnrollments)

	// Payment routes (protected)
	payment := api.Group("/payment", authMiddleware.Required())
	payment.Post("/create-order", paymentHandler.CreateOrder)
	payment.Post("/verify", paymentHandler.VerifyPayment)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Post("/courses", courseHandler.CreateCourse)
	admin.Put("/courses/:id", courseHandler.UpdateCourse)
	admin.Delete("/courses/:id", courseHandler.DeleteCourse)
	admin.Post("/jobs", jobHandler.CreateJob)
	admin.Delete("/jobs/:id", jobHandler.DeactivateJob)
}
