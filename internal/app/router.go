package app

import (
	"log"
	"time"

	"umamii/internal/config"
	"umamii/internal/middleware"
	"umamii/internal/model"
	"umamii/internal/repository"
	"umamii/internal/service"
	"umamii/internal/util"
	"umamii/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	// Set Gin mode
	if cfg.ServerPort == "5000" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware(cfg.ClientURL))

	// Rate limiting middleware (if enabled)
	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		r.Use(rateLimiter.Middleware())
		log.Printf("Rate limiting enabled: %d req/sec, burst: %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		panic("Failed to connect to database: " + err.Error())
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Friendship{},
		&model.Restaurant{},
		&model.Recommendation{},
		&model.RecommendationUpvote{},
		&model.Notification{},
	); err != nil {
		panic("Failed to migrate database: " + err.Error())
	}

	// GORM cannot express a uniqueness constraint over the unordered
	// (requester, recipient) pair, so it is created with raw SQL after
	// migration. This is what makes concurrent duplicate sends safe.
	ensureFriendshipPairIndex(db)

	// Initialize Redis with retry logic
	redisClient := initRedisWithRetry(cfg)

	// Initialize RabbitMQ with retry logic
	rabbitMQ := initRabbitMQWithRetry(cfg)

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("WebSocket hub started")

	// Initialize Cloudinary client
	var cloudinaryClient *util.CloudinaryClient
	if cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		cloudinaryClient, err = util.NewCloudinaryClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Cloudinary: %v. Image uploads will be disabled.", err)
		} else {
			log.Println("Cloudinary initialized successfully")
		}
	} else {
		log.Println("Cloudinary credentials not configured. Image uploads will be disabled.")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db, redisClient)
	friendshipRepo := repository.NewFriendshipRepository(db, redisClient)
	restaurantRepo := repository.NewRestaurantRepository(db, redisClient)
	recommendationRepo := repository.NewRecommendationRepository(db, redisClient)
	notificationRepo := repository.NewNotificationRepository(db, redisClient)

	// Initialize services
	emailService := service.NewEmailService(rabbitMQ)
	authService := service.NewAuthService(userRepo, emailService, cfg)
	profileService := service.NewProfileService(profileRepo, cloudinaryClient)
	notificationService := service.NewNotificationService(notificationRepo, rabbitMQ)
	friendshipService := service.NewFriendshipService(friendshipRepo, profileRepo, notificationService)
	restaurantService := service.NewRestaurantService(restaurantRepo)
	recommendationService := service.NewRecommendationService(
		recommendationRepo, restaurantRepo, profileRepo, friendshipRepo, notificationService, cloudinaryClient)

	// Start workers if RabbitMQ is available
	if rabbitMQ != nil {
		emailWorker := service.NewEmailWorker(rabbitMQ, cfg)
		go emailWorker.Start()

		notificationWorker := service.NewNotificationWorker(rabbitMQ, wsHub)
		go notificationWorker.Start()
	} else {
		log.Println("Workers not started - RabbitMQ connection failed. Emails and push notifications are disabled.")
	}

	// Initialize handlers
	authHandler := NewAuthHandler(authService, cfg.JWTSecret)
	profileHandler := NewProfileHandler(profileService)
	friendshipHandler := NewFriendshipHandler(friendshipService)
	restaurantHandler := NewRestaurantHandler(restaurantService)
	recommendationHandler := NewRecommendationHandler(recommendationService)
	notificationHandler := NewNotificationHandler(notificationService)
	searchHandler := NewSearchHandler(profileService, restaurantService)

	// API routes
	api := r.Group("/api/v1")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/request-otp", authHandler.RequestOTP)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/refresh-token", authHandler.RefreshToken)

			// Protected routes
			auth.GET("/me", authHandler.AuthMiddleware(), authHandler.GetMe)
		}

		// Profile routes
		profiles := api.Group("/profiles")
		{
			// Public routes
			profiles.GET("/user/:userID", profileHandler.GetProfileByUserID)
			profiles.GET("/username/:username", profileHandler.GetProfileByUsername)
			profiles.GET("/check-username/:username", profileHandler.CheckUsername)

			// Protected routes
			profiles.Use(authHandler.AuthMiddleware())
			{
				profiles.POST("", profileHandler.CreateProfile)
				profiles.GET("/me", profileHandler.GetMyProfile)
				profiles.PUT("/me", profileHandler.UpdateProfile)
				profiles.POST("/me/avatar", profileHandler.UploadAvatar)
				profiles.DELETE("/me", profileHandler.DeleteProfile)
			}
		}

		// Friendship routes
		friendships := api.Group("/friendships")
		{
			friendships.Use(authHandler.AuthMiddleware())
			{
				friendships.POST("/request", friendshipHandler.SendFriendRequest)
				friendships.GET("/friends", friendshipHandler.GetFriends)
				friendships.GET("/requests/incoming", friendshipHandler.GetIncomingRequests)
				friendships.GET("/requests/outgoing", friendshipHandler.GetOutgoingRequests)
				friendships.GET("/suggestions", friendshipHandler.GetSuggestions)
				friendships.GET("/status/:userID", friendshipHandler.GetRelationshipStatus)
				friendships.POST("/:id/accept", friendshipHandler.AcceptFriendRequest)
				friendships.POST("/:id/decline", friendshipHandler.DeclineFriendRequest)
				friendships.DELETE("/:id", friendshipHandler.RemoveFriend)
			}
		}

		// Restaurant routes
		restaurants := api.Group("/restaurants")
		{
			// Public routes
			// More specific routes must be registered before wildcard routes
			restaurants.GET("/nearby", restaurantHandler.GetNearby)
			restaurants.GET("", restaurantHandler.GetRestaurants)
			restaurants.GET("/:id", restaurantHandler.GetRestaurant)

			// Protected routes
			restaurants.Use(authHandler.AuthMiddleware())
			{
				restaurants.POST("", restaurantHandler.CreateRestaurant)
			}
		}

		// Recommendation routes
		recommendations := api.Group("/recommendations")
		{
			// Public routes
			recommendations.GET("/explore", recommendationHandler.GetExplore)
			recommendations.GET("/user/:userID", recommendationHandler.GetByUser)

			// Protected routes
			recommendations.Use(authHandler.AuthMiddleware())
			{
				recommendations.POST("", recommendationHandler.CreateRecommendation)
				recommendations.GET("/feed", recommendationHandler.GetFeed)
				recommendations.GET("/upvoted", recommendationHandler.GetMyUpvotes)
				recommendations.GET("/:id", recommendationHandler.GetRecommendation)
				recommendations.POST("/:id/upvote", recommendationHandler.Upvote)
				recommendations.DELETE("/:id/upvote", recommendationHandler.RemoveUpvote)
				recommendations.DELETE("/:id", recommendationHandler.DeleteRecommendation)
			}
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(authHandler.AuthMiddleware())
			{
				notifications.GET("", notificationHandler.GetNotifications)
				notifications.GET("/unread", notificationHandler.GetUnreadNotifications)
				notifications.GET("/unread/count", notificationHandler.GetUnreadCount)
				notifications.PUT("/:id/read", notificationHandler.MarkAsRead)
				notifications.PUT("/read-all", notificationHandler.MarkAllAsRead)
				notifications.DELETE("/:id", notificationHandler.DeleteNotification)
			}
		}

		// Combined search
		search := api.Group("/search")
		{
			search.Use(authHandler.AuthMiddleware())
			{
				search.GET("", searchHandler.Search)
			}
		}
	}

	// WebSocket route
	r.GET("/ws", func(c *gin.Context) {
		websocket.ServeWS(wsHub, cfg.JWTSecret).ServeHTTP(c.Writer, c.Request)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "host=" + cfg.PostgresHost +
			" port=" + cfg.PostgresPort +
			" user=" + cfg.PostgresUser +
			" password=" + cfg.PostgresPassword +
			" dbname=" + cfg.PostgresDB +
			" sslmode=" + cfg.PostgresSSLMode
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return db, nil
}

// ensureFriendshipPairIndex enforces at most one edge per unordered user
// pair. LEAST/GREATEST normalizes direction, so A->B and B->A collide on the
// same index entry and the second insert fails with a duplicate key error.
func ensureFriendshipPairIndex(db *gorm.DB) {
	query := `
		CREATE UNIQUE INDEX IF NOT EXISTS idx_friendships_pair
		ON friendships (
			LEAST(requester_id, recipient_id),
			GREATEST(requester_id, recipient_id)
		)
	`

	if err := db.Exec(query).Error; err != nil {
		panic("Failed to create friendship pair index: " + err.Error())
	}
}

// initRabbitMQWithRetry attempts to connect to RabbitMQ with exponential backoff retry
func initRabbitMQWithRetry(cfg *config.Config) *util.RabbitMQClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		rabbitMQ, err := util.NewRabbitMQClient(cfg)
		if err == nil {
			log.Printf("RabbitMQ connected successfully on attempt %d", attempt)
			return rabbitMQ
		}

		if attempt < maxRetries {
			// Calculate delay with exponential backoff
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to RabbitMQ after %d attempts: %v. Emails and push notifications will be disabled.", maxRetries, err)
		}
	}

	return nil
}

// initRedisWithRetry attempts to connect to Redis with exponential backoff retry
func initRedisWithRetry(cfg *config.Config) *util.RedisClient {
	maxRetries := 10
	initialDelay := 2 * time.Second
	maxDelay := 30 * time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		redisClient, err := util.NewRedisClient(cfg)
		if err == nil {
			log.Printf("Redis connected successfully on attempt %d", attempt)
			return redisClient
		}

		if attempt < maxRetries {
			// Calculate delay with exponential backoff
			delay := initialDelay * time.Duration(1<<uint(attempt-1))
			if delay > maxDelay {
				delay = maxDelay
			}

			log.Printf("Failed to connect to Redis (attempt %d/%d): %v. Retrying in %v...", attempt, maxRetries, err, delay)
			time.Sleep(delay)
		} else {
			log.Printf("Warning: Failed to connect to Redis after %d attempts: %v. Caching will be disabled.", maxRetries, err)
			log.Println("Note: Application will continue without Redis caching")
		}
	}

	return nil
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	// Allowed origins (whitelist)
	allowedOrigins := []string{
		clientURL, // Default from config
		"http://localhost:3000",
		"https://umamii.app",
		"https://www.umamii.app",
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is in whitelist
		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin {
				allowed = true
				break
			}
		}

		// If origin is allowed, set it; otherwise, use default
		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", clientURL)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
