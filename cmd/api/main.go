package main

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/photovault/backend/internal/config"
	"github.com/photovault/backend/internal/handlers"
	"github.com/photovault/backend/internal/middleware"
	"github.com/photovault/backend/internal/models"
	"github.com/photovault/backend/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	// Initialize database
	db, err := models.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run migrations
	if err := models.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis
	redisClient := models.InitRedis(cfg)
	defer redisClient.Close()

	// Initialize stores and services
	albumStore := services.NewAlbumStore(db)
	assetStore := services.NewAssetStore(db)

	authService := services.NewAuthService(db, redisClient, cfg)
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(redisClient)
	albumService := services.NewAlbumService(albumStore, assetStore, userService, notificationService)
	storageService := services.NewStorageService(cfg)
	s3Service, err := services.NewS3Service(cfg)
	if err != nil {
		log.Fatalf("Failed to init S3 service: %v", err)
	}
	assetService := services.NewAssetService(db, cfg, s3Service, storageService, albumStore)
	shareLinkService := services.NewShareLinkService(db, cfg)
	qrService := services.NewQRService(cfg)

	// Optional: restore missing local originals from S3 on start
	if cfg.AssetSyncOnStart {
		go func() {
			log.Println("AssetSyncOnStart enabled: syncing missing originals...")
			keys, err := s3Service.ListKeys(context.Background(), "originals/", 1000)
			if err != nil {
				log.Printf("Originals sync list error: %v", err)
				return
			}
			for _, k := range keys {
				abs := filepath.Join(cfg.LocalAssetsPath, filepath.FromSlash(k))
				if _, err := os.Stat(abs); err == nil {
					continue
				}
				buf, derr := s3Service.DownloadOriginal(context.Background(), k)
				if derr != nil {
					continue
				}
				if _, _, _, err := storageService.SaveStream(context.Background(), k, bytes.NewReader(buf.Bytes())); err != nil {
					continue
				}
			}
			log.Println("AssetSyncOnStart: originals sync complete")
		}()
	}

	// Periodic sweep that re-derives asset visibility from hidden album
	// membership and repairs any drift
	if cfg.VisibilityAuditEnabled {
		go func() {
			// Initial delay to let the server start first
			time.Sleep(30 * time.Second)
			for {
				corrected, err := albumService.AuditHiddenVisibility(context.Background())
				if err != nil {
					log.Printf("Visibility audit error: %v", err)
				} else if corrected > 0 {
					log.Printf("Visibility audit: corrected %d assets", corrected)
				}
				time.Sleep(cfg.VisibilityAuditInterval)
			}
		}()
	}

	// Periodic cleanup of expired refresh tokens
	go func() {
		for {
			if err := authService.CleanupExpiredTokens(context.Background()); err != nil {
				log.Printf("Refresh token cleanup error: %v", err)
			}
			time.Sleep(1 * time.Hour)
		}
	}()

	// Setup Gin router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RateLimiter(redisClient, cfg))

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, userService)
	albumHandler := handlers.NewAlbumHandler(albumService, shareLinkService, qrService)
	assetHandler := handlers.NewAssetHandler(assetService, storageService)

	// Health check outside API group (no /api/v1 prefix)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Setup routes
	api := router.Group("/api/v1")
	{
		// Health check also available under /api/v1/health for compatibility
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		})

		// Catch-all OPTIONS handler for CORS preflight requests
		api.OPTIONS("/*path", func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})

		// Public routes
		public := api.Group("/public")
		{
			public.GET("/share/:code", albumHandler.PublicShare)
		}

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.Auth(authService), authHandler.Logout)
		}

		// User routes
		user := api.Group("/user")
		user.Use(middleware.Auth(authService))
		{
			user.GET("/profile", authHandler.GetProfile)
			user.PUT("/profile", authHandler.UpdateProfile)
		}

		// Album routes
		albums := api.Group("/albums")
		albums.Use(middleware.Auth(authService))
		{
			albums.POST("", albumHandler.Create)
			albums.GET("", albumHandler.List)
			albums.GET("/statistics", albumHandler.Statistics)
			// Batch add to several albums BEFORE generic :id routes
			albums.POST("/assets", albumHandler.AddToMany)
			albums.GET("/:id", albumHandler.Get)
			albums.PUT("/:id", albumHandler.Update)
			albums.DELETE("/:id", albumHandler.Delete)
			albums.POST("/:id/assets", albumHandler.AddAssets)
			albums.DELETE("/:id/assets", albumHandler.RemoveAssets)
			albums.POST("/:id/users", albumHandler.ShareUsers)
			albums.DELETE("/:id/users/:userId", albumHandler.RemoveUser)
			albums.PUT("/:id/users/:userId", albumHandler.UpdateUserRole)
			albums.POST("/:id/share-links", albumHandler.CreateShareLink)
			albums.GET("/:id/share-links", albumHandler.ListShareLinks)
			albums.DELETE("/:id/share-links/:linkId", albumHandler.RevokeShareLink)
			albums.GET("/:id/share-links/:linkId/qr.pdf", albumHandler.ShareLinkQRPDF)
		}

		// Asset routes
		assets := api.Group("/assets")
		assets.Use(middleware.Auth(authService))
		{
			// Upload with per-user daily rate limiting
			uploadGroup := assets.Group("")
			uploadGroup.Use(middleware.UploadRateLimit(redisClient, cfg))
			{
				uploadGroup.POST("", assetHandler.Upload)
			}

			assets.GET("/timeline", assetHandler.ListTimeline)
			assets.GET("/archived", assetHandler.ListArchived)
			assets.GET("/:id", assetHandler.Get)
			assets.GET("/:id/file", assetHandler.ServeFile)
			assets.GET("/:id/download", assetHandler.Download)
			assets.DELETE("/:id", assetHandler.Delete)
			assets.PUT("/:id/archive", assetHandler.Archive)
			assets.PUT("/:id/unarchive", assetHandler.Unarchive)
		}
	}

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  120 * time.Second, // 2 min for large uploads
		WriteTimeout: 120 * time.Second, // 2 min for large responses
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
