package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/photovault/backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// UploadRateLimit limits the number of asset uploads per user and day
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		// Only apply to upload endpoints
		if c.Request.Method != "POST" || !isUploadEndpoint(c.Request.URL.Path) {
			c.Next()
			return
		}

		// Get user ID from context (set by Auth middleware)
		userIDInterface, exists := c.Get("userID")
		if !exists {
			c.Next()
			return
		}

		userID, ok := userIDInterface.(uuid.UUID)
		if !ok {
			c.Next()
			return
		}

		// Rate limit key: upload_limit:{user_id}:{date}
		// Resets daily at midnight for predictable behavior
		today := time.Now().Format("2006-01-02")
		key := fmt.Sprintf("upload_limit:%s:%s", userID.String(), today)

		// Check current count
		count, err := redisClient.Get(ctx, key).Int()
		if err == redis.Nil {
			// First upload today, set with expiration until midnight
			now := time.Now()
			midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
			ttl := midnight.Sub(now)
			err = redisClient.Set(ctx, key, 1, ttl).Err()
			if err != nil {
				// Log error but don't block upload
				c.Next()
				return
			}
		} else if err != nil {
			// Redis error - don't block upload
			c.Next()
			return
		} else if count >= cfg.UploadMaxPerDay {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "upload_rate_limit_exceeded",
				"message":             "Too many uploads today. Please try again tomorrow.",
				"retry_after_hours":   int(ttl.Hours()),
				"uploads_today":       count,
				"max_uploads_per_day": cfg.UploadMaxPerDay,
			})
			c.Abort()
			return
		} else {
			// Increment counter
			redisClient.Incr(ctx, key)
		}

		c.Next()
	}
}

// isUploadEndpoint checks if the path is an upload endpoint
func isUploadEndpoint(path string) bool {
	return path == "/api/v1/assets"
}
