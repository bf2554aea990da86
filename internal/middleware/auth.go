package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

const (
	ContextUserID    = "user_id"
	ContextSessionID = "session_id"
)

type TokenValidator interface {
	ValidateToken(token string) (*services.Claims, error)
}

// SessionChecker reports whether a session is still live. Logout deletes it.
type SessionChecker interface {
	SessionExists(ctx context.Context, userID, sessionID string) (bool, error)
}

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, userID, action string, limit int, window time.Duration) (bool, error)
}

// AuthMiddleware accepts a Bearer token or, for websocket upgrades, a token
// query parameter. sessions may be nil.
func AuthMiddleware(tokens TokenValidator, sessions SessionChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid authorization format"})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
			if tokenString == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Authorization header required"})
				return
			}
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid or expired token"})
			return
		}

		if sessions != nil {
			ok, err := sessions.SessionExists(c.Request.Context(), claims.UserID, claims.SessionID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Session store unavailable"})
				return
			}
			if !ok {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Session expired or invalid"})
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextSessionID, claims.SessionID)

		c.Next()
	}
}

// RateLimitMiddleware caps mutations per user and action. It must run after
// AuthMiddleware. A limiter failure lets the request through.
func RateLimitMiddleware(limiter RateLimiter, action string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" || limiter == nil {
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), userID, action, limit, window)
		if err == nil && !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			return
		}

		c.Next()
	}
}

// CORS allows the mini-app origin. An empty origin allows any.
func CORS(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Telegram-Init-Data")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
