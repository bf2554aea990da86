package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

type Router struct {
	Auth      *AuthHandler
	User      *UserHandler
	Claim     *ClaimHandler
	Task      *TaskHandler
	Referral  *ReferralHandler
	WebSocket *WebSocketHandler

	Tokens   middleware.TokenValidator
	Sessions middleware.SessionChecker
	Limiter  middleware.RateLimiter

	AllowedOrigin string
	ClaimLimit    int
	TaskLimit     int
}

// Engine builds the gin engine with every route of the mini-app.
func (r *Router) Engine() *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS(r.AllowedOrigin))

	router.GET("/health", Health)
	router.GET("/auth/telegram", r.Auth.Authenticate)
	router.GET("/referral/:code", r.Referral.GetByCode)

	auth := middleware.AuthMiddleware(r.Tokens, r.Sessions)

	claimLimit := r.ClaimLimit
	if claimLimit <= 0 {
		claimLimit = services.DefaultRateLimitClaims
	}
	taskLimit := r.TaskLimit
	if taskLimit <= 0 {
		taskLimit = services.DefaultRateLimitTasks
	}

	app := router.Group("/")
	app.Use(auth)
	{
		app.POST("/claim", middleware.RateLimitMiddleware(r.Limiter, "claim", claimLimit, time.Minute), r.Claim.Claim)
		app.GET("/claim/status", r.Claim.Status)
		app.GET("/tasks", r.Task.List)
		app.POST("/complete-task", middleware.RateLimitMiddleware(r.Limiter, "task", taskLimit, time.Minute), r.Task.Complete)
		app.GET("/get-referrals", r.Referral.GetReferrals)
	}

	protected := router.Group("/api")
	protected.Use(auth)
	{
		protected.GET("/me", r.User.GetCurrentUser)
		protected.POST("/logout", r.User.Logout)
		protected.GET("/user-data", r.User.GetUserData)

		if r.WebSocket != nil {
			protected.GET("/ws", r.WebSocket.HandleWebSocket)
		}
	}

	return router
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
