package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

const HeaderInitData = "X-Telegram-Init-Data"

// SessionStore keeps login sessions. *services.RedisService implements it.
type SessionStore interface {
	StoreUserSession(ctx context.Context, session *models.UserSession, expiry time.Duration) error
	GetUserSession(ctx context.Context, userID, sessionID string) (*models.UserSession, error)
	DeleteUserSession(ctx context.Context, userID, sessionID string) error
}

type AuthHandler struct {
	log      *slog.Logger
	users    *services.UserService
	sessions SessionStore
	jwt      *services.JWTService
	botToken string
	maxAge   time.Duration
	now      func() time.Time
}

func NewAuthHandler(log *slog.Logger, users *services.UserService, sessions SessionStore, jwt *services.JWTService, botToken string, maxAge time.Duration) *AuthHandler {
	return &AuthHandler{
		log:      log,
		users:    users,
		sessions: sessions,
		jwt:      jwt,
		botToken: botToken,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Authenticate exchanges signed mini-app init data for a session token.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	const op = "handlers.AuthHandler.Authenticate"
	log := h.log.With(slog.String("op", op))

	raw := c.GetHeader(HeaderInitData)
	if raw == "" {
		raw = c.Query("initData")
	}
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Init data required"})
		return
	}

	data, err := services.ValidateInitData(raw, h.botToken, h.maxAge, h.now())
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, services.ErrInitDataExpired) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"success": false, "error": "Invalid init data", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	user, created, err := h.users.Register(ctx, data.User, data.StartParam)
	if err != nil {
		log.Error("failed to register user", slog.Int64("telegram_id", data.User.ID), slog.String("error", err.Error()))
		respondError(c, err)
		return
	}

	now := h.now()
	session := &models.UserSession{
		UserID:       user.ID,
		SessionID:    models.GenerateSessionID(),
		TelegramUser: data.User,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if err := h.sessions.StoreUserSession(ctx, session, h.jwt.TTL()); err != nil {
		log.Error("failed to store session", slog.String("user_id", user.ID), slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Failed to create session"})
		return
	}

	token, expiresAt, err := h.jwt.GenerateToken(user.ID, session.SessionID)
	if err != nil {
		log.Error("failed to sign token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"token":      token,
		"expires_at": expiresAt,
		"created":    created,
		"user": gin.H{
			"user_id":       user.ID,
			"telegram_id":   strconv.FormatInt(data.User.ID, 10),
			"username":      user.Username,
			"referral_code": user.ReferralCode,
		},
	})
}
