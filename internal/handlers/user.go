package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

type UserHandler struct {
	sessions SessionStore
	users    *services.UserService
}

func NewUserHandler(sessions SessionStore, users *services.UserService) *UserHandler {
	return &UserHandler{
		sessions: sessions,
		users:    users,
	}
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	sessionID := c.GetString(middleware.ContextSessionID)

	session, err := h.sessions.GetUserSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Session expired or invalid"})
		return
	}

	user, err := h.users.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    session.TelegramUser,
		"session": gin.H{
			"session_id":    session.SessionID,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
		"account": user,
	})
}

// GetUserData is the dashboard payload of the mini-app.
func (h *UserHandler) GetUserData(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"userId":       user.ID,
		"username":     user.Username,
		"balance":      user.Balance,
		"lastClaim":    user.LastClaimAt,
		"referralCode": user.ReferralCode,
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	sessionID := c.GetString(middleware.ContextSessionID)

	if err := h.sessions.DeleteUserSession(c.Request.Context(), userID, sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully logged out"})
}
