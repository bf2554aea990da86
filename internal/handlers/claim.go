package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

type ClaimHandler struct {
	claims *services.ClaimService
}

func NewClaimHandler(claims *services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claims: claims}
}

func (h *ClaimHandler) Claim(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)

	var req models.ClaimRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if req.UserID != "" && req.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Cannot claim for another user"})
		return
	}
	if req.Minutes != nil && *req.Minutes < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Minutes must not be negative"})
		return
	}

	result, err := h.claims.Claim(c.Request.Context(), userID, req.Minutes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        fmt.Sprintf("Claimed %s tokens", result.Reward),
		"reward":         result.Reward,
		"type":           result.Type,
		"balance":        result.Balance,
		"transaction_id": result.TransactionID,
	})
}

func (h *ClaimHandler) Status(c *gin.Context) {
	status, err := h.claims.Status(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"policy":          h.claims.Policy().Name(),
		"state":           status.State,
		"canClaim":        status.Allowed(),
		"reward":          status.Reward,
		"remaining":       status.RemainingMillis(),
		"last_claim_time": status.LastClaimAt,
	})
}
