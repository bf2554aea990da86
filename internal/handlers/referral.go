package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Shigyn/airdrop-bot-sub000/internal/middleware"
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/services"
)

type ReferralHandler struct {
	referrals *services.ReferralService
}

func NewReferralHandler(referrals *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// GetReferrals lists the referrals of the authenticated user.
func (h *ReferralHandler) GetReferrals(c *gin.Context) {
	summary, err := h.referrals.SummaryForUser(c.Request.Context(), c.GetString(middleware.ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	referrals := make([]gin.H, 0, len(summary.Referrals))
	for _, r := range summary.Referrals {
		referrals = append(referrals, gin.H{
			"username": r.Username,
			"date":     r.Date,
			"reward":   r.Reward,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"referralCode":  summary.ReferralCode,
		"referralCount": summary.ReferralsCount,
		"earnedTokens":  summary.PointsEarned,
		"referrals":     referrals,
	})
}

func (h *ReferralHandler) GetByCode(c *gin.Context) {
	code := models.NormalizeReferralCode(c.Param("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Referral code required"})
		return
	}

	summary, err := h.referrals.Summary(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
