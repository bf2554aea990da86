package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Referral struct {
	ReferrerCode    string          `json:"referrer_code"`
	Reward          decimal.Decimal `json:"reward"`
	RefereeID       string          `json:"referee_id"`
	RefereeUsername string          `json:"referee_username"`
	Date            time.Time       `json:"date"`
}

type ReferralEntry struct {
	UserID   string          `json:"userId"`
	Username string          `json:"username"`
	Date     time.Time       `json:"date"`
	Reward   decimal.Decimal `json:"reward"`
}

type ReferralSummary struct {
	ReferralCode   string          `json:"referralCode"`
	ReferralsCount int             `json:"referralsCount"`
	PointsEarned   decimal.Decimal `json:"pointsEarned"`
	Referrals      []ReferralEntry `json:"referrals"`
}

// AggregateReferrals filters rows by exact code match and sums their rewards.
// Rows keep their append order.
func AggregateReferrals(code string, rows []Referral) ReferralSummary {
	summary := ReferralSummary{
		ReferralCode: code,
		PointsEarned: decimal.Zero,
		Referrals:    []ReferralEntry{},
	}

	for _, r := range rows {
		if r.ReferrerCode != code {
			continue
		}

		summary.ReferralsCount++
		summary.PointsEarned = summary.PointsEarned.Add(r.Reward)
		summary.Referrals = append(summary.Referrals, ReferralEntry{
			UserID:   r.RefereeID,
			Username: r.RefereeUsername,
			Date:     r.Date,
			Reward:   r.Reward,
		})
	}

	return summary
}
