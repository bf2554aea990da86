package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string              `json:"user_id"`
	Username     string              `json:"username"`
	Balance      decimal.Decimal     `json:"balance"`
	LastClaimAt  *time.Time          `json:"last_claim_time,omitempty"`
	ReferralCode string              `json:"referral_code"`
	MiningSpeed  decimal.NullDecimal `json:"mining_speed"`
}

// TelegramUser is the user object embedded in mini-app init data.
type TelegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
	PhotoURL     string `json:"photo_url,omitempty"`
}

// DisplayName prefers the @username and falls back to the first name.
func (u TelegramUser) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}

type UserSession struct {
	UserID       string       `json:"user_id"`
	SessionID    string       `json:"session_id"`
	TelegramUser TelegramUser `json:"telegram_user"`
	CreatedAt    time.Time    `json:"created_at"`
	LastAccessed time.Time    `json:"last_accessed"`
}
