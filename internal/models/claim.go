package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimState string

const (
	ClaimStateReadyFull    ClaimState = "READY_FULL"
	ClaimStateReadyPartial ClaimState = "READY_PARTIAL"
	ClaimStateCoolingDown  ClaimState = "COOLING_DOWN"
)

// ClaimType is written to the reference column of claim transactions.
type ClaimType string

const (
	ClaimTypeFull    ClaimType = "full"
	ClaimTypePartial ClaimType = "partial"
	ClaimTypeSession ClaimType = "session"
)

// ClaimStatus is the derived claim state of one user at one instant.
type ClaimStatus struct {
	State       ClaimState      `json:"state"`
	Type        ClaimType       `json:"type,omitempty"`
	Reward      decimal.Decimal `json:"reward"`
	Elapsed     time.Duration   `json:"-"`
	Remaining   time.Duration   `json:"-"`
	LastClaimAt *time.Time      `json:"last_claim_time,omitempty"`
}

func (s ClaimStatus) Allowed() bool {
	return s.State != ClaimStateCoolingDown
}

// RemainingMillis is the wait shown by the front end while cooling down.
func (s ClaimStatus) RemainingMillis() int64 {
	return s.Remaining.Milliseconds()
}

type ClaimRequest struct {
	UserID  string `json:"userId"`
	Minutes *int   `json:"minutes,omitempty"`
}

type ClaimResult struct {
	TransactionID string          `json:"transaction_id"`
	Type          ClaimType       `json:"type"`
	Reward        decimal.Decimal `json:"reward"`
	ClaimedAt     time.Time       `json:"claimed_at"`
	Balance       decimal.Decimal `json:"balance"`
}
