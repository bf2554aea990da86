package services

import (
	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/shopspring/decimal"
)

type Broadcaster interface {
	BroadcastBalance(userID string, balance decimal.Decimal)
	BroadcastClaimStatus(userID string, status models.ClaimStatus)
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastBalance(string, decimal.Decimal) {}
func (nopBroadcaster) BroadcastClaimStatus(string, models.ClaimStatus) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}
