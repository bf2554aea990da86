package services

import (
	"context"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
)

// ReferralService is read-only: totals are recomputed from the Referrals
// table on every call.
type ReferralService struct {
	store *store.Store
}

func NewReferralService(st *store.Store) *ReferralService {
	return &ReferralService{store: st}
}

func (s *ReferralService) Summary(ctx context.Context, code string) (models.ReferralSummary, error) {
	rows, err := s.store.Referrals(ctx)
	if err != nil {
		return models.ReferralSummary{}, err
	}
	return models.AggregateReferrals(code, rows), nil
}

func (s *ReferralService) SummaryForUser(ctx context.Context, userID string) (models.ReferralSummary, error) {
	row, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return models.ReferralSummary{}, err
	}
	return s.Summary(ctx, row.User.ReferralCode)
}
