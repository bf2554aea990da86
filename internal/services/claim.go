package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
)

type ClaimService struct {
	log         *slog.Logger
	store       *store.Store
	locker      Locker
	policy      RewardPolicy
	broadcaster Broadcaster
	now         func() time.Time
}

func NewClaimService(log *slog.Logger, st *store.Store, locker Locker, policy RewardPolicy, broadcaster Broadcaster) *ClaimService {
	return &ClaimService{
		log:         log,
		store:       st,
		locker:      locker,
		policy:      policy,
		broadcaster: orNop(broadcaster),
		now:         time.Now,
	}
}

// SetClock replaces the time source.
func (s *ClaimService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ClaimService) Policy() RewardPolicy {
	return s.policy
}

// Status evaluates the claim state without recording anything.
func (s *ClaimService) Status(ctx context.Context, userID string) (models.ClaimStatus, error) {
	user, ledger, err := s.load(ctx, userID)
	if err != nil {
		return models.ClaimStatus{}, err
	}

	return s.policy.Evaluate(s.now(), user, ledger.LastClaimAt, nil), nil
}

// Claim records a reward transaction when the policy allows it. Claims of one
// user are serialized so concurrent calls cannot both pass the check.
func (s *ClaimService) Claim(ctx context.Context, userID string, requestedMinutes *int) (*models.ClaimResult, error) {
	const op = "services.ClaimService.Claim"
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()

	user, ledger, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	status := s.policy.Evaluate(now, user, ledger.LastClaimAt, requestedMinutes)
	if !status.Allowed() {
		log.Info("claim rejected", slog.Duration("remaining", status.Remaining))
		return nil, &models.ClaimNotReadyError{Remaining: status.Remaining}
	}

	tx := models.Transaction{
		ID:        models.GenerateTransactionID(),
		CreatedAt: now,
		UserID:    userID,
		Kind:      models.TransactionKindClaim,
		Reference: string(status.Type),
		Reward:    status.Reward,
		State:     models.TransactionStateCredited,
	}
	if err := s.store.AppendTransaction(ctx, tx); err != nil {
		log.Error("failed to record claim", slog.String("error", err.Error()))
		return nil, err
	}

	balance := ledger.Balance.Add(tx.Reward)
	log.Info("claim recorded",
		slog.String("type", tx.Reference),
		slog.String("reward", tx.Reward.String()),
		slog.String("balance", balance.String()))

	s.broadcaster.BroadcastBalance(userID, balance)
	s.broadcaster.BroadcastClaimStatus(userID, s.policy.Evaluate(now, user, &now, nil))

	return &models.ClaimResult{
		TransactionID: tx.ID,
		Type:          status.Type,
		Reward:        tx.Reward,
		ClaimedAt:     now,
		Balance:       balance,
	}, nil
}

func (s *ClaimService) load(ctx context.Context, userID string) (models.User, models.Ledger, error) {
	row, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return models.User{}, models.Ledger{}, err
	}

	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return models.User{}, models.Ledger{}, err
	}

	return row.User, models.BuildLedger(userID, txs), nil
}
