package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/Shigyn/airdrop-bot-sub000/internal/store"
	"github.com/shopspring/decimal"
)

// ReferralNotifier tells a referrer that a referral was credited.
type ReferralNotifier interface {
	NotifyReferral(ctx context.Context, referrer, referee models.User, reward decimal.Decimal) error
}

type UserService struct {
	log            *slog.Logger
	store          *store.Store
	locker         Locker
	broadcaster    Broadcaster
	notifier       ReferralNotifier
	referralReward decimal.Decimal
	now            func() time.Time
}

func NewUserService(
	log *slog.Logger,
	st *store.Store,
	locker Locker,
	broadcaster Broadcaster,
	notifier ReferralNotifier,
	referralReward decimal.Decimal,
) *UserService {
	return &UserService{
		log:            log,
		store:          st,
		locker:         locker,
		broadcaster:    orNop(broadcaster),
		notifier:       notifier,
		referralReward: referralReward,
		now:            time.Now,
	}
}

func (s *UserService) SetClock(now func() time.Time) {
	s.now = now
}

// Register makes sure the Telegram user has a Users row. On first sight a
// start parameter holding another user's referral code credits that user.
func (s *UserService) Register(ctx context.Context, tg models.TelegramUser, startParam string) (models.User, bool, error) {
	const op = "services.UserService.Register"

	userID := strconv.FormatInt(tg.ID, 10)
	log := s.log.With(slog.String("op", op), slog.String("user_id", userID))

	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()

	row, err := s.store.FindUser(ctx, userID)
	if err == nil {
		if name := tg.DisplayName(); name != "" && name != row.User.Username {
			row.User.Username = name
			if err := s.store.UpdateUser(ctx, row.Index, row.User); err != nil {
				log.Warn("failed to update username", slog.String("error", err.Error()))
			}
		}
		return row.User, false, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return models.User{}, false, err
	}

	user := models.User{
		ID:           userID,
		Username:     tg.DisplayName(),
		Balance:      decimal.Zero,
		ReferralCode: models.ReferralCodeFor(userID),
	}
	if err := s.store.AppendUser(ctx, user); err != nil {
		return models.User{}, false, err
	}
	log.Info("user registered")

	if code := models.NormalizeReferralCode(startParam); code != "" && code != user.ReferralCode {
		if err := s.creditReferrer(ctx, code, user); err != nil {
			log.Error("failed to credit referrer", slog.String("code", code), slog.String("error", err.Error()))
		}
	}

	return user, true, nil
}

func (s *UserService) creditReferrer(ctx context.Context, code string, referee models.User) error {
	log := s.log.With(slog.String("op", "services.UserService.creditReferrer"), slog.String("code", code))

	referrer, err := s.store.FindUserByReferralCode(ctx, code)
	if errors.Is(err, models.ErrUserNotFound) {
		log.Info("unknown referral code")
		return nil
	}
	if err != nil {
		return err
	}

	referrals, err := s.store.Referrals(ctx)
	if err != nil {
		return err
	}
	for _, r := range referrals {
		if r.RefereeID == referee.ID {
			log.Info("user already referred", slog.String("referee_id", referee.ID))
			return nil
		}
	}

	now := s.now().UTC()
	if err := s.store.AppendReferral(ctx, models.Referral{
		ReferrerCode:    code,
		Reward:          s.referralReward,
		RefereeID:       referee.ID,
		RefereeUsername: referee.Username,
		Date:            now,
	}); err != nil {
		return err
	}

	if err := s.store.AppendTransaction(ctx, models.Transaction{
		ID:        models.GenerateTransactionID(),
		CreatedAt: now,
		UserID:    referrer.User.ID,
		Kind:      models.TransactionKindReferral,
		Reference: referee.ID,
		Reward:    s.referralReward,
		State:     models.TransactionStateCredited,
	}); err != nil {
		return err
	}

	log.Info("referral credited",
		slog.String("referrer_id", referrer.User.ID),
		slog.String("referee_id", referee.ID))

	if balance, err := s.Balance(ctx, referrer.User.ID); err == nil {
		s.broadcaster.BroadcastBalance(referrer.User.ID, balance)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyReferral(ctx, referrer.User, referee, s.referralReward); err != nil {
			log.Warn("failed to notify referrer", slog.String("error", err.Error()))
		}
	}

	return nil
}

// Balance is the sum of the user's transaction rewards.
func (s *UserService) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return models.BuildLedger(userID, txs).Balance, nil
}

// Profile returns the user with balance and last claim taken from the log
// rather than the cached columns.
func (s *UserService) Profile(ctx context.Context, userID string) (models.User, error) {
	row, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	ledger := models.BuildLedger(userID, txs)
	user := row.User
	user.Balance = ledger.Balance
	user.LastClaimAt = ledger.LastClaimAt

	return user, nil
}

// Reconcile rewrites the cached balance and last claim columns of every user
// whose row drifted from the log. Each rewrite happens under the user lock on
// a fresh read of the row. It returns the number of rows rewritten.
func (s *UserService) Reconcile(ctx context.Context) (int, error) {
	const op = "services.UserService.Reconcile"
	log := s.log.With(slog.String("op", op))

	users, err := s.store.Users(ctx)
	if err != nil {
		return 0, err
	}

	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return 0, err
	}

	byUser := make(map[string][]models.Transaction)
	for _, tx := range txs {
		byUser[tx.UserID] = append(byUser[tx.UserID], tx)
	}

	updated := 0
	var errs []error
	for _, row := range users {
		if !drifted(row.User, models.BuildLedger(row.User.ID, byUser[row.User.ID])) {
			continue
		}

		ok, err := s.reconcileUser(ctx, row.User.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			updated++
		}
	}

	if updated > 0 {
		log.Info("user projections reconciled", slog.Int("updated", updated))
	}

	return updated, errors.Join(errs...)
}

func (s *UserService) reconcileUser(ctx context.Context, userID string) (bool, error) {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return false, fmt.Errorf("failed to lock user %s: %w", userID, err)
	}
	defer unlock()

	row, err := s.store.FindUser(ctx, userID)
	if err != nil {
		return false, err
	}

	txs, err := s.store.UserTransactions(ctx, userID)
	if err != nil {
		return false, err
	}

	ledger := models.BuildLedger(userID, txs)
	if !drifted(row.User, ledger) {
		return false, nil
	}

	user := row.User
	user.Balance = ledger.Balance
	user.LastClaimAt = ledger.LastClaimAt
	if err := s.store.UpdateUser(ctx, row.Index, user); err != nil {
		return false, err
	}

	return true, nil
}

func drifted(u models.User, ledger models.Ledger) bool {
	return !u.Balance.Equal(ledger.Balance) || !sameInstant(u.LastClaimAt, ledger.LastClaimAt)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
