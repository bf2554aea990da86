package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Shigyn/airdrop-bot-sub000/internal/models"
	"github.com/shopspring/decimal"
)

type Sheets struct {
	Users        string
	Tasks        string
	Transactions string
	Referrals    string
}

func DefaultSheets() Sheets {
	return Sheets{
		Users:        "Users",
		Tasks:        "Tasks",
		Transactions: "Transactions",
		Referrals:    "Referrals",
	}
}

// Store is the typed view over the four row tables.
type Store struct {
	log          *slog.Logger
	backend      Backend
	users        *Schema
	tasks        *Schema
	transactions *Schema
	referrals    *Schema
}

func New(log *slog.Logger, backend Backend, sheets Sheets) *Store {
	return &Store{
		log:          log,
		backend:      backend,
		users:        NewSchema(sheets.Users, userColumns, ColUserID),
		tasks:        NewSchema(sheets.Tasks, taskColumns, ColTaskID),
		transactions: NewSchema(sheets.Transactions, transactionColumns, ColUserID, ColKind),
		referrals:    NewSchema(sheets.Referrals, referralColumns, ColReferrerCode, ColRefereeID),
	}
}

// Init validates every table header, creating headers on empty tables.
func (s *Store) Init(ctx context.Context) error {
	for _, schema := range []*Schema{s.users, s.tasks, s.transactions, s.referrals} {
		if err := schema.Ensure(ctx, s.backend); err != nil {
			return err
		}
	}
	return nil
}

// UserRow is a user with its data row index, needed to rewrite the row.
type UserRow struct {
	Index int
	User  models.User
}

func (s *Store) Users(ctx context.Context) ([]UserRow, error) {
	var out []UserRow
	err := s.scan(ctx, s.users, func(index int, rec Record) {
		out = append(out, UserRow{Index: index, User: decodeUser(rec)})
	})
	return out, err
}

func (s *Store) FindUser(ctx context.Context, userID string) (UserRow, error) {
	rows, err := s.Users(ctx)
	if err != nil {
		return UserRow{}, err
	}
	for _, r := range rows {
		if r.User.ID == userID {
			return r, nil
		}
	}
	return UserRow{}, fmt.Errorf("%w: %s", models.ErrUserNotFound, userID)
}

func (s *Store) FindUserByReferralCode(ctx context.Context, code string) (UserRow, error) {
	rows, err := s.Users(ctx)
	if err != nil {
		return UserRow{}, err
	}
	for _, r := range rows {
		if r.User.ReferralCode == code {
			return r, nil
		}
	}
	return UserRow{}, fmt.Errorf("%w: referral code %s", models.ErrUserNotFound, code)
}

func (s *Store) AppendUser(ctx context.Context, u models.User) error {
	return s.append(ctx, s.users, encodeUser(s.users, u))
}

func (s *Store) UpdateUser(ctx context.Context, index int, u models.User) error {
	if err := s.backend.UpdateRow(ctx, s.users.Sheet, index, encodeUser(s.users, u)); err != nil {
		return fmt.Errorf("%w: update %s row %d: %v", models.ErrStoreUnavailable, s.users.Sheet, index, err)
	}
	return nil
}

func (s *Store) Tasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := s.scan(ctx, s.tasks, func(_ int, rec Record) {
		out = append(out, models.Task{
			ID:          rec.Get(ColTaskID),
			Description: rec.Get(ColDescription),
			Reward:      models.ParseAmount(rec.Get(ColReward)),
			Status:      models.TaskStatus(strings.ToUpper(rec.Get(ColStatus))),
		})
	})
	return out, err
}

func (s *Store) AppendTask(ctx context.Context, t models.Task) error {
	return s.append(ctx, s.tasks, s.tasks.Encode(map[string]string{
		ColTaskID:      t.ID,
		ColDescription: t.Description,
		ColReward:      t.Reward.String(),
		ColStatus:      string(t.Status),
	}))
}

func (s *Store) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var out []models.Transaction
	err := s.scan(ctx, s.transactions, func(_ int, rec Record) {
		out = append(out, models.Transaction{
			ID:        rec.Get(ColTxID),
			CreatedAt: models.ParseTime(rec.Get(ColTimestamp)),
			UserID:    rec.Get(ColUserID),
			Kind:      models.TransactionKind(strings.ToLower(rec.Get(ColKind))),
			Reference: rec.Get(ColReference),
			Reward:    models.ParseAmount(rec.Get(ColReward)),
			State:     models.TransactionState(strings.ToUpper(rec.Get(ColState))),
		})
	})
	return out, err
}

func (s *Store) UserTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	txs, err := s.Transactions(ctx)
	if err != nil {
		return nil, err
	}
	out := txs[:0]
	for _, tx := range txs {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	return s.append(ctx, s.transactions, s.transactions.Encode(map[string]string{
		ColTxID:      tx.ID,
		ColTimestamp: models.FormatTime(tx.CreatedAt),
		ColUserID:    tx.UserID,
		ColKind:      string(tx.Kind),
		ColReference: tx.Reference,
		ColReward:    tx.Reward.String(),
		ColState:     string(tx.State),
	}))
}

func (s *Store) Referrals(ctx context.Context) ([]models.Referral, error) {
	var out []models.Referral
	err := s.scan(ctx, s.referrals, func(_ int, rec Record) {
		out = append(out, models.Referral{
			ReferrerCode:    rec.Get(ColReferrerCode),
			Reward:          models.ParseAmount(rec.Get(ColReward)),
			RefereeID:       rec.Get(ColRefereeID),
			RefereeUsername: rec.Get(ColRefereeUsername),
			Date:            models.ParseTime(rec.Get(ColDate)),
		})
	})
	return out, err
}

func (s *Store) AppendReferral(ctx context.Context, r models.Referral) error {
	return s.append(ctx, s.referrals, s.referrals.Encode(map[string]string{
		ColReferrerCode:    r.ReferrerCode,
		ColReward:          r.Reward.String(),
		ColRefereeID:       r.RefereeID,
		ColRefereeUsername: r.RefereeUsername,
		ColDate:            models.FormatTime(r.Date),
	}))
}

// scan decodes every non-blank data row. The header is checked on each read.
// Rows missing a key column are skipped.
func (s *Store) scan(ctx context.Context, schema *Schema, fn func(index int, rec Record)) error {
	rows, err := s.backend.ReadRows(ctx, schema.Sheet)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", models.ErrStoreUnavailable, schema.Sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := schema.CheckHeader(rows[0]); err != nil {
		return err
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rec, err := schema.Decode(i+2, row)
		if err != nil {
			s.log.Warn("skipping row", slog.String("sheet", schema.Sheet), slog.String("error", err.Error()))
			continue
		}
		fn(i, rec)
	}

	return nil
}

func (s *Store) append(ctx context.Context, schema *Schema, row []string) error {
	if err := s.backend.AppendRow(ctx, schema.Sheet, row); err != nil {
		return fmt.Errorf("%w: append %s: %v", models.ErrStoreUnavailable, schema.Sheet, err)
	}
	return nil
}

func decodeUser(rec Record) models.User {
	u := models.User{
		ID:           rec.Get(ColUserID),
		Username:     rec.Get(ColUsername),
		Balance:      models.ParseAmount(rec.Get(ColBalance)),
		ReferralCode: rec.Get(ColReferralCode),
	}

	if at := models.ParseTime(rec.Get(ColLastClaim)); !at.IsZero() {
		u.LastClaimAt = &at
	}

	if raw := rec.Get(ColMiningSpeed); raw != "" {
		u.MiningSpeed = decimal.NewNullDecimal(models.ParseAmount(raw))
	}

	if u.ReferralCode == "" {
		u.ReferralCode = models.ReferralCodeFor(u.ID)
	}

	return u
}

func encodeUser(schema *Schema, u models.User) []string {
	values := map[string]string{
		ColUserID:       u.ID,
		ColUsername:     u.Username,
		ColBalance:      u.Balance.String(),
		ColReferralCode: u.ReferralCode,
	}
	if u.MiningSpeed.Valid {
		values[ColMiningSpeed] = u.MiningSpeed.Decimal.String()
	}
	if u.LastClaimAt != nil {
		values[ColLastClaim] = models.FormatTime(*u.LastClaimAt)
	}
	return schema.Encode(values)
}
